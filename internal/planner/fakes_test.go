package planner

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/javiermolinar/gantry/internal/schedule"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func project(id string, first, last time.Time) schedule.Entity {
	return schedule.Entity{ID: id, Source: schedule.SourceProject, Group: id, Range: schedule.NewAllDay(first, last)}
}

func task(id, projectID string, first, last time.Time) schedule.Entity {
	return schedule.Entity{ID: id, Source: schedule.SourceTask, Group: projectID, Range: schedule.NewAllDay(first, last)}
}

func event(id string, r schedule.TimeRange) schedule.Entity {
	return schedule.Entity{ID: id, Source: schedule.SourceExternal, Range: r}
}

// fakeStore is an in-memory TaskStore.
type fakeStore struct {
	mu        sync.Mutex
	entities  map[string]schedule.Entity
	order     []string
	updates   []string
	updateErr error
	listErr   error
}

func newFakeStore(entities ...schedule.Entity) *fakeStore {
	s := &fakeStore{entities: make(map[string]schedule.Entity)}
	for _, e := range entities {
		s.entities[e.ID] = e
		s.order = append(s.order, e.ID)
	}
	return s
}

func (s *fakeStore) List(_ context.Context, projectID string) ([]schedule.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []schedule.Entity
	for _, id := range s.order {
		e, ok := s.entities[id]
		if !ok {
			continue
		}
		if projectID == "" || e.Group == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) Get(_ context.Context, id string) (schedule.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return schedule.Entity{}, fmt.Errorf("%w: %s", schedule.ErrEntityNotFound, id)
	}
	return e, nil
}

func (s *fakeStore) Update(_ context.Context, id string, r schedule.TimeRange) (schedule.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates = append(s.updates, id)
	if s.updateErr != nil {
		return schedule.Entity{}, s.updateErr
	}
	e, ok := s.entities[id]
	if !ok {
		return schedule.Entity{}, fmt.Errorf("%w: %s", schedule.ErrEntityNotFound, id)
	}
	e.Range = r
	s.entities[id] = e
	return e, nil
}

func (s *fakeStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, id)
}

func (s *fakeStore) updateCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.updates)
}

// fakeEvents is an in-memory EventSource. When release is set, Update
// blocks until it is closed.
type fakeEvents struct {
	mu      sync.Mutex
	events  map[string]schedule.Entity
	allDay  map[string]bool
	release chan struct{}
	started chan string
}

func newFakeEvents(events ...schedule.Entity) *fakeEvents {
	f := &fakeEvents{
		events: make(map[string]schedule.Entity),
		allDay: make(map[string]bool),
	}
	for _, e := range events {
		f.events[e.ID] = e
	}
	return f
}

func (f *fakeEvents) List(_ context.Context, start, end time.Time) ([]schedule.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []schedule.Entity
	for _, e := range f.events {
		if e.Range.Start.Before(end) && !e.Range.End.Before(start) {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, func(a, b schedule.Entity) int { return a.Range.Start.Compare(b.Range.Start) })
	return out, nil
}

func (f *fakeEvents) Update(_ context.Context, id string, r schedule.TimeRange, allDay bool) (schedule.Entity, error) {
	if f.started != nil {
		f.started <- id
	}
	if f.release != nil {
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return schedule.Entity{}, fmt.Errorf("%w: %s", schedule.ErrEntityNotFound, id)
	}
	e.Range = r
	f.events[id] = e
	f.allDay[id] = allDay
	return e, nil
}

func (f *fakeEvents) get(id string) schedule.Entity {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[id]
}

type rejectAll struct{}

func (rejectAll) ValidateRange(schedule.TimeRange) error {
	return fmt.Errorf("outside working hours")
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.Now = func() time.Time { return at(2024, 3, 5, 10, 0) }
	return opts
}
