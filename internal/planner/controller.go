package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/log"
	"github.com/javiermolinar/gantry/internal/schedule"
)

// Controller errors.
var (
	ErrNoGesture       = errors.New("no gesture in progress")
	ErrGestureActive   = errors.New("a gesture is already in progress")
	ErrMutationTimeout = errors.New("mutation timed out")
)

// TaskStore is the source of tasks and projects.
type TaskStore interface {
	// List returns the tasks and projects of a project, or of every project
	// when projectID is empty.
	List(ctx context.Context, projectID string) ([]schedule.Entity, error)

	// Get returns a single entity. Missing IDs wrap schedule.ErrEntityNotFound.
	Get(ctx context.Context, id string) (schedule.Entity, error)

	// Update stores a new range for a task or project.
	Update(ctx context.Context, id string, r schedule.TimeRange) (schedule.Entity, error)
}

// EventSource is an external calendar.
type EventSource interface {
	List(ctx context.Context, start, end time.Time) ([]schedule.Entity, error)
	Update(ctx context.Context, id string, r schedule.TimeRange, allDay bool) (schedule.Entity, error)
}

// RangeValidator rejects ranges that break rules outside the layout engine,
// such as working hours.
type RangeValidator interface {
	ValidateRange(r schedule.TimeRange) error
}

// Metrics are the sizes, in pointer units, used to turn pointer deltas
// into time deltas.
type Metrics struct {
	DayCellWidth   float64 // Gantt cell at day scale
	WeekCellWidth  float64 // Gantt cell at week scale
	MonthCellWidth float64 // Gantt cell at month scale
	ColumnWidth    float64 // calendar day column
	RowHeight      float64 // month week row
	HourHeight     float64 // one hour in week/day views
}

// DefaultMetrics returns the sizes used when none are configured.
func DefaultMetrics() Metrics {
	return Metrics{
		DayCellWidth:   60,
		WeekCellWidth:  40,
		MonthCellWidth: 30,
		ColumnWidth:    120,
		RowHeight:      100,
		HourHeight:     48,
	}
}

// CellWidth returns the Gantt cell width at a scale.
func (m Metrics) CellWidth(s Scale) float64 {
	switch s {
	case ScaleWeek:
		return m.WeekCellWidth
	case ScaleMonth:
		return m.MonthCellWidth
	default:
		return m.DayCellWidth
	}
}

// Options configure a Controller.
type Options struct {
	FirstDay        time.Weekday
	Hours           schedule.HourAxis
	Snap            time.Duration // timed gesture step
	MinDuration     time.Duration // shortest timed range a resize may produce
	DefaultTimed    time.Duration // length of an all-day event dropped on the timed grid
	MutationTimeout time.Duration
	MaxPerDay       int // lanes shown per month cell; 0 shows all
	Metrics         Metrics

	Validator RangeValidator

	// OnReconcile is called when a mutation finishes after its timeout. The
	// caller should re-render. err is the late result.
	OnReconcile func(id string, err error)

	Now func() time.Time
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		FirstDay:        time.Monday,
		Hours:           schedule.DefaultHourAxis,
		Snap:            15 * time.Minute,
		MinDuration:     15 * time.Minute,
		DefaultTimed:    schedule.DefaultTimedDuration,
		MutationTimeout: 10 * time.Second,
		MaxPerDay:       3,
		Metrics:         DefaultMetrics(),
		Now:             time.Now,
	}
}

// Controller owns the view state of one schedule view.
//
// View transitions and rendering are meant to be driven from a single UI
// goroutine. Mutations started by EndGesture run on their own goroutine so
// a slow collaborator can be abandoned after MutationTimeout.
type Controller struct {
	tasks  TaskStore
	events EventSource // nil when no external calendars are configured
	opts   Options

	mu      sync.Mutex
	state   ViewState
	last    *RenderModel
	session *GestureSession

	inflightMu sync.Mutex
	inflight   map[string]bool
	pending    sync.WaitGroup
}

// New creates a Controller. events may be nil.
func New(tasks TaskStore, events EventSource, initial ViewState, opts Options) *Controller {
	def := DefaultOptions()
	if opts.Now == nil {
		opts.Now = def.Now
	}
	if opts.Hours.EndHour <= opts.Hours.StartHour {
		opts.Hours = def.Hours
	}
	if opts.Snap <= 0 {
		opts.Snap = def.Snap
	}
	if opts.DefaultTimed <= 0 {
		opts.DefaultTimed = def.DefaultTimed
	}
	if opts.MutationTimeout <= 0 {
		opts.MutationTimeout = def.MutationTimeout
	}
	if opts.Metrics == (Metrics{}) {
		opts.Metrics = def.Metrics
	}
	if initial.Anchor.IsZero() {
		initial.Anchor = opts.Now()
	}
	initial.Anchor = dateutil.TruncateToDay(initial.Anchor)

	return &Controller{
		tasks:    tasks,
		events:   events,
		opts:     opts,
		state:    initial.Clone(),
		inflight: make(map[string]bool),
	}
}

// Options returns the effective options.
func (c *Controller) Options() Options {
	return c.opts
}

// State returns a copy of the current view state.
func (c *Controller) State() ViewState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Range returns the rendered range of the current state.
func (c *Controller) Range() RenderedRange {
	return ComputeRange(c.State(), c.opts.FirstDay, c.opts.Hours)
}

// Navigate moves the view by delta steps: one month in month view, one
// week in week view, one day in day view, and the scale step on the Gantt
// chart.
func (c *Controller) Navigate(delta int) RenderedRange {
	return c.transition(func(s ViewState) ViewState { return s.Navigate(delta) })
}

// SetScale changes the Gantt scale.
func (c *Controller) SetScale(scale Scale) RenderedRange {
	return c.transition(func(s ViewState) ViewState {
		s.Scale = scale
		return s
	})
}

// SetMode switches between the Gantt chart and the calendar views.
func (c *Controller) SetMode(mode Mode) RenderedRange {
	return c.transition(func(s ViewState) ViewState {
		s.Mode = mode
		return s
	})
}

// JumpToToday moves the anchor to today.
func (c *Controller) JumpToToday() RenderedRange {
	today := dateutil.TruncateToDay(c.opts.Now())
	return c.transition(func(s ViewState) ViewState {
		s.Anchor = today
		return s
	})
}

// ToggleProject collapses or expands a project's tasks on the Gantt chart.
func (c *Controller) ToggleProject(id string) RenderedRange {
	return c.transition(func(s ViewState) ViewState { return s.ToggleProject(id) })
}

func (c *Controller) transition(fn func(ViewState) ViewState) RenderedRange {
	c.mu.Lock()
	c.state = fn(c.state.Clone())
	s := c.state.Clone()
	c.mu.Unlock()
	return ComputeRange(s, c.opts.FirstDay, c.opts.Hours)
}

// Render fetches the entities of the current range and lays them out.
// Collaborator data is treated as a snapshot and never modified.
func (c *Controller) Render(ctx context.Context) (*RenderModel, error) {
	s := c.State()
	rng := ComputeRange(s, c.opts.FirstDay, c.opts.Hours)

	entities, err := c.fetch(ctx, s, rng)
	if err != nil {
		return nil, err
	}

	model := layout(entities, s, rng, c.opts.MaxPerDay)

	c.mu.Lock()
	c.last = model
	c.mu.Unlock()
	return model, nil
}

// Last returns the most recent render, or nil.
func (c *Controller) Last() *RenderModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Controller) fetch(ctx context.Context, s ViewState, rng RenderedRange) ([]schedule.Entity, error) {
	stored, err := c.tasks.List(ctx, "")
	if err != nil {
		log.Error("listing tasks failed", err)
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	var external []schedule.Entity
	if s.Mode.Calendar() && c.events != nil {
		external, err = c.events.List(ctx, rng.Start, rng.End)
		if err != nil {
			log.Error("listing external events failed", err, "start", rng.Start, "end", rng.End)
			return nil, fmt.Errorf("listing external events: %w", err)
		}
	}

	out := make([]schedule.Entity, 0, len(stored)+len(external))
	for _, list := range [][]schedule.Entity{stored, external} {
		for _, e := range list {
			if err := e.Range.Validate(); err != nil {
				log.Debug("skipping entity with invalid range", "id", e.ID, "err", err)
				continue
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// Wait blocks until every abandoned mutation has returned.
func (c *Controller) Wait() {
	c.pending.Wait()
}

// Busy reports whether a mutation for id is still running.
func (c *Controller) Busy(id string) bool {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()
	return c.inflight[id]
}

// mutate sends the new range to the owning collaborator. The entity stays
// busy until the call really returns, even when it is abandoned after the
// timeout; a late result is handed to OnReconcile.
func (c *Controller) mutate(ctx context.Context, id string, source schedule.Source, r schedule.TimeRange) error {
	c.inflightMu.Lock()
	if c.inflight[id] {
		c.inflightMu.Unlock()
		return fmt.Errorf("%w: %s", schedule.ErrConcurrentGesture, id)
	}
	c.inflight[id] = true
	c.inflightMu.Unlock()

	var (
		mu        sync.Mutex
		abandoned bool
		done      = make(chan error, 1)
	)

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		err := c.dispatch(context.WithoutCancel(ctx), id, source, r)

		c.inflightMu.Lock()
		delete(c.inflight, id)
		c.inflightMu.Unlock()

		mu.Lock()
		if !abandoned {
			done <- err
			mu.Unlock()
			return
		}
		mu.Unlock()

		log.Info("late mutation result", "entity", id, "ok", err == nil)
		if c.opts.OnReconcile != nil {
			c.opts.OnReconcile(id, err)
		}
	}()

	timer := time.NewTimer(c.opts.MutationTimeout)
	defer timer.Stop()

	var err error
	select {
	case err = <-done:
	case <-timer.C:
		err = c.abandon(&mu, &abandoned, done, ErrMutationTimeout)
	case <-ctx.Done():
		err = c.abandon(&mu, &abandoned, done, ctx.Err())
	}

	if err != nil {
		if errors.Is(err, ErrMutationTimeout) {
			log.Error("mutation timed out", err, "entity", id, "timeout", c.opts.MutationTimeout)
		} else {
			log.Error("mutation failed", err, "entity", id)
		}
		return fmt.Errorf("%w: %w", schedule.ErrMutationFailed, err)
	}
	log.Debug("mutation stored", "entity", id, "range", r)
	return nil
}

// abandon marks a mutation as given up unless its result arrived in the
// meantime.
func (c *Controller) abandon(mu *sync.Mutex, abandoned *bool, done <-chan error, reason error) error {
	mu.Lock()
	defer mu.Unlock()
	select {
	case err := <-done:
		return err
	default:
	}
	*abandoned = true
	return reason
}

func (c *Controller) dispatch(ctx context.Context, id string, source schedule.Source, r schedule.TimeRange) error {
	if source == schedule.SourceExternal {
		if c.events == nil {
			return fmt.Errorf("no external calendar for %s: %w", id, schedule.ErrEntityNotFound)
		}
		_, err := c.events.Update(ctx, id, r, r.AllDay)
		return err
	}
	_, err := c.tasks.Update(ctx, id, r)
	return err
}
