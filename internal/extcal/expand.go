package extcal

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/log"
	"github.com/javiermolinar/gantry/internal/schedule"
)

const defaultMaxOccurrences = 5000

// Occurrence is one concrete instance of an event.
type Occurrence struct {
	ID       string // UID@original-start, stable across overrides
	SourceID string
	UID      string
	Summary  string
	Location string
	Range    schedule.TimeRange
}

// Entity returns the occurrence as a layout entity.
func (o *Occurrence) Entity() schedule.Entity {
	return schedule.Entity{
		ID:      o.ID,
		Source:  schedule.SourceExternal,
		Group:   o.SourceID,
		Range:   o.Range,
		Payload: o,
	}
}

// InstanceID builds the ID of the occurrence of uid that originally starts at start.
func InstanceID(uid string, start time.Time) string {
	return uid + "@" + start.Format(time.RFC3339)
}

// Expand turns events into occurrences overlapping [start, end).
// Series are expanded with their RRULE and EXDATEs; RECURRENCE-ID events
// replace the instance they name. Results are sorted by start then ID.
func Expand(events []Event, start, end time.Time, maxPerEvent int) ([]Occurrence, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("%w: expand window ends before it starts", schedule.ErrInvalidRange)
	}
	if maxPerEvent <= 0 {
		maxPerEvent = defaultMaxOccurrences
	}

	overrides := make(map[string]Event)
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[InstanceID(ev.UID, *ev.Recurrence)] = ev
		}
	}

	var out []Occurrence
	for _, ev := range events {
		if ev.IsOverride() {
			continue
		}
		starts, err := instanceStarts(ev, start, end, maxPerEvent)
		if err != nil {
			log.Error("expanding event", err, "uid", ev.UID, "rrule", ev.RawRRule)
			continue
		}
		for _, s := range starts {
			id := InstanceID(ev.UID, s)
			src, r := ev, instanceRange(ev, s)
			if o, ok := overrides[id]; ok {
				src, r = o, schedule.TimeRange{Start: o.Start, End: o.End, AllDay: o.AllDay}
			}
			if !visible(r, start, end) {
				continue
			}
			out = append(out, Occurrence{
				ID:       id,
				SourceID: ev.SourceID,
				UID:      ev.UID,
				Summary:  src.Summary,
				Location: src.Location,
				Range:    r,
			})
		}
	}

	slices.SortFunc(out, func(a, b Occurrence) int {
		if c := a.Range.Start.Compare(b.Range.Start); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out, nil
}

// instanceStarts returns the original start of every instance of ev that
// can overlap [start, end).
func instanceStarts(ev Event, start, end time.Time, limit int) ([]time.Time, error) {
	if ev.RawRRule == "" {
		return []time.Time{ev.Start}, nil
	}

	opt, err := rrule.StrToROptionInLocation(ev.RawRRule, ev.Start.Location())
	if err != nil {
		return nil, fmt.Errorf("parsing RRULE: %w", err)
	}
	opt.Dtstart = ev.Start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("building RRULE: %w", err)
	}

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// An instance starting before the window can still reach into it.
	span := ev.End.Sub(ev.Start)
	after := start.Add(-span).In(ev.Start.Location())
	starts := set.Between(after, end.In(ev.Start.Location()), true)
	if len(starts) > limit {
		log.Error("truncating occurrences", errors.New("max occurrences reached"), "uid", ev.UID, "cap", limit)
		starts = starts[:limit]
	}
	return starts, nil
}

// instanceRange places the shape of ev at s.
func instanceRange(ev Event, s time.Time) schedule.TimeRange {
	if ev.AllDay {
		days := max(dateutil.DaysBetween(ev.Start, ev.End), 1)
		first := dateutil.TruncateToDay(s)
		return schedule.TimeRange{Start: first, End: first.AddDate(0, 0, days), AllDay: true}
	}
	return schedule.TimeRange{Start: s, End: s.Add(ev.End.Sub(ev.Start))}
}

// visible reports whether r shares an instant with [start, end).
// Zero-length ranges count when their instant lies in the window.
func visible(r schedule.TimeRange, start, end time.Time) bool {
	if !r.Start.Before(end) {
		return false
	}
	if r.Start.Equal(r.End) {
		return !r.Start.Before(start)
	}
	return r.End.After(start)
}
