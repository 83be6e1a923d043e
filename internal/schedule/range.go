// Package schedule implements the date-range layout engine shared by the
// Gantt, calendar and week/day views: positioning ranges on an axis,
// separating overlapping ranges into lanes and translating drag/resize
// gestures back into ranges.
package schedule

import (
	"fmt"
	"time"

	"github.com/javiermolinar/gantry/internal/dateutil"
)

// Day is the unit used for whole-day axes and all-day ranges.
const Day = 24 * time.Hour

// TimeRange is a half-open interval [Start, End).
// For all-day ranges both bounds are midnights and End is exclusive, so a
// single-day range has End = Start + 1 day.
type TimeRange struct {
	Start  time.Time
	End    time.Time
	AllDay bool
}

// NewAllDay returns the all-day range covering the dates first..last inclusive.
func NewAllDay(first, last time.Time) TimeRange {
	start := dateutil.TruncateToDay(first)
	end := dateutil.TruncateToDay(last).AddDate(0, 0, 1)
	if end.Before(start) {
		end = start.AddDate(0, 0, 1)
	}
	return TimeRange{Start: start, End: end, AllDay: true}
}

// NewTimed returns a timed range.
func NewTimed(start, end time.Time) TimeRange {
	return TimeRange{Start: start, End: end}
}

// Duration returns End - Start.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Days returns the number of calendar days an all-day range spans.
func (r TimeRange) Days() int {
	return dateutil.DaysBetween(r.Start, r.End)
}

// LastDay returns the last date covered by the range (inclusive).
func (r TimeRange) LastDay() time.Time {
	if r.AllDay {
		last := dateutil.TruncateToDay(r.End).AddDate(0, 0, -1)
		if last.Before(r.Start) {
			return dateutil.TruncateToDay(r.Start)
		}
		return last
	}
	if r.End.After(r.Start) && r.End.Equal(dateutil.TruncateToDay(r.End)) {
		return dateutil.TruncateToDay(r.End).AddDate(0, 0, -1)
	}
	return dateutil.TruncateToDay(r.End)
}

// Equal reports whether both ranges cover the same instants with the same kind.
func (r TimeRange) Equal(o TimeRange) bool {
	return r.AllDay == o.AllDay && r.Start.Equal(o.Start) && r.End.Equal(o.End)
}

// Overlaps reports whether the half-open ranges share at least one instant.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Validate returns ErrInvalidRange if End is before Start or, for all-day
// ranges, if a bound carries a time of day.
func (r TimeRange) Validate() error {
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidRange,
			r.End.Format(time.RFC3339), r.Start.Format(time.RFC3339))
	}
	if r.AllDay && (!r.Start.Equal(dateutil.TruncateToDay(r.Start)) || !r.End.Equal(dateutil.TruncateToDay(r.End))) {
		return fmt.Errorf("%w: all-day bounds must be midnights", ErrInvalidRange)
	}
	return nil
}

func (r TimeRange) String() string {
	if r.AllDay {
		return fmt.Sprintf("%s..%s (all-day)", r.Start.Format("2006-01-02"), r.LastDay().Format("2006-01-02"))
	}
	return fmt.Sprintf("%s..%s", r.Start.Format("2006-01-02 15:04"), r.End.Format("2006-01-02 15:04"))
}

// Source tags where an entity comes from.
type Source string

const (
	SourceTask     Source = "task"
	SourceProject  Source = "project"
	SourceExternal Source = "external-event"
)

// Entity is anything with a time range that can be laid out.
// Payload carries the business record (task, project, event) and is passed
// through to renderers untouched.
type Entity struct {
	ID      string
	Source  Source
	Group   string // owning project ID for tasks; own ID for projects
	Range   TimeRange
	Payload any
}

// LayoutBox is the position of one entity (or one day-slice of it) in a
// rendered view. Units are whatever the axis uses: days for Gantt and
// month views, minutes for timed week/day columns.
type LayoutBox struct {
	EntityID     string
	Row          int // Gantt row, month week row
	Column       int // day column in week/day/month views
	Offset       int
	Length       int
	Lane         int
	LaneCount    int
	AllDay       bool
	ClippedStart bool // entity starts before the visible axis
	ClippedEnd   bool // entity ends after the visible axis
}
