// Package planner owns the view state of a schedule view and drives layout
// and gestures against the task store and external calendars.
package planner

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/schedule"
)

var (
	ErrInvalidScale = errors.New("scale must be 'day', 'week' or 'month'")
	ErrInvalidMode  = errors.New("mode must be 'gantt', 'month', 'week' or 'day'")
)

// Mode is the kind of view being laid out.
type Mode int

const (
	ModeGantt Mode = iota
	ModeMonth
	ModeWeek
	ModeDay
)

func (m Mode) String() string {
	switch m {
	case ModeGantt:
		return "gantt"
	case ModeMonth:
		return "month"
	case ModeWeek:
		return "week"
	case ModeDay:
		return "day"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a mode name as used in config and on the command line.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gantt":
		return ModeGantt, nil
	case "month":
		return ModeMonth, nil
	case "week":
		return ModeWeek, nil
	case "day":
		return ModeDay, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Calendar reports whether the mode is one of the calendar views.
func (m Mode) Calendar() bool {
	return m != ModeGantt
}

// Timed reports whether the mode has an hour axis.
func (m Mode) Timed() bool {
	return m == ModeWeek || m == ModeDay
}

// Scale is the Gantt zoom level.
type Scale int

const (
	ScaleDay Scale = iota
	ScaleWeek
	ScaleMonth
)

func (s Scale) String() string {
	switch s {
	case ScaleDay:
		return "day"
	case ScaleWeek:
		return "week"
	case ScaleMonth:
		return "month"
	default:
		return fmt.Sprintf("scale(%d)", int(s))
	}
}

// ParseScale parses a Gantt scale name.
func ParseScale(s string) (Scale, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day":
		return ScaleDay, nil
	case "week":
		return ScaleWeek, nil
	case "month":
		return ScaleMonth, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidScale, s)
	}
}

// VisibleDays is the number of day columns a Gantt chart shows at this scale.
func (s Scale) VisibleDays() int {
	switch s {
	case ScaleWeek:
		return 42
	case ScaleMonth:
		return 90
	default:
		return 21
	}
}

// Step is the number of days one navigation step moves at this scale.
func (s Scale) Step() int {
	switch s {
	case ScaleWeek:
		return 14
	case ScaleMonth:
		return 30
	default:
		return 7
	}
}

// ViewState is everything a view needs to compute its rendered range.
// It is a value: transitions return a new state.
type ViewState struct {
	Mode      Mode
	Scale     Scale
	Anchor    time.Time
	Collapsed map[string]bool // project IDs whose tasks are hidden in the Gantt chart
}

// Clone returns a copy that shares no map with s.
func (s ViewState) Clone() ViewState {
	out := s
	out.Collapsed = make(map[string]bool, len(s.Collapsed))
	for k, v := range s.Collapsed {
		if v {
			out.Collapsed[k] = true
		}
	}
	return out
}

// RenderedRange is the visible axis of a view.
type RenderedRange struct {
	Start time.Time // first visible midnight
	End   time.Time // exclusive
	Days  int
	Unit  time.Duration // Day for date axes; time.Minute for the timed grid

	// Hours is the time-of-day window of week and day views.
	Hours schedule.HourAxis

	// Month and Year name the month of a month view.
	Month time.Month
	Year  int

	Week int // ISO week number of the anchor
}

// Contains reports whether t falls in [Start, End).
func (r RenderedRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// DayAt returns the date of column i.
func (r RenderedRange) DayAt(i int) time.Time {
	return r.Start.AddDate(0, 0, i)
}

// WeekLabel returns the ISO week as "W07".
func (r RenderedRange) WeekLabel() string {
	return fmt.Sprintf("W%02d", r.Week)
}

// ComputeRange derives the visible range from state alone. firstDay and
// hours are the view conventions and never change during a session.
func ComputeRange(s ViewState, firstDay time.Weekday, hours schedule.HourAxis) RenderedRange {
	anchor := dateutil.TruncateToDay(s.Anchor)
	r := RenderedRange{
		Unit:  schedule.Day,
		Month: anchor.Month(),
		Year:  anchor.Year(),
		Week:  dateutil.WeekNumber(anchor),
	}

	switch s.Mode {
	case ModeMonth:
		grid := dateutil.MonthGrid(anchor.Year(), anchor.Month(), firstDay, anchor.Location())
		r.Start = grid[0].Date
		r.Days = dateutil.MonthGridCells
	case ModeWeek:
		r.Start = dateutil.WeekStart(anchor, firstDay)
		r.Days = 7
		r.Hours = hours
		r.Unit = time.Minute
	case ModeDay:
		r.Start = anchor
		r.Days = 1
		r.Hours = hours
		r.Unit = time.Minute
	default:
		// One week of context before the anchor's week.
		r.Start = dateutil.WeekStart(anchor, firstDay).AddDate(0, 0, -7)
		r.Days = s.Scale.VisibleDays()
	}
	r.End = r.Start.AddDate(0, 0, r.Days)
	return r
}

// Navigate moves the anchor by delta steps of the current view.
func (s ViewState) Navigate(delta int) ViewState {
	out := s.Clone()
	switch s.Mode {
	case ModeMonth:
		out.Anchor = dateutil.AddMonthsClamped(s.Anchor, delta)
	case ModeWeek:
		out.Anchor = s.Anchor.AddDate(0, 0, 7*delta)
	case ModeDay:
		out.Anchor = s.Anchor.AddDate(0, 0, delta)
	default:
		out.Anchor = s.Anchor.AddDate(0, 0, s.Scale.Step()*delta)
	}
	return out
}

// ToggleProject flips the collapsed flag of a project.
func (s ViewState) ToggleProject(id string) ViewState {
	out := s.Clone()
	if out.Collapsed[id] {
		delete(out.Collapsed, id)
	} else {
		out.Collapsed[id] = true
	}
	return out
}
