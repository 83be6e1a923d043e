package schedule

import (
	"time"

	"github.com/javiermolinar/gantry/internal/dateutil"
)

// Position is an entity's placement on an axis, in axis units.
type Position struct {
	Offset       int
	Length       int
	ClippedStart bool
	ClippedEnd   bool
}

// PositionInRange places r on the half-open axis [axisStart, axisEnd) whose
// cells are unit long. The range is clipped to the axis first, so an entity
// that starts before the axis has offset 0. The start is floored and the end
// ceiled to whole units, and the length is never below 1.
//
// Units that are a whole number of days are counted in calendar days, so
// DST transitions do not shift bars. It returns false when r does not
// intersect the axis.
func PositionInRange(r TimeRange, axisStart, axisEnd time.Time, unit time.Duration) (Position, bool) {
	if unit <= 0 || !axisEnd.After(axisStart) {
		return Position{}, false
	}
	if !intersects(r, axisStart, axisEnd) {
		return Position{}, false
	}

	s := r.Start
	if s.Before(axisStart) {
		s = axisStart
	}
	e := r.End
	if e.After(axisEnd) {
		e = axisEnd
	}
	if e.Before(s) {
		e = s
	}

	offset := floorUnits(axisStart, s, unit)
	end := ceilUnits(axisStart, e, unit)

	return Position{
		Offset:       offset,
		Length:       max(1, end-offset),
		ClippedStart: r.Start.Before(axisStart),
		ClippedEnd:   r.End.After(axisEnd),
	}, true
}

// intersects reports whether r shares an instant with [start, end).
// A zero-length range intersects when its instant lies inside the axis.
func intersects(r TimeRange, start, end time.Time) bool {
	if r.End.Equal(r.Start) {
		return !r.Start.Before(start) && r.Start.Before(end)
	}
	return r.Start.Before(end) && r.End.After(start)
}

func floorUnits(origin, t time.Time, unit time.Duration) int {
	if unit%Day == 0 {
		days := dateutil.DaysBetween(origin, t)
		return floorDiv(days, int(unit/Day))
	}
	return int(floorDuration(t.Sub(origin), unit))
}

func ceilUnits(origin, t time.Time, unit time.Duration) int {
	if unit%Day == 0 {
		days := dateutil.DaysBetween(origin, t)
		if !t.Equal(dateutil.TruncateToDay(t)) {
			days++
		}
		n := int(unit / Day)
		return floorDiv(days+n-1, n)
	}
	d := t.Sub(origin)
	q := floorDuration(d, unit)
	if time.Duration(q)*unit < d {
		q++
	}
	return int(q)
}

func floorDuration(d, unit time.Duration) int64 {
	q := int64(d / unit)
	if d%unit != 0 && d < 0 {
		q--
	}
	return q
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// HourAxis is the visible time-of-day window of a week/day column.
// StartHour is inclusive, EndHour exclusive except for HourOffset, which
// accepts the instant exactly at EndHour.
type HourAxis struct {
	StartHour int
	EndHour   int
}

// DefaultHourAxis is the window shown by week and day views.
var DefaultHourAxis = HourAxis{StartHour: 4, EndHour: 23}

// Minutes returns the length of the axis in minutes.
func (a HourAxis) Minutes() int {
	return (a.EndHour - a.StartHour) * 60
}

// Bounds returns the axis start and end instants on the given day.
func (a HourAxis) Bounds(day time.Time) (time.Time, time.Time) {
	start := time.Date(day.Year(), day.Month(), day.Day(), a.StartHour, 0, 0, 0, day.Location())
	end := time.Date(day.Year(), day.Month(), day.Day(), a.EndHour, 0, 0, 0, day.Location())
	return start, end
}

// Hours returns the hour labels covered by the axis.
func (a HourAxis) Hours() []int {
	hours := make([]int, 0, a.EndHour-a.StartHour)
	for h := a.StartHour; h < a.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// HourOffset returns the vertical offset of t's time of day from the start
// of the axis, in units of unitsPerHour per hour. It returns false when t
// falls outside [StartHour, EndHour].
func HourOffset(t time.Time, axis HourAxis, unitsPerHour float64) (float64, bool) {
	minutes := float64((t.Hour()-axis.StartHour)*60+t.Minute()) + float64(t.Second())/60
	if minutes < 0 || minutes > float64(axis.Minutes()) {
		return 0, false
	}
	return minutes / 60 * unitsPerHour, true
}
