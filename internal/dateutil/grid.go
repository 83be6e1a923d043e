package dateutil

import (
	"iter"
	"time"
)

// MonthGridCells is the number of cells in a month grid (6 weeks of 7 days).
const MonthGridCells = 42

// GridDay is a single cell of a month grid.
type GridDay struct {
	Date    time.Time
	InMonth bool // true if Date belongs to the grid's target month
}

// WeekStart returns the first day of the week containing t, given the weekday
// the week starts on. The result is truncated to midnight.
func WeekStart(t time.Time, firstDay time.Weekday) time.Time {
	t = TruncateToDay(t)
	back := (int(t.Weekday()) - int(firstDay) + 7) % 7
	return t.AddDate(0, 0, -back)
}

// MonthGrid returns the 42 consecutive dates that tile a 6-row calendar for
// the given month: trailing days of the previous month, every day of the
// month, then leading days of the next month.
func MonthGrid(year int, month time.Month, firstDay time.Weekday, loc *time.Location) []GridDay {
	if loc == nil {
		loc = time.Local
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	start := WeekStart(first, firstDay)

	cells := make([]GridDay, 0, MonthGridCells)
	for i := range MonthGridCells {
		d := start.AddDate(0, 0, i)
		cells = append(cells, GridDay{
			Date:    d,
			InMonth: d.Year() == year && d.Month() == month,
		})
	}
	return cells
}

// DateSequence yields every date from start to end inclusive in one-day steps.
// Both bounds are truncated to midnight. The sequence is empty when end is
// before start and can be ranged over any number of times.
func DateSequence(start, end time.Time) iter.Seq[time.Time] {
	start = TruncateToDay(start)
	end = TruncateToDay(end)
	return func(yield func(time.Time) bool) {
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			if !yield(d) {
				return
			}
		}
	}
}

// WeekNumber returns the ISO-8601 week number of t.
// The date is shifted to the Thursday of its (Monday-based) week; the week
// number is then counted from the first Thursday of that Thursday's year.
func WeekNumber(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	dayNum := int(d.Weekday())
	if dayNum == 0 {
		dayNum = 7
	}
	thursday := d.AddDate(0, 0, 4-dayNum)
	yearStart := time.Date(thursday.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	days := int(thursday.Sub(yearStart).Hours() / 24)
	return 1 + days/7
}

// DaysBetween returns the number of calendar days from a to b, ignoring the
// time of day. It is safe across DST transitions.
func DaysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

// AddMonthsClamped adds n months to t, clamping the day of month to the
// length of the target month (Jan 31 + 1 month = Feb 28/29).
func AddMonthsClamped(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	target := first.AddDate(0, n, 0)
	day := min(t.Day(), DaysInMonth(target.Year(), target.Month()))
	return target.AddDate(0, 0, day-1)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
