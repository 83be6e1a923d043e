package schedule

import (
	"time"

	"github.com/javiermolinar/gantry/internal/dateutil"
)

// DefaultTimedDuration is the length given to an all-day entity dropped on
// a timed axis.
const DefaultTimedDuration = 30 * time.Minute

// Edge selects which bound of a range a resize moves.
type Edge int

const (
	EdgeStart Edge = iota
	EdgeEnd
)

func (e Edge) String() string {
	if e == EdgeStart {
		return "start"
	}
	return "end"
}

// TranslateMove shifts r by deltaUnits*unit. Both bounds move together so
// the duration is kept. Day-multiple units shift by calendar days, which
// keeps the wall-clock time of timed ranges across DST changes.
func TranslateMove(r TimeRange, deltaUnits int, unit time.Duration) TimeRange {
	return TimeRange{
		Start:  shift(r.Start, deltaUnits, unit),
		End:    shift(r.End, deltaUnits, unit),
		AllDay: r.AllDay,
	}
}

// TranslateResize moves one edge of r by deltaUnits*unit. The moving edge is
// capped so the range never gets shorter than minDuration; the opposite
// edge never moves.
func TranslateResize(r TimeRange, edge Edge, deltaUnits int, unit, minDuration time.Duration) TimeRange {
	if minDuration < 0 {
		minDuration = 0
	}
	out := r
	switch edge {
	case EdgeStart:
		candidate := shift(r.Start, deltaUnits, unit)
		limit := offsetBy(r.End, -minDuration, r.AllDay)
		if candidate.After(limit) {
			candidate = limit
		}
		out.Start = candidate
	case EdgeEnd:
		candidate := shift(r.End, deltaUnits, unit)
		limit := offsetBy(r.Start, minDuration, r.AllDay)
		if candidate.Before(limit) {
			candidate = limit
		}
		out.End = candidate
	}
	return out
}

// Snap rounds t to the nearest multiple of granularity counted from local
// midnight. Whole-day granularities round to the nearest midnight.
func Snap(t time.Time, granularity time.Duration) time.Time {
	if granularity <= 0 {
		return t
	}
	day := dateutil.TruncateToDay(t)
	if granularity%Day == 0 {
		next := day.AddDate(0, 0, 1)
		if t.Sub(day) < next.Sub(t) {
			return day
		}
		return next
	}
	return day.Add(t.Sub(day).Round(granularity))
}

// SnapEdge rounds one edge of r to granularity and then caps it like
// TranslateResize, so the range keeps at least minDuration. The opposite
// edge never moves.
func SnapEdge(r TimeRange, edge Edge, granularity, minDuration time.Duration) TimeRange {
	minDuration = max(minDuration, 0)
	out := r
	switch edge {
	case EdgeStart:
		out.Start = Snap(r.Start, granularity)
		if limit := offsetBy(r.End, -minDuration, r.AllDay); out.Start.After(limit) {
			out.Start = limit
		}
	case EdgeEnd:
		out.End = Snap(r.End, granularity)
		if limit := offsetBy(r.Start, minDuration, r.AllDay); out.End.Before(limit) {
			out.End = limit
		}
	}
	return out
}

// Floor truncates t down to a multiple of granularity counted from local
// midnight.
func Floor(t time.Time, granularity time.Duration) time.Time {
	day := dateutil.TruncateToDay(t)
	if granularity <= 0 || granularity%Day == 0 {
		return day
	}
	return day.Add(t.Sub(day).Truncate(granularity))
}

// ToTimed converts r into a timed range of length d starting at slotStart.
// A non-positive d uses DefaultTimedDuration.
func ToTimed(r TimeRange, slotStart time.Time, d time.Duration) TimeRange {
	if d <= 0 {
		d = DefaultTimedDuration
	}
	return TimeRange{Start: slotStart, End: slotStart.Add(d)}
}

// ToAllDay collapses r to the single all-day date of target, dropping any
// time of day.
func ToAllDay(r TimeRange, target time.Time) TimeRange {
	return NewAllDay(target, target)
}

func shift(t time.Time, n int, unit time.Duration) time.Time {
	if unit%Day == 0 {
		return t.AddDate(0, 0, n*int(unit/Day))
	}
	return t.Add(time.Duration(n) * unit)
}

func offsetBy(t time.Time, d time.Duration, calendar bool) time.Time {
	if calendar && d%Day == 0 {
		return t.AddDate(0, 0, int(d/Day))
	}
	return t.Add(d)
}
