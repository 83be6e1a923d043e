package schedule

import (
	"slices"
	"time"
)

// Lane is the horizontal slot assigned to a range and the number of slots
// in its overlap group.
type Lane struct {
	Lane  int
	Count int
}

// ResolveLanes assigns lanes to ranges so that overlapping ranges render
// side by side. The result is index-aligned with the input.
//
// Ranges are swept in start order (shorter first on ties, then input
// order). A group closes when the next start is at or after the latest end
// seen in the group. Inside a group each range takes the lowest lane whose
// previous occupant has ended, and every member gets the group's lane count.
//
// All-day and timed ranges are resolved independently and never share lanes.
func ResolveLanes(ranges []TimeRange) []Lane {
	out := make([]Lane, len(ranges))

	var allDay, timed []int
	for i, r := range ranges {
		if r.AllDay {
			allDay = append(allDay, i)
		} else {
			timed = append(timed, i)
		}
	}
	resolvePartition(ranges, allDay, out)
	resolvePartition(ranges, timed, out)
	return out
}

func resolvePartition(ranges []TimeRange, idx []int, out []Lane) {
	if len(idx) == 0 {
		return
	}

	slices.SortStableFunc(idx, func(a, b int) int {
		ra, rb := ranges[a], ranges[b]
		if c := ra.Start.Compare(rb.Start); c != 0 {
			return c
		}
		return cmpDuration(effectiveEnd(ra).Sub(ra.Start), effectiveEnd(rb).Sub(rb.Start))
	})

	var (
		group    []int
		laneEnds []time.Time
		groupEnd time.Time
	)
	flush := func() {
		for _, i := range group {
			out[i].Count = len(laneEnds)
		}
		group = group[:0]
		laneEnds = laneEnds[:0]
	}

	for _, i := range idx {
		r := ranges[i]
		end := effectiveEnd(r)

		if len(group) > 0 && !r.Start.Before(groupEnd) {
			flush()
		}
		if len(group) == 0 || end.After(groupEnd) {
			groupEnd = end
		}

		lane := -1
		for l, le := range laneEnds {
			if !le.After(r.Start) {
				lane = l
				break
			}
		}
		if lane < 0 {
			lane = len(laneEnds)
			laneEnds = append(laneEnds, end)
		} else {
			laneEnds[lane] = end
		}

		out[i].Lane = lane
		group = append(group, i)
	}
	flush()
}

// effectiveEnd gives zero-length ranges a one-nanosecond extent so that two
// identical instants land in different lanes.
func effectiveEnd(r TimeRange) time.Time {
	if r.End.After(r.Start) {
		return r.End
	}
	return r.Start.Add(time.Nanosecond)
}

func cmpDuration(a, b time.Duration) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
