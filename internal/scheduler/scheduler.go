// Package scheduler applies working-hours rules to scheduled ranges.
package scheduler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/schedule"
)

// Validation errors.
var (
	ErrInvalidTime      = errors.New("time must be in HH:MM format")
	ErrInvalidHours     = errors.New("day end must be after day start")
	ErrNoWorkdays       = errors.New("at least one workday is required")
	ErrNotWorkday       = errors.New("not a workday")
	ErrOutsideWorkHours = errors.New("outside work hours")
)

// Scheduler knows which days and hours are available for work.
type Scheduler struct {
	workdays map[time.Weekday]bool
	dayStart int // minutes from midnight
	dayEnd   int
}

// New creates a Scheduler from weekday names and "HH:MM" bounds.
func New(workdays []string, dayStart, dayEnd string) (*Scheduler, error) {
	if len(workdays) == 0 {
		return nil, ErrNoWorkdays
	}
	wd := make(map[time.Weekday]bool, len(workdays))
	for _, d := range workdays {
		day, err := dateutil.ParseWeekday(d)
		if err != nil {
			return nil, fmt.Errorf("workday %q: %w", d, err)
		}
		wd[day] = true
	}
	start, err := parseTime(dayStart)
	if err != nil {
		return nil, fmt.Errorf("day start: %w", err)
	}
	end, err := parseTime(dayEnd)
	if err != nil {
		return nil, fmt.Errorf("day end: %w", err)
	}
	if end <= start {
		return nil, ErrInvalidHours
	}
	return &Scheduler{workdays: wd, dayStart: start, dayEnd: end}, nil
}

// IsWorkday returns true if t falls on a configured workday.
func (s *Scheduler) IsWorkday(t time.Time) bool {
	return s.workdays[t.Weekday()]
}

// WorkHours returns the start and end of the working window on day.
func (s *Scheduler) WorkHours(day time.Time) (time.Time, time.Time) {
	midnight := dateutil.TruncateToDay(day)
	return atMinute(midnight, s.dayStart), atMinute(midnight, s.dayEnd)
}

// NextWorkday returns the first workday strictly after from, at midnight.
func (s *Scheduler) NextWorkday(from time.Time) time.Time {
	next := dateutil.TruncateToDay(from).AddDate(0, 0, 1)
	for range 7 {
		if s.IsWorkday(next) {
			return next
		}
		next = next.AddDate(0, 0, 1)
	}
	return dateutil.TruncateToDay(from).AddDate(0, 0, 1)
}

// FirstWorkday returns from's day if it is a workday, else the next one.
func (s *Scheduler) FirstWorkday(from time.Time) time.Time {
	if s.IsWorkday(from) {
		return dateutil.TruncateToDay(from)
	}
	return s.NextWorkday(from)
}

// ValidateRange rejects timed ranges outside work hours and all-day
// ranges that start or end on a day off.
func (s *Scheduler) ValidateRange(r schedule.TimeRange) error {
	if r.AllDay {
		if !s.IsWorkday(r.Start) {
			return fmt.Errorf("%w: starts on %s", ErrNotWorkday, r.Start.Weekday())
		}
		if last := r.LastDay(); !s.IsWorkday(last) {
			return fmt.Errorf("%w: ends on %s", ErrNotWorkday, last.Weekday())
		}
		return nil
	}

	if !s.IsWorkday(r.Start) {
		return fmt.Errorf("%w: %s", ErrNotWorkday, r.Start.Weekday())
	}
	start, end := s.WorkHours(r.Start)
	if r.Start.Before(start) || r.End.After(end) {
		return fmt.Errorf("%w: %s-%s is not within %s-%s", ErrOutsideWorkHours,
			r.Start.Format("15:04"), r.End.Format("15:04"), start.Format("15:04"), end.Format("15:04"))
	}
	return nil
}

func atMinute(midnight time.Time, m int) time.Time {
	return time.Date(midnight.Year(), midnight.Month(), midnight.Day(), m/60, m%60, 0, 0, midnight.Location())
}

// parseTime converts "HH:MM" to minutes from midnight.
func parseTime(s string) (int, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) != 2 || len(m) != 2 {
		return 0, ErrInvalidTime
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, ErrInvalidTime
	}
	mm, err := strconv.Atoi(m)
	if err != nil {
		return 0, ErrInvalidTime
	}
	if hh < 0 || hh > 24 || mm < 0 || mm > 59 || (hh == 24 && mm != 0) {
		return 0, ErrInvalidTime
	}
	return hh*60 + mm, nil
}
