package task

import (
	"fmt"
	"time"
)

// Stats summarizes the tasks of a project.
type Stats struct {
	Total      int
	Todo       int
	InProgress int
	Done       int
	Overdue    int
	TaskDays   int // sum of task spans in days
	Progress   int // mean progress, 0-100
}

// DonePercent returns the share of finished tasks.
func (s Stats) DonePercent() int {
	if s.Total == 0 {
		return 0
	}
	return (s.Done * 100) / s.Total
}

// Ratio returns done:total as a string (e.g., "3/5").
func (s Stats) Ratio() string {
	return fmt.Sprintf("%d/%d", s.Done, s.Total)
}

// Summarize calculates statistics for a set of tasks.
func Summarize(tasks []*Task, now time.Time) Stats {
	var s Stats
	for _, t := range tasks {
		s.Total++
		s.TaskDays += t.Days()
		switch t.Status {
		case StatusDone:
			s.Done++
		case StatusInProgress:
			s.InProgress++
		default:
			s.Todo++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}
	s.Progress = Progress(tasks)
	return s
}
