// Package task defines the projects and tasks shown on the Gantt chart.
package task

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/schedule"
)

// Validation errors.
var (
	ErrEmptyName       = errors.New("name cannot be empty")
	ErrEndBeforeStart  = errors.New("end date must not be before start date")
	ErrInvalidStatus   = errors.New("status must be 'todo', 'in_progress' or 'done'")
	ErrInvalidPriority = errors.New("priority must be 'low', 'medium' or 'high'")
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
	ErrTimedRange      = errors.New("tasks and projects are scheduled in whole days")
)

// Domain errors.
var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrAmbiguousID     = errors.New("id prefix matches more than one item")
)

// Status represents the state of a task.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(s)) {
	case StatusTodo:
		return StatusTodo, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusDone:
		return StatusDone, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Priority is how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority validates a priority string. Empty means medium.
func ParsePriority(s string) (Priority, error) {
	switch Priority(strings.ToLower(s)) {
	case "", PriorityMedium:
		return PriorityMedium, nil
	case PriorityLow:
		return PriorityLow, nil
	case PriorityHigh:
		return PriorityHigh, nil
	default:
		return "", ErrInvalidPriority
	}
}

// Task is a piece of work scheduled over whole days.
type Task struct {
	ID        string
	ProjectID string
	Name      string
	Start     time.Time // first day
	End       time.Time // last day, inclusive
	Status    Status
	Priority  Priority
	Progress  int // 0-100
	CreatedAt time.Time
}

// New creates a Task with validation.
// start can be empty (defaults to today); end can be empty (defaults to start).
// Dates use YYYY-MM-DD or the relative forms accepted by dateutil.ParseDay.
func New(projectID, name, start, end string) (*Task, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	first, last, err := parseSpan(start, end)
	if err != nil {
		return nil, err
	}
	return &Task{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Name:      name,
		Start:     first,
		End:       last,
		Status:    StatusTodo,
		Priority:  PriorityMedium,
		CreatedAt: time.Now(),
	}, nil
}

func parseSpan(start, end string) (time.Time, time.Time, error) {
	first, err := dateutil.ParseDay(start, time.Now())
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date: %w", err)
	}
	last := first
	if end != "" {
		last, err = dateutil.ParseDay(end, first)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("end date: %w", err)
		}
	}
	if last.Before(first) {
		return time.Time{}, time.Time{}, ErrEndBeforeStart
	}
	return first, last, nil
}

// Range returns the task's all-day range.
func (t *Task) Range() schedule.TimeRange {
	return schedule.NewAllDay(t.Start, t.End)
}

// Days returns the number of days the task spans.
func (t *Task) Days() int {
	return dateutil.DaysBetween(t.Start, t.End) + 1
}

// SetProgress updates progress and derives the status from it.
func (t *Task) SetProgress(p int) error {
	if p < 0 || p > 100 {
		return ErrInvalidProgress
	}
	t.Progress = p
	switch {
	case p == 100:
		t.Status = StatusDone
	case p > 0:
		t.Status = StatusInProgress
	default:
		t.Status = StatusTodo
	}
	return nil
}

// IsDone returns true if the task is finished.
func (t *Task) IsDone() bool {
	return t.Status == StatusDone
}

// IsOverdue returns true if the task is not done and its last day is before today.
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.IsDone() && t.End.Before(dateutil.TruncateToDay(now))
}

// Entity returns the task as a layout entity.
func (t *Task) Entity() schedule.Entity {
	return schedule.Entity{
		ID:      t.ID,
		Source:  schedule.SourceTask,
		Group:   t.ProjectID,
		Range:   t.Range(),
		Payload: t,
	}
}

// DatesFromRange converts an all-day range to first and last dates.
// Errors wrap schedule.ErrInvalidRange.
func DatesFromRange(r schedule.TimeRange) (time.Time, time.Time, error) {
	if !r.AllDay {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %w", schedule.ErrInvalidRange, ErrTimedRange)
	}
	if err := r.Validate(); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return dateutil.TruncateToDay(r.Start), r.LastDay(), nil
}
