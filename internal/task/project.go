package task

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/schedule"
)

// Project groups tasks and has its own date range on the Gantt chart.
type Project struct {
	ID        string
	Name      string
	Color     string // lipgloss color, e.g. "#7aa2f7" or "12"
	Start     time.Time
	End       time.Time // inclusive
	CreatedAt time.Time
}

// NewProject creates a Project with validation.
func NewProject(name, color, start, end string) (*Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	first, last, err := parseSpan(start, end)
	if err != nil {
		return nil, err
	}
	return &Project{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		Start:     first,
		End:       last,
		CreatedAt: time.Now(),
	}, nil
}

// Range returns the project's all-day range.
func (p *Project) Range() schedule.TimeRange {
	return schedule.NewAllDay(p.Start, p.End)
}

// Days returns the number of days the project spans.
func (p *Project) Days() int {
	return dateutil.DaysBetween(p.Start, p.End) + 1
}

// Progress returns the mean progress of the given tasks, or 0.
func Progress(tasks []*Task) int {
	if len(tasks) == 0 {
		return 0
	}
	sum := 0
	for _, t := range tasks {
		sum += t.Progress
	}
	return sum / len(tasks)
}

// Entity returns the project as a layout entity.
func (p *Project) Entity() schedule.Entity {
	return schedule.Entity{
		ID:      p.ID,
		Source:  schedule.SourceProject,
		Group:   p.ID,
		Range:   p.Range(),
		Payload: p,
	}
}
