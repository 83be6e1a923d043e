package task

import (
	"context"
	"time"
)

// Repository defines the storage interface for projects and tasks.
type Repository interface {
	// CreateProject adds a new project.
	CreateProject(ctx context.Context, p *Project) error

	// GetProject retrieves a project by ID.
	// Returns ErrProjectNotFound if it does not exist.
	GetProject(ctx context.Context, id string) (*Project, error)

	// ListProjects returns every project ordered by start date.
	ListProjects(ctx context.Context) ([]*Project, error)

	// UpdateProjectDates moves or resizes a project.
	UpdateProjectDates(ctx context.Context, id string, start, end time.Time) error

	// DeleteProject removes a project and its tasks.
	DeleteProject(ctx context.Context, id string) error

	// CreateTask adds a new task. The project must exist.
	CreateTask(ctx context.Context, t *Task) error

	// GetTask retrieves a task by ID.
	// Returns ErrTaskNotFound if it does not exist.
	GetTask(ctx context.Context, id string) (*Task, error)

	// ListTasks returns the tasks of a project, or all tasks when projectID
	// is empty, ordered by start date.
	ListTasks(ctx context.Context, projectID string) ([]*Task, error)

	// ListTasksByDateRange returns the tasks that overlap [start, end] (inclusive dates).
	ListTasksByDateRange(ctx context.Context, start, end time.Time) ([]*Task, error)

	// UpdateTaskDates moves or resizes a task.
	UpdateTaskDates(ctx context.Context, id string, start, end time.Time) error

	// UpdateTaskProgress sets progress and status together.
	UpdateTaskProgress(ctx context.Context, id string, progress int, status Status) error

	// DeleteTask removes a task.
	DeleteTask(ctx context.Context, id string) error

	// ResolveID expands a unique ID prefix of a task or project to the full ID.
	ResolveID(ctx context.Context, prefix string) (string, error)

	// Close releases any resources held by the repository.
	Close() error
}
