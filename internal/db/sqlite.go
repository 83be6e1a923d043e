// Package db provides SQLite storage implementation.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/javiermolinar/gantry/internal/dateutil"
	"github.com/javiermolinar/gantry/internal/task"
)

// SQLite implements task.Repository using SQLite.
type SQLite struct {
	db *sql.DB
}

var _ task.Repository = (*SQLite)(nil)

// New opens the database at path and runs migrations.
func New(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	// Foreign keys are per connection; a single connection keeps them on.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLite{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const projectColumns = `id, name, color, start_date, end_date, created_at`

const taskColumns = `id, project_id, name, start_date, end_date, status, priority, progress, created_at`

// CreateProject adds a new project.
func (s *SQLite) CreateProject(ctx context.Context, p *task.Project) error {
	query := `INSERT INTO projects (` + projectColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Color,
		formatDate(p.Start),
		formatDate(p.End),
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

// GetProject retrieves a project by ID.
func (s *SQLite) GetProject(ctx context.Context, id string) (*task.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	p, err := scanProject(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", task.ErrProjectNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying project: %w", err)
	}
	return p, nil
}

// ListProjects returns every project ordered by start date.
func (s *SQLite) ListProjects(ctx context.Context) ([]*task.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY start_date, name`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []*task.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

// UpdateProjectDates moves or resizes a project.
func (s *SQLite) UpdateProjectDates(ctx context.Context, id string, start, end time.Time) error {
	query := `UPDATE projects SET start_date = ?, end_date = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, formatDate(start), formatDate(end), id)
	if err != nil {
		return fmt.Errorf("updating project dates: %w", err)
	}
	return expectOne(result, task.ErrProjectNotFound, id)
}

// DeleteProject removes a project and its tasks in one transaction.
func (s *SQLite) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("deleting project tasks: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if err := expectOne(result, task.ErrProjectNotFound, id); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// CreateTask adds a new task. The project must exist.
func (s *SQLite) CreateTask(ctx context.Context, t *task.Task) error {
	if _, err := s.GetProject(ctx, t.ProjectID); err != nil {
		return err
	}

	query := `INSERT INTO tasks (` + taskColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		t.ID,
		t.ProjectID,
		t.Name,
		formatDate(t.Start),
		formatDate(t.End),
		t.Status,
		t.Priority,
		t.Progress,
		t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (s *SQLite) GetTask(ctx context.Context, id string) (*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`
	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", task.ErrTaskNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying task: %w", err)
	}
	return t, nil
}

// ListTasks returns the tasks of a project, or all tasks when projectID is empty.
func (s *SQLite) ListTasks(ctx context.Context, projectID string) ([]*task.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks`
	var args []any
	if projectID != "" {
		query += ` WHERE project_id = ?`
		args = append(args, projectID)
	}
	query += ` ORDER BY start_date, name`
	return s.queryTasks(ctx, query, args...)
}

// ListTasksByDateRange returns the tasks that overlap [start, end] (inclusive dates).
func (s *SQLite) ListTasksByDateRange(ctx context.Context, start, end time.Time) ([]*task.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE start_date <= ? AND end_date >= ?
		ORDER BY start_date, name
	`
	return s.queryTasks(ctx, query, formatDate(end), formatDate(start))
}

// UpdateTaskDates moves or resizes a task.
func (s *SQLite) UpdateTaskDates(ctx context.Context, id string, start, end time.Time) error {
	query := `UPDATE tasks SET start_date = ?, end_date = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, formatDate(start), formatDate(end), id)
	if err != nil {
		return fmt.Errorf("updating task dates: %w", err)
	}
	return expectOne(result, task.ErrTaskNotFound, id)
}

// UpdateTaskProgress sets progress and status together.
func (s *SQLite) UpdateTaskProgress(ctx context.Context, id string, progress int, status task.Status) error {
	query := `UPDATE tasks SET progress = ?, status = ? WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, progress, status, id)
	if err != nil {
		return fmt.Errorf("updating task progress: %w", err)
	}
	return expectOne(result, task.ErrTaskNotFound, id)
}

// DeleteTask removes a task.
func (s *SQLite) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return expectOne(result, task.ErrTaskNotFound, id)
}

// ResolveID expands a unique ID prefix of a task or project to the full ID.
func (s *SQLite) ResolveID(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", task.ErrTaskNotFound)
	}
	pattern := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix) + "%"
	query := `
		SELECT id FROM projects WHERE id LIKE ? ESCAPE '\'
		UNION ALL
		SELECT id FROM tasks WHERE id LIKE ? ESCAPE '\'
		LIMIT 2
	`
	rows, err := s.db.QueryContext(ctx, query, pattern, pattern)
	if err != nil {
		return "", fmt.Errorf("resolving id: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scanning id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterating ids: %w", err)
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: no task or project matches %q", task.ErrTaskNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("%w: %q", task.ErrAmbiguousID, prefix)
	}
}

func (s *SQLite) queryTasks(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(r rowScanner) (*task.Project, error) {
	var (
		p                 task.Project
		start, end, added string
	)
	if err := r.Scan(&p.ID, &p.Name, &p.Color, &start, &end, &added); err != nil {
		return nil, err
	}
	var err error
	if p.Start, err = parseDate(start); err != nil {
		return nil, fmt.Errorf("parsing start date: %w", err)
	}
	if p.End, err = parseDate(end); err != nil {
		return nil, fmt.Errorf("parsing end date: %w", err)
	}
	if p.CreatedAt, err = parseDate(added); err != nil {
		return nil, fmt.Errorf("parsing created at: %w", err)
	}
	return &p, nil
}

func scanTask(r rowScanner) (*task.Task, error) {
	var (
		t                 task.Task
		start, end, added string
	)
	err := r.Scan(
		&t.ID,
		&t.ProjectID,
		&t.Name,
		&start,
		&end,
		&t.Status,
		&t.Priority,
		&t.Progress,
		&added,
	)
	if err != nil {
		return nil, err
	}
	if t.Start, err = parseDate(start); err != nil {
		return nil, fmt.Errorf("parsing start date: %w", err)
	}
	if t.End, err = parseDate(end); err != nil {
		return nil, fmt.Errorf("parsing end date: %w", err)
	}
	if t.CreatedAt, err = parseDate(added); err != nil {
		return nil, fmt.Errorf("parsing created at: %w", err)
	}
	return &t, nil
}

func expectOne(result sql.Result, notFound error, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}

func formatDate(t time.Time) string {
	return t.Format(dateutil.DateLayout)
}

// parseDate parses the date formats SQLite can hand back.
// Date-only values are local midnights.
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateutil.DateLayout, s, time.Local); err == nil {
		return t, nil
	}

	// DATE columns can come back as "2006-01-02T00:00:00Z".
	if len(s) == 20 && s[10] == 'T' && strings.HasSuffix(s, "T00:00:00Z") {
		if t, err := time.ParseInLocation(dateutil.DateLayout, s[:10], time.Local); err == nil {
			return t, nil
		}
	}

	for _, f := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}
