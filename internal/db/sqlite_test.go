package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/javiermolinar/gantry/internal/task"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func newTestRepo(t *testing.T) *SQLite {
	t.Helper()

	repo, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	return repo
}

func mustProject(t *testing.T, repo *SQLite, id string, start, end time.Time) *task.Project {
	t.Helper()
	p := &task.Project{ID: id, Name: "Project " + id, Color: "#7aa2f7", Start: start, End: end, CreatedAt: time.Now()}
	if err := repo.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("CreateProject(%s): %v", id, err)
	}
	return p
}

func mustTask(t *testing.T, repo *SQLite, id, projectID string, start, end time.Time) *task.Task {
	t.Helper()
	tk := &task.Task{
		ID:        id,
		ProjectID: projectID,
		Name:      "Task " + id,
		Start:     start,
		End:       end,
		Status:    task.StatusTodo,
		Priority:  task.PriorityMedium,
		CreatedAt: time.Now(),
	}
	if err := repo.CreateTask(context.Background(), tk); err != nil {
		t.Fatalf("CreateTask(%s): %v", id, err)
	}
	return tk
}

func TestProjects(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	mustProject(t, repo, "p-b", date(2025, 4, 1), date(2025, 4, 30))
	mustProject(t, repo, "p-a", date(2025, 3, 1), date(2025, 3, 31))

	t.Run("get round-trips dates as local midnights", func(t *testing.T) {
		p, err := repo.GetProject(ctx, "p-a")
		if err != nil {
			t.Fatalf("GetProject: %v", err)
		}
		if !p.Start.Equal(date(2025, 3, 1)) || !p.End.Equal(date(2025, 3, 31)) {
			t.Errorf("got %v..%v", p.Start, p.End)
		}
		if p.Color != "#7aa2f7" || p.Name != "Project p-a" {
			t.Errorf("unexpected project %+v", p)
		}
		if p.CreatedAt.IsZero() {
			t.Error("expected CreatedAt")
		}
	})

	t.Run("list orders by start", func(t *testing.T) {
		ps, err := repo.ListProjects(ctx)
		if err != nil {
			t.Fatalf("ListProjects: %v", err)
		}
		if len(ps) != 2 || ps[0].ID != "p-a" || ps[1].ID != "p-b" {
			t.Errorf("got %v", ps)
		}
	})

	t.Run("update dates", func(t *testing.T) {
		if err := repo.UpdateProjectDates(ctx, "p-a", date(2025, 3, 3), date(2025, 4, 2)); err != nil {
			t.Fatalf("UpdateProjectDates: %v", err)
		}
		p, _ := repo.GetProject(ctx, "p-a")
		if !p.Start.Equal(date(2025, 3, 3)) || !p.End.Equal(date(2025, 4, 2)) {
			t.Errorf("got %v..%v", p.Start, p.End)
		}
	})

	t.Run("missing project", func(t *testing.T) {
		if _, err := repo.GetProject(ctx, "nope"); !errors.Is(err, task.ErrProjectNotFound) {
			t.Errorf("GetProject err = %v", err)
		}
		if err := repo.UpdateProjectDates(ctx, "nope", date(2025, 1, 1), date(2025, 1, 2)); !errors.Is(err, task.ErrProjectNotFound) {
			t.Errorf("UpdateProjectDates err = %v", err)
		}
	})

	t.Run("end before start is rejected by the schema", func(t *testing.T) {
		if err := repo.UpdateProjectDates(ctx, "p-b", date(2025, 5, 1), date(2025, 4, 1)); err == nil {
			t.Error("expected constraint error")
		}
	})
}

func TestTasks(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	mustProject(t, repo, "p1", date(2025, 3, 1), date(2025, 3, 31))
	mustProject(t, repo, "p2", date(2025, 3, 1), date(2025, 3, 31))
	mustTask(t, repo, "t1", "p1", date(2025, 3, 1), date(2025, 3, 3))
	mustTask(t, repo, "t2", "p1", date(2025, 3, 10), date(2025, 3, 12))
	mustTask(t, repo, "t3", "p2", date(2025, 3, 5), date(2025, 3, 5))

	t.Run("create requires a project", func(t *testing.T) {
		tk := &task.Task{ID: "orphan", ProjectID: "nope", Name: "x", Start: date(2025, 1, 1), End: date(2025, 1, 1), Status: task.StatusTodo, Priority: task.PriorityLow}
		if err := repo.CreateTask(ctx, tk); !errors.Is(err, task.ErrProjectNotFound) {
			t.Errorf("err = %v, want %v", err, task.ErrProjectNotFound)
		}
	})

	t.Run("get", func(t *testing.T) {
		tk, err := repo.GetTask(ctx, "t2")
		if err != nil {
			t.Fatalf("GetTask: %v", err)
		}
		if tk.ProjectID != "p1" || !tk.Start.Equal(date(2025, 3, 10)) || !tk.End.Equal(date(2025, 3, 12)) {
			t.Errorf("unexpected task %+v", tk)
		}
		if tk.Status != task.StatusTodo || tk.Priority != task.PriorityMedium {
			t.Errorf("status %q priority %q", tk.Status, tk.Priority)
		}
		if _, err := repo.GetTask(ctx, "zz"); !errors.Is(err, task.ErrTaskNotFound) {
			t.Errorf("err = %v, want %v", err, task.ErrTaskNotFound)
		}
	})

	t.Run("list all and by project", func(t *testing.T) {
		all, err := repo.ListTasks(ctx, "")
		if err != nil {
			t.Fatalf("ListTasks: %v", err)
		}
		if ids := taskIDs(all); ids != "t1,t3,t2" {
			t.Errorf("all = %s, want t1,t3,t2", ids)
		}
		p1, err := repo.ListTasks(ctx, "p1")
		if err != nil {
			t.Fatalf("ListTasks(p1): %v", err)
		}
		if ids := taskIDs(p1); ids != "t1,t2" {
			t.Errorf("p1 = %s, want t1,t2", ids)
		}
	})

	t.Run("list by date range uses overlap", func(t *testing.T) {
		tests := []struct {
			start, end time.Time
			want       string
		}{
			{date(2025, 3, 3), date(2025, 3, 5), "t1,t3"},
			{date(2025, 3, 4), date(2025, 3, 4), ""},
			{date(2025, 3, 12), date(2025, 3, 20), "t2"},
			{date(2025, 2, 1), date(2025, 3, 1), "t1"},
		}
		for _, tt := range tests {
			got, err := repo.ListTasksByDateRange(ctx, tt.start, tt.end)
			if err != nil {
				t.Fatalf("ListTasksByDateRange: %v", err)
			}
			if ids := taskIDs(got); ids != tt.want {
				t.Errorf("%s..%s = %q, want %q", tt.start.Format("01-02"), tt.end.Format("01-02"), ids, tt.want)
			}
		}
	})

	t.Run("update dates and progress", func(t *testing.T) {
		if err := repo.UpdateTaskDates(ctx, "t1", date(2025, 3, 2), date(2025, 3, 6)); err != nil {
			t.Fatalf("UpdateTaskDates: %v", err)
		}
		if err := repo.UpdateTaskProgress(ctx, "t1", 40, task.StatusInProgress); err != nil {
			t.Fatalf("UpdateTaskProgress: %v", err)
		}
		tk, _ := repo.GetTask(ctx, "t1")
		if !tk.Start.Equal(date(2025, 3, 2)) || !tk.End.Equal(date(2025, 3, 6)) || tk.Progress != 40 || tk.Status != task.StatusInProgress {
			t.Errorf("unexpected task %+v", tk)
		}
		if err := repo.UpdateTaskDates(ctx, "zz", date(2025, 3, 2), date(2025, 3, 6)); !errors.Is(err, task.ErrTaskNotFound) {
			t.Errorf("err = %v, want %v", err, task.ErrTaskNotFound)
		}
		if err := repo.UpdateTaskProgress(ctx, "t1", 140, task.StatusDone); err == nil {
			t.Error("expected constraint error for progress 140")
		}
	})

	t.Run("delete task", func(t *testing.T) {
		if err := repo.DeleteTask(ctx, "t3"); err != nil {
			t.Fatalf("DeleteTask: %v", err)
		}
		if err := repo.DeleteTask(ctx, "t3"); !errors.Is(err, task.ErrTaskNotFound) {
			t.Errorf("second delete err = %v", err)
		}
	})

	t.Run("delete project removes its tasks", func(t *testing.T) {
		if err := repo.DeleteProject(ctx, "p1"); err != nil {
			t.Fatalf("DeleteProject: %v", err)
		}
		left, err := repo.ListTasks(ctx, "")
		if err != nil {
			t.Fatalf("ListTasks: %v", err)
		}
		if len(left) != 0 {
			t.Errorf("tasks left: %s", taskIDs(left))
		}
		if err := repo.DeleteProject(ctx, "p1"); !errors.Is(err, task.ErrProjectNotFound) {
			t.Errorf("second delete err = %v", err)
		}
	})
}

func TestResolveID(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	mustProject(t, repo, "abc123", date(2025, 3, 1), date(2025, 3, 31))
	mustTask(t, repo, "abd456", "abc123", date(2025, 3, 1), date(2025, 3, 1))
	mustTask(t, repo, "x_y", "abc123", date(2025, 3, 1), date(2025, 3, 1))

	tests := []struct {
		prefix  string
		want    string
		wantErr error
	}{
		{"abc", "abc123", nil},
		{"abd", "abd456", nil},
		{"abd456", "abd456", nil},
		{"ab", "", task.ErrAmbiguousID},
		{"zz", "", task.ErrTaskNotFound},
		{"", "", task.ErrTaskNotFound},
		{"x_", "x_y", nil},
		{"%", "", task.ErrTaskNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := repo.ResolveID(ctx, tt.prefix)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ResolveID(%q) = %q, %v; want %q", tt.prefix, got, err, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2025-01-15", date(2025, 1, 15)},
		{"2025-01-15T00:00:00Z", date(2025, 1, 15)},
		{"2025-01-15T10:30:00Z", time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
		{"2025-01-15 10:30:00", time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := parseDate(tt.in)
		if err != nil {
			t.Errorf("parseDate(%q): %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := parseDate("15/01/2025"); err == nil {
		t.Error("expected error")
	}
}

func taskIDs(tasks []*task.Task) string {
	var s string
	for i, t := range tasks {
		if i > 0 {
			s += ","
		}
		s += t.ID
	}
	return s
}
