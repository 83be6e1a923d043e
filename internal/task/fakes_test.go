package task

import (
	"context"
	"errors"
	"strings"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// memRepo is an in-memory Repository.
type memRepo struct {
	projects map[string]*Project
	tasks    map[string]*Task
	err      error // returned by every call when set
}

func newMemRepo() *memRepo {
	return &memRepo{projects: map[string]*Project{}, tasks: map[string]*Task{}}
}

func (r *memRepo) CreateProject(_ context.Context, p *Project) error {
	if r.err != nil {
		return r.err
	}
	cp := *p
	r.projects[p.ID] = &cp
	return nil
}

func (r *memRepo) GetProject(_ context.Context, id string) (*Project, error) {
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.projects[id]
	if !ok {
		return nil, ErrProjectNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) ListProjects(context.Context) ([]*Project, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*Project
	for _, p := range r.projects {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) UpdateProjectDates(_ context.Context, id string, start, end time.Time) error {
	if r.err != nil {
		return r.err
	}
	p, ok := r.projects[id]
	if !ok {
		return ErrProjectNotFound
	}
	p.Start, p.End = start, end
	return nil
}

func (r *memRepo) DeleteProject(_ context.Context, id string) error {
	delete(r.projects, id)
	return nil
}

func (r *memRepo) CreateTask(_ context.Context, t *Task) error {
	if r.err != nil {
		return r.err
	}
	if _, ok := r.projects[t.ProjectID]; !ok {
		return ErrProjectNotFound
	}
	cp := *t
	r.tasks[t.ID] = &cp
	return nil
}

func (r *memRepo) GetTask(_ context.Context, id string) (*Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *memRepo) ListTasks(_ context.Context, projectID string) ([]*Task, error) {
	if r.err != nil {
		return nil, r.err
	}
	var out []*Task
	for _, t := range r.tasks {
		if projectID == "" || t.ProjectID == projectID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) ListTasksByDateRange(_ context.Context, start, end time.Time) ([]*Task, error) {
	var out []*Task
	for _, t := range r.tasks {
		if !t.End.Before(start) && !t.Start.After(end) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) UpdateTaskDates(_ context.Context, id string, start, end time.Time) error {
	if r.err != nil {
		return r.err
	}
	t, ok := r.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	t.Start, t.End = start, end
	return nil
}

func (r *memRepo) UpdateTaskProgress(_ context.Context, id string, progress int, status Status) error {
	t, ok := r.tasks[id]
	if !ok {
		return ErrTaskNotFound
	}
	t.Progress, t.Status = progress, status
	return nil
}

func (r *memRepo) DeleteTask(_ context.Context, id string) error {
	delete(r.tasks, id)
	return nil
}

func (r *memRepo) ResolveID(_ context.Context, prefix string) (string, error) {
	var found []string
	for id := range r.projects {
		if strings.HasPrefix(id, prefix) {
			found = append(found, id)
		}
	}
	for id := range r.tasks {
		if strings.HasPrefix(id, prefix) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return "", errors.Join(ErrTaskNotFound, ErrProjectNotFound)
	case 1:
		return found[0], nil
	default:
		return "", ErrAmbiguousID
	}
}

func (r *memRepo) Close() error { return nil }
