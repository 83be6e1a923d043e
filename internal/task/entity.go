package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/javiermolinar/gantry/internal/schedule"
)

// EntityStore exposes a Repository as layout entities.
type EntityStore struct {
	repo Repository
}

// NewEntityStore wraps repo.
func NewEntityStore(repo Repository) *EntityStore {
	return &EntityStore{repo: repo}
}

// List returns the project(s) and their tasks. An empty projectID lists everything.
func (s *EntityStore) List(ctx context.Context, projectID string) ([]schedule.Entity, error) {
	var projects []*Project
	if projectID == "" {
		all, err := s.repo.ListProjects(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing projects: %w", err)
		}
		projects = all
	} else {
		p, err := s.repo.GetProject(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("getting project: %w", err)
		}
		projects = []*Project{p}
	}

	tasks, err := s.repo.ListTasks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	out := make([]schedule.Entity, 0, len(projects)+len(tasks))
	for _, p := range projects {
		out = append(out, p.Entity())
	}
	for _, t := range tasks {
		out = append(out, t.Entity())
	}
	return out, nil
}

// Get returns the task or project with the given ID.
func (s *EntityStore) Get(ctx context.Context, id string) (schedule.Entity, error) {
	t, err := s.repo.GetTask(ctx, id)
	if err == nil {
		return t.Entity(), nil
	}
	if !errors.Is(err, ErrTaskNotFound) {
		return schedule.Entity{}, err
	}
	p, err := s.repo.GetProject(ctx, id)
	if err == nil {
		return p.Entity(), nil
	}
	if errors.Is(err, ErrProjectNotFound) {
		return schedule.Entity{}, fmt.Errorf("%w: %s", schedule.ErrEntityNotFound, id)
	}
	return schedule.Entity{}, err
}

// Update stores the new dates of a task or project and returns the stored entity.
func (s *EntityStore) Update(ctx context.Context, id string, r schedule.TimeRange) (schedule.Entity, error) {
	first, last, err := DatesFromRange(r)
	if err != nil {
		return schedule.Entity{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return schedule.Entity{}, err
	}
	switch current.Source {
	case schedule.SourceProject:
		err = s.repo.UpdateProjectDates(ctx, id, first, last)
	default:
		err = s.repo.UpdateTaskDates(ctx, id, first, last)
	}
	if err != nil {
		return schedule.Entity{}, fmt.Errorf("updating %s %s: %w", current.Source, id, err)
	}
	return s.Get(ctx, id)
}
