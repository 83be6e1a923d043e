package db

import (
	"fmt"

	"github.com/javiermolinar/gantry/internal/log"
)

// migrate creates the projects and tasks tables.
func (s *SQLite) migrate() error {
	query := `
		CREATE TABLE IF NOT EXISTS projects (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			color      TEXT NOT NULL DEFAULT '',
			start_date DATE NOT NULL,
			end_date   DATE NOT NULL CHECK(end_date >= start_date),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS tasks (
			id         TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			name       TEXT NOT NULL,
			start_date DATE NOT NULL,
			end_date   DATE NOT NULL CHECK(end_date >= start_date),
			status     TEXT DEFAULT 'todo' CHECK(status IN ('todo', 'in_progress', 'done')),
			priority   TEXT DEFAULT 'medium' CHECK(priority IN ('low', 'medium', 'high')),
			progress   INTEGER NOT NULL DEFAULT 0 CHECK(progress BETWEEN 0 AND 100),
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_dates ON tasks(start_date, end_date);
	`

	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	log.Debug("schema ready", "tables", "projects,tasks")
	return nil
}
