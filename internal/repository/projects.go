package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ProjectState classifies a project for the status workflow: transitions are
// only accepted on active projects.
type ProjectState int

const (
	// ProjectMissing means no project with that ID exists.
	ProjectMissing ProjectState = iota
	// ProjectActive means the project accepts status transitions.
	ProjectActive
	// ProjectArchived means the project is archived and rejects transitions.
	ProjectArchived
)

// ProjectStateStore resolves the workflow state of a project. The status
// update service depends on this narrow capability rather than the full
// project repository.
type ProjectStateStore interface {
	ProjectState(ctx context.Context, projectID int64) (ProjectState, error)
}

// MySQLProjectStates resolves project state from the projects table.
type MySQLProjectStates struct {
	db Queryable
}

// NewMySQLProjectStates creates a project state resolver backed by MySQL.
func NewMySQLProjectStates(db Queryable) *MySQLProjectStates {
	return &MySQLProjectStates{db: db}
}

// ProjectState reports whether the project exists and accepts transitions.
func (s *MySQLProjectStates) ProjectState(ctx context.Context, projectID int64) (ProjectState, error) {
	var archivedAt sql.NullTime
	err := s.db.GetContext(ctx, &archivedAt,
		"SELECT archived_at FROM projects WHERE id = ?", projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ProjectMissing, nil
		}
		return ProjectMissing, ParseDBError(err)
	}
	if archivedAt.Valid {
		return ProjectArchived, nil
	}
	return ProjectActive, nil
}

// StaticProjectStates is a fixture ProjectStateStore for tests: a literal
// ID-to-state table with every unknown ID reported as missing.
type StaticProjectStates map[int64]ProjectState

// ProjectState looks the project up in the fixture table.
func (s StaticProjectStates) ProjectState(_ context.Context, projectID int64) (ProjectState, error) {
	state, ok := s[projectID]
	if !ok {
		return ProjectMissing, nil
	}
	return state, nil
}

// ArchiveCompletedBefore archives projects whose CHECK track went complete
// before the cutoff. Used by the background archival scheduler.
func ArchiveCompletedBefore(ctx context.Context, db Queryable, cutoff time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE projects p
		JOIN project_status ps ON ps.project_id = p.id AND ps.track = 'CHECK'
		SET p.archived_at = NOW(), p.updated_at = NOW()
		WHERE p.archived_at IS NULL
		  AND ps.value <> ''
		  AND ps.updated_at < ?`, cutoff)
	if err != nil {
		return 0, ParseDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, ParseDBError(err)
	}
	return affected, nil
}
