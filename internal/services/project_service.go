package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/depotrack/depotrack/internal/apperrors"
	"github.com/depotrack/depotrack/internal/models"
	"github.com/depotrack/depotrack/internal/repository"
	"github.com/depotrack/depotrack/pkg/logger"
)

// ProjectService handles business logic for project/order operations.
type ProjectService struct {
	db        *sqlx.DB
	statusSvc *StatusService
}

// NewProjectService creates a new project service instance.
func NewProjectService(db *sqlx.DB, statusSvc *StatusService) *ProjectService {
	return &ProjectService{db: db, statusSvc: statusSvc}
}

// CreateProjectRequest contains the data needed to create a new project.
type CreateProjectRequest struct {
	Name      string
	Reference string
	Address   string
	CreatedBy int64
}

// UpdateProjectRequest contains the data needed to update an existing project.
type UpdateProjectRequest struct {
	Name      *string
	Reference *string
	Address   *string
}

// Create creates a new project. The status aggregate is implicit: all four
// tracks start unset, no rows are written for them.
func (s *ProjectService) Create(ctx context.Context, req *CreateProjectRequest) (*models.Project, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (name, reference, address, created_by) VALUES (?, ?, ?, ?)",
		req.Name, req.Reference, req.Address, req.CreatedBy)
	if err != nil {
		logger.Error("Database error creating project: %v", err)
		return nil, mapRepoError("create project", repository.ParseDBError(err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, apperrors.Database("failed to get created project ID").Wrap(err)
	}

	return s.GetByID(ctx, id)
}

// GetByID retrieves a project by its ID with the derived completion flag.
func (s *ProjectService) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	var project models.Project
	err := s.db.GetContext(ctx, &project, "SELECT * FROM projects WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("project %d not found", id))
		}
		logger.Error("Database error fetching project %d: %v", id, err)
		return nil, apperrors.Database("failed to fetch project").Wrap(err)
	}

	complete, err := s.statusSvc.IsComplete(ctx, id)
	if err != nil {
		return nil, err
	}
	project.Complete = complete
	return &project, nil
}

// List returns projects ordered by creation time, newest first.
// Archived projects are excluded unless includeArchived is set.
func (s *ProjectService) List(ctx context.Context, limit, offset int, includeArchived bool) ([]models.Project, int64, error) {
	where := "WHERE archived_at IS NULL"
	if includeArchived {
		where = ""
	}

	var total int64
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM projects "+where); err != nil {
		return nil, 0, apperrors.Database("failed to count projects").Wrap(err)
	}

	var projects []models.Project
	query := fmt.Sprintf("SELECT * FROM projects %s ORDER BY created_at DESC LIMIT ? OFFSET ?", where)
	if err := s.db.SelectContext(ctx, &projects, query, limit, offset); err != nil {
		return nil, 0, apperrors.Database("failed to fetch projects").Wrap(err)
	}

	for i := range projects {
		complete, err := s.statusSvc.IsComplete(ctx, projects[i].ID)
		if err != nil {
			return nil, 0, err
		}
		projects[i].Complete = complete
	}
	return projects, total, nil
}

// Update updates an existing project's descriptive fields.
func (s *ProjectService) Update(ctx context.Context, id int64, req *UpdateProjectRequest) (*models.Project, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	updates := []string{}
	args := []interface{}{}

	if req.Name != nil {
		updates = append(updates, "name = ?")
		args = append(args, *req.Name)
	}
	if req.Reference != nil {
		updates = append(updates, "reference = ?")
		args = append(args, *req.Reference)
	}
	if req.Address != nil {
		updates = append(updates, "address = ?")
		args = append(args, *req.Address)
	}

	if len(updates) == 0 {
		return nil, apperrors.InvalidInput("no fields to update")
	}

	query := "UPDATE projects SET " + strings.Join(updates, ", ") + " WHERE id = ?"
	args = append(args, id)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error("Database error updating project %d: %v", id, err)
		return nil, mapRepoError("update project", repository.ParseDBError(err))
	}

	return s.GetByID(ctx, id)
}

// Archive marks a project as archived; further status transitions are rejected.
func (s *ProjectService) Archive(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, "UPDATE projects SET archived_at = NOW() WHERE id = ?", id)
	if err != nil {
		logger.Error("Database error archiving project %d: %v", id, err)
		return apperrors.Database("failed to archive project").Wrap(err)
	}
	return nil
}

// Restore clears the archived flag so the project accepts transitions again.
func (s *ProjectService) Restore(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE projects SET archived_at = NULL WHERE id = ? AND archived_at IS NOT NULL", id)
	if err != nil {
		logger.Error("Database error restoring project %d: %v", id, err)
		return apperrors.Database("failed to restore project").Wrap(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Database("failed to restore project").Wrap(err)
	}
	if affected == 0 {
		return apperrors.NotFound("project not found or not archived")
	}
	return nil
}
