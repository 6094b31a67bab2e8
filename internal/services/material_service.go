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

// MaterialService handles business logic for material line operations.
type MaterialService struct {
	db *sqlx.DB
}

// NewMaterialService creates a new material service instance.
func NewMaterialService(db *sqlx.DB) *MaterialService {
	return &MaterialService{db: db}
}

// CreateMaterialRequest contains the data needed to create a material line.
type CreateMaterialRequest struct {
	ProjectID int64
	Name      string
	SKU       string
	Unit      string
	Quantity  float64
	Supplier  string
}

// UpdateMaterialRequest contains the data needed to update a material line.
type UpdateMaterialRequest struct {
	Name     *string
	SKU      *string
	Unit     *string
	Quantity *float64
	Supplier *string
}

// Create adds a material line to a project. The SKU must be unique within
// the project; the same SKU may appear on other projects.
func (s *MaterialService) Create(ctx context.Context, req *CreateMaterialRequest) (*models.Material, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO materials (project_id, name, sku, unit, quantity, supplier) VALUES (?, ?, ?, ?, ?, ?)",
		req.ProjectID, req.Name, req.SKU, req.Unit, req.Quantity, req.Supplier)
	if err != nil {
		parsed := repository.ParseDBError(err)
		if errors.Is(parsed, repository.ErrDuplicateKey) {
			return nil, apperrors.Duplicate(fmt.Sprintf("SKU %q already exists on this project", req.SKU)).Wrap(err)
		}
		logger.Error("Database error creating material: %v", err)
		return nil, mapRepoError("create material", parsed)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, apperrors.Database("failed to get created material ID").Wrap(err)
	}

	return s.GetByID(ctx, id)
}

// GetByID retrieves a material line by its ID.
func (s *MaterialService) GetByID(ctx context.Context, id int64) (*models.Material, error) {
	var material models.Material
	err := s.db.GetContext(ctx, &material, "SELECT * FROM materials WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("material %d not found", id))
		}
		logger.Error("Database error fetching material %d: %v", id, err)
		return nil, apperrors.Database("failed to fetch material").Wrap(err)
	}
	return &material, nil
}

// ListByProject returns the material lines of one project, ordered by name.
func (s *MaterialService) ListByProject(ctx context.Context, projectID int64, limit, offset int) ([]models.Material, int64, error) {
	var total int64
	if err := s.db.GetContext(ctx, &total,
		"SELECT COUNT(*) FROM materials WHERE project_id = ?", projectID); err != nil {
		return nil, 0, apperrors.Database("failed to count materials").Wrap(err)
	}

	var materials []models.Material
	err := s.db.SelectContext(ctx, &materials,
		"SELECT * FROM materials WHERE project_id = ? ORDER BY name LIMIT ? OFFSET ?",
		projectID, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database("failed to fetch materials").Wrap(err)
	}
	return materials, total, nil
}

// Update updates an existing material line.
func (s *MaterialService) Update(ctx context.Context, id int64, req *UpdateMaterialRequest) (*models.Material, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	updates := []string{}
	args := []interface{}{}

	if req.Name != nil {
		updates = append(updates, "name = ?")
		args = append(args, *req.Name)
	}
	if req.SKU != nil {
		updates = append(updates, "sku = ?")
		args = append(args, *req.SKU)
	}
	if req.Unit != nil {
		updates = append(updates, "unit = ?")
		args = append(args, *req.Unit)
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, apperrors.InvalidInput("quantity cannot be negative")
		}
		updates = append(updates, "quantity = ?")
		args = append(args, *req.Quantity)
	}
	if req.Supplier != nil {
		updates = append(updates, "supplier = ?")
		args = append(args, *req.Supplier)
	}

	if len(updates) == 0 {
		return nil, apperrors.InvalidInput("no fields to update")
	}

	query := "UPDATE materials SET " + strings.Join(updates, ", ") + " WHERE id = ?"
	args = append(args, id)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error("Database error updating material %d: %v", id, err)
		return nil, mapRepoError("update material", repository.ParseDBError(err))
	}

	return s.GetByID(ctx, id)
}

// Delete removes a material line.
func (s *MaterialService) Delete(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM materials WHERE id = ?", id)
	if err != nil {
		logger.Error("Database error deleting material %d: %v", id, err)
		return apperrors.Database("failed to delete material").Wrap(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Database("failed to delete material").Wrap(err)
	}
	if affected == 0 {
		return apperrors.NotFound(fmt.Sprintf("material %d not found", id))
	}
	return nil
}
