package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/depotrack/depotrack/internal/apperrors"
	"github.com/depotrack/depotrack/internal/models"
	"github.com/depotrack/depotrack/internal/repository"
	"github.com/depotrack/depotrack/pkg/logger"
)

// UserService handles business logic for user operations.
type UserService struct {
	db *sqlx.DB
}

// NewUserService creates a new user service instance.
func NewUserService(db *sqlx.DB) *UserService {
	return &UserService{db: db}
}

// CreateUserRequest contains the data needed to create a new user.
type CreateUserRequest struct {
	Username string
	FullName string
	Password string
	Email    *string
	Role     string
}

// UpdateUserRequest contains the data needed to update an existing user.
type UpdateUserRequest struct {
	FullName *string
	Email    *string
	Role     *string
	Password *string
}

// Create creates a new user with a bcrypt-hashed password.
func (s *UserService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if !models.ValidRole(req.Role) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("invalid role %q", req.Role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Database("failed to hash password").Wrap(err)
	}

	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, full_name, password_hash, email, role, password_changed_at) VALUES (?, ?, ?, ?, ?, NOW())",
		req.Username, req.FullName, string(hash), req.Email, req.Role)
	if err != nil {
		parsed := repository.ParseDBError(err)
		if errors.Is(parsed, repository.ErrDuplicateKey) {
			return nil, apperrors.Duplicate(fmt.Sprintf("username %q already exists", req.Username)).Wrap(err)
		}
		logger.Error("Database error creating user: %v", err)
		return nil, mapRepoError("create user", parsed)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, apperrors.Database("failed to get created user ID").Wrap(err)
	}

	return s.GetByID(ctx, id)
}

// GetByID retrieves a user by ID.
func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("user %d not found", id))
		}
		logger.Error("Database error fetching user %d: %v", id, err)
		return nil, apperrors.Database("failed to fetch user").Wrap(err)
	}
	return &user, nil
}

// GetByUsername retrieves a user by username.
func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE username = ?", username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(fmt.Sprintf("user %q not found", username))
		}
		logger.Error("Database error fetching user %q: %v", username, err)
		return nil, apperrors.Database("failed to fetch user").Wrap(err)
	}
	return &user, nil
}

// List returns users ordered by username.
func (s *UserService) List(ctx context.Context, limit, offset int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM users"); err != nil {
		return nil, 0, apperrors.Database("failed to count users").Wrap(err)
	}

	var users []models.User
	err := s.db.SelectContext(ctx, &users,
		"SELECT * FROM users ORDER BY username LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, apperrors.Database("failed to fetch users").Wrap(err)
	}
	return users, total, nil
}

// Update updates an existing user. Demoting the last admin is rejected.
func (s *UserService) Update(ctx context.Context, id int64, req *UpdateUserRequest) (*models.User, error) {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != nil && *req.Role != current.Role {
		if !models.ValidRole(*req.Role) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid role %q", *req.Role))
		}
		if current.Role == models.RoleAdmin {
			if err := s.ensureNotLastAdmin(ctx, id); err != nil {
				return nil, err
			}
		}
	}

	updates := []string{}
	args := []interface{}{}

	if req.FullName != nil {
		updates = append(updates, "full_name = ?")
		args = append(args, *req.FullName)
	}
	if req.Email != nil {
		updates = append(updates, "email = ?")
		args = append(args, *req.Email)
	}
	if req.Role != nil {
		updates = append(updates, "role = ?")
		args = append(args, *req.Role)
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperrors.Database("failed to hash password").Wrap(err)
		}
		updates = append(updates, "password_hash = ?", "password_changed_at = NOW()")
		args = append(args, string(hash))
	}

	if len(updates) == 0 {
		return nil, apperrors.InvalidInput("no fields to update")
	}

	query := "UPDATE users SET " + strings.Join(updates, ", ") + " WHERE id = ?"
	args = append(args, id)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error("Database error updating user %d: %v", id, err)
		return nil, mapRepoError("update user", repository.ParseDBError(err))
	}

	return s.GetByID(ctx, id)
}

// Suspend blocks a user from logging in. The last active admin cannot be
// suspended.
func (s *UserService) Suspend(ctx context.Context, id int64) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx, id); err != nil {
			return err
		}
	}

	_, err = s.db.ExecContext(ctx, "UPDATE users SET suspended_at = NOW() WHERE id = ?", id)
	if err != nil {
		logger.Error("Database error suspending user %d: %v", id, err)
		return apperrors.Database("failed to suspend user").Wrap(err)
	}
	return nil
}

// Unsuspend re-enables a suspended user.
func (s *UserService) Unsuspend(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, "UPDATE users SET suspended_at = NULL WHERE id = ?", id)
	if err != nil {
		logger.Error("Database error unsuspending user %d: %v", id, err)
		return apperrors.Database("failed to unsuspend user").Wrap(err)
	}
	return nil
}

// Delete removes a user. The last active admin cannot be removed.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		if err := s.ensureNotLastAdmin(ctx, id); err != nil {
			return err
		}
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		parsed := repository.ParseDBError(err)
		if errors.Is(parsed, repository.ErrForeignKeyViolation) {
			return apperrors.DependencyExists("user has created projects and cannot be deleted; suspend instead").Wrap(err)
		}
		logger.Error("Database error deleting user %d: %v", id, err)
		return apperrors.Database("failed to delete user").Wrap(err)
	}
	return nil
}

// RecordLogin updates the login bookkeeping after a successful authentication.
func (s *UserService) RecordLogin(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_login_at = NOW(), login_count = login_count + 1 WHERE id = ?", id)
	if err != nil {
		logger.Error("Database error recording login for user %d: %v", id, err)
		return apperrors.Database("failed to record login").Wrap(err)
	}
	return nil
}

// ensureNotLastAdmin rejects operations that would leave the system without
// an active administrator.
func (s *UserService) ensureNotLastAdmin(ctx context.Context, excludeID int64) error {
	var count int64
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM users WHERE role = ? AND suspended_at IS NULL AND id != ?",
		models.RoleAdmin, excludeID)
	if err != nil {
		return apperrors.Database("failed to count admins").Wrap(err)
	}
	if count == 0 {
		return apperrors.InvalidInput("cannot remove the last active admin")
	}
	return nil
}
