// Package services provides business logic services for the Depotrack API.
package services

import (
	"errors"
	"fmt"

	"github.com/depotrack/depotrack/internal/apperrors"
	"github.com/depotrack/depotrack/internal/repository"
)

// mapRepoError translates repository errors to application-level errors.
// It preserves the operation context and maps common repository errors to
// their corresponding application error types.
func mapRepoError(op string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(fmt.Sprintf("%s: record not found", op)).Wrap(err)
	case errors.Is(err, repository.ErrDuplicateKey):
		return apperrors.Duplicate(fmt.Sprintf("%s: already exists", op)).Wrap(err)
	case errors.Is(err, repository.ErrForeignKeyViolation):
		return apperrors.InvalidInput(fmt.Sprintf("%s: invalid reference to related resource", op)).Wrap(err)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.Conflict(fmt.Sprintf("%s: concurrent update", op)).Wrap(err)
	default:
		return apperrors.Database(fmt.Sprintf("%s: database operation failed", op)).Wrap(err)
	}
}
