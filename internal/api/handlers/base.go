// Package handlers provides HTTP request handlers for all API endpoints.
package handlers

import (
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/gin-gonic/gin"

	"github.com/depotrack/depotrack/internal/apperrors"
	"github.com/depotrack/depotrack/internal/config"
	"github.com/depotrack/depotrack/internal/realtime"
	"github.com/depotrack/depotrack/internal/services"
	"github.com/depotrack/depotrack/internal/utils"
	"github.com/depotrack/depotrack/pkg/logger"
)

// Handlers contains all the dependencies needed by the API handlers.
type Handlers struct {
	db          *sqlx.DB
	config      *config.Config
	hub         *realtime.Hub
	projectSvc  *services.ProjectService
	materialSvc *services.MaterialService
	userSvc     *services.UserService
	statusSvc   *services.StatusService
}

// NewHandlers creates a new Handlers instance with all required dependencies.
func NewHandlers(
	db *sqlx.DB,
	cfg *config.Config,
	hub *realtime.Hub,
	projectSvc *services.ProjectService,
	materialSvc *services.MaterialService,
	userSvc *services.UserService,
	statusSvc *services.StatusService,
) *Handlers {
	return &Handlers{
		db:          db,
		config:      cfg,
		hub:         hub,
		projectSvc:  projectSvc,
		materialSvc: materialSvc,
		userSvc:     userSvc,
		statusSvc:   statusSvc,
	}
}

// handleServiceError converts apperrors.Error to appropriate HTTP responses.
// Internal error details are logged but never exposed to clients.
func handleServiceError(c *gin.Context, err error, resource string) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		// Log internal details if present
		if appErr.Internal != "" {
			logger.Error("%s error: %s (internal: %s)", resource, appErr.Message, appErr.Internal)
		}
		if appErr.Err != nil {
			logger.Error("%s underlying error: %v", resource, appErr.Err)
		}

		// Map error code to HTTP response
		switch appErr.Code {
		case apperrors.CodeNotFound:
			utils.ProblemNotFound(c, resource)
		case apperrors.CodeDuplicate:
			utils.ProblemDuplicate(c, resource)
		case apperrors.CodeConflict:
			utils.ProblemConflict(c, appErr.Message)
		case apperrors.CodeDependencyExists:
			utils.ProblemCustom(c, "https://depotrack.api/problems/dependency-constraint", "Dependency Constraint", 409, appErr.Message)
		case apperrors.CodeValidation:
			utils.ProblemValidationError(c, appErr.Message, fieldErrors(appErr.Fields))
		case apperrors.CodeInvalidInput:
			utils.ProblemBadRequest(c, appErr.Message)
		case apperrors.CodeUnauthorized:
			utils.ProblemAuthentication(c, appErr.Message)
		case apperrors.CodeForbidden:
			utils.ProblemForbidden(c, appErr.Message)
		default:
			utils.ProblemInternalServer(c, fmt.Sprintf("Failed to process %s", resource))
		}
		return
	}

	logger.Error("Unhandled error for %s: %v", resource, err)
	utils.ProblemInternalServer(c, fmt.Sprintf("Failed to process %s", resource))
}

// fieldErrors converts a field-to-message map into the wire validation format.
func fieldErrors(fields map[string]string) []utils.ValidationError {
	if len(fields) == 0 {
		return nil
	}
	errs := make([]utils.ValidationError, 0, len(fields))
	for field, message := range fields {
		errs = append(errs, utils.ValidationError{Field: field, Message: message})
	}
	return errs
}
