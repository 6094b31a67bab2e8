package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/depotrack/depotrack/internal/auth"
	"github.com/depotrack/depotrack/internal/services"
	"github.com/depotrack/depotrack/internal/utils"
)

// ProjectRequest represents the request structure for creating projects.
type ProjectRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=255"`
	Reference string `json:"reference" binding:"max=100"`
	Address   string `json:"address" binding:"max=500"`
}

// ProjectUpdateRequest represents the request structure for updating projects.
type ProjectUpdateRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=255"`
	Reference *string `json:"reference" binding:"omitempty,max=100"`
	Address   *string `json:"address" binding:"omitempty,max=500"`
}

// ListProjects returns a paginated list of projects, newest first.
// Archived projects are included when ?archived=true.
func (h *Handlers) ListProjects(c *gin.Context) {
	limit, offset := utils.GetPagination(c)
	includeArchived, _ := strconv.ParseBool(c.Query("archived"))

	projects, total, err := h.projectSvc.List(c.Request.Context(), limit, offset, includeArchived)
	if err != nil {
		handleServiceError(c, err, "Project")
		return
	}

	utils.PaginatedResponse(c, projects, total, limit, offset)
}

// GetProject returns a single project by ID including the derived completion flag.
func (h *Handlers) GetProject(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	project, err := h.projectSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Project")
		return
	}

	utils.Success(c, project)
}

// CreateProject creates a new project. All four status tracks start unset.
func (h *Handlers) CreateProject(c *gin.Context) {
	var req ProjectRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	userID, _ := auth.UserID(c)
	project, err := h.projectSvc.Create(c.Request.Context(), &services.CreateProjectRequest{
		Name:      req.Name,
		Reference: req.Reference,
		Address:   req.Address,
		CreatedBy: userID,
	})
	if err != nil {
		handleServiceError(c, err, "Project")
		return
	}

	utils.CreatedWithLocation(c, project.ID, "/api/v1/projects", "Project created successfully")
}

// UpdateProject updates a project's descriptive fields.
func (h *Handlers) UpdateProject(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req ProjectUpdateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	project, err := h.projectSvc.Update(c.Request.Context(), id, &services.UpdateProjectRequest{
		Name:      req.Name,
		Reference: req.Reference,
		Address:   req.Address,
	})
	if err != nil {
		handleServiceError(c, err, "Project")
		return
	}

	utils.Success(c, project)
}

// ArchiveProject archives or restores a project depending on the action field.
func (h *Handlers) ArchiveProject(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action" binding:"required,oneof=archive restore"`
	}
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var err error
	if req.Action == "archive" {
		err = h.projectSvc.Archive(c.Request.Context(), id)
	} else {
		err = h.projectSvc.Restore(c.Request.Context(), id)
	}
	if err != nil {
		handleServiceError(c, err, "Project")
		return
	}

	utils.Success(c, utils.MessageResponse{Message: "Project state updated"})
}
