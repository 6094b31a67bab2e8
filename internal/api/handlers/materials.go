package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/depotrack/depotrack/internal/services"
	"github.com/depotrack/depotrack/internal/utils"
)

// MaterialRequest represents the request structure for creating material lines.
type MaterialRequest struct {
	Name     string  `json:"name" binding:"required,min=1,max=255"`
	SKU      string  `json:"sku" binding:"required,min=1,max=100"`
	Unit     string  `json:"unit" binding:"required,min=1,max=20"`
	Quantity float64 `json:"quantity" binding:"gte=0"`
	Supplier string  `json:"supplier" binding:"max=255"`
}

// MaterialUpdateRequest represents the request structure for updating material lines.
type MaterialUpdateRequest struct {
	Name     *string  `json:"name" binding:"omitempty,min=1,max=255"`
	SKU      *string  `json:"sku" binding:"omitempty,min=1,max=100"`
	Unit     *string  `json:"unit" binding:"omitempty,min=1,max=20"`
	Quantity *float64 `json:"quantity" binding:"omitempty,gte=0"`
	Supplier *string  `json:"supplier" binding:"omitempty,max=255"`
}

// ListProjectMaterials returns the material lines of one project.
func (h *Handlers) ListProjectMaterials(c *gin.Context) {
	projectID, ok := utils.GetIDParam(c)
	if !ok {
		return
	}
	limit, offset := utils.GetPagination(c)

	// 404 for unknown projects rather than an empty list
	if _, err := h.projectSvc.GetByID(c.Request.Context(), projectID); err != nil {
		handleServiceError(c, err, "Project")
		return
	}

	materials, total, err := h.materialSvc.ListByProject(c.Request.Context(), projectID, limit, offset)
	if err != nil {
		handleServiceError(c, err, "Material")
		return
	}

	utils.PaginatedResponse(c, materials, total, limit, offset)
}

// CreateProjectMaterial adds a material line to a project.
func (h *Handlers) CreateProjectMaterial(c *gin.Context) {
	projectID, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req MaterialRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if _, err := h.projectSvc.GetByID(c.Request.Context(), projectID); err != nil {
		handleServiceError(c, err, "Project")
		return
	}

	material, err := h.materialSvc.Create(c.Request.Context(), &services.CreateMaterialRequest{
		ProjectID: projectID,
		Name:      req.Name,
		SKU:       req.SKU,
		Unit:      req.Unit,
		Quantity:  req.Quantity,
		Supplier:  req.Supplier,
	})
	if err != nil {
		handleServiceError(c, err, "Material")
		return
	}

	utils.CreatedWithLocation(c, material.ID, "/api/v1/materials", "Material created successfully")
}

// GetMaterial returns a single material line by ID.
func (h *Handlers) GetMaterial(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	material, err := h.materialSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "Material")
		return
	}

	utils.Success(c, material)
}

// UpdateMaterial updates an existing material line.
func (h *Handlers) UpdateMaterial(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req MaterialUpdateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	material, err := h.materialSvc.Update(c.Request.Context(), id, &services.UpdateMaterialRequest{
		Name:     req.Name,
		SKU:      req.SKU,
		Unit:     req.Unit,
		Quantity: req.Quantity,
		Supplier: req.Supplier,
	})
	if err != nil {
		handleServiceError(c, err, "Material")
		return
	}

	utils.Success(c, material)
}

// DeleteMaterial removes a material line.
func (h *Handlers) DeleteMaterial(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	if err := h.materialSvc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "Material")
		return
	}

	utils.NoContent(c)
}
