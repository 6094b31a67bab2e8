package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/depotrack/depotrack/internal/services"
	"github.com/depotrack/depotrack/internal/utils"
)

// UserCreateRequest represents the request structure for creating users.
type UserCreateRequest struct {
	Username string  `json:"username" binding:"required,min=3,max=100,alphanum"`
	FullName string  `json:"full_name" binding:"required,min=1,max=255"`
	Password string  `json:"password" binding:"required,min=8,max=128"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Role     string  `json:"role" binding:"required,oneof=admin manager logistics viewer"`
}

// UserUpdateRequest represents the request structure for updating users.
type UserUpdateRequest struct {
	FullName *string `json:"full_name" binding:"omitempty,min=1,max=255"`
	Email    *string `json:"email" binding:"omitempty,email,max=255"`
	Role     *string `json:"role" binding:"omitempty,oneof=admin manager logistics viewer"`
	Password *string `json:"password" binding:"omitempty,min=8,max=128"`
}

// ListUsers returns a paginated list of all users.
func (h *Handlers) ListUsers(c *gin.Context) {
	limit, offset := utils.GetPagination(c)

	users, total, err := h.userSvc.List(c.Request.Context(), limit, offset)
	if err != nil {
		handleServiceError(c, err, "User")
		return
	}

	utils.PaginatedResponse(c, users, total, limit, offset)
}

// GetUser returns a single user by ID.
func (h *Handlers) GetUser(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err, "User")
		return
	}

	utils.Success(c, user)
}

// CreateUser creates a new user account.
func (h *Handlers) CreateUser(c *gin.Context) {
	var req UserCreateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.userSvc.Create(c.Request.Context(), &services.CreateUserRequest{
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
		Email:    req.Email,
		Role:     req.Role,
	})
	if err != nil {
		handleServiceError(c, err, "User")
		return
	}

	utils.CreatedWithLocation(c, user.ID, "/api/v1/users", "User created successfully")
}

// UpdateUser updates an existing user account.
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req UserUpdateRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), id, &services.UpdateUserRequest{
		FullName: req.FullName,
		Email:    req.Email,
		Role:     req.Role,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(c, err, "User")
		return
	}

	utils.Success(c, user)
}

// PatchUser suspends or restores a user account.
func (h *Handlers) PatchUser(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action" binding:"required,oneof=suspend restore"`
	}
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var err error
	if req.Action == "suspend" {
		err = h.userSvc.Suspend(c.Request.Context(), id)
	} else {
		err = h.userSvc.Unsuspend(c.Request.Context(), id)
	}
	if err != nil {
		handleServiceError(c, err, "User")
		return
	}

	utils.Success(c, utils.MessageResponse{Message: "User state updated"})
}

// DeleteUser removes a user account.
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err, "User")
		return
	}

	utils.NoContent(c)
}
