package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/depotrack/depotrack/internal/auth"
	"github.com/depotrack/depotrack/internal/models"
	"github.com/depotrack/depotrack/internal/services"
	"github.com/depotrack/depotrack/internal/status"
	"github.com/depotrack/depotrack/internal/utils"
)

// StatusUpdateRequest represents one proposed status transition.
// The track decides which fields are meaningful: secondaryValue only applies
// to the two-level tracks and auxiliary only to DELIVERY.
type StatusUpdateRequest struct {
	Track          string                  `json:"track" binding:"required"`
	Value          string                  `json:"value"`
	SecondaryValue string                  `json:"secondaryValue"`
	Auxiliary      *status.DeliveryDetails `json:"auxiliary"`
}

// UpdateProjectStatus applies one status transition to a project track.
// Write permission is checked per track, so a role may update DELIVERY but
// not ORDER. Returns 422 with field errors when the transition fails
// vocabulary validation, 409 when concurrent writers keep winning the race.
func (h *Handlers) UpdateProjectStatus(authSvc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := utils.GetIDParam(c)
		if !ok {
			return
		}

		var req StatusUpdateRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}

		track := status.Track(req.Track)
		if !track.IsValid() {
			utils.ProblemBadRequest(c, "Unknown status track: "+req.Track)
			return
		}

		role, roleOk := auth.UserRole(c)
		if !roleOk {
			utils.ProblemAuthentication(c, "Authentication required")
			return
		}
		allowed, err := authSvc.Can(role, auth.StatusResource(track), auth.ActionWrite)
		if err != nil {
			utils.ProblemInternalServer(c, "Permission check failed")
			return
		}
		if !allowed {
			utils.ProblemForbidden(c, "Insufficient permissions for track "+string(track))
			return
		}

		userID, _ := auth.UserID(c)
		next, err := h.statusSvc.UpdateStatus(c.Request.Context(), services.UpdateStatusRequest{
			ProjectID:      projectID,
			Track:          track,
			Value:          req.Value,
			SecondaryValue: req.SecondaryValue,
			Auxiliary:      req.Auxiliary,
			Actor:          models.Actor{UserID: userID, Role: role},
		})
		if err != nil {
			handleServiceError(c, err, "Status")
			return
		}

		utils.Success(c, next)
	}
}

// GetProjectStatus returns the current value of all four tracks plus the
// derived completion flag.
func (h *Handlers) GetProjectStatus(c *gin.Context) {
	projectID, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	agg, err := h.statusSvc.GetProjectStatus(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, err, "Status")
		return
	}

	utils.Success(c, agg)
}

// GetProjectStatusHistory returns the committed transition trail, newest first.
func (h *Handlers) GetProjectStatusHistory(c *gin.Context) {
	projectID, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	entries, err := h.statusSvc.History(c.Request.Context(), projectID)
	if err != nil {
		handleServiceError(c, err, "Status history")
		return
	}

	utils.Success(c, entries)
}
