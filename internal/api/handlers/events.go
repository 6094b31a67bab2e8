package handlers

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/depotrack/depotrack/internal/utils"
)

// heartbeatInterval keeps idle SSE connections alive through proxies.
const heartbeatInterval = 30 * time.Second

// StreamProjectEvents streams committed status transitions for one project as
// Server-Sent Events. Each committed transition becomes one "status" event;
// the stream ends when the client disconnects or the server shuts down.
func (h *Handlers) StreamProjectEvents(c *gin.Context) {
	projectID, ok := utils.GetIDParam(c)
	if !ok {
		return
	}

	if _, err := h.projectSvc.GetByID(c.Request.Context(), projectID); err != nil {
		handleServiceError(c, err, "Project")
		return
	}

	sub := h.hub.Subscribe(projectID)
	defer sub.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, open := <-sub.Events():
			if !open {
				return false
			}
			c.SSEvent("status", event)
			return true
		case <-heartbeat.C:
			c.SSEvent("heartbeat", time.Now().UTC().Format(time.RFC3339))
			return true
		case <-ctx.Done():
			return false
		}
	})
}
