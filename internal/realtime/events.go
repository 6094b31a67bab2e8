// Package realtime propagates committed status transitions to connected
// dashboard sessions through an in-process publish/subscribe hub.
package realtime

import (
	"time"

	"github.com/depotrack/depotrack/internal/models"
	"github.com/depotrack/depotrack/internal/status"
)

// EventTypeStatusUpdated is the only event type currently carried on the channel.
const EventTypeStatusUpdated = "STATUS_UPDATED"

// Event is the payload pushed to every subscribed session after a committed
// transition. Events are delivered in commit order per project; the server is
// the single source of truth and clients apply them unconditionally. Version
// carries the record store's concurrency token so a consumer can discard an
// event with a version at or below the last one it saw for the same track.
type Event struct {
	Type           string                  `json:"type"`
	ProjectID      int64                   `json:"projectId"`
	Track          status.Track            `json:"track"`
	Value          string                  `json:"value"`
	SecondaryValue string                  `json:"secondaryValue,omitempty"`
	Auxiliary      *status.DeliveryDetails `json:"auxiliary,omitempty"`
	Version        int64                   `json:"version"`
	Actor          models.Actor            `json:"actor"`
	Timestamp      time.Time               `json:"timestamp"`
}

// StatusUpdated builds the event for one committed transition.
func StatusUpdated(ts *models.TrackStatus, actor models.Actor) Event {
	return Event{
		Type:           EventTypeStatusUpdated,
		ProjectID:      ts.ProjectID,
		Track:          ts.Track,
		Value:          ts.Value,
		SecondaryValue: ts.SecondaryValue,
		Auxiliary:      ts.Auxiliary,
		Version:        ts.Version,
		Actor:          actor,
		Timestamp:      ts.UpdatedAt,
	}
}
