package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/depotrack/depotrack/pkg/logger"
)

// subscriberBuffer is the per-subscription channel capacity. A subscriber
// that falls this far behind is disconnected rather than blocking publishers.
const subscriberBuffer = 16

// Hub fans committed status events out to subscribed dashboard sessions.
// Publishing never blocks: events to a full subscriber are dropped and the
// subscription is closed so the client reconnects and re-queries state.
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]*Subscription
	closed bool
}

// Subscription is one session's view of the event stream for a project.
type Subscription struct {
	id        uuid.UUID
	projectID int64
	ch        chan Event
	hub       *Hub
	once      sync.Once
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[uuid.UUID]*Subscription)}
}

// Subscribe registers interest in one project's status events.
// The caller must Close the subscription when done.
func (h *Hub) Subscribe(projectID int64) *Subscription {
	sub := &Subscription{
		id:        uuid.New(),
		projectID: projectID,
		ch:        make(chan Event, subscriberBuffer),
	}
	sub.hub = h

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.ch)
		return sub
	}
	h.subs[sub.id] = sub
	return sub
}

// Events returns the channel events are delivered on. The channel is closed
// when the subscription ends, whether by Close, overflow, or hub shutdown.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Close detaches the subscription from the hub.
func (s *Subscription) Close() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.hub.removeLocked(s)
}

// removeLocked detaches and closes a subscription. Caller holds h.mu.
func (h *Hub) removeLocked(s *Subscription) {
	if _, ok := h.subs[s.id]; ok {
		delete(h.subs, s.id)
	}
	s.once.Do(func() { close(s.ch) })
}

// Publish delivers the event to every subscriber of its project, in call
// order. Subscribers with a full buffer are dropped.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	for _, sub := range h.subs {
		if sub.projectID != event.ProjectID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			logger.Warn("Dropping slow status subscriber %s for project %d", sub.id, sub.projectID)
			h.removeLocked(sub)
		}
	}
}

// SubscriberCount reports the number of attached subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close shuts the hub down and closes every subscription channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, sub := range h.subs {
		h.removeLocked(sub)
	}
}
