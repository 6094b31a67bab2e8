package realtime

import (
	"testing"
	"time"

	"github.com/depotrack/depotrack/internal/models"
	"github.com/depotrack/depotrack/internal/status"
)

func testEvent(projectID int64, value string) Event {
	return Event{
		Type:      EventTypeStatusUpdated,
		ProjectID: projectID,
		Track:     status.TrackOrder,
		Value:     value,
		Actor:     models.Actor{UserID: 7, Role: models.RoleManager},
		Timestamp: time.Now().UTC(),
	}
}

func TestHubDeliversToProjectSubscribers(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe(1)
	defer sub.Close()
	other := hub.Subscribe(2)
	defer other.Close()

	hub.Publish(testEvent(1, "Ordered"))

	select {
	case event := <-sub.Events():
		if event.ProjectID != 1 || event.Value != "Ordered" {
			t.Fatalf("unexpected event: %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}

	// The other project's subscriber sees nothing.
	select {
	case event := <-other.Events():
		t.Fatalf("unexpected event for project 2: %+v", event)
	default:
	}
}

func TestHubDeliveryOrder(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe(1)
	defer sub.Close()

	hub.Publish(testEvent(1, "first"))
	hub.Publish(testEvent(1, "second"))
	hub.Publish(testEvent(1, "third"))

	for _, want := range []string{"first", "second", "third"} {
		event := <-sub.Events()
		if event.Value != want {
			t.Fatalf("expected %q, got %q", want, event.Value)
		}
	}
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe(1)

	// Fill the buffer without draining, then overflow it.
	for i := 0; i <= subscriberBuffer; i++ {
		hub.Publish(testEvent(1, "v"))
	}

	if got := hub.SubscriberCount(); got != 0 {
		t.Fatalf("expected slow subscriber to be dropped, count = %d", got)
	}

	// The buffered events are still readable, then the channel closes.
	received := 0
	for range sub.Events() {
		received++
	}
	if received != subscriberBuffer {
		t.Fatalf("expected %d buffered events, got %d", subscriberBuffer, received)
	}
}

func TestHubSubscriptionClose(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	sub := hub.Subscribe(1)
	if got := hub.SubscriberCount(); got != 1 {
		t.Fatalf("expected 1 subscriber, got %d", got)
	}

	sub.Close()
	if got := hub.SubscriberCount(); got != 0 {
		t.Fatalf("expected 0 subscribers after close, got %d", got)
	}
	// Close is idempotent.
	sub.Close()

	if _, ok := <-sub.Events(); ok {
		t.Fatal("expected closed channel after Close")
	}

	// Publishing after the subscriber left must not panic or deliver.
	hub.Publish(testEvent(1, "late"))
}

func TestHubCloseClosesAllSubscriptions(t *testing.T) {
	hub := NewHub()

	a := hub.Subscribe(1)
	b := hub.Subscribe(2)

	hub.Close()

	for _, sub := range []*Subscription{a, b} {
		if _, ok := <-sub.Events(); ok {
			t.Fatal("expected closed channel after hub shutdown")
		}
	}

	// Subscribing to a closed hub yields an already-closed subscription.
	late := hub.Subscribe(3)
	if _, ok := <-late.Events(); ok {
		t.Fatal("expected closed channel for late subscription")
	}
	hub.Publish(testEvent(1, "after close"))
	hub.Close()
}
