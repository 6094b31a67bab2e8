package optimistic

import (
	"testing"
	"time"
)

func TestViewPrefersNewestPending(t *testing.T) {
	r := New[string, string](0)
	r.Apply("ORDER", "Ordered")

	if v, ok := r.View("ORDER"); !ok || v != "Ordered" {
		t.Fatalf("expected confirmed value, got %q ok=%v", v, ok)
	}

	r.Submit("ORDER", "first edit")
	r.Submit("ORDER", "second edit")

	if v, _ := r.View("ORDER"); v != "second edit" {
		t.Fatalf("expected newest pending in view, got %q", v)
	}
	if got := r.PendingCount("ORDER"); got != 2 {
		t.Fatalf("expected 2 pending, got %d", got)
	}
}

func TestViewUnknownKey(t *testing.T) {
	r := New[string, string](0)
	if _, ok := r.View("ORDER"); ok {
		t.Fatal("expected no value for unknown key")
	}
}

func TestConfirmPromotesPending(t *testing.T) {
	r := New[string, string](0)
	token := r.Submit("ORDER", "Ordered")

	r.Confirm("ORDER", token)

	if v, ok := r.View("ORDER"); !ok || v != "Ordered" {
		t.Fatalf("expected confirmed %q, got %q ok=%v", "Ordered", v, ok)
	}
	if got := r.PendingCount("ORDER"); got != 0 {
		t.Fatalf("expected no pending after confirm, got %d", got)
	}

	// Late duplicate confirmation is harmless.
	r.Confirm("ORDER", token)
}

func TestRejectRollsBack(t *testing.T) {
	r := New[string, string](0)
	r.Apply("ORDER", "Ordered")
	token := r.Submit("ORDER", "edit that will lose")

	if v, _ := r.View("ORDER"); v != "edit that will lose" {
		t.Fatalf("expected optimistic view, got %q", v)
	}

	if !r.Reject("ORDER", token) {
		t.Fatal("expected Reject to find the token")
	}
	if v, _ := r.View("ORDER"); v != "Ordered" {
		t.Fatalf("expected rollback to confirmed value, got %q", v)
	}
	if r.Reject("ORDER", token) {
		t.Fatal("expected second Reject to report not found")
	}
}

func TestRejectMiddleOfQueue(t *testing.T) {
	r := New[string, string](0)
	r.Submit("ORDER", "a")
	loser := r.Submit("ORDER", "b")
	r.Submit("ORDER", "c")

	r.Reject("ORDER", loser)

	if v, _ := r.View("ORDER"); v != "c" {
		t.Fatalf("expected newest surviving pending, got %q", v)
	}
	if got := r.PendingCount("ORDER"); got != 2 {
		t.Fatalf("expected 2 pending, got %d", got)
	}
}

func TestApplySupersedesPending(t *testing.T) {
	r := New[string, string](0)
	token := r.Submit("ORDER", "my edit")

	// An authoritative event arrives: someone else won the race.
	r.Apply("ORDER", "their edit")

	if v, _ := r.View("ORDER"); v != "their edit" {
		t.Fatalf("expected server value, got %q", v)
	}
	if got := r.PendingCount("ORDER"); got != 0 {
		t.Fatalf("expected pending cleared, got %d", got)
	}
	// The stale confirmation must not resurrect the superseded edit.
	r.Confirm("ORDER", token)
	if v, _ := r.View("ORDER"); v != "their edit" {
		t.Fatalf("expected server value to stand, got %q", v)
	}
}

func TestExpireDropsStalePending(t *testing.T) {
	r := New[string, string](30 * time.Second)
	current := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return current }

	r.Apply("ORDER", "Ordered")
	r.Submit("ORDER", "stuck edit")
	current = current.Add(10 * time.Second)
	r.Submit("DELIVERY", "fresh edit")

	current = current.Add(25 * time.Second)
	if got := r.Expire(); got != 1 {
		t.Fatalf("expected 1 expired update, got %d", got)
	}

	if v, _ := r.View("ORDER"); v != "Ordered" {
		t.Fatalf("expected rollback after expiry, got %q", v)
	}
	if v, ok := r.View("DELIVERY"); !ok || v != "fresh edit" {
		t.Fatalf("expected fresh pending kept, got %q ok=%v", v, ok)
	}
}

func TestExpireDisabledWithZeroTTL(t *testing.T) {
	r := New[string, string](0)
	r.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	r.Submit("ORDER", "edit")

	if got := r.Expire(); got != 0 {
		t.Fatalf("expected no expiry with zero ttl, got %d", got)
	}
	if got := r.PendingCount("ORDER"); got != 1 {
		t.Fatalf("expected pending kept, got %d", got)
	}
}
