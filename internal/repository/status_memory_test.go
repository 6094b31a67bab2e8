package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/depotrack/depotrack/internal/models"
	"github.com/depotrack/depotrack/internal/status"
)

func entry(projectID int64, track status.Track, id, oldValue, newValue string) *models.StatusHistoryEntry {
	return &models.StatusHistoryEntry{
		ID:        id,
		ProjectID: projectID,
		Track:     track,
		OldValue:  oldValue,
		NewValue:  newValue,
		Actor:     models.Actor{UserID: 7, Role: models.RoleManager},
		Timestamp: time.Now().UTC(),
	}
}

func TestMemoryStoreCommitAndRead(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStatusStore()

	cur, err := store.GetCurrent(ctx, 1, status.TrackOrder)
	if err != nil {
		t.Fatal(err)
	}
	if cur != nil {
		t.Fatalf("expected unset track, got %+v", cur)
	}

	if err := store.CommitTransition(ctx, entry(1, status.TrackOrder, "a", "", "Ordered"), 0); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	cur, err = store.GetCurrent(ctx, 1, status.TrackOrder)
	if err != nil {
		t.Fatal(err)
	}
	if cur == nil || cur.Value != "Ordered" || cur.Version != 1 {
		t.Fatalf("unexpected current: %+v", cur)
	}
}

func TestMemoryStoreVersionConflict(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStatusStore()

	if err := store.CommitTransition(ctx, entry(1, status.TrackOrder, "a", "", "Ordered"), 0); err != nil {
		t.Fatal(err)
	}

	// Stale expected version loses.
	if err := store.CommitTransition(ctx, entry(1, status.TrackOrder, "b", "", ""), 0); err != ErrConflict {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Correct version wins.
	if err := store.CommitTransition(ctx, entry(1, status.TrackOrder, "c", "Ordered", ""), 1); err != nil {
		t.Fatalf("expected commit with matching version, got %v", err)
	}

	cur, _ := store.GetCurrent(ctx, 1, status.TrackOrder)
	if cur.Version != 2 {
		t.Fatalf("expected version 2, got %d", cur.Version)
	}
}

func TestMemoryStoreHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStatusStore()

	if err := store.CommitTransition(ctx, entry(1, status.TrackOrder, "a", "", "Ordered"), 0); err != nil {
		t.Fatal(err)
	}
	if err := store.CommitTransition(ctx, entry(1, status.TrackCheck, "b", "", "(C.B)"), 0); err != nil {
		t.Fatal(err)
	}
	if err := store.CommitTransition(ctx, entry(2, status.TrackOrder, "c", "", "Ordered"), 0); err != nil {
		t.Fatal(err)
	}

	entries, err := store.History(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries for project 1, got %d", len(entries))
	}
	if entries[0].ID != "b" || entries[1].ID != "a" {
		t.Errorf("expected newest first, got %s then %s", entries[0].ID, entries[1].ID)
	}
}

func TestMemoryStoreConcurrentCommitsSerialize(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStatusStore()

	// Two writers race for the same unset track. Exactly one wins; the other
	// gets a conflict and must re-read before retrying.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e := entry(1, status.TrackPickup, []string{"a", "b"}[i], "", "Picked up")
			errs[i] = store.CommitTransition(ctx, e, 0)
		}(i)
	}
	wg.Wait()

	conflicts := 0
	for _, err := range errs {
		if err == ErrConflict {
			conflicts++
		} else if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if conflicts != 1 {
		t.Fatalf("expected exactly one conflict, got %d", conflicts)
	}

	entries, _ := store.History(ctx, 1)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one history entry, got %d", len(entries))
	}
	cur, _ := store.GetCurrent(ctx, 1, status.TrackPickup)
	if cur.Version != 1 {
		t.Fatalf("expected version 1, got %d", cur.Version)
	}
}

func TestMemoryStoreCopiesAuxiliary(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStatusStore()

	e := entry(1, status.TrackDelivery, "a", "", "Delivered")
	e.Auxiliary = &status.DeliveryDetails{Time: "2026-03-01T10:00:00Z", Address: "Dock 4", PO: "PO-1881", DeliveredBy: "R. Vos"}
	if err := store.CommitTransition(ctx, e, 0); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's payload must not leak into the store.
	e.Auxiliary.Address = "changed"

	cur, _ := store.GetCurrent(ctx, 1, status.TrackDelivery)
	if cur.Auxiliary.Address != "Dock 4" {
		t.Errorf("store aliased caller's auxiliary payload: %q", cur.Auxiliary.Address)
	}

	entries, _ := store.History(ctx, 1)
	if entries[0].Auxiliary.Address != "Dock 4" {
		t.Errorf("history aliased caller's auxiliary payload: %q", entries[0].Auxiliary.Address)
	}
}
