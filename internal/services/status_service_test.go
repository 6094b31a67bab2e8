package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/depotrack/depotrack/internal/apperrors"
	"github.com/depotrack/depotrack/internal/models"
	"github.com/depotrack/depotrack/internal/realtime"
	"github.com/depotrack/depotrack/internal/repository"
	"github.com/depotrack/depotrack/internal/status"
)

// stubStore wraps a real store with injectable behavior per method.
type stubStore struct {
	inner      repository.StatusStore
	onCommit   func(entry *models.StatusHistoryEntry, expectedVersion int64) error
	commitCall int
}

func (s *stubStore) GetCurrent(ctx context.Context, projectID int64, track status.Track) (*models.TrackStatus, error) {
	return s.inner.GetCurrent(ctx, projectID, track)
}

func (s *stubStore) History(ctx context.Context, projectID int64) ([]models.StatusHistoryEntry, error) {
	return s.inner.History(ctx, projectID)
}

func (s *stubStore) CommitTransition(ctx context.Context, entry *models.StatusHistoryEntry, expectedVersion int64) error {
	s.commitCall++
	if s.onCommit != nil {
		if err := s.onCommit(entry, expectedVersion); err != nil {
			return err
		}
	}
	return s.inner.CommitTransition(ctx, entry, expectedVersion)
}

// capturePublisher records every published event.
type capturePublisher struct {
	mu     sync.Mutex
	events []realtime.Event
}

func (p *capturePublisher) Publish(event realtime.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func newTestService(store repository.StatusStore, pub *capturePublisher) *StatusService {
	svc := NewStatusService(store,
		repository.StaticProjectStates{
			1: repository.ProjectActive,
			2: repository.ProjectActive,
			9: repository.ProjectArchived,
		},
		status.DefaultVocabulary(), pub)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	seq := 0
	svc.newID = func() string {
		seq++
		return string(rune('a' + seq - 1))
	}
	return svc
}

func orderedRequest(projectID int64) UpdateStatusRequest {
	return UpdateStatusRequest{
		ProjectID:      projectID,
		Track:          status.TrackOrder,
		Value:          "Ordered",
		SecondaryValue: "Processing",
		Actor:          models.Actor{UserID: 7, Role: models.RoleManager},
	}
}

func TestUpdateStatusCommitsAndPublishes(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	svc := newTestService(repository.NewMemoryStatusStore(), pub)

	next, err := svc.UpdateStatus(ctx, orderedRequest(1))
	require.NoError(t, err)
	assert.Equal(t, "Ordered", next.Value)
	assert.Equal(t, "Processing", next.SecondaryValue)
	assert.Equal(t, int64(1), next.Version)

	require.Len(t, pub.events, 1)
	event := pub.events[0]
	assert.Equal(t, realtime.EventTypeStatusUpdated, event.Type)
	assert.Equal(t, int64(1), event.ProjectID)
	assert.Equal(t, status.TrackOrder, event.Track)
	assert.Equal(t, "Ordered", event.Value)
	assert.Equal(t, int64(1), event.Version)
	assert.Equal(t, int64(7), event.Actor.UserID)

	history, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "", history[0].OldValue)
	assert.Equal(t, "Ordered", history[0].NewValue)
}

func TestUpdateStatusIdempotentNoOp(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	svc := newTestService(repository.NewMemoryStatusStore(), pub)

	_, err := svc.UpdateStatus(ctx, orderedRequest(1))
	require.NoError(t, err)

	// Same proposal again: success, no new history entry, no new event.
	next, err := svc.UpdateStatus(ctx, orderedRequest(1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), next.Version)

	assert.Len(t, pub.events, 1)
	history, _ := svc.History(ctx, 1)
	assert.Len(t, history, 1)
}

func TestUpdateStatusValidationFailure(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	svc := newTestService(repository.NewMemoryStatusStore(), pub)

	req := orderedRequest(1)
	req.SecondaryValue = ""
	_, err := svc.UpdateStatus(ctx, req)

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Contains(t, appErr.Fields, "secondaryValue")

	// Nothing was committed or published.
	assert.Empty(t, pub.events)
	history, _ := svc.History(ctx, 1)
	assert.Empty(t, history)
}

func TestUpdateStatusDeliveryFieldErrors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStatusStore(), &capturePublisher{})

	_, err := svc.UpdateStatus(ctx, UpdateStatusRequest{
		ProjectID: 1,
		Track:     status.TrackDelivery,
		Value:     "Delivered",
		Auxiliary: &status.DeliveryDetails{Time: "2026-03-01T10:00:00Z"},
		Actor:     models.Actor{UserID: 7, Role: models.RoleLogistics},
	})

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidation, appErr.Code)
	assert.Len(t, appErr.Fields, 3)
	assert.Contains(t, appErr.Fields, "address")
	assert.Contains(t, appErr.Fields, "po")
	assert.Contains(t, appErr.Fields, "deliveredBy")
}

func TestUpdateStatusResetClearsSecondary(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStatusStore(), &capturePublisher{})

	_, err := svc.UpdateStatus(ctx, orderedRequest(1))
	require.NoError(t, err)

	// Reset with the stale secondary still attached: accepted, stored cleared.
	next, err := svc.UpdateStatus(ctx, UpdateStatusRequest{
		ProjectID:      1,
		Track:          status.TrackOrder,
		Value:          "",
		SecondaryValue: "Processing",
		Actor:          models.Actor{UserID: 7, Role: models.RoleManager},
	})
	require.NoError(t, err)
	assert.Equal(t, "", next.Value)
	assert.Equal(t, "", next.SecondaryValue)
	assert.Equal(t, int64(2), next.Version)
}

func TestUpdateStatusUnknownProject(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStatusStore(), &capturePublisher{})

	_, err := svc.UpdateStatus(ctx, orderedRequest(404))

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestUpdateStatusArchivedProject(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStatusStore(), &capturePublisher{})

	_, err := svc.UpdateStatus(ctx, orderedRequest(9))

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
}

func TestUpdateStatusRetriesThenSucceeds(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	store := &stubStore{inner: repository.NewMemoryStatusStore()}
	svc := newTestService(store, pub)

	// First two attempts lose the race, third succeeds.
	store.onCommit = func(_ *models.StatusHistoryEntry, _ int64) error {
		if store.commitCall <= 2 {
			return repository.ErrConflict
		}
		return nil
	}

	next, err := svc.UpdateStatus(ctx, orderedRequest(1))
	require.NoError(t, err)
	assert.Equal(t, 3, store.commitCall)
	assert.Equal(t, int64(1), next.Version)
	// Exactly one event despite the retries.
	assert.Len(t, pub.events, 1)
}

func TestUpdateStatusRetryExhaustion(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	store := &stubStore{inner: repository.NewMemoryStatusStore()}
	svc := newTestService(store, pub)

	store.onCommit = func(_ *models.StatusHistoryEntry, _ int64) error {
		return repository.ErrConflict
	}

	_, err := svc.UpdateStatus(ctx, orderedRequest(1))

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)
	assert.Equal(t, maxCommitAttempts, store.commitCall)
	assert.Empty(t, pub.events)
}

func TestUpdateStatusRacingWritersPublishInCommitOrder(t *testing.T) {
	ctx := context.Background()
	pub := &capturePublisher{}
	svc := newTestService(repository.NewMemoryStatusStore(), pub)

	// Writers race on the same track with alternating secondaries. Whatever
	// interleaving the scheduler picks, events must leave in commit order: a
	// writer preempted between commit and publish must not let a later
	// version's event overtake its own.
	secondaries := []string{"Processing", "Waiting for pick", "Ready for shipment"}
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 5; j++ {
				req := orderedRequest(1)
				req.SecondaryValue = secondaries[(i+j)%len(secondaries)]
				if _, err := svc.UpdateStatus(ctx, req); err != nil {
					t.Errorf("writer %d update %d: %v", i, j, err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	require.NotEmpty(t, pub.events)
	for i := 1; i < len(pub.events); i++ {
		if pub.events[i].Version <= pub.events[i-1].Version {
			t.Fatalf("event %d published out of commit order: version %d after %d",
				i, pub.events[i].Version, pub.events[i-1].Version)
		}
	}

	// The last event matches the committed state.
	cur, err := svc.store.GetCurrent(ctx, 1, status.TrackOrder)
	require.NoError(t, err)
	last := pub.events[len(pub.events)-1]
	assert.Equal(t, cur.Version, last.Version)
	assert.Equal(t, cur.SecondaryValue, last.SecondaryValue)

	history, err := svc.History(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, pub.events, len(history))
}

func TestUpdateStatusUnknownTrack(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStatusStore(), &capturePublisher{})

	_, err := svc.UpdateStatus(ctx, UpdateStatusRequest{ProjectID: 1, Track: status.Track("SHIPPING")})

	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeInvalidInput, appErr.Code)
}

func TestGetProjectStatusAggregate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStatusStore(), &capturePublisher{})

	_, err := svc.UpdateStatus(ctx, orderedRequest(1))
	require.NoError(t, err)

	agg, err := svc.GetProjectStatus(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), agg.ProjectID)
	require.Len(t, agg.Tracks, 4)
	assert.Equal(t, "Ordered", agg.Tracks[status.TrackOrder].Value)
	assert.Equal(t, "", agg.Tracks[status.TrackCheck].Value)
	assert.False(t, agg.Complete)
}

func TestProjectCompleteDerivedFromCheck(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStatusStore(), &capturePublisher{})

	complete, err := svc.IsComplete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, complete)

	_, err = svc.UpdateStatus(ctx, UpdateStatusRequest{
		ProjectID: 1,
		Track:     status.TrackCheck,
		Value:     "(C.B)",
		Actor:     models.Actor{UserID: 7, Role: models.RoleManager},
	})
	require.NoError(t, err)

	complete, err = svc.IsComplete(ctx, 1)
	require.NoError(t, err)
	assert.True(t, complete)

	agg, err := svc.GetProjectStatus(ctx, 1)
	require.NoError(t, err)
	assert.True(t, agg.Complete)

	// Clearing the check reopens the project.
	_, err = svc.UpdateStatus(ctx, UpdateStatusRequest{
		ProjectID: 1,
		Track:     status.TrackCheck,
		Value:     "",
		Actor:     models.Actor{UserID: 7, Role: models.RoleManager},
	})
	require.NoError(t, err)

	complete, err = svc.IsComplete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, complete)
}

func TestHistoryNewestFirstAcrossTracks(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStatusStore(), &capturePublisher{})

	_, err := svc.UpdateStatus(ctx, orderedRequest(1))
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, UpdateStatusRequest{
		ProjectID:      1,
		Track:          status.TrackPickup,
		Value:          "Picked up",
		SecondaryValue: "Picked (B.T.W)",
		Actor:          models.Actor{UserID: 8, Role: models.RoleLogistics},
	})
	require.NoError(t, err)

	history, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, status.TrackPickup, history[0].Track)
	assert.Equal(t, status.TrackOrder, history[1].Track)
	assert.Equal(t, int64(8), history[0].Actor.UserID)
}

func TestHistoryUnknownProject(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(repository.NewMemoryStatusStore(), &capturePublisher{})

	_, err := svc.History(ctx, 404)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)
}

func TestAuxEqualComparesInstants(t *testing.T) {
	a := &status.DeliveryDetails{Time: "2026-03-01T10:00:00Z", Address: "Dock 4", PO: "PO-1881", DeliveredBy: "R. Vos"}
	b := &status.DeliveryDetails{Time: "2026-03-01 10:00", Address: "Dock 4", PO: "PO-1881", DeliveredBy: "R. Vos"}
	assert.True(t, auxEqual(a, b))

	c := &status.DeliveryDetails{Time: "2026-03-01T11:00:00Z", Address: "Dock 4", PO: "PO-1881", DeliveredBy: "R. Vos"}
	assert.False(t, auxEqual(a, c))
	assert.False(t, auxEqual(a, nil))
	assert.True(t, auxEqual(nil, nil))
}

func TestMapRepoError(t *testing.T) {
	var appErr *apperrors.Error

	require.ErrorAs(t, mapRepoError("op", repository.ErrNotFound), &appErr)
	assert.Equal(t, apperrors.CodeNotFound, appErr.Code)

	require.ErrorAs(t, mapRepoError("op", repository.ErrConflict), &appErr)
	assert.Equal(t, apperrors.CodeConflict, appErr.Code)

	require.ErrorAs(t, mapRepoError("op", errors.New("boom")), &appErr)
	assert.Equal(t, apperrors.CodeDatabase, appErr.Code)

	assert.NoError(t, mapRepoError("op", nil))
}
