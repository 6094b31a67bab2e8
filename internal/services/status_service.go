package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/depotrack/depotrack/internal/apperrors"
	"github.com/depotrack/depotrack/internal/models"
	"github.com/depotrack/depotrack/internal/realtime"
	"github.com/depotrack/depotrack/internal/repository"
	"github.com/depotrack/depotrack/internal/status"
	"github.com/depotrack/depotrack/pkg/logger"
)

// maxCommitAttempts bounds the automatic retry on store-level conflicts.
// Exhaustion surfaces a CONFLICT error to the caller, which is safe to retry.
const maxCommitAttempts = 3

// EventPublisher receives one event per committed transition.
type EventPublisher interface {
	Publish(event realtime.Event)
}

// StatusService orchestrates validate, commit and notify for status changes.
// It is the only writer of the status record store.
type StatusService struct {
	store     repository.StatusStore
	projects  repository.ProjectStateStore
	vocab     *status.Vocabulary
	publisher EventPublisher

	// trackMu serializes commit+publish per (project, track) so events leave
	// in commit order; without it a writer could be preempted between the two
	// and publish a stale version after a later one.
	trackMu sync.Mutex
	tracks  map[trackKey]*sync.Mutex

	now   func() time.Time
	newID func() string
}

// trackKey identifies one (project, track) record.
type trackKey struct {
	projectID int64
	track     status.Track
}

// NewStatusService creates a new status service instance.
func NewStatusService(store repository.StatusStore, projects repository.ProjectStateStore, vocab *status.Vocabulary, publisher EventPublisher) *StatusService {
	return &StatusService{
		store:     store,
		projects:  projects,
		vocab:     vocab,
		publisher: publisher,
		tracks:    make(map[trackKey]*sync.Mutex),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
	}
}

// lockTrack returns the mutex guarding one (project, track) record.
func (s *StatusService) lockTrack(projectID int64, track status.Track) *sync.Mutex {
	s.trackMu.Lock()
	defer s.trackMu.Unlock()
	key := trackKey{projectID: projectID, track: track}
	mu, ok := s.tracks[key]
	if !ok {
		mu = &sync.Mutex{}
		s.tracks[key] = mu
	}
	return mu
}

// UpdateStatusRequest contains one proposed transition for a single track.
type UpdateStatusRequest struct {
	ProjectID      int64
	Track          status.Track
	Value          string
	SecondaryValue string
	Auxiliary      *status.DeliveryDetails
	Actor          models.Actor
}

// UpdateStatus applies one validated transition. Exactly one history entry is
// written and exactly one event is published per effective transition; an
// identical proposal is a no-op success without either.
func (s *StatusService) UpdateStatus(ctx context.Context, req UpdateStatusRequest) (*models.TrackStatus, error) {
	if !req.Track.IsValid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("unknown status track %q", req.Track))
	}

	switch state, err := s.projects.ProjectState(ctx, req.ProjectID); {
	case err != nil:
		return nil, mapRepoError("check project", err)
	case state == repository.ProjectMissing:
		return nil, apperrors.NotFound(fmt.Sprintf("project %d not found", req.ProjectID))
	case state == repository.ProjectArchived:
		return nil, apperrors.InvalidInput("project is archived; status can no longer change")
	}

	proposed := status.Proposed{
		Primary:   req.Value,
		Secondary: req.SecondaryValue,
		Auxiliary: req.Auxiliary,
	}

	// Vocabulary rules are independent of current state, so one validation
	// covers every commit attempt; only the no-op and version checks need
	// fresh state on retry.
	if res := s.vocab.ValidateTransition(req.Track, proposed); !res.Valid() {
		return nil, apperrors.Validation("status transition failed validation", res.FieldErrors)
	}
	proposed = status.Normalize(req.Track, proposed)

	// One writer per (project, track) at a time past this point, so the
	// publish below happens in commit order. Conflicts can still arrive from
	// other service instances sharing the database, hence the retry loop.
	mu := s.lockTrack(req.ProjectID, req.Track)
	mu.Lock()
	defer mu.Unlock()

	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		cur, err := s.store.GetCurrent(ctx, req.ProjectID, req.Track)
		if err != nil {
			return nil, mapRepoError("read current status", err)
		}

		if unchanged(cur, proposed) {
			if cur != nil {
				return cur, nil
			}
			return &models.TrackStatus{ProjectID: req.ProjectID, Track: req.Track}, nil
		}

		oldValue := ""
		expectedVersion := int64(0)
		if cur != nil {
			oldValue = cur.Value
			expectedVersion = cur.Version
		}

		entry := &models.StatusHistoryEntry{
			ID:           s.newID(),
			ProjectID:    req.ProjectID,
			Track:        req.Track,
			OldValue:     oldValue,
			NewValue:     proposed.Primary,
			NewSecondary: proposed.Secondary,
			Auxiliary:    proposed.Auxiliary,
			Actor:        req.Actor,
			Timestamp:    s.now().UTC(),
		}

		err = s.store.CommitTransition(ctx, entry, expectedVersion)
		if errors.Is(err, repository.ErrConflict) {
			logger.Debug("Status commit conflict on project %d track %s, attempt %d", req.ProjectID, req.Track, attempt)
			continue
		}
		if err != nil {
			return nil, mapRepoError("commit status transition", err)
		}

		next := &models.TrackStatus{
			ProjectID:      req.ProjectID,
			Track:          req.Track,
			Value:          proposed.Primary,
			SecondaryValue: proposed.Secondary,
			Auxiliary:      proposed.Auxiliary,
			Version:        expectedVersion + 1,
			UpdatedAt:      entry.Timestamp,
		}
		s.publisher.Publish(realtime.StatusUpdated(next, req.Actor))
		return next, nil
	}

	return nil, apperrors.Conflict(fmt.Sprintf("project %d track %s is being updated concurrently, please retry", req.ProjectID, req.Track))
}

// ProjectStatus is the aggregate of all four tracks for one project.
type ProjectStatus struct {
	ProjectID int64                               `json:"projectId"`
	Tracks    map[status.Track]models.TrackStatus `json:"tracks"`
	Complete  bool                                `json:"complete"`
}

// GetProjectStatus fetches the current value of every track concurrently and
// derives the completion flag from the CHECK track.
func (s *StatusService) GetProjectStatus(ctx context.Context, projectID int64) (*ProjectStatus, error) {
	if state, err := s.projects.ProjectState(ctx, projectID); err != nil {
		return nil, mapRepoError("check project", err)
	} else if state == repository.ProjectMissing {
		return nil, apperrors.NotFound(fmt.Sprintf("project %d not found", projectID))
	}

	agg := &ProjectStatus{
		ProjectID: projectID,
		Tracks:    make(map[status.Track]models.TrackStatus, len(status.Tracks)),
	}

	results := make([]*models.TrackStatus, len(status.Tracks))
	g, gctx := errgroup.WithContext(ctx)
	for i, track := range status.Tracks {
		g.Go(func() error {
			cur, err := s.store.GetCurrent(gctx, projectID, track)
			if err != nil {
				return err
			}
			results[i] = cur
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, mapRepoError("read project status", err)
	}

	for i, track := range status.Tracks {
		if results[i] != nil {
			agg.Tracks[track] = *results[i]
		} else {
			agg.Tracks[track] = models.TrackStatus{ProjectID: projectID, Track: track}
		}
	}
	agg.Complete = agg.Tracks[status.TrackCheck].Value != status.Unset
	return agg, nil
}

// IsComplete derives the project-complete flag: the CHECK track holds a
// non-empty value. This is a read, not a writable field.
func (s *StatusService) IsComplete(ctx context.Context, projectID int64) (bool, error) {
	cur, err := s.store.GetCurrent(ctx, projectID, status.TrackCheck)
	if err != nil {
		return false, mapRepoError("read check status", err)
	}
	return cur != nil && cur.Value != status.Unset, nil
}

// History returns the transition trail for a project, newest first.
func (s *StatusService) History(ctx context.Context, projectID int64) ([]models.StatusHistoryEntry, error) {
	if state, err := s.projects.ProjectState(ctx, projectID); err != nil {
		return nil, mapRepoError("check project", err)
	} else if state == repository.ProjectMissing {
		return nil, apperrors.NotFound(fmt.Sprintf("project %d not found", projectID))
	}

	entries, err := s.store.History(ctx, projectID)
	if err != nil {
		return nil, mapRepoError("read status history", err)
	}
	return entries, nil
}

// unchanged reports whether the proposal equals the committed state,
// auxiliary payload included.
func unchanged(cur *models.TrackStatus, proposed status.Proposed) bool {
	if cur == nil {
		return proposed.Primary == status.Unset
	}
	if cur.Value != proposed.Primary || cur.SecondaryValue != proposed.Secondary {
		return false
	}
	return auxEqual(cur.Auxiliary, proposed.Auxiliary)
}

// auxEqual compares auxiliary payloads; timestamps compare by instant so the
// stored normalized form matches an equivalent client spelling.
func auxEqual(a, b *status.DeliveryDetails) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Address != b.Address || a.PO != b.PO || a.DeliveredBy != b.DeliveredBy {
		return false
	}
	at, aerr := status.ParseDeliveryTime(a.Time)
	bt, berr := status.ParseDeliveryTime(b.Time)
	if aerr != nil || berr != nil {
		return a.Time == b.Time
	}
	return at.Equal(bt)
}
