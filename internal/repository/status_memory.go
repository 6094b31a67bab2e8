package repository

import (
	"context"
	"sync"

	"github.com/depotrack/depotrack/internal/models"
	"github.com/depotrack/depotrack/internal/status"
)

// MemoryStatusStore is an in-memory StatusStore with the same serialization
// semantics as the MySQL backend. It backs tests and single-node deployments
// without a database.
type MemoryStatusStore struct {
	mu      sync.Mutex
	current map[statusKey]models.TrackStatus
	history []models.StatusHistoryEntry
}

type statusKey struct {
	projectID int64
	track     status.Track
}

// NewMemoryStatusStore creates an empty in-memory status store.
func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{
		current: make(map[statusKey]models.TrackStatus),
	}
}

// GetCurrent returns the current status for one (project, track), nil when unset.
func (s *MemoryStatusStore) GetCurrent(_ context.Context, projectID int64, track status.Track) (*models.TrackStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ts, ok := s.current[statusKey{projectID, track}]
	if !ok {
		return nil, nil
	}
	out := ts
	if ts.Auxiliary != nil {
		aux := *ts.Auxiliary
		out.Auxiliary = &aux
	}
	return &out, nil
}

// History returns all transitions for a project in commit order, newest first.
func (s *MemoryStatusStore) History(_ context.Context, projectID int64) ([]models.StatusHistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []models.StatusHistoryEntry
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].ProjectID == projectID {
			entry := s.history[i]
			if entry.Auxiliary != nil {
				aux := *entry.Auxiliary
				entry.Auxiliary = &aux
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// CommitTransition appends the entry and swaps the current value atomically.
func (s *MemoryStatusStore) CommitTransition(_ context.Context, entry *models.StatusHistoryEntry, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := statusKey{entry.ProjectID, entry.Track}
	cur, exists := s.current[key]

	currentVersion := int64(0)
	if exists {
		currentVersion = cur.Version
	}
	if currentVersion != expectedVersion {
		return ErrConflict
	}

	next := models.TrackStatus{
		ProjectID:      entry.ProjectID,
		Track:          entry.Track,
		Value:          entry.NewValue,
		SecondaryValue: entry.NewSecondary,
		Version:        currentVersion + 1,
		UpdatedAt:      entry.Timestamp,
	}
	if entry.Auxiliary != nil {
		aux := *entry.Auxiliary
		next.Auxiliary = &aux
	}

	s.current[key] = next
	stored := *entry
	if entry.Auxiliary != nil {
		aux := *entry.Auxiliary
		stored.Auxiliary = &aux
	}
	s.history = append(s.history, stored)
	return nil
}
