// Package scheduler runs background maintenance jobs for the Depotrack API.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/depotrack/depotrack/internal/config"
	"github.com/depotrack/depotrack/internal/repository"
	"github.com/depotrack/depotrack/pkg/logger"
)

// ProjectArchivalService archives completed projects after a retention period.
// A project counts as completed once its final check holds a value; after the
// configured retention it is archived and stops accepting status transitions.
type ProjectArchivalService struct {
	db     *sqlx.DB
	config *config.Config
	// ticker controls the sweep schedule
	ticker *time.Ticker
	// done channel enables graceful shutdown signaling
	done chan bool
	// started records whether the sweep goroutine is running; a disabled
	// scheduler has nothing to signal and Stop must return immediately
	started bool
	// stopOnce ensures Stop() can only be called once, preventing double-stop race conditions
	stopOnce sync.Once
}

// NewProjectArchivalService creates a new background archival service.
// The service must be started with [ProjectArchivalService.Start] to begin operations.
func NewProjectArchivalService(db *sqlx.DB, cfg *config.Config) *ProjectArchivalService {
	return &ProjectArchivalService{
		db:     db,
		config: cfg,
		done:   make(chan bool),
	}
}

// Start begins the background archival sweeps with immediate execution.
// The service runs in a separate goroutine and can be stopped with [ProjectArchivalService.Stop].
func (s *ProjectArchivalService) Start() {
	if s.config.Archive.Interval <= 0 {
		logger.Info("Project archival scheduler disabled")
		return
	}

	logger.Info("Starting project archival service (retention: %s, interval: %s)",
		s.config.Archive.Retention, s.config.Archive.Interval)

	// Run immediately on start with timeout context
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	s.sweep(ctx)

	s.ticker = time.NewTicker(s.config.Archive.Interval)
	s.started = true

	go func() {
		for {
			select {
			case <-s.ticker.C:
				func() {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
					defer cancel()
					s.sweep(ctx)
				}()
			case <-s.done:
				return
			}
		}
	}()
}

// Stop gracefully shuts down the archival service.
// Uses sync.Once to prevent double-stop race conditions and a timeout to prevent deadlock.
func (s *ProjectArchivalService) Stop() {
	s.stopOnce.Do(func() {
		if !s.started {
			return
		}
		logger.Info("Stopping project archival service")
		select {
		case s.done <- true:
		case <-time.After(5 * time.Second):
			logger.Info("Project archival service shutdown timeout")
		}
		if s.ticker != nil {
			s.ticker.Stop()
		}
	})
}

// sweep archives every project completed longer ago than the retention period.
func (s *ProjectArchivalService) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-s.config.Archive.Retention)

	archived, err := repository.ArchiveCompletedBefore(ctx, s.db, cutoff)
	if err != nil {
		logger.Error("Project archival sweep failed: %v", err)
		return
	}
	if archived > 0 {
		logger.Info("Archived %d completed projects", archived)
	}
}
