package scheduler

import (
	"testing"
	"time"

	"github.com/depotrack/depotrack/internal/config"
)

func TestStopDisabledSchedulerReturnsImmediately(t *testing.T) {
	cfg := &config.Config{}
	cfg.Archive.Interval = 0

	s := NewProjectArchivalService(nil, cfg)
	s.Start()

	start := time.Now()
	s.Stop()
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("Stop on disabled scheduler took %s", elapsed)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	cfg := &config.Config{}
	cfg.Archive.Interval = 0

	s := NewProjectArchivalService(nil, cfg)
	s.Start()
	s.Stop()
	s.Stop()
}
