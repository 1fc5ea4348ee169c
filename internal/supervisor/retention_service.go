// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package supervisor

import (
	"context"
	"time"

	"github.com/tmwade/melographus/internal/logging"
	"github.com/tmwade/melographus/internal/metrics"
)

// EventPruner deletes playback events older than the cutoff and reports
// how many rows were removed. Satisfied by *database.DB.
type EventPruner interface {
	DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionService periodically prunes playback events older than the
// configured age. It only exists in the tree when retention is enabled;
// the default deployment keeps history forever.
type RetentionService struct {
	pruner        EventPruner
	maxAge        time.Duration
	sweepInterval time.Duration
	name          string
}

// NewRetentionService creates a retention sweeper.
func NewRetentionService(pruner EventPruner, maxAgeDays int, sweepInterval time.Duration) *RetentionService {
	if sweepInterval <= 0 {
		sweepInterval = 24 * time.Hour
	}
	return &RetentionService{
		pruner:        pruner,
		maxAge:        time.Duration(maxAgeDays) * 24 * time.Hour,
		sweepInterval: sweepInterval,
		name:          "retention-sweeper",
	}
}

// Serve implements suture.Service. It sweeps once on startup, then on
// every tick until the context is canceled.
func (s *RetentionService) Serve(ctx context.Context) error {
	s.sweep(ctx)

	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *RetentionService) sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.maxAge)

	removed, err := s.pruner.DeleteEventsBefore(ctx, cutoff)
	if err != nil {
		logging.Error().
			Err(err).
			Time("cutoff", cutoff).
			Msg("Retention sweep failed")
		return
	}

	if removed > 0 {
		metrics.RetentionEventsRemoved.Add(float64(removed))
		logging.Info().
			Int64("events_removed", removed).
			Time("cutoff", cutoff).
			Msg("Retention sweep completed")
	}
}

// String implements fmt.Stringer so suture can identify the service in logs.
func (s *RetentionService) String() string {
	return s.name
}
