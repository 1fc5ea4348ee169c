// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// noopService is a minimal suture.Service that blocks until canceled.
type noopService struct {
	started atomic.Bool
}

func (s *noopService) Serve(ctx context.Context) error {
	s.started.Store(true)
	<-ctx.Done()
	return ctx.Err()
}

func (s *noopService) String() string { return "noop" }

func TestNewTreeAppliesDefaults(t *testing.T) {
	tree := NewTree(slog.Default(), TreeConfig{})

	if tree.config.FailureThreshold != 5.0 {
		t.Errorf("expected failure threshold 5, got %v", tree.config.FailureThreshold)
	}
	if tree.config.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected shutdown timeout 10s, got %v", tree.config.ShutdownTimeout)
	}
}

func TestTreeRunsAndStopsServices(t *testing.T) {
	tree := NewTree(slog.Default(), DefaultTreeConfig())

	apiSvc := &noopService{}
	maintSvc := &noopService{}
	tree.AddAPIService(apiSvc)
	tree.AddMaintenanceService(maintSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.After(5 * time.Second)
	for !apiSvc.started.Load() || !maintSvc.started.Load() {
		select {
		case <-deadline:
			t.Fatal("services did not start within 5s")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("unexpected shutdown error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop within 5s")
	}
}
