// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

// Package main is the entry point for the Melographus server.
//
// Melographus is a self-hosted listening-analytics backend for music
// streaming clients. It ingests finished playback sessions, stores them
// in an append-only DuckDB table, and serves monthly listening reports:
// total listening time, top artists and songs, day streaks, daily
// activity, and CSV exports.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings via Koanf v2 (defaults, YAML file,
//     environment variables)
//  2. Database: embedded DuckDB holding the playback_events table
//  3. Analytics service: monthly aggregation, streaks, exports
//  4. HTTP Server: REST API under /api/v1 plus Prometheus /metrics
//  5. Supervisor tree: suture-managed lifecycle for the HTTP server and
//     the optional retention sweeper
//
// # Configuration
//
// Highest priority wins:
//   - Environment variables (MELOGRAPHUS_* or common aliases like
//     HTTP_PORT, LOG_LEVEL, DUCKDB_PATH)
//   - Config file (config.yaml, path via CONFIG_PATH)
//   - Built-in defaults
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Checkpoints and closes the database
//
// # Example Usage
//
//	export DUCKDB_PATH=/data/melographus.duckdb
//	export HTTP_PORT=8646
//	./melographus
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tmwade/melographus/internal/analytics"
	"github.com/tmwade/melographus/internal/api"
	"github.com/tmwade/melographus/internal/config"
	"github.com/tmwade/melographus/internal/database"
	"github.com/tmwade/melographus/internal/logging"
	"github.com/tmwade/melographus/internal/supervisor"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().Msg("Starting Melographus")
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Bool("retention_enabled", cfg.Retention.Enabled).
		Msg("Configuration loaded")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	svc := analytics.NewService(db, cfg.API.DefaultTopN)

	handler := api.NewHandler(svc, db, cfg)
	router := api.NewRouter(handler, cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPServerService(server, cfg.Server.Timeout))

	if cfg.Retention.Enabled {
		tree.AddMaintenanceService(supervisor.NewRetentionService(
			db, cfg.Retention.MaxAgeDays, cfg.Retention.SweepInterval))
		logging.Info().
			Int("max_age_days", cfg.Retention.MaxAgeDays).
			Dur("sweep_interval", cfg.Retention.SweepInterval).
			Msg("Retention sweeper enabled")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Drain until the supervisor has fully stopped.
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
