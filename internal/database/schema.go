// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the playback event table and its indexes.
//
// All columns are defined in the initial CREATE TABLE statement: a single
// source of truth for the schema, with no migrations to run at startup.
//
// The CHECK constraint enforces the core invariant at the storage layer
// too: no zero- or negative-duration sessions exist in the log, ever.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS playback_events (
			id UUID PRIMARY KEY,
			user_id BIGINT NOT NULL,
			song_id VARCHAR NOT NULL,
			song_title VARCHAR NOT NULL,
			artist_name VARCHAR NOT NULL,
			started_at TIMESTAMP NOT NULL,
			listening_duration_ms BIGINT NOT NULL CHECK (listening_duration_ms > 0),
			created_at TIMESTAMP NOT NULL
		)`,

		// Every aggregation query filters on (user_id, started_at); this
		// composite index keeps monthly buckets cheap as the log grows.
		`CREATE INDEX IF NOT EXISTS idx_playback_events_user_started
			ON playback_events(user_id, started_at)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}
