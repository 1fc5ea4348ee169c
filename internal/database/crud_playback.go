// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tmwade/melographus/internal/logging"
	"github.com/tmwade/melographus/internal/metrics"
	"github.com/tmwade/melographus/internal/models"
)

// InsertPlaybackEvent appends a playback event to the log.
//
// Writes are serialized through a single mutex so concurrent session-ended
// callbacks cannot interleave. Storage errors propagate to the caller:
// silently losing analytics data is worse than a visible failure on this
// path, which is the opposite of the read-path policy.
//
// Callers filter out non-positive durations before reaching this method;
// an event that violates the invariant here is a programming error and is
// rejected with an error (and would fail the table CHECK regardless).
func (db *DB) InsertPlaybackEvent(ctx context.Context, event *models.PlaybackEvent) error {
	if event.ListeningDurationMS <= 0 {
		return fmt.Errorf("playback event has non-positive duration %d ms", event.ListeningDurationMS)
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	defer metrics.TimeDBQuery("insert_playback_event")()

	db.insertMu.Lock()
	defer db.insertMu.Unlock()

	query := `INSERT INTO playback_events (
		id, user_id, song_id, song_title, artist_name,
		started_at, listening_duration_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.SongID,
		event.SongTitle,
		event.ArtistName,
		event.StartedAt.UTC(),
		event.ListeningDurationMS,
		event.CreatedAt,
	)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("insert_playback_event").Inc()
		return fmt.Errorf("failed to insert playback event: %w", err)
	}

	logging.Debug().
		Str("event_id", event.ID.String()).
		Int64("user_id", event.UserID).
		Str("song_title", event.SongTitle).
		Int64("duration_ms", event.ListeningDurationMS).
		Msg("Playback event recorded")

	return nil
}

// GetMonthsWithData returns the months that contain at least one event for
// the user, newest first, with per-month event counts. Used to populate
// month pickers.
func (db *DB) GetMonthsWithData(ctx context.Context, userID int64) ([]models.MonthSummary, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	defer metrics.TimeDBQuery("months_with_data")()

	query := `
		SELECT
			CAST(date_part('year', started_at) AS INTEGER) AS year,
			CAST(date_part('month', started_at) AS INTEGER) AS month,
			COUNT(*) AS event_count
		FROM playback_events
		WHERE user_id = ?
		GROUP BY 1, 2
		ORDER BY 1 DESC, 2 DESC
	`

	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("months_with_data").Inc()
		return nil, fmt.Errorf("failed to query months with data: %w", err)
	}
	defer rows.Close()

	var months []models.MonthSummary
	for rows.Next() {
		var m models.MonthSummary
		var monthNum int
		if err := rows.Scan(&m.Year, &monthNum, &m.EventCount); err != nil {
			return nil, fmt.Errorf("failed to scan month summary: %w", err)
		}
		m.Month = time.Month(monthNum)
		months = append(months, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate month summaries: %w", err)
	}

	return months, nil
}

// CountEvents returns the total number of events for a user within
// [start, end). Zero for empty ranges, never an error for absence of rows.
func (db *DB) CountEvents(ctx context.Context, userID int64, start, end time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT COUNT(*)
		FROM playback_events
		WHERE user_id = ? AND started_at >= ? AND started_at < ?
	`

	var count int64
	if err := db.conn.QueryRowContext(ctx, query, userID, start, end).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}
