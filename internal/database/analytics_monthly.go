// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

// analytics_monthly.go - Bucket-scoped aggregation queries
//
// Every query here is scoped to one calendar-month bucket
// [start, end) where end = start + 1 month. Absence of rows is a normal
// result (zero total, empty slices), never an error.
//
// Ordering is deterministic: ranked lists sort by summed duration
// descending, then by name ascending. The tie-break is a deliberate
// choice; relying on the query engine's incidental row order would make
// top-artist/top-song results unstable across runs.

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tmwade/melographus/internal/database/query"
	"github.com/tmwade/melographus/internal/metrics"
	"github.com/tmwade/melographus/internal/models"
)

// GetTotalListeningTime returns the summed listening duration in
// milliseconds over all events in the bucket. Zero when the bucket is empty.
func (db *DB) GetTotalListeningTime(ctx context.Context, userID int64, start, end time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	defer metrics.TimeDBQuery("total_listening_time")()

	where, args := query.NewWhereBuilder().
		AddUser(userID).
		AddWindow(start, end).
		BuildWithPrefix()

	q := fmt.Sprintf(`
		SELECT COALESCE(SUM(listening_duration_ms), 0)
		FROM playback_events
		%s
	`, where)

	var total int64
	if err := db.conn.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		metrics.DBQueryErrors.WithLabelValues("total_listening_time").Inc()
		return 0, fmt.Errorf("failed to query total listening time: %w", err)
	}

	return total, nil
}

// GetArtistStats returns artists in the bucket ranked by summed listening
// duration descending (ties by artist name ascending), truncated to limit.
// Pass limit <= 0 for the full ranking.
func (db *DB) GetArtistStats(ctx context.Context, userID int64, start, end time.Time, limit int) ([]models.ArtistStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	defer metrics.TimeDBQuery("artist_stats")()

	where, args := query.NewWhereBuilder().
		AddUser(userID).
		AddWindow(start, end).
		BuildWithPrefix()

	q := fmt.Sprintf(`
		SELECT
			artist_name,
			SUM(listening_duration_ms) AS total_duration_ms,
			COUNT(*) AS play_count
		FROM playback_events
		%s
		GROUP BY artist_name
		ORDER BY total_duration_ms DESC, artist_name ASC
	`, where)

	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("artist_stats").Inc()
		return nil, fmt.Errorf("failed to query artist stats: %w", err)
	}
	defer rows.Close()

	var stats []models.ArtistStats
	for rows.Next() {
		var s models.ArtistStats
		if err := rows.Scan(&s.ArtistName, &s.TotalDurationMS, &s.PlayCount); err != nil {
			return nil, fmt.Errorf("failed to scan artist stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate artist stats: %w", err)
	}

	return stats, nil
}

// GetSongStats returns songs in the bucket, grouped by the denormalized
// (song_title, artist_name) pair, ranked by summed duration descending
// (ties by title then artist ascending), truncated to limit.
// Pass limit <= 0 for the full ranking.
func (db *DB) GetSongStats(ctx context.Context, userID int64, start, end time.Time, limit int) ([]models.SongStats, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	defer metrics.TimeDBQuery("song_stats")()

	where, args := query.NewWhereBuilder().
		AddUser(userID).
		AddWindow(start, end).
		BuildWithPrefix()

	q := fmt.Sprintf(`
		SELECT
			song_title,
			artist_name,
			SUM(listening_duration_ms) AS total_duration_ms,
			COUNT(*) AS play_count
		FROM playback_events
		%s
		GROUP BY song_title, artist_name
		ORDER BY total_duration_ms DESC, song_title ASC, artist_name ASC
	`, where)

	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("song_stats").Inc()
		return nil, fmt.Errorf("failed to query song stats: %w", err)
	}
	defer rows.Close()

	var stats []models.SongStats
	for rows.Next() {
		var s models.SongStats
		if err := rows.Scan(&s.SongTitle, &s.ArtistName, &s.TotalDurationMS, &s.PlayCount); err != nil {
			return nil, fmt.Errorf("failed to scan song stats: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate song stats: %w", err)
	}

	return stats, nil
}

// GetDailyListening returns per-calendar-day listening totals for the
// bucket, ascending by day. Days without events produce no entry, so the
// returned entries partition the bucket's events exactly: their durations
// sum to the bucket total.
func (db *DB) GetDailyListening(ctx context.Context, userID int64, start, end time.Time) ([]models.DailyListening, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	defer metrics.TimeDBQuery("daily_listening")()

	where, args := query.NewWhereBuilder().
		AddUser(userID).
		AddWindow(start, end).
		BuildWithPrefix()

	q := fmt.Sprintf(`
		SELECT
			DATE_TRUNC('day', started_at) AS day,
			SUM(listening_duration_ms) AS total_duration_ms
		FROM playback_events
		%s
		GROUP BY DATE_TRUNC('day', started_at)
		ORDER BY day ASC
	`, where)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("daily_listening").Inc()
		return nil, fmt.Errorf("failed to query daily listening: %w", err)
	}
	defer rows.Close()

	var daily []models.DailyListening
	for rows.Next() {
		var d models.DailyListening
		if err := rows.Scan(&d.Day, &d.TotalDurationMS); err != nil {
			return nil, fmt.Errorf("failed to scan daily listening: %w", err)
		}
		d.Day = d.Day.UTC()
		daily = append(daily, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate daily listening: %w", err)
	}

	return daily, nil
}
