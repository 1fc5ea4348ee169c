// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tmwade/melographus/internal/database/query"
	"github.com/tmwade/melographus/internal/metrics"
	"github.com/tmwade/melographus/internal/models"
)

// GetSongPlayDays returns the distinct (song, calendar day) pairs for the
// bucket: one row per song per day it was played at least once, regardless
// of play count that day. Rows are ordered by song then day ascending,
// which is exactly the order the day-streak scan consumes them in.
//
// Complexity lives in the consumer; this query is a DISTINCT over the
// bucket with the composite (user_id, started_at) index doing the heavy
// lifting.
func (db *DB) GetSongPlayDays(ctx context.Context, userID int64, start, end time.Time) ([]models.SongPlayDay, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	defer metrics.TimeDBQuery("song_play_days")()

	where, args := query.NewWhereBuilder().
		AddUser(userID).
		AddWindow(start, end).
		BuildWithPrefix()

	q := fmt.Sprintf(`
		SELECT DISTINCT
			song_title,
			artist_name,
			DATE_TRUNC('day', started_at) AS day
		FROM playback_events
		%s
		ORDER BY song_title ASC, artist_name ASC, day ASC
	`, where)

	rows, err := db.conn.QueryContext(ctx, q, args...)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("song_play_days").Inc()
		return nil, fmt.Errorf("failed to query song play days: %w", err)
	}
	defer rows.Close()

	var pairs []models.SongPlayDay
	for rows.Next() {
		var p models.SongPlayDay
		if err := rows.Scan(&p.SongTitle, &p.ArtistName, &p.Day); err != nil {
			return nil, fmt.Errorf("failed to scan song play day: %w", err)
		}
		p.Day = p.Day.UTC()
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate song play days: %w", err)
	}

	return pairs, nil
}
