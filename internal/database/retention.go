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
	"github.com/tmwade/melographus/internal/logging"
	"github.com/tmwade/melographus/internal/metrics"
)

// DeleteEventsBefore removes playback events that started before the
// cutoff, across all users. Returns the number of rows removed.
//
// This is the only delete path in the system and it only runs when the
// operator opts into retention: with retention disabled (the default) the
// event log is strictly append-only and grows without bound.
func (db *DB) DeleteEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	defer metrics.TimeDBQuery("delete_events_before")()

	where, args := query.NewWhereBuilder().AddBefore(cutoff).BuildWithPrefix()

	result, err := db.conn.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM playback_events %s`, where), args...)
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("delete_events_before").Inc()
		return 0, fmt.Errorf("failed to delete expired events: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}

	if removed > 0 {
		logging.Info().
			Int64("removed", removed).
			Time("cutoff", cutoff).
			Msg("Retention sweep removed expired events")
	}

	return removed, nil
}
