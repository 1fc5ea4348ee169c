// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

// Package analytics implements the listening-analytics engine: session
// recording, monthly aggregation, the day-streak computation, and CSV
// export.
//
// Error policy mirrors the two halves of the system. The write path
// (RecordSession) propagates storage failures, because silently losing
// analytics data is worse than a visible error. Every read path is
// best-effort: storage faults are logged, counted in metrics, and
// collapsed into zero-value results so a failed aggregation can never
// break the screens that display it. A failed month and an empty month
// are indistinguishable to callers.
package analytics

import (
	"context"
	"time"

	"github.com/tmwade/melographus/internal/logging"
	"github.com/tmwade/melographus/internal/metrics"
	"github.com/tmwade/melographus/internal/models"
)

// Store is the persistence surface the analytics engine consumes.
// *database.DB satisfies it; tests substitute fakes to exercise the
// fault-absorption paths.
type Store interface {
	InsertPlaybackEvent(ctx context.Context, event *models.PlaybackEvent) error
	GetTotalListeningTime(ctx context.Context, userID int64, start, end time.Time) (int64, error)
	GetArtistStats(ctx context.Context, userID int64, start, end time.Time, limit int) ([]models.ArtistStats, error)
	GetSongStats(ctx context.Context, userID int64, start, end time.Time, limit int) ([]models.SongStats, error)
	GetDailyListening(ctx context.Context, userID int64, start, end time.Time) ([]models.DailyListening, error)
	GetSongPlayDays(ctx context.Context, userID int64, start, end time.Time) ([]models.SongPlayDay, error)
	GetMonthsWithData(ctx context.Context, userID int64) ([]models.MonthSummary, error)
}

// Service is the listening-analytics engine.
type Service struct {
	store Store

	// defaultTopN bounds the ranked artist/song detail lists.
	defaultTopN int

	// now stamps new events; injectable for tests.
	now func() time.Time
}

// NewService creates an analytics service over the given store.
// defaultTopN values below 1 fall back to 10.
func NewService(store Store, defaultTopN int) *Service {
	if defaultTopN < 1 {
		defaultTopN = 10
	}
	return &Service{
		store:       store,
		defaultTopN: defaultTopN,
		now:         time.Now,
	}
}

// MonthBounds returns the UTC bucket [start, end) for a calendar month.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// RecordSession persists one finished listening session.
//
// Sessions with a non-positive duration are discarded silently: a skip
// after zero listening time is a normal occurrence, not an error. For
// positive durations exactly one immutable event is appended, stamped
// with the current time. Storage failures propagate to the caller.
func (s *Service) RecordSession(ctx context.Context, userID int64, songID, songTitle, artistName string, durationMS int64) error {
	if durationMS <= 0 {
		metrics.SessionsRejected.Inc()
		logging.Debug().
			Int64("user_id", userID).
			Str("song_id", songID).
			Int64("duration_ms", durationMS).
			Msg("Discarding zero-duration session")
		return nil
	}

	event := &models.PlaybackEvent{
		UserID:              userID,
		SongID:              songID,
		SongTitle:           songTitle,
		ArtistName:          artistName,
		StartedAt:           s.now().UTC(),
		ListeningDurationMS: durationMS,
	}

	if err := s.store.InsertPlaybackEvent(ctx, event); err != nil {
		return err
	}

	metrics.SessionsRecorded.Inc()
	return nil
}

// MonthlyReport computes the analytics report for one user and month.
//
// It issues the five bucket queries sequentially; each is an independent
// suspend point and the call is cancellable through ctx. The method never
// returns an error: any storage fault yields the zero-value report with
// HasData false, identical to a genuinely empty month.
func (s *Service) MonthlyReport(ctx context.Context, userID int64, year int, month time.Month) models.MonthlyReport {
	report := models.MonthlyReport{Year: year, Month: month}
	start, end := MonthBounds(year, month)

	total, err := s.store.GetTotalListeningTime(ctx, userID, start, end)
	if err != nil {
		return s.absorbFault("monthly_report", userID, year, month, err)
	}
	report.TotalListeningTimeMS = total

	artists, err := s.store.GetArtistStats(ctx, userID, start, end, 1)
	if err != nil {
		return s.absorbFault("monthly_report", userID, year, month, err)
	}
	if len(artists) > 0 {
		report.TopArtist = &artists[0]
	}

	songs, err := s.store.GetSongStats(ctx, userID, start, end, 1)
	if err != nil {
		return s.absorbFault("monthly_report", userID, year, month, err)
	}
	if len(songs) > 0 {
		report.TopSong = &songs[0]
	}

	daily, err := s.store.GetDailyListening(ctx, userID, start, end)
	if err != nil {
		return s.absorbFault("monthly_report", userID, year, month, err)
	}
	report.DailyData = daily

	playDays, err := s.store.GetSongPlayDays(ctx, userID, start, end)
	if err != nil {
		return s.absorbFault("monthly_report", userID, year, month, err)
	}
	report.DayStreak = ComputeDayStreak(playDays)

	report.HasData = total > 0
	return report
}

// absorbFault logs a read-path failure and returns the zero-value report.
func (s *Service) absorbFault(operation string, userID int64, year int, month time.Month, err error) models.MonthlyReport {
	metrics.AggregationFaults.WithLabelValues(operation).Inc()
	logging.Error().
		Err(err).
		Int64("user_id", userID).
		Int("year", year).
		Int("month", int(month)).
		Msg("Aggregation failed, returning empty report")
	return models.MonthlyReport{Year: year, Month: month}
}

// ArtistDetails returns the ranked artist list for a bucket, duration
// descending, truncated to limit (the service default when limit <= 0).
// Faults collapse into an empty list.
func (s *Service) ArtistDetails(ctx context.Context, userID int64, year int, month time.Month, limit int) []models.ArtistStats {
	if limit <= 0 {
		limit = s.defaultTopN
	}
	start, end := MonthBounds(year, month)

	stats, err := s.store.GetArtistStats(ctx, userID, start, end, limit)
	if err != nil {
		metrics.AggregationFaults.WithLabelValues("artist_details").Inc()
		logging.Error().Err(err).Int64("user_id", userID).Msg("Artist details query failed")
		return nil
	}
	return stats
}

// SongDetails returns the ranked song list for a bucket, duration
// descending, truncated to limit (the service default when limit <= 0).
// Faults collapse into an empty list.
func (s *Service) SongDetails(ctx context.Context, userID int64, year int, month time.Month, limit int) []models.SongStats {
	if limit <= 0 {
		limit = s.defaultTopN
	}
	start, end := MonthBounds(year, month)

	stats, err := s.store.GetSongStats(ctx, userID, start, end, limit)
	if err != nil {
		metrics.AggregationFaults.WithLabelValues("song_details").Inc()
		logging.Error().Err(err).Int64("user_id", userID).Msg("Song details query failed")
		return nil
	}
	return stats
}

// MonthsWithData returns the months that have at least one recorded event
// for the user, newest first. Faults collapse into an empty list.
func (s *Service) MonthsWithData(ctx context.Context, userID int64) []models.MonthSummary {
	months, err := s.store.GetMonthsWithData(ctx, userID)
	if err != nil {
		metrics.AggregationFaults.WithLabelValues("months_with_data").Inc()
		logging.Error().Err(err).Int64("user_id", userID).Msg("Months-with-data query failed")
		return nil
	}
	return months
}
