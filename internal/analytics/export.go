// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmwade/melographus/internal/logging"
	"github.com/tmwade/melographus/internal/metrics"
	"github.com/tmwade/melographus/internal/models"
)

// ExportMonthCSV renders a month's analytics as a flat CSV document with a
// SUMMARY section followed by TOP ARTISTS and TOP SONGS tables. Free-text
// fields are double-quoted; numeric fields are bare.
//
// The method always returns a renderable string: on any internal failure
// it returns a short error-describing text instead, so export/share flows
// degrade gracefully rather than erroring out.
func (s *Service) ExportMonthCSV(ctx context.Context, userID int64, year int, month time.Month) string {
	report := s.MonthlyReport(ctx, userID, year, month)
	artists := s.ArtistDetails(ctx, userID, year, month, s.defaultTopN)
	songs := s.SongDetails(ctx, userID, year, month, s.defaultTopN)

	out, err := renderCSV(&report, artists, songs)
	if err != nil {
		logging.Error().Err(err).Int64("user_id", userID).Msg("CSV export failed")
		return fmt.Sprintf("Export failed: %v", err)
	}

	metrics.ExportsGenerated.Inc()
	return out
}

// renderCSV is the pure formatting step over already-computed data.
func renderCSV(report *models.MonthlyReport, artists []models.ArtistStats, songs []models.SongStats) (out string, err error) {
	// Formatting over in-memory data should never panic, but the export
	// contract is "always return a string", so convert a panic into an
	// error for the caller to describe.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panicked: %v", r)
		}
	}()

	if report == nil {
		return "", fmt.Errorf("no report to render")
	}

	var b strings.Builder

	period := fmt.Sprintf("%s %d", report.Month.String(), report.Year)

	writeRow(&b, quote("SUMMARY"))
	writeRow(&b, quote("Period"), quote(period))
	writeRow(&b, quote("Total Listening Time"), formatDuration(report.TotalListeningTimeMS))

	if report.TopArtist != nil {
		writeRow(&b, quote("Top Artist"), quote(report.TopArtist.ArtistName),
			formatDuration(report.TopArtist.TotalDurationMS))
	} else {
		writeRow(&b, quote("Top Artist"), quote("No data"))
	}

	if report.TopSong != nil {
		writeRow(&b, quote("Top Song"),
			quote(report.TopSong.SongTitle), quote(report.TopSong.ArtistName),
			formatDuration(report.TopSong.TotalDurationMS))
	} else {
		writeRow(&b, quote("Top Song"), quote("No data"))
	}

	if report.DayStreak != nil {
		writeRow(&b, quote("Longest Day Streak"),
			quote(report.DayStreak.SongTitle), quote(report.DayStreak.ArtistName),
			fmt.Sprintf("%d days", report.DayStreak.StreakDays))
	} else {
		writeRow(&b, quote("Longest Day Streak"), quote("No streak of 2+ days"))
	}

	b.WriteString("\n")
	writeRow(&b, quote("TOP ARTISTS"))
	writeRow(&b, quote("Rank"), quote("Artist"), quote("Listening Time"), quote("Plays"))
	for i, a := range artists {
		writeRow(&b, fmt.Sprintf("%d", i+1), quote(a.ArtistName),
			formatDuration(a.TotalDurationMS), fmt.Sprintf("%d", a.PlayCount))
	}

	b.WriteString("\n")
	writeRow(&b, quote("TOP SONGS"))
	writeRow(&b, quote("Rank"), quote("Song"), quote("Artist"), quote("Listening Time"), quote("Plays"))
	for i, s := range songs {
		writeRow(&b, fmt.Sprintf("%d", i+1), quote(s.SongTitle), quote(s.ArtistName),
			formatDuration(s.TotalDurationMS), fmt.Sprintf("%d", s.PlayCount))
	}

	return b.String(), nil
}

// writeRow writes pre-formatted fields as one comma-separated CSV line.
func writeRow(b *strings.Builder, fields ...string) {
	b.WriteString(strings.Join(fields, ","))
	b.WriteString("\n")
}

// quote double-quotes a free-text field, doubling embedded quotes per CSV
// convention.
func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// formatDuration renders a millisecond total as a compact h/m/s string.
func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int64(d.Hours())
	m := int64(d.Minutes()) % 60
	sec := int64(d.Seconds()) % 60

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, sec)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}
