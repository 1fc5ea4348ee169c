// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package models

import "time"

// MonthlyReport is the derived monthly analytics value for one user and one
// calendar-month bucket [month start, next month start). It is computed on
// demand from the playback event log and never persisted; two calls with no
// intervening writes produce identical reports.
//
// An empty month and a failed aggregation look the same to callers: all
// totals zero, nil top entries, HasData false. Faults are logged and counted
// in metrics instead of being surfaced here, because analytics are
// supplementary and must never break the screens that render them.
type MonthlyReport struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`

	// TotalListeningTimeMS is the sum of listening durations over all
	// events whose start time falls inside the bucket.
	TotalListeningTimeMS int64 `json:"total_listening_time_ms"`

	// TopArtist is the artist with the highest summed duration, or nil
	// for an empty month. Ties break by artist name ascending.
	TopArtist *ArtistStats `json:"top_artist,omitempty"`

	// TopSong is the (title, artist) pair with the highest summed
	// duration, or nil for an empty month.
	TopSong *SongStats `json:"top_song,omitempty"`

	// DayStreak is the song with the longest run of consecutive calendar
	// days played at least once, or nil when no song reaches a run of 2.
	DayStreak *SongStreak `json:"day_streak,omitempty"`

	// DailyData holds per-day listening totals, ascending by day. The
	// entries partition the bucket's events: their durations sum to
	// TotalListeningTimeMS.
	DailyData []DailyListening `json:"daily_data"`

	// HasData reports whether the bucket contained any events.
	HasData bool `json:"has_data"`
}

// ArtistStats is one artist's aggregate within a bucket.
type ArtistStats struct {
	ArtistName      string `json:"artist_name"`
	TotalDurationMS int64  `json:"total_duration_ms"`
	PlayCount       int64  `json:"play_count"`
}

// SongStats is one song's aggregate within a bucket. Songs are identified
// by the (title, artist) pair, matching the denormalized event columns.
type SongStats struct {
	SongTitle       string `json:"song_title"`
	ArtistName      string `json:"artist_name"`
	TotalDurationMS int64  `json:"total_duration_ms"`
	PlayCount       int64  `json:"play_count"`
}

// SongStreak is the winning day-streak entry for a bucket.
// StreakDays is always >= 2; shorter runs never qualify.
type SongStreak struct {
	SongTitle  string `json:"song_title"`
	ArtistName string `json:"artist_name"`
	StreakDays int    `json:"streak_days"`
}

// DailyListening is the listening total for one calendar day.
type DailyListening struct {
	Day             time.Time `json:"day"`
	TotalDurationMS int64     `json:"total_duration_ms"`
}

// SongPlayDay is one distinct (song, calendar day) pair within a bucket,
// regardless of how many times the song was played that day. Ordered
// streams of these rows feed the day-streak scan.
type SongPlayDay struct {
	SongTitle  string
	ArtistName string
	Day        time.Time
}

// MonthSummary identifies a month that has at least one recorded event for
// a user, with its event count. Used to populate month pickers.
type MonthSummary struct {
	Year       int        `json:"year"`
	Month      time.Month `json:"month"`
	EventCount int64      `json:"event_count"`
}
