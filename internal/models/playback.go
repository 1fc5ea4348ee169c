// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

// Package models defines data structures used throughout the Melographus
// application: playback events, monthly analytics results, and API responses.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PlaybackEvent represents one finished listening session: a contiguous span
// of playback of a single song, ended by completion or skip.
//
// Events are append-only facts. Once written they are never updated or
// deleted. SongTitle and ArtistName are denormalized copies captured at
// record time so historical analytics stay stable even if song metadata
// changes later.
//
// Invariant: ListeningDurationMS > 0. Zero or negative durations are
// rejected before the write path and never reach storage.
type PlaybackEvent struct {
	ID uuid.UUID `json:"id"`

	// UserID is the owner of the listening session.
	UserID int64 `json:"user_id"`

	// SongID identifies the song played. It is opaque to the analytics
	// engine: local library IDs and remote catalog IDs are both valid.
	SongID string `json:"song_id"`

	SongTitle  string `json:"song_title"`
	ArtistName string `json:"artist_name"`

	// StartedAt is when the listening session began, stamped server-side
	// in UTC at record time.
	StartedAt time.Time `json:"started_at"`

	// ListeningDurationMS is the time actually listened, in milliseconds.
	// Not necessarily the full song length.
	ListeningDurationMS int64 `json:"listening_duration_ms"`

	CreatedAt time.Time `json:"created_at"`
}
