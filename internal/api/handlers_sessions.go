// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tmwade/melographus/internal/models"
)

// recordSessionRequest is the payload for POST /api/v1/sessions.
type recordSessionRequest struct {
	UserID     int64  `json:"user_id" validate:"required,min=1"`
	SongID     string `json:"song_id" validate:"required"`
	SongTitle  string `json:"song_title" validate:"required"`
	ArtistName string `json:"artist_name" validate:"required"`

	// ListeningDurationMS carries no minimum on purpose: non-positive
	// durations are a valid no-op (skipped-immediately sessions), not a
	// validation failure.
	ListeningDurationMS int64 `json:"listening_duration_ms"`
}

// recordSessionResponse reports whether an event was actually written.
type recordSessionResponse struct {
	Recorded bool `json:"recorded"`
}

// RecordSession persists one finished listening session.
//
// Method: POST
// Path: /api/v1/sessions
//
// Responses:
//   - 201: session recorded
//   - 200: session discarded (non-positive duration), a normal outcome
//   - 400: malformed body or missing identity fields
//   - 500: storage failure; write-path errors are surfaced, not absorbed
func (h *Handler) RecordSession(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req recordSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON", err)
		return
	}

	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	recorded := req.ListeningDurationMS > 0
	if err := h.svc.RecordSession(r.Context(), req.UserID, req.SongID, req.SongTitle, req.ArtistName, req.ListeningDurationMS); err != nil {
		respondError(w, http.StatusInternalServerError, "STORAGE_ERROR", "Failed to record session", err)
		return
	}

	status := http.StatusOK
	if recorded {
		status = http.StatusCreated
	}

	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   recordSessionResponse{Recorded: recorded},
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}
