// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package api

import (
	"net/http"
	"time"
)

// monthQuery carries the common query parameters for the monthly
// analytics endpoints.
type monthQuery struct {
	UserID int64 `validate:"required,min=1"`
	Year   int   `validate:"required,min=2000,max=2100"`
	Month  int   `validate:"required,min=1,max=12"`
}

func parseMonthQuery(r *http.Request) monthQuery {
	return monthQuery{
		UserID: getInt64Param(r, "user_id", 0),
		Year:   getIntParam(r, "year", 0),
		Month:  getIntParam(r, "month", 0),
	}
}

// MonthlyReport returns the aggregated listening report for one month.
//
// Method: GET
// Path: /api/v1/analytics/monthly?user_id=&year=&month=
func (h *Handler) MonthlyReport(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q := parseMonthQuery(r)
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	report := h.svc.MonthlyReport(r.Context(), q.UserID, q.Year, time.Month(q.Month))
	respondSuccess(w, report, start)
}

// ArtistDetails returns the ranked artist breakdown for one month.
//
// Method: GET
// Path: /api/v1/analytics/artists?user_id=&year=&month=&limit=
func (h *Handler) ArtistDetails(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q := parseMonthQuery(r)
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	limit := h.clampLimit(getIntParam(r, "limit", h.cfg.API.DefaultTopN))
	artists := h.svc.ArtistDetails(r.Context(), q.UserID, q.Year, time.Month(q.Month), limit)
	respondSuccess(w, artists, start)
}

// SongDetails returns the ranked song breakdown for one month.
//
// Method: GET
// Path: /api/v1/analytics/songs?user_id=&year=&month=&limit=
func (h *Handler) SongDetails(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q := parseMonthQuery(r)
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	limit := h.clampLimit(getIntParam(r, "limit", h.cfg.API.DefaultTopN))
	songs := h.svc.SongDetails(r.Context(), q.UserID, q.Year, time.Month(q.Month), limit)
	respondSuccess(w, songs, start)
}

// MonthsWithData lists the months for which a user has recorded
// listening history, newest first.
//
// Method: GET
// Path: /api/v1/analytics/months?user_id=
func (h *Handler) MonthsWithData(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q := struct {
		UserID int64 `validate:"required,min=1"`
	}{UserID: getInt64Param(r, "user_id", 0)}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	months := h.svc.MonthsWithData(r.Context(), q.UserID)
	respondSuccess(w, months, start)
}

func (h *Handler) clampLimit(limit int) int {
	if limit < 1 {
		return h.cfg.API.DefaultTopN
	}
	if limit > h.cfg.API.MaxTopN {
		return h.cfg.API.MaxTopN
	}
	return limit
}
