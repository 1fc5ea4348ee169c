// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package api

import (
	"fmt"
	"net/http"
	"time"
)

// ExportCSV streams a month's listening report as a CSV attachment.
// The export itself never fails; faults during aggregation surface as
// an error line inside the document rather than an HTTP error.
//
// Method: GET
// Path: /api/v1/analytics/export?user_id=&year=&month=
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	q := parseMonthQuery(r)
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	csv := h.svc.ExportMonthCSV(r.Context(), q.UserID, q.Year, time.Month(q.Month))

	filename := fmt.Sprintf("melographus-%04d-%02d.csv", q.Year, q.Month)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(csv))
}
