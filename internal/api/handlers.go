// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tmwade/melographus/internal/analytics"
	"github.com/tmwade/melographus/internal/config"
	"github.com/tmwade/melographus/internal/models"
)

// Pinger is the liveness surface of the database, used by the readiness
// probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for all HTTP handlers.
type Handler struct {
	svc *analytics.Service
	db  Pinger
	cfg *config.Config
}

// NewHandler creates a handler set over the analytics service.
func NewHandler(svc *analytics.Service, db Pinger, cfg *config.Config) *Handler {
	return &Handler{svc: svc, db: db, cfg: cfg}
}

// Health reports overall service health including the database.
//
// Method: GET
// Path: /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	status := map[string]string{"service": "ok", "database": "ok"}
	httpStatus := http.StatusOK

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		status["database"] = "unavailable"
		httpStatus = http.StatusServiceUnavailable
	}

	respondJSON(w, httpStatus, &models.APIResponse{
		Status: "success",
		Data:   status,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
		},
	})
}

// HealthLive is the liveness probe: the process is up and serving.
//
// Method: GET
// Path: /api/v1/health/live
func (h *Handler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// HealthReady is the readiness probe: storage is reachable.
//
// Method: GET
// Path: /api/v1/health/ready
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := h.db.Ping(ctx); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"not ready"}`))
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready"}`))
}
