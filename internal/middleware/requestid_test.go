// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/tmwade/melographus/internal/logging"
)

func TestRequestIDGeneratesWhenAbsent(t *testing.T) {
	var seenID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seenID == "" {
		t.Fatal("Expected a generated request ID in context")
	}
	if _, err := uuid.Parse(seenID); err != nil {
		t.Errorf("Generated request ID is not a UUID: %q", seenID)
	}
	if got := w.Header().Get("X-Request-ID"); got != seenID {
		t.Errorf("Response header %q does not match context ID %q", got, seenID)
	}
}

func TestRequestIDHonorsUpstreamHeader(t *testing.T) {
	var seenID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "upstream-id-42")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seenID != "upstream-id-42" {
		t.Errorf("Expected upstream ID to be honored, got %q", seenID)
	}
}

func TestRequestIDPropagatesToLoggingContext(t *testing.T) {
	var loggedID string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loggedID = logging.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "corr-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if loggedID != "corr-1" {
		t.Errorf("Expected logging context to carry the request ID, got %q", loggedID)
	}
}

func TestGetRequestIDEmptyContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetRequestID(req.Context()); got != "" {
		t.Errorf("Expected empty ID without middleware, got %q", got)
	}
}

func TestPrometheusMetricsCapturesStatus(t *testing.T) {
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusTeapot {
		t.Errorf("Middleware must pass the status through, got %d", w.Code)
	}
}
