// Melographus - Music Listening Analytics
// Copyright 2026 T. Wade (tmwade)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tmwade/melographus

// Package api provides HTTP routing and handlers for the Melographus
// analytics API, built on the Chi router.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tmwade/melographus/internal/config"
	"github.com/tmwade/melographus/internal/middleware"
)

// Router wires handlers and middleware into an http.Handler.
type Router struct {
	handler *Handler
	cfg     *config.Config
}

// NewRouter creates a router over the given handler set.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup configures all HTTP routes.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.cfg.Security.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health endpoints: permissive rate limit so monitors can poll freely.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, rt.cfg.Security.RateLimitWindow))
		r.Get("/", rt.handler.Health)
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	// Data endpoints
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(rt.cfg.Security.RateLimitReqs, rt.cfg.Security.RateLimitWindow))
		r.Use(middleware.PrometheusMetrics)

		r.Post("/sessions", rt.handler.RecordSession)

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/monthly", rt.handler.MonthlyReport)
			r.Get("/artists", rt.handler.ArtistDetails)
			r.Get("/songs", rt.handler.SongDetails)
			r.Get("/months", rt.handler.MonthsWithData)
			r.Get("/export", rt.handler.ExportCSV)
		})
	})

	// Prometheus scrape endpoint
	r.Handle("/metrics", promhttp.Handler())

	return r
}
