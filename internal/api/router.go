// VaultView - Monitored Document Viewing with Tamper-Evident Audit Trail
// Copyright 2026 VaultView Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vaultview/vaultview

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vaultview/vaultview/internal/auth"
	"github.com/vaultview/vaultview/internal/config"
	"github.com/vaultview/vaultview/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handlers *Handlers
	authMW   *auth.Middleware
	security config.SecurityConfig
}

// NewRouter wires handlers and middleware into a router.
func NewRouter(handlers *Handlers, authMW *auth.Middleware, security config.SecurityConfig) *Router {
	return &Router{
		handlers: handlers,
		authMW:   authMW,
		security: security,
	}
}

// Setup builds the Chi route tree.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   router.security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(httprate.LimitByIP(1000, router.security.RateLimitWindow))
		r.Get("/live", router.handlers.HealthLive)
		r.Get("/ready", router.handlers.HealthReady)
	})

	r.Handle("/metrics", promhttp.Handler())

	// Authenticated data surface.
	r.Route("/api/v1", func(r chi.Router) {
		if !router.security.RateLimitDisabled {
			r.Use(httprate.LimitByIP(router.security.RateLimitReqs, router.security.RateLimitWindow))
		}
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authMW.Authenticate)

		r.Post("/events", router.handlers.SubmitEvent)
		r.Get("/activity", router.handlers.OwnActivity)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", router.handlers.OpenSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", router.handlers.GetSession)
				r.Delete("/", router.handlers.CloseSession)
				r.Post("/interaction", router.handlers.Interaction)
				r.Post("/violations", router.handlers.Violation)
				r.Post("/view", router.handlers.SetView)
				r.Post("/acknowledge", router.handlers.Acknowledge)
				r.Get("/watch", router.handlers.Watch)
			})
		})

		// Operator-only reporting and catalog maintenance.
		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireOperator)
			r.Get("/logs", router.handlers.AdminLogs)
			r.Get("/stats", router.handlers.AdminStats)
			r.Get("/documents", router.handlers.AdminListDocuments)
			r.Put("/documents/{id}", router.handlers.AdminPutDocument)
			r.Delete("/documents/{id}", router.handlers.AdminDeleteDocument)
		})
	})

	return r
}
