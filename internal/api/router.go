// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clavisproject/clavis/internal/access"
	"github.com/clavisproject/clavis/internal/auth"
	"github.com/clavisproject/clavis/internal/catalog"
	"github.com/clavisproject/clavis/internal/config"
)

// Handler carries the API's collaborators.
type Handler struct {
	engine *access.Engine
	store  *catalog.Store
	cfg    *config.Config
}

// NewHandler wires the API handler.
func NewHandler(engine *access.Engine, store *catalog.Store, cfg *config.Config) *Handler {
	return &Handler{engine: engine, store: store, cfg: cfg}
}

// Router builds the chi router with the full middleware stack and
// route tree.
func (h *Handler) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestID)
	r.Use(instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if !h.cfg.Security.RateLimitDisabled {
		r.Use(httprate.LimitByIP(h.cfg.Security.RateLimitReqs, h.cfg.Security.RateLimitWindow))
	}

	r.Get("/healthz", h.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.SessionCookie)
		r.Use(auth.BearerUser(h.store, h.cfg.Security.JWTSecret))

		r.Get("/records/{pi}/files/{fileName}/access/{action}", h.handleFileAccess)
		r.Get("/records/{pi}/access/{privilege}", h.handleRecordAccess)
		r.Get("/records/{pi}/structures/access/{privilege}", h.handleStructuresAccess)
		r.Post("/records/{pi}/files:check", h.handleFilesCheck)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin(h.cfg.Security.AdminUsername, h.cfg.Security.AdminPasswordHash))

			r.Get("/licensetypes", h.handleListLicenseTypes)
			r.Post("/licensetypes", h.handleCreateLicenseType)
			r.Put("/licensetypes/{id}", h.handleUpdateLicenseType)
			r.Delete("/licensetypes/{id}", h.handleDeleteLicenseType)

			r.Get("/ipranges", h.handleListIpRanges)
			r.Post("/ipranges", h.handleCreateIpRange)
			r.Put("/ipranges/{id}", h.handleUpdateIpRange)
			r.Delete("/ipranges/{id}", h.handleDeleteIpRange)

			r.Post("/licenses", h.handleCreateLicense)
			r.Delete("/licenses/{id}", h.handleDeleteLicense)
		})
	})

	return r
}

// handleHealth reports liveness of the catalog store.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.Server.Timeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// session assembles the evaluation session from the request context.
func (h *Handler) session(r *http.Request) *access.Session {
	return &access.Session{
		ID:         auth.SessionIDFromContext(r.Context()),
		User:       auth.UserFromContext(r.Context()),
		RemoteAddr: auth.RemoteAddr(r),
	}
}
