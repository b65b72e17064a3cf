// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

// Package api exposes the evaluation engine and the management catalog
// over HTTP using chi.
package api

import (
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/clavisproject/clavis/internal/access"
	"github.com/clavisproject/clavis/internal/catalog"
	"github.com/clavisproject/clavis/internal/index"
	"github.com/clavisproject/clavis/internal/logging"
)

// apiError is the error envelope returned by every endpoint.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: apiError{Code: code, Message: message}})
}

// respondEngineError maps engine and infrastructure errors to HTTP
// statuses. Infrastructure failures are 503, never a silent deny.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, access.ErrUnknownAction):
		respondError(w, http.StatusBadRequest, "UNKNOWN_ACTION", err.Error())
	case errors.Is(err, access.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	case errors.Is(err, access.ErrRecordNotFound):
		respondError(w, http.StatusNotFound, "RECORD_NOT_FOUND", err.Error())
	case errors.Is(err, index.ErrUnreachable):
		logging.Ctx(r.Context()).Error().Err(err).Msg("Index unavailable")
		respondError(w, http.StatusServiceUnavailable, "INDEX_UNAVAILABLE", "search index unavailable")
	case errors.Is(err, catalog.ErrUnavailable):
		logging.Ctx(r.Context()).Error().Err(err).Msg("Catalog unavailable")
		respondError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "catalog unavailable")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Unhandled error")
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

// respondCatalogError maps catalog errors for the management API.
func respondCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", "entity not found")
	case errors.Is(err, catalog.ErrUnavailable):
		logging.Ctx(r.Context()).Error().Err(err).Msg("Catalog unavailable")
		respondError(w, http.StatusServiceUnavailable, "CATALOG_UNAVAILABLE", "catalog unavailable")
	default:
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	}
}
