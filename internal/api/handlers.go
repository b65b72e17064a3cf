// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/clavisproject/clavis/internal/models"
)

type accessResponse struct {
	Access bool `json:"access"`
}

type accessMapResponse struct {
	Access map[string]bool `json:"access"`
}

// handleFileAccess answers
// GET /api/v1/records/{pi}/files/{fileName}/access/{action}.
func (h *Handler) handleFileAccess(w http.ResponseWriter, r *http.Request) {
	pi := chi.URLParam(r, "pi")
	fileName := chi.URLParam(r, "fileName")
	action := chi.URLParam(r, "action")
	thumbnail := r.URL.Query().Get("thumbnail") == "true"

	granted, err := h.engine.CheckAccess(r.Context(), h.session(r), action, pi, fileName, thumbnail)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accessResponse{Access: granted})
}

// handleRecordAccess answers
// GET /api/v1/records/{pi}/access/{privilege}?logId=.
func (h *Handler) handleRecordAccess(w http.ResponseWriter, r *http.Request) {
	pi := chi.URLParam(r, "pi")
	logID := r.URL.Query().Get("logId")

	priv, err := models.ParsePrivilege(chi.URLParam(r, "privilege"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "UNKNOWN_PRIVILEGE", err.Error())
		return
	}

	granted, err := h.engine.CheckAccessPermissionByIdentifierAndLogId(r.Context(), h.session(r), pi, logID, priv)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accessResponse{Access: granted})
}

// handleStructuresAccess answers
// GET /api/v1/records/{pi}/structures/access/{privilege}.
func (h *Handler) handleStructuresAccess(w http.ResponseWriter, r *http.Request) {
	pi := chi.URLParam(r, "pi")

	priv, err := models.ParsePrivilege(chi.URLParam(r, "privilege"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "UNKNOWN_PRIVILEGE", err.Error())
		return
	}

	decisions, err := h.engine.CheckAccessPermissionForAllLogids(r.Context(), h.session(r), pi, priv)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accessMapResponse{Access: decisions})
}

type filesCheckRequest struct {
	Files []string `json:"files"`
}

// handleFilesCheck answers POST /api/v1/records/{pi}/files:check with a
// per-file decision map under the original-content download privilege.
func (h *Handler) handleFilesCheck(w http.ResponseWriter, r *http.Request) {
	pi := chi.URLParam(r, "pi")

	var req filesCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed request body")
		return
	}
	if len(req.Files) == 0 {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "files must not be empty")
		return
	}

	decisions, err := h.engine.CheckContentFileAccess(r.Context(), h.session(r), pi, req.Files)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accessMapResponse{Access: decisions})
}
