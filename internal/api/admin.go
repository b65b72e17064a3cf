// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/clavisproject/clavis/internal/catalog"
	"github.com/clavisproject/clavis/internal/models"
	"github.com/clavisproject/clavis/internal/validation"
)

// decodeAndValidate decodes a JSON payload and runs struct validation.
// It writes the error response itself and reports success.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, payload any) bool {
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "malformed request body")
		return false
	}
	if verr := validation.ValidateStruct(payload); verr != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: apiError{
			Code:    "VALIDATION_ERROR",
			Message: verr.Error(),
			Details: verr.Fields(),
		}})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid id")
		return 0, false
	}
	return id, true
}

// --- license types ---

type licenseTypePayload struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description"`
	Conditions  string   `json:"conditions"`
	OpenAccess  bool     `json:"openAccess"`
	Core        bool     `json:"core"`
	Privileges  []string `json:"privileges" validate:"dive,privilege"`
}

type licenseTypeDTO struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Conditions  string   `json:"conditions"`
	OpenAccess  bool     `json:"openAccess"`
	Core        bool     `json:"core"`
	Privileges  []string `json:"privileges"`
}

func licenseTypeFromPayload(p *licenseTypePayload) *models.LicenseType {
	return &models.LicenseType{
		Name:        p.Name,
		Description: p.Description,
		Conditions:  p.Conditions,
		OpenAccess:  p.OpenAccess,
		Core:        p.Core,
		Privileges:  models.NewConditionSet(p.Privileges...),
	}
}

func licenseTypeToDTO(lt *models.LicenseType) licenseTypeDTO {
	return licenseTypeDTO{
		ID:          lt.ID,
		Name:        lt.Name,
		Description: lt.Description,
		Conditions:  lt.Conditions,
		OpenAccess:  lt.OpenAccess,
		Core:        lt.Core,
		Privileges:  lt.Privileges.Values(),
	}
}

func (h *Handler) handleListLicenseTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.store.GetAllLicenseTypes(r.Context())
	if err != nil {
		respondCatalogError(w, r, err)
		return
	}
	dtos := make([]licenseTypeDTO, len(types))
	for i, lt := range types {
		dtos[i] = licenseTypeToDTO(lt)
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *Handler) handleCreateLicenseType(w http.ResponseWriter, r *http.Request) {
	var payload licenseTypePayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	lt := licenseTypeFromPayload(&payload)
	if err := h.store.CreateLicenseType(r.Context(), lt); err != nil {
		respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, licenseTypeToDTO(lt))
}

func (h *Handler) handleUpdateLicenseType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload licenseTypePayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	lt := licenseTypeFromPayload(&payload)
	lt.ID = id
	if err := h.store.UpdateLicenseType(r.Context(), lt); err != nil {
		respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, licenseTypeToDTO(lt))
}

func (h *Handler) handleDeleteLicenseType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteLicenseType(r.Context(), id); err != nil {
		respondCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- IP ranges ---

type ipRangePayload struct {
	Name        string `json:"name" validate:"required,max=255"`
	Subnet      string `json:"subnet" validate:"required,cidr"`
	Description string `json:"description"`
}

type ipRangeDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Subnet      string `json:"subnet"`
	Description string `json:"description"`
}

func ipRangeToDTO(r *models.IpRange) ipRangeDTO {
	return ipRangeDTO{ID: r.ID, Name: r.Name, Subnet: r.Subnet, Description: r.Description}
}

func (h *Handler) handleListIpRanges(w http.ResponseWriter, r *http.Request) {
	ranges, err := h.store.GetAllIpRanges(r.Context())
	if err != nil {
		respondCatalogError(w, r, err)
		return
	}
	dtos := make([]ipRangeDTO, len(ranges))
	for i, rng := range ranges {
		dtos[i] = ipRangeToDTO(rng)
	}
	respondJSON(w, http.StatusOK, dtos)
}

func (h *Handler) handleCreateIpRange(w http.ResponseWriter, r *http.Request) {
	var payload ipRangePayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	rng := &models.IpRange{Name: payload.Name, Subnet: payload.Subnet, Description: payload.Description}
	if err := rng.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if err := h.store.CreateIpRange(r.Context(), rng); err != nil {
		respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ipRangeToDTO(rng))
}

func (h *Handler) handleUpdateIpRange(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload ipRangePayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}
	rng := &models.IpRange{ID: id, Name: payload.Name, Subnet: payload.Subnet, Description: payload.Description}
	if err := rng.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if err := h.store.UpdateIpRange(r.Context(), rng); err != nil {
		respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ipRangeToDTO(rng))
}

func (h *Handler) handleDeleteIpRange(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteIpRange(r.Context(), id); err != nil {
		respondCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- licenses ---

type licensePayload struct {
	LicenseTypeName string   `json:"licenseTypeName" validate:"required,max=255"`
	UserID          int64    `json:"userId"`
	GroupID         int64    `json:"groupId"`
	IpRangeID       int64    `json:"ipRangeId"`
	Privileges      []string `json:"privileges" validate:"dive,privilege"`
	Conditions      []string `json:"conditions"`
}

type licenseDTO struct {
	ID              int64    `json:"id"`
	LicenseTypeName string   `json:"licenseTypeName"`
	Privileges      []string `json:"privileges"`
	Conditions      []string `json:"conditions"`
}

func (h *Handler) handleCreateLicense(w http.ResponseWriter, r *http.Request) {
	var payload licensePayload
	if !decodeAndValidate(w, r, &payload) {
		return
	}

	// The referenced license type must exist.
	if _, err := h.store.GetLicenseType(r.Context(), payload.LicenseTypeName); err != nil {
		respondCatalogError(w, r, err)
		return
	}

	lic := &models.License{
		LicenseTypeName: payload.LicenseTypeName,
		Privileges:      models.NewConditionSet(payload.Privileges...),
		Conditions:      models.NewConditionSet(payload.Conditions...),
	}
	owner := catalog.LicenseOwner{
		UserID:    payload.UserID,
		GroupID:   payload.GroupID,
		IpRangeID: payload.IpRangeID,
	}
	if err := h.store.CreateLicense(r.Context(), lic, owner); err != nil {
		respondCatalogError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, licenseDTO{
		ID:              lic.ID,
		LicenseTypeName: lic.LicenseTypeName,
		Privileges:      lic.Privileges.Values(),
		Conditions:      lic.Conditions.Values(),
	})
}

func (h *Handler) handleDeleteLicense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteLicense(r.Context(), id); err != nil {
		respondCatalogError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
