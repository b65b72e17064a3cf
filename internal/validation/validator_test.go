// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package validation

import (
	"strings"
	"testing"
)

type samplePayload struct {
	Name       string   `validate:"required"`
	Subnet     string   `validate:"omitempty,cidr"`
	Privileges []string `validate:"dive,privilege"`
}

func TestValidateStructPasses(t *testing.T) {
	payload := samplePayload{
		Name:       "campus",
		Subnet:     "10.0.0.0/8",
		Privileges: []string{"VIEW_IMAGES", "DOWNLOAD_PDF"},
	}
	if err := ValidateStruct(&payload); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}

func TestValidateStructCollectsFieldErrors(t *testing.T) {
	payload := samplePayload{
		Subnet:     "not-a-subnet",
		Privileges: []string{"VIEW_IMAGES", "FLY_TO_THE_MOON"},
	}
	verr := ValidateStruct(&payload)
	if verr == nil {
		t.Fatal("expected validation errors")
	}
	if len(verr.Fields()) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(verr.Fields()), verr)
	}
	if !strings.Contains(verr.Error(), "Name is required") {
		t.Errorf("missing required message: %v", verr)
	}
	if !strings.Contains(verr.Error(), "must be a valid CIDR subnet") {
		t.Errorf("missing cidr message: %v", verr)
	}
	if !strings.Contains(verr.Error(), "must be a known privilege name") {
		t.Errorf("missing privilege message: %v", verr)
	}
}
