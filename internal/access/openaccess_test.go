// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package access

import (
	"testing"

	"github.com/clavisproject/clavis/internal/models"
)

func TestIsFreeOpenAccess(t *testing.T) {
	tests := []struct {
		name       string
		conditions []string
		types      []*models.LicenseType
		want       bool
	}{
		{
			name:       "single open access tag",
			conditions: []string{models.OpenAccessValue},
			want:       true,
		},
		{
			name:       "tag matches case-insensitively",
			conditions: []string{"openAccess"},
			want:       true,
		},
		{
			name:       "empty set is not open access",
			conditions: nil,
			want:       false,
		},
		{
			name:       "additional conditions disqualify",
			conditions: []string{models.OpenAccessValue, "restricted"},
			want:       false,
		},
		{
			name:       "other single tag disqualifies",
			conditions: []string{"restricted"},
			want:       false,
		},
		{
			name:       "license type claiming the name disqualifies",
			conditions: []string{models.OpenAccessValue},
			types:      []*models.LicenseType{{Name: models.OpenAccessValue}},
			want:       false,
		},
		{
			name:       "claim is matched case-insensitively",
			conditions: []string{models.OpenAccessValue},
			types:      []*models.LicenseType{{Name: "OpenAccess"}},
			want:       false,
		},
		{
			name:       "unrelated license types do not disqualify",
			conditions: []string{models.OpenAccessValue},
			types:      []*models.LicenseType{{Name: "restricted"}},
			want:       true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsFreeOpenAccess(models.NewConditionSet(tt.conditions...), tt.types)
			if got != tt.want {
				t.Errorf("IsFreeOpenAccess(%v) = %v, want %v", tt.conditions, got, tt.want)
			}
		})
	}
}
