// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package access

import (
	"strings"

	"github.com/clavisproject/clavis/internal/models"
)

// IsFreeOpenAccess reports whether the condition set marks the resource
// as unconditionally open: exactly one condition, it is the open-access
// tag (case-insensitive), and no license type in types claims that name
// for itself. An administrator who defines a license type named like
// the tag turns it into a restriction.
func IsFreeOpenAccess(conditions models.ConditionSet, types []*models.LicenseType) bool {
	if conditions.Len() != 1 {
		return false
	}
	var only string
	for _, v := range conditions.Values() {
		only = v
	}
	if !strings.EqualFold(only, models.OpenAccessValue) {
		return false
	}
	for _, lt := range types {
		if strings.EqualFold(lt.Name, only) {
			return false
		}
	}
	return true
}
