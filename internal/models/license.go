// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package models

// License grants one license type's privileges to exactly one principal:
// a user, a user group, or an IP range. Which principal owns the license is
// determined by the owning collection it is loaded into.
type License struct {
	// ID is the catalog row ID.
	ID int64

	// LicenseTypeName names the license type whose privileges this
	// license grants.
	LicenseTypeName string

	// Privileges optionally overrides the license type's default
	// privilege set for this grant. When empty, the license type's
	// defaults apply.
	Privileges ConditionSet

	// Conditions optionally restricts the grant to a subset of
	// access-condition names. When empty, the grant covers any condition
	// matching the license type name.
	Conditions ConditionSet
}

// Grants reports whether this license covers the given condition name with
// the given privilege, against the license type it references. The
// privilege must be present either in the license's own override set or,
// when no override is configured, in the license type's default set.
func (l *License) Grants(condition string, priv Privilege, licenseType *LicenseType) bool {
	if licenseType == nil || l.LicenseTypeName != condition || licenseType.Name != condition {
		return false
	}
	if !l.Conditions.Empty() && !l.Conditions.Contains(condition) {
		return false
	}
	if !l.Privileges.Empty() {
		return l.Privileges.Contains(string(priv))
	}
	return licenseType.AllowsByDefault(priv)
}
