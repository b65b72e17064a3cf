// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package models

// User is an authenticated principal. Identity is supplied by the caller
// (JWT subject); the engine only consumes it.
type User struct {
	// ID is the catalog row ID.
	ID int64

	// Email is the unique login identifier.
	Email string

	// DisplayName is shown in administrative views.
	DisplayName string

	// Active users can exercise their licenses; suspended users cannot.
	Active bool

	// Superuser bypasses the management API's admin checks. It does NOT
	// bypass access-condition evaluation.
	Superuser bool

	// Licenses granted directly to the user.
	Licenses []*License

	// Groups the user belongs to, as owner or member.
	Groups []*UserGroup
}

// UserGroup is a named collection of users sharing licenses.
type UserGroup struct {
	// ID is the catalog row ID.
	ID int64

	// Name identifies the group.
	Name string

	// Description is free-form administrator documentation.
	Description string

	// Licenses granted to every owner and member of the group.
	Licenses []*License
}

// CanSatisfyAll reports whether the user's own licenses plus those
// inherited through group membership cover every required condition with
// the requested privilege: AND across conditions, OR across licenses per
// condition. Inactive users satisfy nothing.
func (u *User) CanSatisfyAll(conditions ConditionSet, types []*LicenseType, priv Privilege) bool {
	if !u.Active {
		return false
	}
	if conditions.Empty() {
		return true
	}
	byName := licenseTypesByName(types)
	for condition := range conditions {
		if licensesCover(u.Licenses, condition, priv, byName) {
			continue
		}
		covered := false
		for _, group := range u.Groups {
			if licensesCover(group.Licenses, condition, priv, byName) {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}
