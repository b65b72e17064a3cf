// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

// Package models defines the domain model for access-condition evaluation:
// privileges, license types, licenses, IP ranges, users and groups.
//
// All types are read-only from the engine's point of view: evaluation never
// mutates catalog entities. Entitlement queries (CanSatisfyAll) live on the
// principal types so the evaluator stays a pure function over them.
package models

import "fmt"

// Privilege identifies one protected action on a resource. The set is
// closed; unknown privilege strings are rejected at the API boundary.
type Privilege string

// The full privilege set. Values match the access-condition tags stored in
// the index and catalog, so they double as wire identifiers.
const (
	PrivViewImages              Privilege = "VIEW_IMAGES"
	PrivViewThumbnails          Privilege = "VIEW_THUMBNAILS"
	PrivViewFulltext            Privilege = "VIEW_FULLTEXT"
	PrivViewVideo               Privilege = "VIEW_VIDEO"
	PrivViewAudio               Privilege = "VIEW_AUDIO"
	PrivDownloadPDF             Privilege = "DOWNLOAD_PDF"
	PrivDownloadPagePDF         Privilege = "DOWNLOAD_PAGE_PDF"
	PrivDownloadOriginalContent Privilege = "DOWNLOAD_ORIGINAL_CONTENT"
)

// allPrivileges lists every valid privilege for parsing and validation.
var allPrivileges = map[Privilege]struct{}{
	PrivViewImages:              {},
	PrivViewThumbnails:          {},
	PrivViewFulltext:            {},
	PrivViewVideo:               {},
	PrivViewAudio:               {},
	PrivDownloadPDF:             {},
	PrivDownloadPagePDF:         {},
	PrivDownloadOriginalContent: {},
}

// String implements fmt.Stringer.
func (p Privilege) String() string {
	return string(p)
}

// Valid reports whether p is a member of the closed privilege set.
func (p Privilege) Valid() bool {
	_, ok := allPrivileges[p]
	return ok
}

// ParsePrivilege converts a privilege name to a Privilege.
// Returns an error for names outside the closed set.
func ParsePrivilege(name string) (Privilege, error) {
	p := Privilege(name)
	if !p.Valid() {
		return "", fmt.Errorf("unknown privilege %q", name)
	}
	return p, nil
}

// Privileges returns all valid privileges. The order is unspecified.
func Privileges() []Privilege {
	out := make([]Privilege, 0, len(allPrivileges))
	for p := range allPrivileges {
		out = append(out, p)
	}
	return out
}
