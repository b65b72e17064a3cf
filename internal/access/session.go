// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package access

import "github.com/clavisproject/clavis/internal/models"

// Session carries the requester identity for one evaluation. The engine
// never reads ambient state; everything it may consult arrives here.
type Session struct {
	// ID identifies the viewer session for decision caching. Empty
	// disables caching for the call.
	ID string

	// User is the authenticated user, or nil for anonymous requests.
	User *models.User

	// RemoteAddr is the client IP address (no port).
	RemoteAddr string
}
