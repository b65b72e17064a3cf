// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package access

import "errors"

var (
	// ErrInvalidInput indicates a precondition violation, such as an
	// empty record identifier or an unparsable file path.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownAction indicates an unrecognized viewer action. The
	// caller is denied.
	ErrUnknownAction = errors.New("unknown action")

	// ErrRecordNotFound indicates that the requested record does not
	// exist in the index.
	ErrRecordNotFound = errors.New("record not found")
)
