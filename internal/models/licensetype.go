// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// OpenAccessValue is the reserved access-condition tag for unrestricted
// resources. A resource whose only condition is this tag is freely
// accessible unless a license type of the same name has been configured,
// in which case that license type's rules apply.
const OpenAccessValue = "OPENACCESS"

// filenameConditionsPattern extracts the FILENAME:{...} block from a license
// type's raw conditions string. Everything outside the block is treated as a
// query fragment for the index.
var filenameConditionsPattern = regexp.MustCompile(`FILENAME:\{(.*)\}`)

// LicenseType is a configured rule bundle for one access-condition name.
// Immutable during evaluation; loaded from the catalog store.
type LicenseType struct {
	// ID is the catalog row ID. Zero for unsaved instances.
	ID int64

	// Name uniquely identifies the license type and is matched against
	// access-condition tags on resources.
	Name string

	// Description is free-form administrator documentation.
	Description string

	// Conditions is the raw conditions string. It may contain an index
	// query fragment, a FILENAME:{regex} restriction, or both.
	Conditions string

	// OpenAccess marks license types that impose no restriction at all.
	// Open-access types are excluded from the catalog used in checks.
	OpenAccess bool

	// Core marks built-in license types that administrators cannot delete.
	Core bool

	// Privileges are granted by default to everyone, licensed or not.
	Privileges ConditionSet
}

// AllowsByDefault reports whether the privilege is granted to everyone
// without a license.
func (lt *LicenseType) AllowsByDefault(priv Privilege) bool {
	return lt.Privileges.Contains(string(priv))
}

// QueryConditions returns the index query fragment of the conditions
// string: the raw string with any FILENAME:{...} block removed. A bare
// NOW/YEAR token is replaced with the current year so it can be compared
// against plain numeric fields; date fields keep the index's own NOW
// semantics.
func (lt *LicenseType) QueryConditions() string {
	conditions := filenameConditionsPattern.ReplaceAllString(lt.Conditions, "")

	if strings.Contains(conditions, "NOW/YEAR") && !strings.Contains(conditions, "DATE_") {
		conditions = strings.ReplaceAll(conditions, "NOW/YEAR", strconv.Itoa(time.Now().Year()))
	}

	return strings.TrimSpace(conditions)
}

// FilenameConditions returns the regular expression inside the
// FILENAME:{...} block, or the empty string when the license type has no
// filename restriction.
func (lt *LicenseType) FilenameConditions() string {
	m := filenameConditionsPattern.FindStringSubmatch(lt.Conditions)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// MatchesFilename reports whether the given base file name satisfies the
// license type's filename restriction. License types without a restriction
// match every file.
func (lt *LicenseType) MatchesFilename(baseName string) bool {
	pattern := lt.FilenameConditions()
	if pattern == "" {
		return true
	}
	matched, err := regexp.MatchString("^(?:"+pattern+")$", baseName)
	if err != nil {
		// A broken pattern restricts the type to nothing rather than
		// everything: fail closed.
		return false
	}
	return matched
}
