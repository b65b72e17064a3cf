// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package models

import "sort"

// ConditionSet is an unordered set of case-sensitive string tags. It is used
// both for access-condition names attached to resources and for privilege
// name sets on license types and licenses.
type ConditionSet map[string]struct{}

// NewConditionSet builds a set from the given values.
func NewConditionSet(values ...string) ConditionSet {
	s := make(ConditionSet, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Add inserts a value into the set.
func (s ConditionSet) Add(value string) {
	s[value] = struct{}{}
}

// Contains reports whether the set holds the value.
func (s ConditionSet) Contains(value string) bool {
	_, ok := s[value]
	return ok
}

// Empty reports whether the set has no members.
func (s ConditionSet) Empty() bool {
	return len(s) == 0
}

// Len returns the number of members.
func (s ConditionSet) Len() int {
	return len(s)
}

// Values returns the members in sorted order, for deterministic logging
// and test assertions.
func (s ConditionSet) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy of the set.
func (s ConditionSet) Clone() ConditionSet {
	out := make(ConditionSet, len(s))
	for v := range s {
		out[v] = struct{}{}
	}
	return out
}
