// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package models

import (
	"fmt"
	"net/netip"
)

// IpRange is a named network range holding licenses that apply to every
// request originating from an address inside the range.
type IpRange struct {
	// ID is the catalog row ID.
	ID int64

	// Name identifies the range for administrators.
	Name string

	// Subnet is the range in CIDR notation, e.g. "192.168.2.0/24".
	Subnet string

	// Description is free-form administrator documentation.
	Description string

	// Licenses granted to this range.
	Licenses []*License
}

// Matches reports whether the remote address lies inside the range.
// Unparsable addresses or subnets never match.
func (r *IpRange) Matches(remoteAddress string) bool {
	prefix, err := netip.ParsePrefix(r.Subnet)
	if err != nil {
		return false
	}
	addr, err := netip.ParseAddr(remoteAddress)
	if err != nil {
		return false
	}
	// Normalize IPv4-mapped IPv6 addresses so v4 subnets match them.
	if addr.Is4In6() {
		addr = addr.Unmap()
	}
	return prefix.Contains(addr)
}

// Validate checks the subnet syntax. Used by the management API before
// persisting a range.
func (r *IpRange) Validate() error {
	if _, err := netip.ParsePrefix(r.Subnet); err != nil {
		return fmt.Errorf("invalid subnet %q: %w", r.Subnet, err)
	}
	return nil
}

// CanSatisfyAll reports whether the range's licenses collectively cover
// every required condition with the requested privilege: AND across
// conditions, OR across licenses per condition.
func (r *IpRange) CanSatisfyAll(conditions ConditionSet, types []*LicenseType, priv Privilege) bool {
	if conditions.Empty() {
		return true
	}
	byName := licenseTypesByName(types)
	for condition := range conditions {
		if !licensesCover(r.Licenses, condition, priv, byName) {
			return false
		}
	}
	return true
}

// licenseTypesByName indexes license types for entitlement lookups.
func licenseTypesByName(types []*LicenseType) map[string]*LicenseType {
	byName := make(map[string]*LicenseType, len(types))
	for _, lt := range types {
		byName[lt.Name] = lt
	}
	return byName
}

// licensesCover reports whether any license in the slice grants the
// condition with the privilege.
func licensesCover(licenses []*License, condition string, priv Privilege, byName map[string]*LicenseType) bool {
	for _, lic := range licenses {
		if lic.Grants(condition, priv, byName[lic.LicenseTypeName]) {
			return true
		}
	}
	return false
}
