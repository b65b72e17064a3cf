// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package models

import "testing"

func restrictedType(name string, defaults ...string) *LicenseType {
	return &LicenseType{Name: name, Privileges: NewConditionSet(defaults...)}
}

func licenseFor(typeName string, privileges ...string) *License {
	return &License{
		LicenseTypeName: typeName,
		Privileges:      NewConditionSet(privileges...),
		Conditions:      NewConditionSet(),
	}
}

func TestLicenseGrants(t *testing.T) {
	lt := restrictedType("restricted", string(PrivViewThumbnails))

	t.Run("override privileges win", func(t *testing.T) {
		lic := licenseFor("restricted", string(PrivViewImages))
		if !lic.Grants("restricted", PrivViewImages, lt) {
			t.Error("expected grant from override set")
		}
		if lic.Grants("restricted", PrivViewThumbnails, lt) {
			t.Error("override set must replace the defaults, not extend them")
		}
	})

	t.Run("defaults apply without override", func(t *testing.T) {
		lic := licenseFor("restricted")
		if !lic.Grants("restricted", PrivViewThumbnails, lt) {
			t.Error("expected grant from license type defaults")
		}
	})

	t.Run("type name must match condition", func(t *testing.T) {
		lic := licenseFor("other", string(PrivViewImages))
		if lic.Grants("restricted", PrivViewImages, restrictedType("other")) {
			t.Error("license for a different condition must not grant")
		}
	})

	t.Run("condition subset restriction", func(t *testing.T) {
		lic := licenseFor("restricted", string(PrivViewImages))
		lic.Conditions = NewConditionSet("somewhere-else")
		if lic.Grants("restricted", PrivViewImages, lt) {
			t.Error("restricted license must not grant outside its subset")
		}
	})
}

func TestIpRangeMatches(t *testing.T) {
	r := &IpRange{Subnet: "192.168.2.0/24"}

	tests := []struct {
		addr string
		want bool
	}{
		{"192.168.2.10", true},
		{"192.168.3.10", false},
		{"::ffff:192.168.2.10", true}, // IPv4-mapped IPv6
		{"not-an-address", false},
	}
	for _, tt := range tests {
		if got := r.Matches(tt.addr); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.addr, got, tt.want)
		}
	}

	broken := &IpRange{Subnet: "not-a-subnet"}
	if broken.Matches("192.168.2.10") {
		t.Error("unparsable subnet must never match")
	}
}

func TestIpRangeCanSatisfyAll(t *testing.T) {
	typeA := restrictedType("cond-a")
	typeB := restrictedType("cond-b")
	types := []*LicenseType{typeA, typeB}

	r := &IpRange{
		Subnet: "10.0.0.0/8",
		Licenses: []*License{
			licenseFor("cond-a", string(PrivViewImages)),
		},
	}

	if !r.CanSatisfyAll(NewConditionSet("cond-a"), types, PrivViewImages) {
		t.Error("expected single covered condition to be satisfied")
	}
	if r.CanSatisfyAll(NewConditionSet("cond-a", "cond-b"), types, PrivViewImages) {
		t.Error("uncovered condition must fail the whole set")
	}
	if !r.CanSatisfyAll(NewConditionSet(), types, PrivViewImages) {
		t.Error("empty condition set is trivially satisfied")
	}
}

func TestUserCanSatisfyAll(t *testing.T) {
	types := []*LicenseType{restrictedType("cond-a"), restrictedType("cond-b")}

	user := &User{
		Active:   true,
		Licenses: []*License{licenseFor("cond-a", string(PrivViewImages))},
		Groups: []*UserGroup{{
			Name:     "readers",
			Licenses: []*License{licenseFor("cond-b", string(PrivViewImages))},
		}},
	}

	if !user.CanSatisfyAll(NewConditionSet("cond-a", "cond-b"), types, PrivViewImages) {
		t.Error("own plus group licenses must combine across conditions")
	}
	if user.CanSatisfyAll(NewConditionSet("cond-a", "cond-b"), types, PrivDownloadPDF) {
		t.Error("privilege not granted by any license must fail")
	}

	user.Active = false
	if user.CanSatisfyAll(NewConditionSet("cond-a"), types, PrivViewImages) {
		t.Error("inactive users satisfy nothing")
	}
}

func TestParsePrivilege(t *testing.T) {
	priv, err := ParsePrivilege("VIEW_IMAGES")
	if err != nil || priv != PrivViewImages {
		t.Fatalf("ParsePrivilege(VIEW_IMAGES) = %v, %v", priv, err)
	}
	if _, err := ParsePrivilege("FLY_TO_THE_MOON"); err == nil {
		t.Fatal("expected error for unknown privilege")
	}
}
