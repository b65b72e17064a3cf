// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package access

import (
	"context"
	"strings"
	"testing"

	"github.com/clavisproject/clavis/internal/index"
)

func TestFilenameQueryClauseRouting(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"clip.webm", "FILENAME_WEBM:clip.webm"},
		{"clip.mp4", "FILENAME_MP4:clip.mp4"},
		{"track.mp3", "FILENAME_MPEG3:track.mp3"},
		{"track.ogg", "FILENAME_OGG:track.ogg"},
		{"clip.ogv", "FILENAME_OGG:clip.ogv"},
		{"page.txt", "FILENAME:page.*"},
		{"page.xml", "FILENAME:page.*"},
		{"page", "FILENAME:page.*"},
		{"page_0001.tif", "FILENAME:page_0001.tif"},
	}
	for _, tt := range tests {
		if got := filenameQueryClause(tt.file); got != tt.want {
			t.Errorf("filenameQueryClause(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestResolveFileConditionsWildcard(t *testing.T) {
	var captured string
	idx := &fakeIndex{searchFn: func(query string) []index.Doc {
		captured = query
		return []index.Doc{
			pageDoc("a.tif", "restricted"),
			pageDoc("b.tif"),
		}
	}}

	r := NewResolver(idx)
	conditions, query, err := r.ResolveFileConditions(context.Background(), "PPN123", "*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(captured, "+PI_TOPSTRUCT:PPN123") || !strings.Contains(captured, "FILENAME:*") {
		t.Errorf("wildcard query %q must target all files of the record", captured)
	}
	if query != captured {
		t.Errorf("returned query must be the one executed")
	}
	if !conditions["a.tif"].Contains("restricted") {
		t.Error("conditions of a.tif missing")
	}
	if !conditions["b.tif"].Empty() {
		t.Error("b.tif must have no conditions")
	}
}

func TestResolveFileConditionsMergesDocs(t *testing.T) {
	idx := &fakeIndex{searchFn: func(string) []index.Doc {
		return []index.Doc{
			pageDoc("page_0001.tif", "restricted"),
			pageDoc("page_0001.tif", "embargo"),
		}
	}}

	r := NewResolver(idx)
	conditions, _, err := r.ResolveFileConditions(context.Background(), "PPN123", "page_0001.tif")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set := conditions["page_0001.tif"]
	if !set.Contains("restricted") || !set.Contains("embargo") {
		t.Errorf("conditions of all matching documents must merge, got %v", set.Values())
	}
}

func TestResolveRecordConditionsQueries(t *testing.T) {
	var captured string
	idx := &fakeIndex{searchFn: func(query string) []index.Doc {
		captured = query
		return []index.Doc{{index.FieldAccessCondition: []any{"restricted"}}}
	}}
	r := NewResolver(idx)

	if _, _, err := r.ResolveRecordConditions(context.Background(), "PPN123", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(captured, "+PI:PPN123") || !strings.Contains(captured, "+DOCTYPE:DOCSTRCT") {
		t.Errorf("top-document query %q", captured)
	}

	if _, _, err := r.ResolveRecordConditions(context.Background(), "PPN123", "LOG_0003"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(captured, "+PI_TOPSTRUCT:PPN123") || !strings.Contains(captured, "+LOGID:LOG_0003") {
		t.Errorf("substructure query %q", captured)
	}
}

func TestResolveImageUrnEscapesColons(t *testing.T) {
	var captured string
	idx := &fakeIndex{searchFn: func(query string) []index.Doc {
		captured = query
		return nil
	}}
	r := NewResolver(idx)

	set, _, err := r.ResolveImageUrnConditions(context.Background(), "urn:nbn:de:test-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !set.Empty() {
		t.Error("unknown URN must resolve to an empty set")
	}
	if !strings.Contains(captured, `urn\:nbn\:de\:test\-123`) {
		t.Errorf("URN colons must be escaped in %q", captured)
	}
}

func TestEscapeValue(t *testing.T) {
	got := index.EscapeValue(`a:b c"d`)
	want := `a\:b\ c\"d`
	if got != want {
		t.Errorf("EscapeValue = %q, want %q", got, want)
	}
}
