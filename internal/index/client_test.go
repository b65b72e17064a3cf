// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package index

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker bool) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(Config{
		URL:            server.URL,
		Timeout:        5 * time.Second,
		MaxHits:        1000,
		BreakerEnabled: breaker,
	})
}

func TestSearchDecodesResponse(t *testing.T) {
	var gotQuery, gotRows string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotRows = r.URL.Query().Get("rows")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"response": {
				"numFound": 2,
				"docs": [
					{"PI": "PPN123", "ACCESSCONDITION": ["restricted"], "ORDER": 3},
					{"PI": "PPN123", "ACCESSCONDITION": "OPENACCESS"}
				]
			}
		}`))
	}, false)

	docs, err := client.Search(context.Background(), "+PI:PPN123", 10, []string{FieldPI, FieldAccessCondition})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "+PI:PPN123" || gotRows != "10" {
		t.Errorf("request had q=%q rows=%q", gotQuery, gotRows)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}

	// Multivalued and scalar fields both normalize.
	if got := docs[0].Strings(FieldAccessCondition); len(got) != 1 || got[0] != "restricted" {
		t.Errorf("Strings() = %v", got)
	}
	if got := docs[1].FirstString(FieldAccessCondition); got != "OPENACCESS" {
		t.Errorf("FirstString() = %q", got)
	}
	if order, ok := docs[0].Int(FieldOrder); !ok || order != 3 {
		t.Errorf("Int() = %d, %v", order, ok)
	}
}

func TestGetHitCount(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("rows") != "0" {
			t.Errorf("hit count must not fetch documents, rows=%q", r.URL.Query().Get("rows"))
		}
		_, _ = w.Write([]byte(`{"response": {"numFound": 42, "docs": []}}`))
	}, false)

	hits, err := client.GetHitCount(context.Background(), "+PI:PPN123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 42 {
		t.Errorf("hits = %d, want 42", hits)
	}
}

func TestGetFirstDocEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"response": {"numFound": 0, "docs": []}}`))
	}, false)

	doc, err := client.GetFirstDoc(context.Background(), "+PI:NOPE", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc != nil {
		t.Errorf("expected nil doc, got %v", doc)
	}
}

func TestServerErrorIsUnreachable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}, false)

	_, err := client.Search(context.Background(), "+PI:PPN123", 1, nil)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestSolrErrorBodyIsUnreachable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error": {"msg": "undefined field FOO", "code": 400}}`))
	}, false)

	_, err := client.Search(context.Background(), "FOO:bar", 1, nil)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var requests int
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		requests++
		w.WriteHeader(http.StatusBadGateway)
	}, true)

	for i := 0; i < 5; i++ {
		if _, err := client.Search(context.Background(), "+PI:PPN123", 1, nil); err == nil {
			t.Fatal("expected failure")
		}
	}

	seen := requests
	_, err := client.Search(context.Background(), "+PI:PPN123", 1, nil)
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable from open breaker, got %v", err)
	}
	if requests != seen {
		t.Error("an open breaker must not hit the server")
	}
}
