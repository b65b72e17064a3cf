// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package access

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/clavisproject/clavis/internal/models"
)

func TestMemorySessionCacheRoundtrip(t *testing.T) {
	cache := NewMemorySessionCache()

	if _, ok := cache.Get("s1", models.PrivViewImages, "k"); ok {
		t.Fatal("empty cache must miss")
	}
	cache.Put("s1", models.PrivViewImages, "k", true)
	granted, ok := cache.Get("s1", models.PrivViewImages, "k")
	if !ok || !granted {
		t.Fatal("stored decision must be returned")
	}

	// Decisions are scoped per privilege and per session.
	if _, ok := cache.Get("s1", models.PrivDownloadPDF, "k"); ok {
		t.Error("another privilege must miss")
	}
	if _, ok := cache.Get("s2", models.PrivViewImages, "k"); ok {
		t.Error("another session must miss")
	}
}

func TestMemorySessionCacheConcurrency(t *testing.T) {
	cache := NewMemorySessionCache()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("PPN123_file_%d_%d", n, j)
				cache.Put("s1", models.PrivViewImages, key, j%2 == 0)
				cache.Get("s1", models.PrivViewImages, key)
				if j%10 == 0 {
					cache.TrackRecord("s1", fmt.Sprintf("PPN%d", j))
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestBadgerSessionCache(t *testing.T) {
	cache, err := NewBadgerSessionCache(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("opening cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	cache.TrackRecord("s1", "PPN123")
	cache.Put("s1", models.PrivViewImages, DecisionKey("PPN123", "a.tif"), true)
	cache.Put("s1", models.PrivViewImages, DecisionKey("PPN123", "b.tif"), false)

	granted, ok := cache.Get("s1", models.PrivViewImages, DecisionKey("PPN123", "a.tif"))
	if !ok || !granted {
		t.Fatal("stored grant must be returned")
	}
	denied, ok := cache.Get("s1", models.PrivViewImages, DecisionKey("PPN123", "b.tif"))
	if !ok || denied {
		t.Fatal("stored denial must be returned")
	}

	// Same record: decisions survive.
	cache.TrackRecord("s1", "PPN123")
	if _, ok := cache.Get("s1", models.PrivViewImages, DecisionKey("PPN123", "a.tif")); !ok {
		t.Fatal("tracking the same record must not invalidate")
	}

	// New record: decisions are dropped.
	cache.TrackRecord("s1", "PPN999")
	if _, ok := cache.Get("s1", models.PrivViewImages, DecisionKey("PPN123", "a.tif")); ok {
		t.Fatal("tracking a new record must invalidate")
	}
}
