// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package access

import (
	"sync"

	"github.com/clavisproject/clavis/internal/metrics"
	"github.com/clavisproject/clavis/internal/models"
)

// SessionCache memoizes access decisions per viewer session. Entries
// are keyed by privilege and a record/file key. Moving a session to a
// different record drops all of its decisions, so stale grants from a
// previously viewed record can never leak.
//
// Implementations must be safe for concurrent use.
type SessionCache interface {
	// Get returns the cached decision and whether one exists.
	Get(sessionID string, priv models.Privilege, key string) (granted bool, ok bool)

	// Put stores one decision.
	Put(sessionID string, priv models.Privilege, key string, granted bool)

	// PutAll stores a batch of decisions for one privilege.
	PutAll(sessionID string, priv models.Privilege, entries map[string]bool)

	// TrackRecord notes the record a session currently views. When the
	// identifier differs from the tracked one, all cached decisions of
	// the session are invalidated first.
	TrackRecord(sessionID, pi string)

	// Close releases backing resources.
	Close() error
}

// DecisionKey builds the cache key for a record/file pair.
func DecisionKey(pi, fileName string) string {
	return pi + "_" + fileName
}

// memorySession is one session's bucket in the in-memory cache.
type memorySession struct {
	currentPI string
	decisions map[models.Privilege]map[string]bool
}

// MemorySessionCache is the default in-process decision cache.
type MemorySessionCache struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
}

// NewMemorySessionCache returns an empty in-memory cache.
func NewMemorySessionCache() *MemorySessionCache {
	return &MemorySessionCache{sessions: make(map[string]*memorySession)}
}

// Get implements SessionCache.
func (c *MemorySessionCache) Get(sessionID string, priv models.Privilege, key string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[sessionID]
	if !ok {
		metrics.SessionCacheMisses.Inc()
		return false, false
	}
	granted, ok := sess.decisions[priv][key]
	if ok {
		metrics.SessionCacheHits.Inc()
	} else {
		metrics.SessionCacheMisses.Inc()
	}
	return granted, ok
}

// Put implements SessionCache.
func (c *MemorySessionCache) Put(sessionID string, priv models.Privilege, key string, granted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(sessionID, priv, key, granted)
}

// PutAll implements SessionCache.
func (c *MemorySessionCache) PutAll(sessionID string, priv models.Privilege, entries map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, granted := range entries {
		c.put(sessionID, priv, key, granted)
	}
}

func (c *MemorySessionCache) put(sessionID string, priv models.Privilege, key string, granted bool) {
	sess, ok := c.sessions[sessionID]
	if !ok {
		sess = &memorySession{decisions: make(map[models.Privilege]map[string]bool)}
		c.sessions[sessionID] = sess
	}
	bucket, ok := sess.decisions[priv]
	if !ok {
		bucket = make(map[string]bool)
		sess.decisions[priv] = bucket
	}
	bucket[key] = granted
}

// TrackRecord implements SessionCache.
func (c *MemorySessionCache) TrackRecord(sessionID, pi string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[sessionID]
	if !ok {
		c.sessions[sessionID] = &memorySession{
			currentPI: pi,
			decisions: make(map[models.Privilege]map[string]bool),
		}
		return
	}
	if sess.currentPI != pi {
		sess.currentPI = pi
		sess.decisions = make(map[models.Privilege]map[string]bool)
		metrics.SessionCacheInvalidations.Inc()
	}
}

// Drop removes a session entirely, e.g. on logout.
func (c *MemorySessionCache) Drop(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
}

// Close implements SessionCache.
func (c *MemorySessionCache) Close() error {
	return nil
}
