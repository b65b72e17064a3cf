// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package access

import (
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/clavisproject/clavis/internal/logging"
	"github.com/clavisproject/clavis/internal/metrics"
	"github.com/clavisproject/clavis/internal/models"
)

// BadgerSessionCache persists decisions across restarts so a rolling
// deploy does not force every active session through full re-evaluation.
//
// Key layout:
//
//	s/<session>/pi              current record identifier
//	s/<session>/d/<priv>/<key>  one decision byte (0 or 1)
type BadgerSessionCache struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerSessionCache opens (or creates) the cache at dir. Entries
// expire after ttl.
func NewBadgerSessionCache(dir string, ttl time.Duration) (*BadgerSessionCache, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(nil).
		WithCompactL0OnClose(true)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening session cache at %s: %w", dir, err)
	}
	logging.Info().Str("dir", dir).Dur("ttl", ttl).Msg("Badger session cache opened")
	return &BadgerSessionCache{db: db, ttl: ttl}, nil
}

func sessionPIKey(sessionID string) []byte {
	return []byte("s/" + sessionID + "/pi")
}

func decisionPrefix(sessionID string) []byte {
	return []byte("s/" + sessionID + "/d/")
}

func decisionKey(sessionID string, priv models.Privilege, key string) []byte {
	return []byte("s/" + sessionID + "/d/" + string(priv) + "/" + key)
}

// Get implements SessionCache.
func (c *BadgerSessionCache) Get(sessionID string, priv models.Privilege, key string) (bool, bool) {
	var granted, found bool
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(decisionKey(sessionID, priv, key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			found = true
			granted = len(val) == 1 && val[0] == 1
			return nil
		})
	})
	if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
		logging.Warn().Err(err).Msg("Session cache read failed")
	}
	if found {
		metrics.SessionCacheHits.Inc()
	} else {
		metrics.SessionCacheMisses.Inc()
	}
	return granted, found
}

// Put implements SessionCache.
func (c *BadgerSessionCache) Put(sessionID string, priv models.Privilege, key string, granted bool) {
	c.PutAll(sessionID, priv, map[string]bool{key: granted})
}

// PutAll implements SessionCache.
func (c *BadgerSessionCache) PutAll(sessionID string, priv models.Privilege, entries map[string]bool) {
	err := c.db.Update(func(txn *badger.Txn) error {
		for key, granted := range entries {
			val := []byte{0}
			if granted {
				val[0] = 1
			}
			entry := badger.NewEntry(decisionKey(sessionID, priv, key), val)
			if c.ttl > 0 {
				entry = entry.WithTTL(c.ttl)
			}
			if err := txn.SetEntry(entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logging.Warn().Err(err).Msg("Session cache write failed")
	}
}

// TrackRecord implements SessionCache.
func (c *BadgerSessionCache) TrackRecord(sessionID, pi string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionPIKey(sessionID))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			// first record for this session
		case err != nil:
			return err
		default:
			var current string
			if err := item.Value(func(val []byte) error {
				current = string(val)
				return nil
			}); err != nil {
				return err
			}
			if current == pi {
				return nil
			}
			if err := deletePrefix(txn, decisionPrefix(sessionID)); err != nil {
				return err
			}
			metrics.SessionCacheInvalidations.Inc()
		}
		entry := badger.NewEntry(sessionPIKey(sessionID), []byte(pi))
		if c.ttl > 0 {
			entry = entry.WithTTL(c.ttl)
		}
		return txn.SetEntry(entry)
	})
	if err != nil {
		logging.Warn().Err(err).Msg("Session cache invalidation failed")
	}
}

// deletePrefix removes every key under prefix within the transaction.
func deletePrefix(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Close implements SessionCache.
func (c *BadgerSessionCache) Close() error {
	return c.db.Close()
}
