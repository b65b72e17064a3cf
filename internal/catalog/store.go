// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

// Package catalog persists the access-control catalog: license types,
// licenses, IP ranges, users and user groups. It is backed by an
// embedded DuckDB database through database/sql.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/clavisproject/clavis/internal/logging"
	"github.com/clavisproject/clavis/internal/metrics"
)

var (
	// ErrNotFound indicates a missing catalog entity.
	ErrNotFound = errors.New("catalog entity not found")

	// ErrUnavailable wraps driver-level failures. Callers treat it as
	// "cannot decide", never as "denied".
	ErrUnavailable = errors.New("catalog unavailable")
)

// Store is the catalog database handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the catalog database at path and bootstraps
// the schema. An empty path opens an in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	// The embedded database is single-writer; keep the pool tiny.
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.bootstrap(); err != nil {
		_ = db.Close()
		return nil, err
	}
	logging.Info().Str("path", path).Msg("Catalog store opened")
	return s, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) bootstrap() error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_license_types START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_licenses START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_ip_ranges START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_users START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_user_groups START 1`,
		`CREATE TABLE IF NOT EXISTS license_types (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_license_types'),
			name VARCHAR NOT NULL UNIQUE,
			description VARCHAR NOT NULL DEFAULT '',
			conditions VARCHAR NOT NULL DEFAULT '',
			open_access BOOLEAN NOT NULL DEFAULT FALSE,
			core BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS license_type_privileges (
			license_type_id BIGINT NOT NULL,
			privilege VARCHAR NOT NULL,
			UNIQUE (license_type_id, privilege)
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_users'),
			email VARCHAR NOT NULL UNIQUE,
			display_name VARCHAR NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			superuser BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS user_groups (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_user_groups'),
			name VARCHAR NOT NULL UNIQUE,
			description VARCHAR NOT NULL DEFAULT ''
		)`,
		`CREATE TABLE IF NOT EXISTS user_group_members (
			group_id BIGINT NOT NULL,
			user_id BIGINT NOT NULL,
			UNIQUE (group_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ip_ranges (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_ip_ranges'),
			name VARCHAR NOT NULL UNIQUE,
			subnet VARCHAR NOT NULL,
			description VARCHAR NOT NULL DEFAULT ''
		)`,
		// A license belongs to exactly one owner: a user, a group or an
		// IP range. The unused owner columns stay NULL.
		`CREATE TABLE IF NOT EXISTS licenses (
			id BIGINT PRIMARY KEY DEFAULT nextval('seq_licenses'),
			license_type_name VARCHAR NOT NULL,
			user_id BIGINT,
			group_id BIGINT,
			ip_range_id BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS license_privileges (
			license_id BIGINT NOT NULL,
			privilege VARCHAR NOT NULL,
			UNIQUE (license_id, privilege)
		)`,
		`CREATE TABLE IF NOT EXISTS license_conditions (
			license_id BIGINT NOT NULL,
			condition VARCHAR NOT NULL,
			UNIQUE (license_id, condition)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: bootstrapping schema: %w", ErrUnavailable, err)
		}
	}
	return nil
}

// observe wraps a catalog operation with duration and error metrics.
func observe(operation string, start time.Time, err error) {
	metrics.RecordCatalogQuery(operation, time.Since(start), err)
}

// wrapErr maps driver errors to the package sentinels.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
