// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

// Package config loads and validates the Clavis configuration using
// koanf v2 with layered sources: struct defaults, an optional YAML file,
// and environment variables (highest priority).
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the Clavis server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Solr     SolrConfig     `koanf:"solr"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Cache    CacheConfig    `koanf:"cache"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// SolrConfig holds index client settings.
type SolrConfig struct {
	// URL is the base URL of the Solr core, e.g. "http://solr:8983/solr/collection1".
	URL string `koanf:"url"`

	// Timeout bounds each index HTTP request.
	Timeout time.Duration `koanf:"timeout"`

	// MaxHits caps result set size for batch queries.
	MaxHits int `koanf:"max_hits"`

	// RateLimit is the client-side request pacing in requests per second.
	// Zero disables pacing.
	RateLimit float64 `koanf:"rate_limit"`

	// BreakerEnabled wraps the client in a circuit breaker.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// DatabaseConfig holds catalog store settings.
type DatabaseConfig struct {
	// Path is the DuckDB database file. Empty means in-memory (tests).
	Path string `koanf:"path"`
}

// SecurityConfig holds authentication and evaluation policy settings.
type SecurityConfig struct {
	// JWTSecret signs and verifies bearer tokens. Required in production.
	JWTSecret string `koanf:"jwt_secret"`

	// AdminUsername and AdminPasswordHash (bcrypt) guard the management
	// API via HTTP basic auth.
	AdminUsername     string `koanf:"admin_username"`
	AdminPasswordHash string `koanf:"admin_password_hash"`

	// FullAccessForLocalhost grants every privilege to loopback clients.
	FullAccessForLocalhost bool `koanf:"full_access_for_localhost"`

	// Rate limiting for the public API.
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// CORSOrigins lists allowed origins for browser callers.
	CORSOrigins []string `koanf:"cors_origins"`

	// SessionStore selects the decision cache backend: "memory" or "badger".
	SessionStore string `koanf:"session_store"`

	// SessionStorePath is the badger directory when SessionStore is "badger".
	SessionStorePath string `koanf:"session_store_path"`

	// SessionTTL bounds how long cached decisions survive.
	SessionTTL time.Duration `koanf:"session_ttl"`
}

// CacheConfig holds decision cache settings.
type CacheConfig struct {
	// Enabled toggles session-scoped decision memoization.
	Enabled bool `koanf:"enabled"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would prevent startup.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Solr.URL == "" {
		return fmt.Errorf("solr.url is required")
	}
	if c.Solr.MaxHits <= 0 {
		return fmt.Errorf("solr.max_hits must be positive, got %d", c.Solr.MaxHits)
	}
	switch c.Security.SessionStore {
	case "memory", "badger":
	default:
		return fmt.Errorf("invalid session store %q (want memory or badger)", c.Security.SessionStore)
	}
	if c.Security.SessionStore == "badger" && c.Security.SessionStorePath == "" {
		return fmt.Errorf("security.session_store_path is required for the badger session store")
	}
	return nil
}
