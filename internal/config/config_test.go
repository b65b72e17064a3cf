// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultsAreValid(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"huge port", func(c *Config) { c.Server.Port = 70000 }},
		{"empty solr url", func(c *Config) { c.Solr.URL = "" }},
		{"non-positive max hits", func(c *Config) { c.Solr.MaxHits = 0 }},
		{"unknown session store", func(c *Config) { c.Security.SessionStore = "redis" }},
		{"badger without path", func(c *Config) {
			c.Security.SessionStore = "badger"
			c.Security.SessionStorePath = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"SOLR_URL", "solr.url"},
		{"HTTP_PORT", "server.port"},
		{"FULL_ACCESS_FOR_LOCALHOST", "security.full_access_for_localhost"},
		{"SESSION_STORE", "security.session_store"},
		{"LOG_LEVEL", "logging.level"},
		{"PATH", ""},
		{"RANDOM_NOISE", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadAppliesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	yaml := []byte("server:\n  port: 9001\nsolr:\n  url: http://solr.example/solr/core\n")
	if err := os.WriteFile(configPath, yaml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, configPath)
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("file override lost, port = %d", cfg.Server.Port)
	}
	if cfg.Solr.URL != "http://solr.example/solr/core" {
		t.Errorf("solr url = %q", cfg.Solr.URL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("env override lost, level = %q", cfg.Logging.Level)
	}
	// Untouched values keep their defaults.
	if cfg.Security.SessionStore != "memory" {
		t.Errorf("default session store lost: %q", cfg.Security.SessionStore)
	}
}
