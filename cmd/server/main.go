// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

// Command server runs the Clavis access-condition engine: the REST API,
// the evaluation engine, the catalog store and the session decision
// cache under one supervision tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/clavisproject/clavis/internal/access"
	"github.com/clavisproject/clavis/internal/api"
	"github.com/clavisproject/clavis/internal/catalog"
	"github.com/clavisproject/clavis/internal/config"
	"github.com/clavisproject/clavis/internal/index"
	"github.com/clavisproject/clavis/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Str("solr", cfg.Solr.URL).
		Msg("Starting Clavis")

	store, err := catalog.Open(cfg.Database.Path)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open catalog store")
	}
	defer func() { _ = store.Close() }()

	cache, err := newSessionCache(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open session cache")
	}
	defer func() { _ = cache.Close() }()

	idx := index.NewClient(index.Config{
		URL:            cfg.Solr.URL,
		Timeout:        cfg.Solr.Timeout,
		MaxHits:        cfg.Solr.MaxHits,
		RateLimit:      cfg.Solr.RateLimit,
		BreakerEnabled: cfg.Solr.BreakerEnabled,
	})

	engine := access.NewEngine(idx, store, cache, access.Config{
		CacheEnabled:           cfg.Cache.Enabled,
		FullAccessForLocalhost: cfg.Security.FullAccessForLocalhost,
	})

	handler := api.NewHandler(engine, store, cfg)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hook := (&sutureslog.Handler{Logger: logging.NewSlogLogger()}).MustHook()
	root := suture.New("clavis", suture.Spec{
		EventHook:        hook,
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		Timeout:          cfg.Server.ShutdownTimeout,
	})
	root.Add(&httpService{server: server, shutdownTimeout: cfg.Server.ShutdownTimeout})

	if err := root.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal().Err(err).Msg("Supervisor terminated")
	}
	logging.Info().Msg("Shutdown complete")
}

// newSessionCache selects the decision cache backend from config.
func newSessionCache(cfg *config.Config) (access.SessionCache, error) {
	switch cfg.Security.SessionStore {
	case "badger":
		return access.NewBadgerSessionCache(cfg.Security.SessionStorePath, cfg.Security.SessionTTL)
	default:
		return access.NewMemorySessionCache(), nil
	}
}

// httpService adapts http.Server's blocking ListenAndServe to suture's
// context-aware Serve.
type httpService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

func (s *httpService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return ctx.Err()
	}
}

func (s *httpService) String() string {
	return "http-server"
}
