// Clavis - Access Condition Engine for Digitized Collections
// Copyright 2026 The Clavis Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/clavisproject/clavis

// Package index implements the Solr search index client. All condition
// resolution queries flow through it. The client paces requests with a
// token-bucket limiter and guards the index with a circuit breaker so a
// slow or dead Solr cannot pile up goroutines behind it.
package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/clavisproject/clavis/internal/logging"
	"github.com/clavisproject/clavis/internal/metrics"
)

// ErrUnreachable wraps transport and server-side failures of the index.
// Callers treat it as "cannot decide", never as "denied".
var ErrUnreachable = errors.New("search index unreachable")

const breakerName = "solr"

// Doc is a single index document. Solr returns multivalued fields as
// arrays and single-valued fields as scalars; the accessors normalize.
type Doc map[string]any

// Strings returns all string values of a field.
func (d Doc) Strings(field string) []string {
	switch v := d[field].(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// FirstString returns the first string value of a field, or "".
func (d Doc) FirstString(field string) string {
	if values := d.Strings(field); len(values) > 0 {
		return values[0]
	}
	return ""
}

// Int returns a numeric field as int. Solr numbers decode as float64.
func (d Doc) Int(field string) (int, bool) {
	switch v := d[field].(type) {
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// selectResponse is the subset of the Solr select response we consume.
type selectResponse struct {
	Response struct {
		NumFound int64 `json:"numFound"`
		Docs     []Doc `json:"docs"`
	} `json:"response"`
	Error *struct {
		Msg  string `json:"msg"`
		Code int    `json:"code"`
	} `json:"error"`
}

// Config holds index client settings.
type Config struct {
	// URL is the base URL of the Solr core.
	URL string

	// Timeout bounds each request.
	Timeout time.Duration

	// MaxHits caps result set size for batch queries.
	MaxHits int

	// RateLimit paces outgoing requests (requests per second, 0 = off).
	RateLimit float64

	// BreakerEnabled wraps requests in a circuit breaker.
	BreakerEnabled bool
}

// Client queries the Solr index over HTTP.
type Client struct {
	baseURL string
	maxHits int
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*selectResponse]
}

// NewClient builds an index client from config.
func NewClient(cfg Config) *Client {
	c := &Client{
		baseURL: cfg.URL,
		maxHits: cfg.MaxHits,
		http:    &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	if cfg.BreakerEnabled {
		c.breaker = gobreaker.NewCircuitBreaker[*selectResponse](gobreaker.Settings{
			Name:        breakerName,
			MaxRequests: 3,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Warn().
					Str("breaker", name).
					Str("from", from.String()).
					Str("to", to.String()).
					Msg("Index circuit breaker state changed")
				metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			},
		})
	}
	return c
}

func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// MaxHits returns the configured batch result cap.
func (c *Client) MaxHits() int {
	return c.maxHits
}

// Search runs a select query returning up to rows documents with the
// given field list. A nil or empty fields slice returns all fields.
func (c *Client) Search(ctx context.Context, query string, rows int, fields []string) ([]Doc, error) {
	start := time.Now()
	resp, err := c.doSelect(ctx, query, rows, fields)
	metrics.RecordIndexQuery("search", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return resp.Response.Docs, nil
}

// GetFirstDoc returns the first document matching the query, or nil when
// nothing matches.
func (c *Client) GetFirstDoc(ctx context.Context, query string, fields []string) (Doc, error) {
	start := time.Now()
	resp, err := c.doSelect(ctx, query, 1, fields)
	metrics.RecordIndexQuery("first_doc", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	if len(resp.Response.Docs) == 0 {
		return nil, nil
	}
	return resp.Response.Docs[0], nil
}

// GetHitCount returns the number of documents matching the query without
// fetching any of them.
func (c *Client) GetHitCount(ctx context.Context, query string) (int64, error) {
	start := time.Now()
	resp, err := c.doSelect(ctx, query, 0, nil)
	metrics.RecordIndexQuery("hit_count", time.Since(start), err)
	if err != nil {
		return 0, err
	}
	return resp.Response.NumFound, nil
}

func (c *Client) doSelect(ctx context.Context, query string, rows int, fields []string) (*selectResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
		}
	}
	if c.breaker == nil {
		return c.execute(ctx, query, rows, fields)
	}
	resp, err := c.breaker.Execute(func() (*selectResponse, error) {
		return c.execute(ctx, query, rows, fields)
	})
	if err != nil {
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, breakerResult(err)).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
		}
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()
	return resp, nil
}

func breakerResult(err error) string {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "rejected"
	}
	return "failure"
}

func (c *Client) execute(ctx context.Context, query string, rows int, fields []string) (*selectResponse, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("rows", strconv.Itoa(rows))
	params.Set("wt", "json")
	if len(fields) > 0 {
		fl := fields[0]
		for _, f := range fields[1:] {
			fl += "," + f
		}
		params.Set("fl", fl)
	}

	reqURL := c.baseURL + "/select?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %w", ErrUnreachable, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		logging.Warn().
			Int("status", httpResp.StatusCode).
			Str("query", query).
			Msg("Index query failed")
		return nil, fmt.Errorf("%w: status %d", ErrUnreachable, httpResp.StatusCode)
	}

	var resp selectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %w", ErrUnreachable, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("%w: %s (code %d)", ErrUnreachable, resp.Error.Msg, resp.Error.Code)
	}
	return &resp, nil
}
