// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence retrieves grounding documents for a question from a
// single public source (Wikipedia or PubMed). Results are cached by
// normalized query and upstream requests are paced by a shared limiter.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pdiddy/medical-agent/internal/cache"
	"github.com/pdiddy/medical-agent/internal/httputil"
	"github.com/pdiddy/medical-agent/pkg/types"
)

// UserAgent identifies this client to upstream APIs.
const UserAgent = "medical-agent/1.0 (+https://github.com/pdiddy/medical-agent)"

// ErrNoResults reports that the source returned zero matches.
var ErrNoResults = errors.New("no results")

// ErrEmptyQuery reports a query that is blank after normalization.
var ErrEmptyQuery = errors.New("Query cannot be empty")

// Backend fetches evidence from one source. Each source implements this
// interface.
type Backend interface {
	// Name is the human-readable source name used in answers.
	Name() string

	// Normalize canonicalizes a query. Equal normalized queries share a cache entry.
	Normalize(query string) string

	// Fetch returns up to limit items for an already normalized query,
	// plus source-specific diagnostics.
	Fetch(ctx context.Context, query string, limit int) ([]types.EvidenceItem, map[string]any, error)
}

// ItemCache stores successful retrievals. Both cache.TTL and cache.SQLite
// satisfy it.
type ItemCache interface {
	Get(key string) ([]types.EvidenceItem, bool)
	Set(key string, items []types.EvidenceItem)
}

// Client runs retrievals against one Backend. It is safe for concurrent use.
type Client struct {
	backend Backend
	cache   ItemCache
	limit   int
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCache enables result caching.
func WithCache(c ItemCache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(cl *Client) { cl.logger = l }
}

// NewClient returns a client that asks backend for up to limit items.
func NewClient(backend Backend, limit int, opts ...Option) *Client {
	if limit <= 0 {
		limit = 5
	}
	c := &Client{backend: backend, limit: limit, logger: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// New builds a Client from configuration: the configured backend, its
// rate limiter and the configured cache. The returned closer releases
// the persistent cache when one is used.
func New(cfg types.EvidenceConfig, cc types.CacheConfig, logger *slog.Logger) (*Client, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = UserAgent
	}

	var backend Backend
	switch cfg.Provider {
	case types.EvidencePubMed:
		interval := 350 * time.Millisecond
		if cfg.PubMedAPIKey != "" {
			interval = 120 * time.Millisecond
		}
		hc := httputil.NewClient(cfg.Timeout, ua, cfg.MaxRetries, interval)
		backend = NewPubMed(hc, cfg.PubMedAPIKey, cfg.Tool)
	case types.EvidenceWikipedia, "":
		hc := httputil.NewClient(cfg.Timeout, ua, cfg.MaxRetries, 100*time.Millisecond)
		backend = NewWikipedia(hc)
	default:
		return nil, nil, fmt.Errorf("unknown evidence provider %q", cfg.Provider)
	}

	opts := []Option{WithLogger(logger)}
	closer := func() error { return nil }
	if cc.Enabled {
		switch cc.Backend {
		case types.CacheSQLite:
			s, err := cache.OpenSQLite[[]types.EvidenceItem](cc.Path, cc.TTL, logger)
			if err != nil {
				return nil, nil, fmt.Errorf("opening evidence cache: %w", err)
			}
			opts = append(opts, WithCache(s))
			closer = s.Close
		default:
			opts = append(opts, WithCache(cache.New[string, []types.EvidenceItem](cc.TTL)))
		}
	}

	return NewClient(backend, cfg.MaxResults, opts...), closer, nil
}

// Source returns the backend's display name.
func (c *Client) Source() string { return c.backend.Name() }

// Retrieve fetches evidence for query. It never returns a Go error:
// failures are reported through Status and Error.
func (c *Client) Retrieve(ctx context.Context, query string) types.RetrievalResult {
	normalized := c.backend.Normalize(query)
	meta := map[string]any{
		"query":            query,
		"normalized_query": normalized,
		"limit":            c.limit,
		"source":           c.backend.Name(),
		"used_cache":       false,
	}
	result := types.RetrievalResult{Query: query, Meta: meta}

	if normalized == "" {
		result.Status = types.StatusError
		result.Error = ErrEmptyQuery.Error()
		result.Items = []types.EvidenceItem{}
		meta["result_count"] = 0
		return result
	}

	key := fmt.Sprintf("%s|%d", normalized, c.limit)
	if c.cache != nil {
		if items, ok := c.cache.Get(key); ok {
			meta["used_cache"] = true
			meta["result_count"] = len(items)
			result.Status = types.StatusSuccess
			result.Items = items
			return result
		}
	}

	items, extra, err := c.backend.Fetch(ctx, normalized, c.limit)
	for k, v := range extra {
		meta[k] = v
	}
	if err != nil {
		c.logger.Warn("evidence retrieval failed",
			"source", c.backend.Name(),
			"query", normalized,
			"error", err,
		)
		meta["result_count"] = 0
		result.Status = types.StatusError
		result.Error = err.Error()
		result.Items = []types.EvidenceItem{}
		return result
	}
	if items == nil {
		items = []types.EvidenceItem{}
	}

	// Empty lists are not cached so a transient gap is retried next time.
	if c.cache != nil && len(items) > 0 {
		c.cache.Set(key, items)
	}
	meta["result_count"] = len(items)
	result.Status = types.StatusSuccess
	result.Items = items
	c.logger.Debug("evidence retrieved",
		"source", c.backend.Name(),
		"query", normalized,
		"count", len(items),
	)
	return result
}

// noResultsError carries a source-specific message while matching ErrNoResults.
type noResultsError struct{ msg string }

func (e *noResultsError) Error() string { return e.msg }

func (e *noResultsError) Is(target error) bool { return target == ErrNoResults }
