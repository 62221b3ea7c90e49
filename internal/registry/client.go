// Package registry implements the metadata registry client: it resolves
// small, frequently-changing provider and deployable-template records from a
// versioned, CDN-distributed JSON store with in-process caching, multi-tier
// fallback (live -> stale cache -> embedded snapshot -> typed error),
// bounded retry with exponential backoff, and health classification.
//
// A Client is safe for concurrent use. All operations take a
// context.Context and suspend only at I/O boundaries; short-lived callers
// that prefer plain blocking calls can use the Blocking adapter, which
// drives the same resolution path on the calling goroutine.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/blackwell-systems/platform-infrastructure-sub001/internal/httpclient"
)

const (
	// ManifestKey is the storage key of the root index document.
	ManifestKey = "manifest.json"

	// DefaultCacheTTL is how long a cache entry counts as fresh.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultMaxRetries is the total number of network attempts per
	// logical fetch.
	DefaultMaxRetries = 3
	// DefaultTimeout bounds a single network attempt, not a logical
	// operation; callers wanting an overall bound use a context deadline.
	DefaultTimeout = 10 * time.Second
)

// Config configures a Client. Only BaseURL is required.
type Config struct {
	// BaseURL is the root of the record store, e.g.
	// "https://registry.blackwell.systems".
	BaseURL string

	// CacheTTL is the freshness window for cached documents
	// (default 5 minutes).
	CacheTTL time.Duration

	// MaxRetries is the total number of network attempts per fetch
	// (default 3).
	MaxRetries int

	// Timeout bounds each individual network attempt (default 10s).
	Timeout time.Duration

	// FallbackSnapshot optionally maps storage keys to embedded documents
	// served when both the live fetch and the cache come up empty.
	FallbackSnapshot map[string][]byte

	// HTTPClient overrides the pooled default client.
	HTTPClient *http.Client

	// Logger receives structured diagnostics (default slog.Default()).
	Logger *slog.Logger

	// Hooks receives observability callbacks (default no-op).
	Hooks Hooks

	// UserAgent is sent with every fetch.
	UserAgent string
}

// Client resolves registry documents through the cache and fallback chain.
// Construct one per configuration with New and pass it by reference; there
// is deliberately no package-level default instance.
type Client struct {
	cache    *memoryCache
	retrier  *retrier
	health   *healthMonitor
	snapshot map[string][]byte
	hooks    Hooks
	logger   *slog.Logger
}

// New creates a registry client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("registry: BaseURL is required")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Hooks == nil {
		cfg.Hooks = nopHooks{}
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.NewDefaultHTTPClient()
	}

	health := newHealthMonitor(time.Now, cfg.Hooks)
	t := newTransport(cfg.BaseURL, httpClient, cfg.Timeout, cfg.UserAgent)

	return &Client{
		cache:    newMemoryCache(cfg.CacheTTL, time.Now),
		retrier:  newRetrier(t, cfg.MaxRetries, health, cfg.Hooks, cfg.Logger),
		health:   health,
		snapshot: cfg.FallbackSnapshot,
		hooks:    cfg.Hooks,
		logger:   cfg.Logger,
	}, nil
}

// RecordKey returns the storage key for a record, mirroring the store's
// {category}/{id}.json layout. The same keys address the fallback snapshot.
func RecordKey(category, id string) string {
	return category + "/" + id + ".json"
}

func validateSegment(name, v string) error {
	if v == "" {
		return fmt.Errorf("registry: %s must not be empty", name)
	}
	if strings.ContainsAny(v, "/\\") || strings.Contains(v, "..") {
		return fmt.Errorf("registry: invalid %s %q", name, v)
	}
	return nil
}

// Manifest fetches the root index document through the fallback chain.
func (c *Client) Manifest(ctx context.Context) (*Manifest, error) {
	raw, err := c.resolve(ctx, ManifestKey)
	if err != nil {
		return nil, err
	}
	return ParseManifest(ManifestKey, raw)
}

// Record fetches one record by category and id through the fallback chain.
func (c *Client) Record(ctx context.Context, category, id string) (*Record, error) {
	if err := validateSegment("category", category); err != nil {
		return nil, err
	}
	if err := validateSegment("id", id); err != nil {
		return nil, err
	}
	key := RecordKey(category, id)
	raw, err := c.resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	return ParseRecord(key, category, id, raw)
}

// List resolves every record the manifest lists for category, in the
// manifest's order. An empty category lists all categories in lexical
// order. Ids that fail to resolve are skipped with a warning: a single
// unfetchable record must not fail the whole manifest read. A manifest
// failure, by contrast, is propagated.
func (c *Client) List(ctx context.Context, category string) ([]Record, error) {
	m, err := c.Manifest(ctx)
	if err != nil {
		return nil, err
	}

	var categories []string
	if category != "" {
		if _, ok := m.Catalog[category]; !ok {
			return []Record{}, nil
		}
		categories = []string{category}
	} else {
		for cat := range m.Catalog {
			categories = append(categories, cat)
		}
		sort.Strings(categories)
	}

	records := make([]Record, 0)
	for _, cat := range categories {
		for _, id := range m.Catalog[cat] {
			r, err := c.Record(ctx, cat, id)
			if err != nil {
				c.logger.Warn("skipping unresolvable record listed in manifest",
					"category", cat,
					"id", id,
					"error", err,
				)
				continue
			}
			records = append(records, *r)
		}
	}
	return records, nil
}

// Health returns the current health snapshot. It performs no I/O.
func (c *Client) Health() HealthStatus {
	return c.health.snapshot()
}

// CacheStats summarizes the in-process cache. It performs no I/O.
func (c *Client) CacheStats() CacheStats {
	return c.cache.stats()
}

// ClearCache drops every cached document. Health state is unaffected.
func (c *Client) ClearCache() {
	c.cache.clear()
}

// Blocking returns a call-shape adapter whose methods take no context and
// drive the same resolution path to completion on the calling goroutine.
func (c *Client) Blocking() *Blocking {
	return &Blocking{c: c}
}
