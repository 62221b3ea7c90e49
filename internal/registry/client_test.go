package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// fakeStore is a mutable in-memory record store served over httptest. Tests
// flip failing on to simulate an upstream outage.
type fakeStore struct {
	mu       sync.Mutex
	docs     map[string]string
	failing  bool
	requests atomic.Int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs: map[string]string{
			"manifest.json": `{
				"schema_version": "1.0",
				"last_updated": "2026-07-01T00:00:00Z",
				"catalog": {"templates": ["alpha", "beta"], "providers": ["acme"]}
			}`,
			"templates/alpha.json": `{
				"schema_version": "1.0",
				"display_fields": {"name": "Alpha", "tier": "basic"},
				"numeric_ranges": {"monthly_cost_usd": {"min": 5, "max": 15}},
				"feature_tags": ["cms", "blog"],
				"compatibility_tags": ["acme"]
			}`,
			"templates/beta.json": `{
				"schema_version": "1.0",
				"display_fields": {"name": "Beta", "tier": "pro"},
				"numeric_ranges": {"monthly_cost_usd": {"min": 20, "max": 40}},
				"feature_tags": ["cms", "blog", "cart"],
				"compatibility_tags": ["acme"]
			}`,
			"providers/acme.json": `{
				"schema_version": "1.0",
				"display_fields": {"name": "Acme"},
				"feature_tags": ["dns"]
			}`,
		},
	}
}

func (s *fakeStore) setFailing(v bool) {
	s.mu.Lock()
	s.failing = v
	s.mu.Unlock()
}

func (s *fakeStore) remove(key string) {
	s.mu.Lock()
	delete(s.docs, key)
	s.mu.Unlock()
}

func (s *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.requests.Add(1)
	s.mu.Lock()
	failing := s.failing
	doc, ok := s.docs[r.URL.Path[1:]]
	s.mu.Unlock()

	if failing {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Write([]byte(doc))
}

// recordingHooks captures which fallback tiers served, for asserting the
// chain order.
type recordingHooks struct {
	nopHooks
	mu        sync.Mutex
	stale     []string
	snapshots []string
}

func (h *recordingHooks) StaleServed(key string) {
	h.mu.Lock()
	h.stale = append(h.stale, key)
	h.mu.Unlock()
}

func (h *recordingHooks) SnapshotServed(key string) {
	h.mu.Lock()
	h.snapshots = append(h.snapshots, key)
	h.mu.Unlock()
}

// newTestClient builds a client against srv with a manual clock and
// instant, jitter-free backoff.
func newTestClient(t *testing.T, srv *httptest.Server, cfg Config) (*Client, *fakeClock) {
	t.Helper()
	cfg.BaseURL = srv.URL
	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	cfg.HTTPClient = srv.Client()
	cfg.Logger = testLogger()

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	clock := newFakeClock()
	c.cache.now = clock.Now
	c.health.now = clock.Now
	c.retrier.jitter = func() time.Duration { return 0 }
	c.retrier.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return c, clock
}

func TestClientFreshReadsSkipNetwork(t *testing.T) {
	store := newFakeStore()
	srv := httptest.NewServer(store)
	defer srv.Close()

	c, _ := newTestClient(t, srv, Config{})
	ctx := context.Background()

	m1, err := c.Manifest(ctx)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	m2, err := c.Manifest(ctx)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if len(m1.Catalog) != len(m2.Catalog) {
		t.Error("repeated reads must return equivalent manifests")
	}
	if n := store.requests.Load(); n != 1 {
		t.Errorf("requests = %d, want 1 (fresh reads must not refetch)", n)
	}
}

func TestClientTTLDrivenRefresh(t *testing.T) {
	store := newFakeStore()
	srv := httptest.NewServer(store)
	defer srv.Close()

	c, clock := newTestClient(t, srv, Config{CacheTTL: 5 * time.Minute})
	ctx := context.Background()

	if _, err := c.Manifest(ctx); err != nil {
		t.Fatal(err)
	}
	clock.Advance(6 * time.Minute)
	if _, err := c.Manifest(ctx); err != nil {
		t.Fatal(err)
	}
	if n := store.requests.Load(); n != 2 {
		t.Errorf("requests = %d, want 2 (stale entry must trigger refetch)", n)
	}
}

func TestClientServesStaleOnOutage(t *testing.T) {
	store := newFakeStore()
	srv := httptest.NewServer(store)
	defer srv.Close()

	hooks := &recordingHooks{}
	snapshot := map[string][]byte{
		"manifest.json": []byte(`{"schema_version": "1.0", "catalog": {"templates": ["snapshot-only"]}}`),
	}
	c, clock := newTestClient(t, srv, Config{Hooks: hooks, FallbackSnapshot: snapshot})
	ctx := context.Background()

	if _, err := c.Manifest(ctx); err != nil {
		t.Fatal(err)
	}

	clock.Advance(time.Hour)
	store.setFailing(true)

	m, err := c.Manifest(ctx)
	if err != nil {
		t.Fatalf("stale serve failed: %v", err)
	}
	// The stale cached manifest wins over the embedded snapshot.
	if _, ok := m.Catalog["templates"]; !ok || len(m.Catalog["templates"]) != 2 {
		t.Errorf("catalog = %v, want the cached upstream manifest", m.Catalog)
	}
	if len(hooks.stale) != 1 || hooks.stale[0] != ManifestKey {
		t.Errorf("stale hooks = %v, want one for %s", hooks.stale, ManifestKey)
	}
	if len(hooks.snapshots) != 0 {
		t.Errorf("snapshot must not serve while a stale entry exists, got %v", hooks.snapshots)
	}
}

func TestClientServesSnapshotWhenCacheEmpty(t *testing.T) {
	store := newFakeStore()
	store.setFailing(true)
	srv := httptest.NewServer(store)
	defer srv.Close()

	hooks := &recordingHooks{}
	snapshot := map[string][]byte{
		"manifest.json": []byte(`{"schema_version": "1.0", "catalog": {"templates": ["snapshot-only"]}}`),
	}
	c, _ := newTestClient(t, srv, Config{Hooks: hooks, FallbackSnapshot: snapshot})

	m, err := c.Manifest(context.Background())
	if err != nil {
		t.Fatalf("snapshot serve failed: %v", err)
	}
	if got := m.Catalog["templates"]; len(got) != 1 || got[0] != "snapshot-only" {
		t.Errorf("catalog = %v, want the embedded snapshot", m.Catalog)
	}
	if len(hooks.snapshots) != 1 {
		t.Errorf("snapshot hooks = %v, want one", hooks.snapshots)
	}
}

func TestClientTotalFailureIsTypedError(t *testing.T) {
	store := newFakeStore()
	store.setFailing(true)
	srv := httptest.NewServer(store)
	defer srv.Close()

	c, _ := newTestClient(t, srv, Config{MaxRetries: 3})

	_, err := c.Manifest(context.Background())
	if !IsConnection(err) {
		t.Fatalf("expected typed connection error, got %v", err)
	}
	if n := store.requests.Load(); n != 3 {
		t.Errorf("requests = %d, want 3", n)
	}
	if hs := c.Health(); hs.Status != StatusDegraded || hs.ConsecutiveFailures != 1 {
		t.Errorf("health = %+v, want degraded/1", hs)
	}
}

func TestClientNotFoundPropagates(t *testing.T) {
	store := newFakeStore()
	srv := httptest.NewServer(store)
	defer srv.Close()

	c, _ := newTestClient(t, srv, Config{})

	_, err := c.Record(context.Background(), "templates", "missing")
	if !IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
	if hs := c.Health(); hs.Status != StatusHealthy {
		t.Errorf("health after not-found = %+v, want healthy", hs)
	}
}

func TestClientRejectsUnsafeSegments(t *testing.T) {
	store := newFakeStore()
	srv := httptest.NewServer(store)
	defer srv.Close()

	c, _ := newTestClient(t, srv, Config{})
	before := store.requests.Load()

	for _, seg := range []string{"", "../etc", "a/b", `a\b`} {
		if _, err := c.Record(context.Background(), "templates", seg); err == nil {
			t.Errorf("id %q must be rejected", seg)
		}
		if _, err := c.Record(context.Background(), seg, "alpha"); err == nil {
			t.Errorf("category %q must be rejected", seg)
		}
	}
	if store.requests.Load() != before {
		t.Error("invalid segments must be rejected before any network call")
	}
}

func TestClientListSkipsUnresolvableRecords(t *testing.T) {
	store := newFakeStore()
	store.remove("templates/beta.json")
	srv := httptest.NewServer(store)
	defer srv.Close()

	c, _ := newTestClient(t, srv, Config{})

	records, err := c.List(context.Background(), "templates")
	if err != nil {
		t.Fatalf("one missing record must not fail the listing: %v", err)
	}
	if len(records) != 1 || records[0].ID != "alpha" {
		t.Errorf("records = %+v, want just alpha", records)
	}
}

func TestClientListAllCategoriesLexical(t *testing.T) {
	store := newFakeStore()
	srv := httptest.NewServer(store)
	defer srv.Close()

	c, _ := newTestClient(t, srv, Config{})

	records, err := c.List(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(records))
	for i, r := range records {
		got[i] = r.Category + "/" + r.ID
	}
	want := []string{"providers/acme", "templates/alpha", "templates/beta"}
	if len(got) != len(want) {
		t.Fatalf("records = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("records[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClientListUnknownCategoryIsEmpty(t *testing.T) {
	store := newFakeStore()
	srv := httptest.NewServer(store)
	defer srv.Close()

	c, _ := newTestClient(t, srv, Config{})

	records, err := c.List(context.Background(), "widgets")
	if err != nil {
		t.Fatalf("unknown category must not error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records = %+v, want empty", records)
	}
}

func TestClientListPropagatesManifestFailure(t *testing.T) {
	store := newFakeStore()
	store.setFailing(true)
	srv := httptest.NewServer(store)
	defer srv.Close()

	c, _ := newTestClient(t, srv, Config{})

	_, err := c.List(context.Background(), "templates")
	if !IsConnection(err) {
		t.Fatalf("manifest failure must propagate, got %v", err)
	}
}

func TestClientClearCacheForcesRefetch(t *testing.T) {
	store := newFakeStore()
	srv := httptest.NewServer(store)
	defer srv.Close()

	c, _ := newTestClient(t, srv, Config{})
	ctx := context.Background()

	if _, err := c.Manifest(ctx); err != nil {
		t.Fatal(err)
	}
	c.ClearCache()
	if s := c.CacheStats(); s.EntryCount != 0 {
		t.Fatalf("entries after clear = %d", s.EntryCount)
	}
	if _, err := c.Manifest(ctx); err != nil {
		t.Fatal(err)
	}
	if n := store.requests.Load(); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}

func TestClientHealthRecoversAfterOutage(t *testing.T) {
	store := newFakeStore()
	store.setFailing(true)
	srv := httptest.NewServer(store)
	defer srv.Close()

	c, _ := newTestClient(t, srv, Config{MaxRetries: 1})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		c.ClearCache()
		c.Manifest(ctx)
	}
	if hs := c.Health(); hs.Status != StatusUnhealthy {
		t.Fatalf("health = %+v, want unhealthy after 3 failed fetches", hs)
	}

	store.setFailing(false)
	c.ClearCache()
	if _, err := c.Manifest(ctx); err != nil {
		t.Fatal(err)
	}
	if hs := c.Health(); hs.Status != StatusHealthy {
		t.Errorf("health = %+v, want healthy after recovery", hs)
	}
}

func TestBlockingAdapterParity(t *testing.T) {
	store := newFakeStore()
	srv := httptest.NewServer(store)
	defer srv.Close()

	c, _ := newTestClient(t, srv, Config{})
	b := c.Blocking()

	m, err := b.Manifest()
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}
	if len(m.Catalog) != 2 {
		t.Errorf("catalog = %v", m.Catalog)
	}

	r, err := b.Record("templates", "alpha")
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if r.ID != "alpha" {
		t.Errorf("record id = %q", r.ID)
	}

	records, err := b.List("templates")
	if err != nil || len(records) != 2 {
		t.Errorf("List = %v, %v", records, err)
	}

	found, err := b.Find(Requirements{Features: []string{"cart"}})
	if err != nil || len(found) != 1 || found[0].ID != "beta" {
		t.Errorf("Find = %v, %v", found, err)
	}

	if hs := b.Health(); hs.Status != StatusHealthy {
		t.Errorf("Health = %+v", hs)
	}
	if s := b.CacheStats(); s.EntryCount == 0 {
		t.Error("CacheStats must reflect the shared cache")
	}
	b.ClearCache()
	if s := b.CacheStats(); s.EntryCount != 0 {
		t.Error("ClearCache must drop entries")
	}
}
