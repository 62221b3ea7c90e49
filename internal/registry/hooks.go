package registry

// Hooks receives observability callbacks from the client. Implementations
// must be safe for concurrent use. The Prometheus implementation lives in
// internal/observability; the default is a no-op.
type Hooks interface {
	// FetchCompleted is called once per terminal network outcome with
	// "success" or the error kind string.
	FetchCompleted(outcome string)

	// CacheHit is called when the cache answers a lookup, with "fresh" or
	// "stale" describing the entry that was found.
	CacheHit(freshness string)

	// StaleServed is called when a stale cache entry is returned because
	// the live refresh failed.
	StaleServed(key string)

	// SnapshotServed is called when the embedded fallback snapshot is
	// returned because both the live fetch and the cache came up empty.
	SnapshotServed(key string)

	// HealthChanged is called after every health state update with the
	// current consecutive failure count.
	HealthChanged(consecutiveFailures int)
}

type nopHooks struct{}

func (nopHooks) FetchCompleted(string) {}
func (nopHooks) CacheHit(string)       {}
func (nopHooks) StaleServed(string)    {}
func (nopHooks) SnapshotServed(string) {}
func (nopHooks) HealthChanged(int)     {}
