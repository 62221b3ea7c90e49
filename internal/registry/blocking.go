package registry

import "context"

// Blocking adapts the client for short-lived callers, such as command-line
// invocations, that have no event loop of their own. Each method drives the
// same resolution algorithm as the context-taking API to completion on the
// calling goroutine; cache, fallback, and health semantics are identical
// because there is only one implementation underneath.
type Blocking struct {
	c *Client
}

// Manifest fetches the root index document.
func (b *Blocking) Manifest() (*Manifest, error) {
	return b.c.Manifest(context.Background())
}

// Record fetches one record by category and id.
func (b *Blocking) Record(category, id string) (*Record, error) {
	return b.c.Record(context.Background(), category, id)
}

// List resolves the records of one category, or all when category is empty.
func (b *Blocking) List(category string) ([]Record, error) {
	return b.c.List(context.Background(), category)
}

// Find filters the candidate set by the supplied requirements.
func (b *Blocking) Find(req Requirements) ([]Record, error) {
	return b.c.Find(context.Background(), req)
}

// Health returns the current health snapshot.
func (b *Blocking) Health() HealthStatus {
	return b.c.Health()
}

// CacheStats summarizes the in-process cache.
func (b *Blocking) CacheStats() CacheStats {
	return b.c.CacheStats()
}

// ClearCache drops every cached document.
func (b *Blocking) ClearCache() {
	b.c.ClearCache()
}
