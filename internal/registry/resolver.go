package registry

import "context"

// resolve runs the fallback chain for one key, in strict order:
//
//  1. fresh cache entry -> return it, no network call
//  2. live fetch with retry -> cache and return on success
//  3. stale cache entry -> serve-stale-on-error
//  4. embedded snapshot document for the key
//  5. propagate the typed error from step 2 unchanged
//
// A fresh hit never triggers a network call, and a stale entry is never
// preferred over a successful live fetch.
func (c *Client) resolve(ctx context.Context, key string) ([]byte, error) {
	if entry, freshness, ok := c.cache.get(key); ok && freshness == Fresh {
		c.hooks.CacheHit(Fresh.String())
		return entry.payload, nil
	}

	raw, fetchErr := c.retrier.fetchWithRetry(ctx, key)
	if fetchErr == nil {
		if changed := c.cache.put(key, raw); !changed {
			c.logger.Debug("registry document unchanged after refresh", "key", key)
		}
		return raw, nil
	}

	if entry, _, ok := c.cache.get(key); ok {
		c.hooks.CacheHit(Stale.String())
		c.hooks.StaleServed(key)
		c.logger.Warn("serving stale registry document after failed refresh",
			"key", key,
			"fetched_at", entry.fetchedAt,
			"error", fetchErr,
		)
		return entry.payload, nil
	}

	if snap, ok := c.snapshot[key]; ok {
		c.hooks.SnapshotServed(key)
		c.logger.Warn("serving embedded snapshot for registry document",
			"key", key,
			"error", fetchErr,
		)
		return snap, nil
	}

	return nil, fetchErr
}
