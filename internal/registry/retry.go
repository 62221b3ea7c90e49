package registry

import (
	"context"
	"log/slog"
	"math/rand"
	"time"
)

const (
	// baseBackoff is the first retry delay; attempt n waits
	// baseBackoff * 2^n plus jitter, capped at maxBackoff.
	baseBackoff = 500 * time.Millisecond
	maxBackoff  = 8 * time.Second
	// maxJitter is the upper bound of the random component added to every
	// backoff delay to spread out retry storms.
	maxJitter = time.Second
)

// retrier wraps the transport with bounded retry and exponential backoff.
// Only connection-kind failures are retried: not-found is permanent and
// retrying malformed data cannot repair it. Every logical fetch reports
// exactly one terminal outcome to the health monitor, regardless of how
// many attempts it took.
type retrier struct {
	transport   *transport
	maxAttempts int
	health      *healthMonitor
	hooks       Hooks
	logger      *slog.Logger

	// sleep and jitter are injectable for tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() time.Duration
}

func newRetrier(t *transport, maxAttempts int, health *healthMonitor, hooks Hooks, logger *slog.Logger) *retrier {
	return &retrier{
		transport:   t,
		maxAttempts: maxAttempts,
		health:      health,
		hooks:       hooks,
		logger:      logger,
		sleep:       sleepCtx,
		jitter:      func() time.Duration { return time.Duration(rand.Int63n(int64(maxJitter))) },
	}
}

// fetchWithRetry fetches key, retrying transient failures up to the
// configured attempt ceiling. The returned error carries the kind of the
// terminal failure.
func (r *retrier) fetchWithRetry(ctx context.Context, key string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		raw, err := r.transport.fetch(ctx, key)
		if err == nil {
			r.health.recordSuccess()
			r.hooks.FetchCompleted("success")
			return raw, nil
		}
		lastErr = err

		switch {
		case IsNotFound(err):
			r.health.recordNotFound()
			r.hooks.FetchCompleted(string(KindNotFound))
			return nil, err
		case IsData(err):
			r.health.recordFailure()
			r.hooks.FetchCompleted(string(KindData))
			r.logger.Warn("registry document failed validation",
				"key", key,
				"error", err,
			)
			return nil, err
		}

		if attempt == r.maxAttempts-1 {
			break
		}

		delay := backoffDelay(attempt) + r.jitter()
		r.logger.Debug("retrying registry fetch",
			"key", key,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)
		if err := r.sleep(ctx, delay); err != nil {
			lastErr = NewConnectionError(key, "fetch canceled during backoff", attempt+1, err)
			break
		}
	}

	r.health.recordFailure()
	r.hooks.FetchCompleted(string(KindConnection))
	return nil, NewConnectionError(key, "all fetch attempts failed", r.maxAttempts, lastErr)
}

func backoffDelay(attempt int) time.Duration {
	d := baseBackoff << uint(attempt)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
