package registry

import (
	"sync"
	"time"
)

// Status is a coarse classification of client health derived from recent
// consecutive fetch failures.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// HealthStatus is a point-in-time snapshot of the health monitor.
type HealthStatus struct {
	Status              Status     `json:"status"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	LastSuccessAt       *time.Time `json:"last_success_at,omitempty"`
	LastFailureAt       *time.Time `json:"last_failure_at,omitempty"`
}

// healthMonitor tracks fetch outcomes reported by the retry controller.
// One instance lives for the lifetime of a client; every logical fetch
// reports exactly one terminal outcome.
type healthMonitor struct {
	mu                  sync.Mutex
	consecutiveFailures int
	lastSuccessAt       time.Time
	lastFailureAt       time.Time
	now                 func() time.Time
	hooks               Hooks
}

func newHealthMonitor(now func() time.Time, hooks Hooks) *healthMonitor {
	return &healthMonitor{now: now, hooks: hooks}
}

// recordSuccess resets the failure counter, regardless of which key
// succeeded.
func (m *healthMonitor) recordSuccess() {
	m.mu.Lock()
	m.consecutiveFailures = 0
	m.lastSuccessAt = m.now()
	n := m.consecutiveFailures
	m.mu.Unlock()
	m.hooks.HealthChanged(n)
}

// recordFailure increments the failure counter for connectivity or data
// failures.
func (m *healthMonitor) recordFailure() {
	m.mu.Lock()
	m.consecutiveFailures++
	m.lastFailureAt = m.now()
	n := m.consecutiveFailures
	m.mu.Unlock()
	m.hooks.HealthChanged(n)
}

// recordNotFound registers a failed fetch attempt without advancing the
// consecutive failure counter: repeated legitimate absence of a key is not
// connectivity degradation.
func (m *healthMonitor) recordNotFound() {
	m.mu.Lock()
	m.lastFailureAt = m.now()
	n := m.consecutiveFailures
	m.mu.Unlock()
	m.hooks.HealthChanged(n)
}

// snapshot returns the current state plus the derived status label. It
// performs no I/O.
func (m *healthMonitor) snapshot() HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	hs := HealthStatus{
		Status:              statusFor(m.consecutiveFailures),
		ConsecutiveFailures: m.consecutiveFailures,
	}
	if !m.lastSuccessAt.IsZero() {
		t := m.lastSuccessAt
		hs.LastSuccessAt = &t
	}
	if !m.lastFailureAt.IsZero() {
		t := m.lastFailureAt
		hs.LastFailureAt = &t
	}
	return hs
}

func statusFor(consecutiveFailures int) Status {
	switch {
	case consecutiveFailures == 0:
		return StatusHealthy
	case consecutiveFailures < 3:
		return StatusDegraded
	default:
		return StatusUnhealthy
	}
}
