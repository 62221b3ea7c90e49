// Package observability provides the Prometheus implementation of the
// registry client's observability hooks.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusHooks implements registry.Hooks by recording fetch outcomes,
// cache activity, and health state as Prometheus metrics.
type PrometheusHooks struct {
	fetches             *prometheus.CounterVec
	cacheHits           *prometheus.CounterVec
	staleServed         prometheus.Counter
	snapshotServed      prometheus.Counter
	consecutiveFailures prometheus.Gauge
}

// NewPrometheusHooks registers the registry metrics on the default
// registerer. Use NewPrometheusHooksWith for an isolated registry in tests.
func NewPrometheusHooks() *PrometheusHooks {
	return NewPrometheusHooksWith(prometheus.DefaultRegisterer)
}

// NewPrometheusHooksWith registers the registry metrics on reg.
func NewPrometheusHooksWith(reg prometheus.Registerer) *PrometheusHooks {
	factory := promauto.With(reg)
	return &PrometheusHooks{
		fetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_client_fetches_total",
			Help: "Terminal registry fetch outcomes by result.",
		}, []string{"outcome"}),
		cacheHits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "registry_client_cache_hits_total",
			Help: "Registry cache hits by freshness.",
		}, []string{"freshness"}),
		staleServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "registry_client_stale_served_total",
			Help: "Stale cache entries served after a failed live refresh.",
		}),
		snapshotServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "registry_client_snapshot_served_total",
			Help: "Embedded snapshot documents served as the final fallback.",
		}),
		consecutiveFailures: factory.NewGauge(prometheus.GaugeOpts{
			Name: "registry_client_consecutive_failures",
			Help: "Current consecutive fetch failure count.",
		}),
	}
}

func (h *PrometheusHooks) FetchCompleted(outcome string) {
	h.fetches.WithLabelValues(outcome).Inc()
}

func (h *PrometheusHooks) CacheHit(freshness string) {
	h.cacheHits.WithLabelValues(freshness).Inc()
}

func (h *PrometheusHooks) StaleServed(string) {
	h.staleServed.Inc()
}

func (h *PrometheusHooks) SnapshotServed(string) {
	h.snapshotServed.Inc()
}

func (h *PrometheusHooks) HealthChanged(consecutiveFailures int) {
	h.consecutiveFailures.Set(float64(consecutiveFailures))
}
