package gql

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors for the session layer.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	CacheHitsTotal  *prometheus.CounterVec
	CacheMissTotal  *prometheus.CounterVec
}

// NewMetrics creates and registers the session-layer collectors.
// Passing a nil registry skips registration, for tests that only need
// the collectors.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_graphql_requests_total",
				Help: "Total number of GraphQL requests",
			},
			[]string{"operation", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_graphql_request_duration_seconds",
				Help:    "GraphQL request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_graphql_cache_hits_total",
				Help: "Total number of result cache hits",
			},
			[]string{"operation"},
		),
		CacheMissTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_graphql_cache_misses_total",
				Help: "Total number of result cache misses",
			},
			[]string{"operation"},
		),
	}

	if registry != nil {
		registry.MustRegister(
			m.RequestsTotal,
			m.RequestDuration,
			m.CacheHitsTotal,
			m.CacheMissTotal,
		)
	}
	return m
}
