package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// heritage map data service.
type Metrics struct {
	// Upstream fetch pipeline.
	UpstreamRequests *prometheus.CounterVec   // labels: strategy, outcome={success,error,canceled}
	UpstreamDuration *prometheus.HistogramVec // labels: strategy
	UpstreamFallback prometheus.Counter       // all strategies exhausted, sentinel returned

	// Durable list cache.
	CacheLookups *prometheus.CounterVec // labels: result={hit,miss,expired,error}

	// Reference data store.
	ReferenceLoads *prometheus.CounterVec // labels: portion, outcome={loaded,empty}

	// External service adapters.
	RouteRequests   *prometheus.CounterVec // labels: outcome={success,fallback}
	GeocodeRequests *prometheus.CounterVec // labels: mode={search,reverse}, outcome={success,error,skipped}

	// Catalog sizes after warm-up.
	CatalogSize *prometheus.GaugeVec // labels: catalog={sites,persons}
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.UpstreamRequests,
		m.UpstreamDuration,
		m.UpstreamFallback,
		m.CacheLookups,
		m.ReferenceLoads,
		m.RouteRequests,
		m.GeocodeRequests,
		m.CatalogSize,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heritage_map",
			Name:      "upstream_requests_total",
			Help:      "Upstream fetch strategy attempts by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		UpstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "heritage_map",
			Name:      "upstream_strategy_duration_seconds",
			Help:      "Duration of individual fetch strategy attempts.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"strategy"}),
		UpstreamFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "heritage_map",
			Name:      "upstream_fallback_total",
			Help:      "Fetches where every strategy failed and the empty sentinel was returned.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heritage_map",
			Name:      "cache_lookups_total",
			Help:      "Durable cache lookups by result.",
		}, []string{"result"}),
		ReferenceLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heritage_map",
			Name:      "reference_loads_total",
			Help:      "Reference data portion load outcomes.",
		}, []string{"portion", "outcome"}),
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heritage_map",
			Name:      "route_requests_total",
			Help:      "Routing requests by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "heritage_map",
			Name:      "geocode_requests_total",
			Help:      "Geocoding requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		CatalogSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "heritage_map",
			Name:      "catalog_size",
			Help:      "Entities held in the in-memory catalog after warm-up.",
		}, []string{"catalog"}),
	}
}
