// Package metrics provides Prometheus metrics collection for the rxmindr
// core services. Alongside HTTP request metrics it tracks the two domain
// pipelines: drug-name search (request volume by serving path, cache size)
// and catalog loading (rows processed, snapshot publishes).
//
// All metrics are automatically registered with the Prometheus default
// registry during package initialization.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (IPs seen recently)",
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Drug-name search requests by serving path",
		},
		[]string{"path"},
	)

	SearchCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "search_cache_entries",
			Help: "Current number of cached query results",
		},
	)

	CatalogRowsProcessed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_rows_processed_total",
			Help: "Reference catalog rows streamed and parsed",
		},
	)

	CatalogNamesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_names_total",
			Help: "Canonical drug names in the current snapshot",
		},
	)

	IndexRebuildsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "index_rebuilds_total",
			Help: "Prefix index rebuilds (snapshot publishes)",
		},
	)

	RefillPredictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "refill_predictions_total",
			Help: "Refill predictions by confidence rating",
		},
		[]string{"confidence"},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(SearchRequestsTotal)
	prometheus.MustRegister(SearchCacheEntries)
	prometheus.MustRegister(CatalogRowsProcessed)
	prometheus.MustRegister(CatalogNamesTotal)
	prometheus.MustRegister(IndexRebuildsTotal)
	prometheus.MustRegister(RefillPredictionsTotal)
}
