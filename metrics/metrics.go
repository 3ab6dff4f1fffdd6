// Package metrics provides Prometheus metrics for HTTP performance and the
// clinical analysis pipeline. Everything is registered with the default
// registry at package initialization.
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
			Help: "Active rate limiter buckets, one per client IP",
		},
	)

	AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinical_analyses_total",
			Help: "Clinical analyses performed, by kind",
		},
		[]string{"kind"},
	)

	AlertsEmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clinical_alerts_emitted_total",
			Help: "Safety alerts emitted, by severity",
		},
		[]string{"severity"},
	)

	EvidenceSourceFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "evidence_source_failures_total",
			Help: "Evidence source queries that failed or timed out",
		},
		[]string{"source"},
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Latency of outbound gateway calls",
			Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"gateway", "outcome"},
	)

	ReferenceDataAge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "reference_data_age_seconds",
			Help: "Seconds since the clinical reference tables were last refreshed",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		AnalysesTotal,
		AlertsEmitted,
		EvidenceSourceFailures,
		GatewayRequestDuration,
		ReferenceDataAge,
	)
}
