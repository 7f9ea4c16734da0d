// Package metrics holds the Prometheus collectors exported on /metrics.
//
// HTTP traffic is tracked by the Metrics middleware. Imports, registry
// lookups and notification deliveries are recorded by their owning packages
// through the helpers below.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "eskulia"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_request_total",
			Help:      "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_request_in_flight",
			Help:      "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rate_limiter_buckets_total",
			Help:      "Number of client token buckets currently tracked",
		},
	)

	ImportRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_runs_total",
			Help:      "Registry CSV imports by result",
		},
		[]string{"result"},
	)

	ImportRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "import_records",
			Help:      "Medicine records loaded by the last successful import",
		},
	)

	ImportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Wall time of registry CSV imports",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	RegistryLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_lookups_total",
			Help:      "External registry lookups by result (found, not_found, canceled, rejected, upstream_error)",
		},
		[]string{"result"},
	)

	NotificationDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_deliveries_total",
			Help:      "Push notification deliveries by result",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		RateLimiterBucketsTotal,
		ImportRunsTotal,
		ImportRecords,
		ImportDuration,
		RegistryLookupsTotal,
		NotificationDeliveriesTotal,
	)
}

// ObserveImport records one finished import run.
func ObserveImport(started time.Time, records int, err error) {
	ImportDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		ImportRunsTotal.WithLabelValues("failure").Inc()
		return
	}
	ImportRunsTotal.WithLabelValues("success").Inc()
	ImportRecords.Set(float64(records))
}
