// Package metrics exposes Prometheus instrumentation for fetch, cache
// and sync activity. Collectors are package-level and registered on the
// default registry via promauto.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FetchesTotal counts provider fetches by outcome. Outcome is
	// "success" or a fetch error kind (timeout, auth, rate_limited,
	// transient, malformed).
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_fetches_total",
			Help: "Total number of provider fetches by outcome",
		},
		[]string{"provider", "outcome"},
	)

	// RecordsSkippedTotal counts provider records dropped by
	// per-item validation during normalization.
	RecordsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_records_skipped_total",
			Help: "Total number of provider records skipped by validation",
		},
		[]string{"provider"},
	)

	// CacheRequestsTotal counts cache loader outcomes: "hit" within TTL,
	// "miss" populated by a fetch, "stale" served after a fetch failure.
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of cache loader requests by result",
		},
		[]string{"result"},
	)

	// SyncRunsTotal counts sync executions by final status.
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of sync runs by status",
		},
		[]string{"provider", "status"},
	)

	// SyncItemsTotal counts row mutations written by sync runs.
	SyncItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_items_total",
			Help: "Total number of item mutations by operation",
		},
		[]string{"provider", "op"},
	)

	// SyncDuration observes wall-clock duration of sync runs.
	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of sync runs in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)
)

// ObserveSync records the metrics of one finished sync run.
func ObserveSync(providerID, status string, duration time.Duration) {
	SyncRunsTotal.WithLabelValues(providerID, status).Inc()
	SyncDuration.WithLabelValues(providerID).Observe(duration.Seconds())
}

// NewServer returns an HTTP server exposing /metrics on addr.
// The caller owns its lifecycle.
func NewServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
