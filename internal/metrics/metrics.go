package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Download engine metrics
var (
	// RequestsTotal counts finished requests by media kind and final state.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_requests_total",
			Help: "Total number of download requests by media kind and final state.",
		},
		[]string{"kind", "state"},
	)

	// RequestDuration observes end-to-end request time.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediafetch_request_duration_seconds",
			Help:    "Duration of download requests.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"kind"},
	)

	// ItemsTotal counts per-item outcomes ("success", "error", "retry").
	ItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_items_total",
			Help: "Total number of collection items processed.",
		},
		[]string{"status"},
	)

	// MetadataFetchesTotal counts backend metadata probes by status.
	MetadataFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediafetch_metadata_fetches_total",
			Help: "Total number of metadata fetches.",
		},
		[]string{"status"},
	)

	// ArchiveBytes observes the size of produced archives.
	ArchiveBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediafetch_archive_bytes",
			Help:    "Size of in-memory archives produced.",
			Buckets: prometheus.ExponentialBuckets(1<<20, 4, 8),
		},
	)

	// ActiveRequests is the number of requests currently being orchestrated.
	ActiveRequests = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediafetch_active_requests",
			Help: "Number of requests currently in flight.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		ItemsTotal,
		MetadataFetchesTotal,
		ArchiveBytes,
		ActiveRequests,
	)
}
