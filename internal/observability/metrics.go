// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	TradesFetched    prometheus.Counter
	PartialFetches   prometheus.Counter
	UpstreamErrors   *prometheus.CounterVec
	UpstreamLatency  prometheus.Histogram
	StreamTradesSeen prometheus.Counter

	// Aggregation metrics
	SummariesComputed *prometheus.CounterVec
	SnapshotsArchived prometheus.Counter

	// Wall event metrics
	WallsStored         *prometheus.CounterVec
	WallsDuplicate      prometheus.Counter
	WallsBelowThreshold prometheus.Counter
	WallsCleared        prometheus.Counter

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "orderflow_lab"
	}

	return &Metrics{
		TradesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "trades_fetched_total",
			Help:      "Total number of trade prints fetched from the upstream feed",
		}),
		PartialFetches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "partial_fetches_total",
			Help:      "Total number of fetches that hit the upstream record cap",
		}),
		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "upstream_errors_total",
			Help:      "Total number of upstream feed errors by exchange",
		}, []string{"exchange"}),
		UpstreamLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "upstream_latency_seconds",
			Help:      "Upstream trade fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		StreamTradesSeen: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "stream_trades_total",
			Help:      "Total number of trades received on the live stream",
		}),

		SummariesComputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orderflow",
			Name:      "summaries_computed_total",
			Help:      "Total number of order-flow summaries computed by symbol",
		}, []string{"symbol"}),
		SnapshotsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orderflow",
			Name:      "snapshots_archived_total",
			Help:      "Total number of flow snapshots appended to the archive",
		}),

		WallsStored: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "walls",
			Name:      "events_stored_total",
			Help:      "Total number of whale wall events stored by exchange and side",
		}, []string{"exchange", "side"}),
		WallsDuplicate: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "walls",
			Name:      "duplicate_detections_total",
			Help:      "Total number of detections collapsed into an existing bucket",
		}),
		WallsBelowThreshold: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "walls",
			Name:      "below_threshold_total",
			Help:      "Total number of sub-threshold detections accepted as no-ops",
		}),
		WallsCleared: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "walls",
			Name:      "events_cleared_total",
			Help:      "Total number of wall events removed via bulk clear",
		}),

		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Total number of summary cache hits",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Total number of summary cache misses",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFetch records an upstream trade fetch.
func RecordFetch(count int, partial bool, seconds float64) {
	DefaultMetrics.TradesFetched.Add(float64(count))
	DefaultMetrics.UpstreamLatency.Observe(seconds)
	if partial {
		DefaultMetrics.PartialFetches.Inc()
	}
}

// RecordUpstreamError records an upstream feed failure.
func RecordUpstreamError(exchange string) {
	DefaultMetrics.UpstreamErrors.WithLabelValues(exchange).Inc()
}

// RecordStreamTrade records a trade received on the live stream.
func RecordStreamTrade() {
	DefaultMetrics.StreamTradesSeen.Inc()
}

// RecordSummaryComputed records a computed order-flow summary.
func RecordSummaryComputed(symbol string) {
	DefaultMetrics.SummariesComputed.WithLabelValues(symbol).Inc()
}

// RecordSnapshotArchived records an appended flow snapshot.
func RecordSnapshotArchived() {
	DefaultMetrics.SnapshotsArchived.Inc()
}

// RecordWallStored records a stored wall event.
func RecordWallStored(exchange, side string) {
	DefaultMetrics.WallsStored.WithLabelValues(exchange, side).Inc()
}

// RecordWallDuplicate records a duplicate-bucket detection.
func RecordWallDuplicate() {
	DefaultMetrics.WallsDuplicate.Inc()
}

// RecordWallBelowThreshold records a sub-threshold detection.
func RecordWallBelowThreshold() {
	DefaultMetrics.WallsBelowThreshold.Inc()
}

// RecordWallsCleared records a bulk clear.
func RecordWallsCleared(count int64) {
	DefaultMetrics.WallsCleared.Add(float64(count))
}

// RecordCacheHit records a summary cache hit or miss.
func RecordCacheHit(hit bool) {
	if hit {
		DefaultMetrics.CacheHits.Inc()
	} else {
		DefaultMetrics.CacheMisses.Inc()
	}
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
