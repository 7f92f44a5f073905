package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace defines the global prefix for all metrics (e.g., packline_...).
const namespace = "packline"

// lowLatencyBuckets defines custom buckets for the classify plane, which is
// in the picker's critical path. Standard buckets are too coarse (starting at
// 5ms), so we add 1ms and 2ms resolution. Range: 1ms to 500ms.
var lowLatencyBuckets = []float64{.001, .002, .005, .010, .015, .020, .025, .030, .050, .100, .500}

var (
	// -------------------------------------------------------------------------
	// CONTROL PLANE (rule management HTTP API)
	// -------------------------------------------------------------------------

	// ControlPlaneReqDuration measures the latency of HTTP requests.
	// Metric: packline_control_plane_http_handling_seconds
	ControlPlaneReqDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "control_plane",
		Name:      "http_handling_seconds",
		Help:      "Time taken to handle HTTP requests in the rule management API",
		Buckets:   prometheus.DefBuckets, // Admin API runs at human speed
	}, []string{"method", "path"})

	// ControlPlaneReqTotal counts the total number of HTTP requests.
	// Metric: packline_control_plane_http_requests_total
	ControlPlaneReqTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "control_plane",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests in the rule management API",
	}, []string{"method", "path", "code"})

	// -------------------------------------------------------------------------
	// CLASSIFY PLANE (order classification)
	// -------------------------------------------------------------------------

	// ClassifyDuration measures end-to-end classification latency.
	// Metric: packline_classify_plane_resolve_seconds
	ClassifyDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "classify_plane",
		Name:      "resolve_seconds",
		Help:      "Time taken to resolve one order against one catalog",
		Buckets:   lowLatencyBuckets,
	}, []string{"rule_type"})

	// ClassificationsTotal counts resolutions per catalog and outcome.
	// outcome is "matched" or "no_match"; no_match is a normal result the
	// host renders distinctly, not an error.
	// Metric: packline_classify_plane_classifications_total
	ClassificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "classify_plane",
		Name:      "classifications_total",
		Help:      "Total catalog resolutions by rule type and outcome",
	}, []string{"rule_type", "outcome"})

	// --- Catalog L1 cache (otter) ---

	ClassifyCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "classify_plane",
		Name:      "l1_cache_hits_total",
		Help:      "Total L1 catalog cache hits (in-memory)",
	})

	ClassifyCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "classify_plane",
		Name:      "l1_cache_misses_total",
		Help:      "Total L1 catalog cache misses",
	})

	// ClassifyCacheItems tracks the number of cached catalog snapshots.
	ClassifyCacheItems = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "classify_plane",
		Name:      "l1_cache_items_count",
		Help:      "Current number of catalog snapshots in the L1 cache",
	})

	// ClassifyInvalidations counts cache invalidation events received via PubSub.
	ClassifyInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "classify_plane",
		Name:      "l1_invalidations_total",
		Help:      "Total catalog invalidation events received via PubSub",
	})

	// -------------------------------------------------------------------------
	// SYNCER (catalog propagation worker)
	// -------------------------------------------------------------------------

	// SyncerCycleDuration measures one full Postgres -> Redis propagation pass.
	// Metric: packline_syncer_cycle_duration_seconds
	SyncerCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "syncer",
		Name:      "cycle_duration_seconds",
		Help:      "Duration of one catalog propagation cycle",
		Buckets:   prometheus.DefBuckets,
	})

	// SyncerCatalogsTotal counts propagated catalogs by status.
	SyncerCatalogsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "syncer",
		Name:      "catalogs_total",
		Help:      "Total catalog propagation attempts",
	}, []string{"status"}) // success, fail

	// -------------------------------------------------------------------------
	// DATABASE (pgx connection pool)
	// -------------------------------------------------------------------------

	// DBPoolConnections tracks pool connection counts by state.
	// States: total, idle, in_use, max.
	// Metric: packline_database_pool_connections
	DBPoolConnections = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "database",
		Name:      "pool_connections",
		Help:      "Current PostgreSQL pool connections by state",
	}, []string{"state"})

	// The three metrics below mirror pgx's cumulative pool counters. They are
	// sampled into gauges by the pool monitor because pgx owns the counting;
	// we only expose its snapshot.

	// Metric: packline_database_pool_acquire_count_total
	DBPoolAcquireCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "database",
		Name:      "pool_acquire_count_total",
		Help:      "Cumulative number of successful connection acquires",
	})

	// Metric: packline_database_pool_acquire_duration_seconds_total
	DBPoolAcquireDuration = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "database",
		Name:      "pool_acquire_duration_seconds_total",
		Help:      "Cumulative time spent acquiring connections from the pool",
	})

	// Metric: packline_database_pool_wait_count_total
	DBPoolWaitCount = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "database",
		Name:      "pool_wait_count_total",
		Help:      "Cumulative number of acquires that had to wait for a connection",
	})
)
