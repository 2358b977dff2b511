// Package metrics defines the Prometheus collectors exported by the pool
// and consolidator.
//
// Grounded on cuemby-warren's pkg/metrics (Prometheus gauges/counters for a
// background scheduler and reconciler loop) and scttfrdmn-objectfs's use of
// the same client for per-operation counters. Unlike warren's package-level
// globals registered via a package init(), graphfst is an embeddable
// library rather than a single-process service: a test suite or a host
// process may construct more than one Store, so each metric set is built
// against an explicit prometheus.Registerer via promauto rather than the
// global DefaultRegisterer, avoiding "duplicate metrics collector
// registration attempted" panics across instances.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pool holds the collectors the pool updates on acquire/janitor/erase.
type Pool struct {
	HandlesOpened  prometheus.Counter
	HandlesEvicted prometheus.Counter
	LiveHandles    prometheus.Gauge
	PendingKeys    prometheus.Gauge
}

// NewPool registers and returns the pool's collectors against reg.
func NewPool(reg prometheus.Registerer) *Pool {
	f := promauto.With(reg)
	return &Pool{
		HandlesOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "graphfst_pool_handles_opened_total",
			Help: "Total number of graph handles opened by the pool.",
		}),
		HandlesEvicted: f.NewCounter(prometheus.CounterOpts{
			Name: "graphfst_pool_handles_evicted_total",
			Help: "Total number of graph handles evicted by the janitor.",
		}),
		LiveHandles: f.NewGauge(prometheus.GaugeOpts{
			Name: "graphfst_pool_live_handles",
			Help: "Current number of live graph handles in the registry.",
		}),
		PendingKeys: f.NewGauge(prometheus.GaugeOpts{
			Name: "graphfst_pool_pending_keys",
			Help: "Current number of keys awaiting consolidation.",
		}),
	}
}

// Consolidate holds the collectors the consolidator updates per run.
type Consolidate struct {
	Runs        prometheus.Counter
	KeysMerged  prometheus.Counter
	Emitted     prometheus.Counter
	Moved       prometheus.Counter
	Popped      prometheus.Counter
	Truncations prometheus.Counter
	Duration    prometheus.Histogram
}

// NewConsolidate registers and returns the consolidator's collectors against reg.
func NewConsolidate(reg prometheus.Registerer) *Consolidate {
	f := promauto.With(reg)
	return &Consolidate{
		Runs: f.NewCounter(prometheus.CounterOpts{
			Name: "graphfst_consolidate_runs_total",
			Help: "Total number of consolidation sweeps started.",
		}),
		KeysMerged: f.NewCounter(prometheus.CounterOpts{
			Name: "graphfst_consolidate_keys_merged_total",
			Help: "Total number of per-key merges completed.",
		}),
		Emitted: f.NewCounter(prometheus.CounterOpts{
			Name: "graphfst_consolidate_terms_emitted_total",
			Help: "Total number of terms written across all merges (moved + pushed).",
		}),
		Moved: f.NewCounter(prometheus.CounterOpts{
			Name: "graphfst_consolidate_terms_moved_total",
			Help: "Total number of old terms carried forward unchanged.",
		}),
		Popped: f.NewCounter(prometheus.CounterOpts{
			Name: "graphfst_consolidate_terms_popped_total",
			Help: "Total number of old terms dropped due to a pending pop.",
		}),
		Truncations: f.NewCounter(prometheus.CounterOpts{
			Name: "graphfst_consolidate_truncations_total",
			Help: "Total number of merges that stopped early due to a size or word cap.",
		}),
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "graphfst_consolidate_duration_seconds",
			Help:    "Per-key consolidation merge duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
