package graphfst

import (
	"github.com/aalhour/graphfst/internal/config"
	"github.com/aalhour/graphfst/internal/consolidate"
	"github.com/aalhour/graphfst/internal/logging"
	"github.com/aalhour/graphfst/internal/metrics"
	"github.com/aalhour/graphfst/internal/pool"
	"github.com/aalhour/graphfst/internal/vfs"
	"github.com/prometheus/client_golang/prometheus"
)

// WordLimitLength is the maximum byte length of a term accepted by
// PushWord, PopWord, and SuggestWords. Longer terms are silently
// rejected at this layer.
const WordLimitLength = 40

// Store is one store engine instance: a pool of graph handles plus the
// consolidator that rewrites them. The zero value is not usable; use
// Open.
type Store struct {
	pool         *pool.Pool
	consolidator *consolidate.Consolidator
	cfg          Config
}

// Logger is the subset of logging behavior a Store reports through. Embed
// github.com/aalhour/graphfst/internal/logging.Logger's method set, or
// pass nil to use the package default (writes WARN and above to stderr).
type Logger = logging.Logger

// Metrics bundles the Prometheus collectors a Store updates. Pass nil to
// Open to skip metrics entirely.
type Metrics struct {
	Pool        *metrics.Pool
	Consolidate *metrics.Consolidate
}

// NewMetrics constructs a Metrics bundle registered against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Pool:        metrics.NewPool(reg),
		Consolidate: metrics.NewConsolidate(reg),
	}
}

// Open constructs a Store rooted at cfg.Path. fs selects the filesystem
// implementation (vfs.Default() for production use; a
// vfs.FaultInjectionFS for crash-safety testing). logger and m may be
// nil.
func Open(fs vfs.FS, cfg Config, logger Logger, m *Metrics) *Store {
	var poolMetrics *metrics.Pool
	var consolidateMetrics *metrics.Consolidate
	if m != nil {
		poolMetrics = m.Pool
		consolidateMetrics = m.Consolidate
	}

	p := pool.New(fs, cfg, logger, poolMetrics)
	c := consolidate.New(p, fs, cfg, logger, consolidateMetrics)
	return &Store{pool: p, consolidator: c, cfg: cfg}
}

// OpenDefault is a convenience wrapper over Open using the real OS
// filesystem, the given config, and no logger or metrics.
func OpenDefault(cfg Config) *Store {
	return Open(vfs.Default(), cfg, nil, nil)
}

// Config returns the configuration the Store was opened with.
func (s *Store) Config() config.Config { return s.cfg }
