// Package pool owns the registry of live graph handles, the single-flight
// open path that prevents duplicate concurrent opens of the same bucket,
// and the janitor that evicts idle handles.
//
// Grounded on rockyardkv's internal/cache block-cache registry (a
// process-wide map of keyed, reference-observed entries with an eviction
// sweep) generalized from cached blocks to pooled graph handles.
// golang.org/x/sync/singleflight collapses concurrent identical fetches
// into one in-flight call, which is exactly what "two acquires of the
// same missing key must not race to build duplicate handles" needs.
package pool

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/aalhour/graphfst/internal/atom"
	"github.com/aalhour/graphfst/internal/config"
	"github.com/aalhour/graphfst/internal/consolidateset"
	"github.com/aalhour/graphfst/internal/fstset"
	"github.com/aalhour/graphfst/internal/graph"
	"github.com/aalhour/graphfst/internal/logging"
	"github.com/aalhour/graphfst/internal/metrics"
	"github.com/aalhour/graphfst/internal/pathresolver"
	"github.com/aalhour/graphfst/internal/vfs"

	"sync"
)

// Pool owns every live graph handle for one store instance.
type Pool struct {
	fs       vfs.FS
	resolver *pathresolver.Resolver
	cfg      config.Config
	logger   logging.Logger
	metrics  *metrics.Pool

	mu       sync.RWMutex // REGISTRY
	registry map[atom.Key]*graph.Handle

	acquireMu sync.Mutex // ACQUIRE
	group     singleflight.Group

	consolSet *consolidateset.Set // CONSOLIDATE_SET
}

// New constructs an empty pool rooted at cfg.Path.
func New(fs vfs.FS, cfg config.Config, logger logging.Logger, m *metrics.Pool) *Pool {
	return &Pool{
		fs:        fs,
		resolver:  pathresolver.New(cfg.Path),
		cfg:       cfg,
		logger:    logging.OrDefault(logger),
		metrics:   m,
		registry:  make(map[atom.Key]*graph.Handle),
		consolSet: consolidateset.New(),
	}
}

// Resolver exposes the pool's path resolver to callers (the consolidator,
// dump/restore) that need it to compute file paths directly.
func (p *Pool) Resolver() *pathresolver.Resolver { return p.resolver }

// ConsolidateSet exposes the pool's scheduling set to the consolidator.
func (p *Pool) ConsolidateSet() *consolidateset.Set { return p.consolSet }

// Config returns the pool's configuration.
func (p *Pool) Config() config.Config { return p.cfg }

// Acquire returns the live handle for (collection, bucket), opening it if
// necessary. Holds acquireMu for its duration, per the lock-ordering
// discipline: a registry read check, and only on miss an upgrade to a
// registry write plus a single-flight-guarded open.
func (p *Pool) Acquire(collection, bucket string) (*graph.Handle, error) {
	key := atom.KeyFromNames(collection, bucket)
	now := time.Now()

	p.acquireMu.Lock()
	defer p.acquireMu.Unlock()

	p.mu.RLock()
	h, ok := p.registry[key]
	p.mu.RUnlock()
	if ok {
		h.Touch(now)
		return h, nil
	}

	v, err, _ := p.group.Do(key.String(), func() (any, error) {
		return p.open(key, now)
	})
	if err != nil {
		return nil, err
	}
	h = v.(*graph.Handle)

	p.mu.Lock()
	if existing, ok := p.registry[key]; ok {
		p.mu.Unlock()
		existing.Touch(now)
		return existing, nil
	}
	p.registry[key] = h
	p.mu.Unlock()

	if p.metrics != nil {
		p.metrics.HandlesOpened.Inc()
		p.metrics.LiveHandles.Set(float64(p.Count()))
	}
	p.logger.Infof("%sacquired graph %s", logging.NSPool, key)
	return h, nil
}

func (p *Pool) open(key atom.Key, now time.Time) (*graph.Handle, error) {
	path := p.resolver.BucketPath(pathresolver.Permanent, key.Collection, key.Bucket)
	set, err := fstset.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pool: open %s: %w", key, err)
	}
	return graph.New(key, set, now), nil
}

// HandleForKey returns the live handle for key, if any, without bumping
// last-used. Used by the consolidator, which works from scheduled keys
// rather than (collection, bucket) name pairs.
func (p *Pool) HandleForKey(key atom.Key) (*graph.Handle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	h, ok := p.registry[key]
	return h, ok
}

// Count returns the number of live handles (see PendingCount for pending
// consolidation keys).
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.registry)
}

// PendingCount returns the number of keys awaiting consolidation.
func (p *Pool) PendingCount() int {
	return p.consolSet.Len()
}

// Janitor evicts every handle whose last-used time exceeds
// cfg.InactiveAfter. Plays the role of the ACCESS writer lock the spec
// assigns the janitor by taking the registry write lock for its whole
// sweep (see DESIGN.md's Open Question resolution on the single-lock
// simplification).
func (p *Pool) Janitor() int {
	now := time.Now()
	p.mu.Lock()
	defer p.mu.Unlock()

	var evicted int
	for key, h := range p.registry {
		if now.Sub(h.LastUsed()) >= p.cfg.InactiveAfter {
			delete(p.registry, key)
			evicted++
		}
	}
	if evicted > 0 {
		p.logger.Infof("%sjanitor evicted %d idle handle(s)", logging.NSPool, evicted)
	}
	if p.metrics != nil {
		p.metrics.LiveHandles.Set(float64(len(p.registry)))
		p.metrics.PendingKeys.Set(float64(p.consolSet.Len()))
		p.metrics.HandlesEvicted.Add(float64(evicted))
	}
	return evicted
}

// EraseCollection closes every live handle for collection, removes them
// from the registry and consolidation set, then deletes the directory.
// Returns 1 if the directory existed, 0 otherwise.
func (p *Pool) EraseCollection(collection string) (int, error) {
	collAtom := atom.Hash(collection)

	p.mu.Lock()
	closing := make(map[atom.Key]*graph.Handle)
	for key, h := range p.registry {
		if key.Collection == collAtom {
			delete(p.registry, key)
			closing[key] = h
		}
	}
	p.mu.Unlock()

	for key, h := range closing {
		p.consolSet.Remove(key)
		if err := h.Close(); err != nil {
			p.logger.Warnf("%serase collection %s: close handle: %v", logging.NSPool, collAtom, err)
		}
	}

	dir := p.resolver.CollectionDir(collAtom)
	if !p.fs.Exists(dir) {
		return 0, nil
	}
	if err := p.fs.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("pool: remove %s: %w", dir, err)
	}
	p.logger.Infof("%serased collection %s", logging.NSPool, collAtom)
	return 1, nil
}

// EraseBucket closes the single handle, removes it from the registry and
// consolidation set, and deletes the permanent file. Returns 1 if the file
// existed, 0 otherwise.
func (p *Pool) EraseBucket(collection, bucket string) (int, error) {
	key := atom.KeyFromNames(collection, bucket)

	p.mu.Lock()
	h, ok := p.registry[key]
	if ok {
		delete(p.registry, key)
	}
	p.mu.Unlock()
	p.consolSet.Remove(key)
	if ok {
		if err := h.Close(); err != nil {
			p.logger.Warnf("%serase bucket %s: close handle: %v", logging.NSPool, key, err)
		}
	}

	path := p.resolver.BucketPath(pathresolver.Permanent, key.Collection, key.Bucket)
	if !p.fs.Exists(path) {
		return 0, nil
	}
	if err := p.fs.Remove(path); err != nil {
		return 0, fmt.Errorf("pool: remove %s: %w", path, err)
	}
	p.logger.Infof("%serased bucket %s", logging.NSPool, key)
	return 1, nil
}

// Evict removes key from the registry without touching disk, used by the
// consolidator after it installs a new FST generation so the next Acquire
// reopens against the fresh file.
func (p *Pool) Evict(key atom.Key) {
	p.mu.Lock()
	delete(p.registry, key)
	p.mu.Unlock()
}

// ForceClose removes key from the registry and closes its handle's durable
// set, if the key has a live handle. Used by restore, which must guarantee
// no reader can still observe the permanent file it is about to replace.
func (p *Pool) ForceClose(key atom.Key) error {
	p.mu.Lock()
	h, ok := p.registry[key]
	if ok {
		delete(p.registry, key)
	}
	p.mu.Unlock()
	if !ok {
		return nil
	}
	p.consolSet.Remove(key)
	return h.Close()
}

// ListCollections returns the distinct collection directory names
// currently on disk.
func (p *Pool) ListCollections() ([]string, error) {
	entries, err := p.fs.ListDir(p.cfg.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("pool: list %s: %w", p.cfg.Path, err)
	}
	return entries, nil
}

// CountBuckets returns the number of bucket files under a collection
// directory.
func (p *Pool) CountBuckets(collection string) (int, error) {
	dir := p.resolver.CollectionDir(atom.Hash(collection))
	entries, err := p.fs.ListDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("pool: list %s: %w", dir, err)
	}
	n := 0
	for _, name := range entries {
		if pathresolver.IsPermanentName(name) {
			n++
		}
	}
	return n, nil
}
