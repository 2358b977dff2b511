// Package consolidate implements the merge algorithm that rewrites a
// bucket's durable FST to reflect its pending journal: old terms stream in
// ascending order, sorted pending pushes interleave in, pending pops are
// skipped, a hard size/word cap truncates the output, and the result lands
// via an atomic temp-file-then-rename swap.
//
// Grounded on rockyardkv's internal/flush (the loop that drains a dirty
// memtable into a new sstable under a size budget and installs it via
// rename) generalized from "memtable -> sstable" to "pending journal ->
// FST generation", and on internal/vfs.FaultInjectionFS (already present in
// the teacher tree) for exercising the atomic-rename crash-safety this
// package depends on.
package consolidate

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/aalhour/graphfst/internal/atom"
	"github.com/aalhour/graphfst/internal/config"
	"github.com/aalhour/graphfst/internal/fstset"
	"github.com/aalhour/graphfst/internal/logging"
	"github.com/aalhour/graphfst/internal/metrics"
	"github.com/aalhour/graphfst/internal/pathresolver"
	"github.com/aalhour/graphfst/internal/pool"
	"github.com/aalhour/graphfst/internal/vfs"
)

// Consolidator drains every scheduled key's pending journal into a fresh
// FST generation.
type Consolidator struct {
	pool      *pool.Pool
	fs        vfs.FS
	resolver  *pathresolver.Resolver
	cfg       config.Config
	logger    logging.Logger
	metrics   *metrics.Consolidate
	rebuildMu chan struct{} // 1-buffered: serializes whole consolidation runs (REBUILD)
}

// New constructs a Consolidator operating over p.
func New(p *pool.Pool, fs vfs.FS, cfg config.Config, logger logging.Logger, m *metrics.Consolidate) *Consolidator {
	c := &Consolidator{
		pool:      p,
		fs:        fs,
		resolver:  p.Resolver(),
		cfg:       cfg,
		logger:    logging.OrDefault(logger),
		metrics:   m,
		rebuildMu: make(chan struct{}, 1),
	}
	c.rebuildMu <- struct{}{}
	return c
}

// Run executes one consolidation sweep. With force=false, only keys whose
// handle has sat past cfg.ConsolidateAfter since last scheduled are merged;
// with force=true, every pending key is merged regardless of age.
func (c *Consolidator) Run(ctx context.Context, force bool) error {
	select {
	case <-c.rebuildMu:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { c.rebuildMu <- struct{}{} }()

	if c.metrics != nil {
		c.metrics.Runs.Inc()
	}

	selected := c.selectKeys(force)
	if len(selected) == 0 {
		return nil
	}

	for _, key := range selected {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.mergeKey(key)
		runtime.Gosched()
	}
	return nil
}

// selectKeys implements phases A and B: snapshot the consolidation set,
// pick eligible keys, and remove exactly those from the set (ineligible
// keys remain pending for a future sweep).
func (c *Consolidator) selectKeys(force bool) []atom.Key {
	candidates := c.pool.ConsolidateSet().Keys()
	if len(candidates) == 0 {
		return nil
	}

	now := time.Now()
	var selected []atom.Key
	for _, key := range candidates {
		h, ok := c.pool.HandleForKey(key)
		if !ok {
			// Handle was evicted after scheduling; nothing left to merge.
			c.pool.ConsolidateSet().Remove(key)
			continue
		}
		if force || now.Sub(h.LastConsolidated()) >= c.cfg.ConsolidateAfter {
			selected = append(selected, key)
		}
	}
	for _, key := range selected {
		c.pool.ConsolidateSet().Remove(key)
	}
	return selected
}

// mergeKey implements phase C for one key. Every failure is contained here:
// the old FST remains authoritative and the pending sets are still cleared.
func (c *Consolidator) mergeKey(key atom.Key) {
	start := time.Now()
	h, ok := c.pool.HandleForKey(key)
	if !ok {
		return
	}

	pushes, pops := h.Journal().Snapshot()
	if len(pushes) == 0 && len(pops) == 0 {
		return
	}
	defer h.Journal().Clear(pushes, pops)

	sort.Strings(pushes) // Snapshot already sorts, but the precondition is load-bearing; make it explicit.
	popSet := make(map[string]struct{}, len(pops))
	for _, p := range pops {
		popSet[p] = struct{}{}
	}

	tmpPath := c.resolver.BucketPath(pathresolver.Temporary, key.Collection, key.Bucket)
	permPath := c.resolver.BucketPath(pathresolver.Permanent, key.Collection, key.Bucket)
	dir := c.resolver.CollectionDir(key.Collection)

	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		c.logger.Errorf("%sconsolidate %s: mkdir %s: %v", logging.NSConsolidate, key, dir, err)
		return
	}
	if c.fs.Exists(tmpPath) {
		if err := c.fs.Remove(tmpPath); err != nil {
			c.logger.Errorf("%sconsolidate %s: remove stale temp %s: %v", logging.NSConsolidate, key, tmpPath, err)
			return
		}
	}

	tmpFile, err := c.fs.Create(tmpPath)
	if err != nil {
		c.logger.Errorf("%sconsolidate %s: create %s: %v", logging.NSConsolidate, key, tmpPath, err)
		return
	}
	builder, err := fstset.NewBuilder(tmpFile)
	if err != nil {
		tmpFile.Close()
		c.logger.Errorf("%sconsolidate %s: new builder: %v", logging.NSConsolidate, key, err)
		return
	}

	var emitted, moved, popped, pushed int
	capped := false
	qi := 0

	// emit reports (cont, inserted): cont is false once a cap is hit and the
	// outer loop must stop; inserted is false when vellum rejected the term
	// as a duplicate/out-of-order insert (logged, not fatal — the caller
	// should still keep going, just not count it).
	emit := func(term string) (cont, inserted bool) {
		if capped {
			return false, false
		}
		if overLimits(builder.BytesWritten(), emitted, c.cfg) {
			capped = true
			return false, false
		}
		if err := builder.Insert([]byte(term)); err != nil {
			c.logger.Warnf("%sconsolidate %s: rejected duplicate/out-of-order term %q: %v", logging.NSConsolidate, key, term, err)
			return true, false
		}
		emitted++
		return true, true
	}

	streamErr := h.Stream(func(w []byte) bool {
		word := string(w)
		for qi < len(pushes) && pushes[qi] <= word {
			term := pushes[qi]
			qi++
			cont, inserted := emit(term)
			if inserted {
				pushed++
			}
			if !cont {
				return false
			}
		}
		if capped {
			return false
		}
		if _, isPop := popSet[word]; isPop {
			popped++
			return true
		}
		cont, inserted := emit(word)
		if inserted {
			moved++
		}
		return cont
	})
	if streamErr != nil {
		tmpFile.Close()
		c.logger.Errorf("%sconsolidate %s: stream old FST: %v", logging.NSConsolidate, key, streamErr)
		return
	}

	for !capped && qi < len(pushes) {
		term := pushes[qi]
		qi++
		cont, inserted := emit(term)
		if inserted {
			pushed++
		}
		if !cont {
			break
		}
	}

	if err := builder.Finish(); err != nil {
		tmpFile.Close()
		c.logger.Errorf("%sconsolidate %s: finish builder: %v", logging.NSConsolidate, key, err)
		return
	}
	if err := tmpFile.Close(); err != nil {
		c.logger.Errorf("%sconsolidate %s: close temp file: %v", logging.NSConsolidate, key, err)
		return
	}
	if err := c.fs.Rename(tmpPath, permPath); err != nil {
		c.logger.Errorf("%sconsolidate %s: rename %s -> %s: %v", logging.NSConsolidate, key, tmpPath, permPath, err)
		return
	}
	if err := c.fs.SyncDir(dir); err != nil {
		c.logger.Warnf("%sconsolidate %s: sync dir %s: %v", logging.NSConsolidate, key, dir, err)
	}

	newSet, err := fstset.Open(permPath)
	if err != nil {
		c.logger.Errorf("%sconsolidate %s: reopen %s: %v", logging.NSConsolidate, key, permPath, err)
		return
	}
	old := h.SwapSet(newSet)
	old.Close()
	c.pool.Evict(key)

	c.writeCheckpoint(key, emitted, moved, popped, pushed, capped)

	if c.metrics != nil {
		c.metrics.KeysMerged.Inc()
		c.metrics.Emitted.Add(float64(emitted))
		c.metrics.Moved.Add(float64(moved))
		c.metrics.Popped.Add(float64(popped))
		if capped {
			c.metrics.Truncations.Inc()
		}
		c.metrics.Duration.Observe(time.Since(start).Seconds())
	}
	c.logger.Infof("%s%s: emitted=%d moved=%d popped=%d pushed=%d truncated=%v", logging.NSConsolidate, key, emitted, moved, popped, pushed, capped)
}

// overLimits reports whether emitting one more term would exceed the
// configured size or word caps.
func overLimits(bytesWritten int64, emittedCount int, cfg config.Config) bool {
	return bytesWritten >= cfg.MaxSizeKiB*1024 || emittedCount >= cfg.MaxWords
}

// writeCheckpoint records the last successful consolidation's term counts
// next to the permanent file, as "<bucket>.fst.chk" — an operational
// addition, not required by the merge algorithm itself, cheap because the
// merge loop already counts these. Written via natefinch/atomic so a crash
// mid-write never leaves a half-written checkpoint.
func (c *Consolidator) writeCheckpoint(key atom.Key, emitted, moved, popped, pushed int, capped bool) {
	path := c.resolver.BucketPath(pathresolver.Permanent, key.Collection, key.Bucket) + ".chk"
	line := fmt.Sprintf("emitted=%d moved=%d popped=%d pushed=%d truncated=%v at=%s\n",
		emitted, moved, popped, pushed, capped, time.Now().UTC().Format(time.RFC3339))
	if err := atomic.WriteFile(path, strings.NewReader(line)); err != nil {
		c.logger.Warnf("%sconsolidate %s: write checkpoint: %v", logging.NSConsolidate, key, err)
	}
}
