// Package graph implements the handle representing one (collection, bucket)
// pair: the durable FST plus the pending journal sitting in front of it, and
// the push/pop/lookup operations that read and write both.
//
// Grounded on rockyardkv's memtable+WAL pairing (one mutable write surface
// backed by an immutable durable one, swapped out wholesale on flush) —
// Handle plays the same role, with the FST standing in for an sstable and
// consolidation standing in for flush.
package graph

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aalhour/graphfst/internal/atom"
	"github.com/aalhour/graphfst/internal/consolidateset"
	"github.com/aalhour/graphfst/internal/fstset"
	"github.com/aalhour/graphfst/internal/journal"
)

// Limits bounds how many terms a handle may accumulate and how large its
// on-disk FST may already be before further pushes are refused. MaxWords is
// checked separately against the pending pushes and against the durable
// term count; their sum is not capped.
type Limits struct {
	MaxWords   int
	MaxSizeKiB int64
}

func (l Limits) maxSizeBytes() int64 {
	return l.MaxSizeKiB * 1024
}

// Handle owns one graph's durable set and pending journal.
type Handle struct {
	key atom.Key

	mu  sync.RWMutex // guards set, swapped out wholesale after consolidation
	set *fstset.Set

	journal *journal.Journal

	lastUsed         atomic.Int64
	lastConsolidated atomic.Int64
}

// New wraps an already-opened set for key. lastUsed and lastConsolidated
// start at the current time.
func New(key atom.Key, set *fstset.Set, now time.Time) *Handle {
	h := &Handle{key: key, set: set, journal: journal.New()}
	h.lastUsed.Store(now.UnixNano())
	h.lastConsolidated.Store(now.UnixNano())
	return h
}

// Key returns the (collection, bucket) atom pair this handle serves.
func (h *Handle) Key() atom.Key { return h.key }

// Journal returns the handle's pending push/pop journal.
func (h *Handle) Journal() *journal.Journal { return h.journal }

// Touch bumps last-used to now, called on every acquire.
func (h *Handle) Touch(now time.Time) { h.lastUsed.Store(now.UnixNano()) }

// LastUsed returns the last time this handle was acquired.
func (h *Handle) LastUsed() time.Time { return time.Unix(0, h.lastUsed.Load()) }

// LastConsolidated returns the last time this handle was scheduled for, or
// completed, consolidation.
func (h *Handle) LastConsolidated() time.Time { return time.Unix(0, h.lastConsolidated.Load()) }

// SwapSet installs newSet as the handle's durable view, called by the
// consolidator after a successful rename. The caller is responsible for
// closing the old set only after no reader can still observe it; SwapSet
// returns it so the caller can close it once safe.
func (h *Handle) SwapSet(newSet *fstset.Set) (old *fstset.Set) {
	h.mu.Lock()
	defer h.mu.Unlock()
	old, h.set = h.set, newSet
	return old
}

// Close releases the handle's current durable set. Called only once the
// handle has been removed from the pool registry and no reader can still
// reach it (restore's force-close, or pool teardown).
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.set.Close()
}

func (h *Handle) withSet(fn func(*fstset.Set)) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	fn(h.set)
}

// Cardinality returns the number of terms in the durable FST. Pending
// journal terms are not counted.
func (h *Handle) Cardinality() uint64 {
	var n uint64
	h.withSet(func(s *fstset.Set) { n = s.Cardinality() })
	return n
}

// SizeBytes returns the on-disk size of the durable FST.
func (h *Handle) SizeBytes() int64 {
	var n int64
	h.withSet(func(s *fstset.Set) { n = s.SizeBytes() })
	return n
}

// Contains reports whether term is present in the durable FST (pending
// journal state is not consulted).
func (h *Handle) Contains(term []byte) bool {
	var ok bool
	h.withSet(func(s *fstset.Set) { ok = s.Contains(term) })
	return ok
}

// Stream enumerates every durable term in ascending order.
func (h *Handle) Stream(fn func(term []byte) bool) error {
	var err error
	h.withSet(func(s *fstset.Set) { err = s.Stream(fn) })
	return err
}

// LookupBegins streams every durable term beginning with word, restricted
// to characters in unicodeClass (the tokenizer's accepted alphabet — never
// ".*").
func (h *Handle) LookupBegins(word, unicodeClass string, fn func(term []byte) bool) error {
	var err error
	h.withSet(func(s *fstset.Set) { err = s.SearchPrefix(word, unicodeClass, fn) })
	return err
}

// TypoDistance computes the bounded edit distance used by LookupTypos:
// 0 for words of length <= 3, 1 for <= 6, 2 for <= 9, 3 otherwise, capped
// by maxFactor when it is non-nil and smaller.
func TypoDistance(word string, maxFactor *uint8) uint8 {
	n := len([]rune(word))
	var d uint8
	switch {
	case n <= 3:
		d = 0
	case n <= 6:
		d = 1
	case n <= 9:
		d = 2
	default:
		d = 3
	}
	if maxFactor != nil && *maxFactor < d {
		d = *maxFactor
	}
	return d
}

// LookupTypos streams every durable term within TypoDistance(word,
// maxFactor) edits of word.
func (h *Handle) LookupTypos(word string, maxFactor *uint8, fn func(term []byte) bool) error {
	d := TypoDistance(word, maxFactor)
	var err error
	h.withSet(func(s *fstset.Set) { err = s.SearchFuzzy(word, d, fn) })
	return err
}

// ScheduleConsolidation debounces: if the key is not already pending in
// set, it is added and last-consolidated is bumped to now, pushing the
// next eligible consolidation time further out.
func (h *Handle) ScheduleConsolidation(set *consolidateset.Set, now time.Time) {
	if !set.Contains(h.key) {
		set.Add(h.key)
		h.lastConsolidated.Store(now.UnixNano())
	}
}

// PushWord implements the push_word action against this handle: the
// cancellation, membership, and capacity checks live here since they need
// both the durable set and the pending journal. length validation
// (WordLimitLength) is the caller's (root package's) responsibility.
func (h *Handle) PushWord(term string, limits Limits, consolSet *consolidateset.Set, now time.Time) bool {
	if h.journal.PendingPop(term) {
		h.removePendingPop(term)
		return true
	}
	if h.Contains([]byte(term)) {
		return false
	}
	if h.journal.PendingPush(term) {
		return false
	}
	pushes, _ := h.journal.Len()
	if pushes >= limits.MaxWords {
		return false
	}
	if h.Cardinality() >= uint64(limits.MaxWords) {
		return false
	}
	if limits.maxSizeBytes() > 0 && h.SizeBytes() >= limits.maxSizeBytes() {
		return false
	}
	h.journal.Push(term)
	h.ScheduleConsolidation(consolSet, now)
	return true
}

// removePendingPop cancels a pending pop without re-queuing it as a push,
// which Journal.Push would otherwise do as a side effect.
func (h *Handle) removePendingPop(term string) {
	h.journal.Clear(nil, []string{term})
}

// PopWord implements the pop_word action against this handle.
func (h *Handle) PopWord(term string, consolSet *consolidateset.Set, now time.Time) bool {
	if h.journal.PendingPush(term) {
		h.journal.Clear([]string{term}, nil)
		return true
	}
	if h.Contains([]byte(term)) && !h.journal.PendingPop(term) {
		h.journal.Pop(term)
		h.ScheduleConsolidation(consolSet, now)
		return true
	}
	return false
}

// String renders the handle's key for logging.
func (h *Handle) String() string {
	return fmt.Sprintf("graph(%s)", h.key)
}
