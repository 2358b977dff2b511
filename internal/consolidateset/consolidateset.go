// Package consolidateset is the pool-wide CONSOLIDATE_SET: the set of graph
// keys a push or pop has touched since their last consolidation, from which
// the consolidator removes each key it selects on its next run. It exists so a busy graph is
// consolidated once per sweep no matter how many pushes landed on it,
// rather than once per push.
//
// Grounded on rockyardkv's internal/flush scheduling set (a dirty-memtable
// registry the flush loop drains), generalized here from "dirty memtable"
// to "graph with pending journal entries".
package consolidateset

import (
	"sync"

	"github.com/aalhour/graphfst/internal/atom"
)

// Set is a thread-safe collection of pending graph keys.
type Set struct {
	mu      sync.Mutex
	pending map[atom.Key]struct{}
}

// New returns an empty Set.
func New() *Set {
	return &Set{pending: make(map[atom.Key]struct{})}
}

// Add marks key as pending consolidation.
func (s *Set) Add(key atom.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = struct{}{}
}

// Remove clears key, typically called once its consolidation has completed
// (successfully or not — a future push re-adds it).
func (s *Set) Remove(key atom.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, key)
}

// Contains reports whether key is pending.
func (s *Set) Contains(key atom.Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Drain atomically empties the set and returns every key that was pending,
// in no particular order; keys added afterwards land in a fresh, empty set.
// The consolidator does not call it: it reads Keys and then Removes only the
// keys it selects.
func (s *Set) Drain() []atom.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	out := make([]atom.Key, 0, len(s.pending))
	for k := range s.pending {
		out = append(out, k)
	}
	s.pending = make(map[atom.Key]struct{})
	return out
}

// Keys returns a snapshot of every pending key, in no particular order,
// without removing them. Used by the consolidator's selection phase, which
// must choose a subset (by eligibility) before removing only that subset —
// unlike Drain, which always empties the whole set.
func (s *Set) Keys() []atom.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) == 0 {
		return nil
	}
	out := make([]atom.Key, 0, len(s.pending))
	for k := range s.pending {
		out = append(out, k)
	}
	return out
}

// Len reports the number of pending keys.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
