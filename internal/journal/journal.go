// Package journal holds the two in-memory pending-term sets — push and pop —
// that sit in front of a graph's durable FST between consolidations. Writes
// land here first; the consolidator drains both sets into the next FST
// generation.
//
// Grounded on rockyardkv's internal/batch write-buffer (a mutable staging
// area consulted before falling through to durable storage) generalized
// from one buffer to the push/pop pair the design calls for, since a term
// store needs to remember both "not yet durable" and "durable but about to
// be removed" states independently.
package journal

import (
	"sort"
	"sync"
)

// Journal is the set of pending pushes and pops for one graph, guarded by a
// single RWMutex since the two sets are always inspected or mutated
// together (insert into one must cancel any pending entry in the other).
type Journal struct {
	mu   sync.RWMutex
	push map[string]struct{}
	pop  map[string]struct{}
}

// New returns an empty Journal.
func New() *Journal {
	return &Journal{
		push: make(map[string]struct{}),
		pop:  make(map[string]struct{}),
	}
}

// Push marks term as pending insertion, cancelling any pending pop of the
// same term.
func (j *Journal) Push(term string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.pop, term)
	j.push[term] = struct{}{}
}

// Pop marks term as pending removal, cancelling any pending push of the
// same term.
func (j *Journal) Pop(term string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	delete(j.push, term)
	j.pop[term] = struct{}{}
}

// PendingPush reports whether term is queued for insertion.
func (j *Journal) PendingPush(term string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, ok := j.push[term]
	return ok
}

// PendingPop reports whether term is queued for removal.
func (j *Journal) PendingPop(term string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, ok := j.pop[term]
	return ok
}

// Len returns the number of pending pushes and pops.
func (j *Journal) Len() (pushes, pops int) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.push), len(j.pop)
}

// Snapshot returns sorted copies of the pending push and pop terms, for the
// consolidator's streaming merge. The Journal is not cleared; the caller
// clears the snapshotted terms once its merge attempt ends, whether or not
// the new FST generation landed (see Clear).
func (j *Journal) Snapshot() (pushes, pops []string) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	pushes = sortedKeys(j.push)
	pops = sortedKeys(j.pop)
	return pushes, pops
}

// Clear removes exactly the given pushed/popped terms from the journal,
// leaving untouched any term pushed or popped again after the snapshot was
// taken (it would otherwise be lost if a caller naively wiped the whole
// journal post-consolidation).
func (j *Journal) Clear(pushes, pops []string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, term := range pushes {
		delete(j.push, term)
	}
	for _, term := range pops {
		delete(j.pop, term)
	}
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
