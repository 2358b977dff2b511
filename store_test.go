package graphfst

import (
	"context"
	"testing"

	"github.com/aalhour/graphfst/internal/vfs"
)

const testUnicodeClass = "a-z"

func newTestStore(t *testing.T, mutate func(*Config)) *Store {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Path = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}
	return Open(vfs.Default(), cfg, nil, nil)
}

func containsAll(got []string, want ...string) bool {
	set := make(map[string]struct{}, len(got))
	for _, g := range got {
		set[g] = struct{}{}
	}
	for _, w := range want {
		if _, ok := set[w]; !ok {
			return false
		}
	}
	return true
}

// Scenario 1: prefix then fuzzy (spec.md §8 scenario 1).
func TestStorePrefixThenFuzzy(t *testing.T) {
	s := newTestStore(t, nil)
	for _, term := range []string{"hello", "help", "world"} {
		if !s.PushWord("c1", "b1", term) {
			t.Fatalf("PushWord(%q) refused", term)
		}
	}
	if err := s.Consolidate(context.Background(), true); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	got, err := s.SuggestWords("c1", "b1", "hel", testUnicodeClass, 10, nil)
	if err != nil {
		t.Fatalf("SuggestWords: %v", err)
	}
	if !containsAll(got, "hello", "help") {
		t.Fatalf("SuggestWords(hel) = %v, want it to contain hello and help", got)
	}

	got, err = s.SuggestWords("c1", "b1", "helo", testUnicodeClass, 10, nil)
	if err != nil {
		t.Fatalf("SuggestWords: %v", err)
	}
	if !containsAll(got, "hello", "help") {
		t.Fatalf("SuggestWords(helo) = %v, want fuzzy top-up to include hello and help", got)
	}
}

// Scenario 2: cancellation (spec.md §8 scenario 2).
func TestStoreCancellation(t *testing.T) {
	s := newTestStore(t, nil)
	if !s.PushWord("c1", "b1", "apple") {
		t.Fatalf("PushWord refused")
	}
	if !s.PopWord("c1", "b1", "apple") {
		t.Fatalf("PopWord refused")
	}
	if err := s.Consolidate(context.Background(), true); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	n, err := s.CountWords("c1", "b1")
	if err != nil {
		t.Fatalf("CountWords: %v", err)
	}
	if n != 0 {
		t.Fatalf("CountWords() = %d, want 0", n)
	}
}

// Scenario 3: cap truncation (spec.md §8 scenario 3).
func TestStoreCapTruncation(t *testing.T) {
	s := newTestStore(t, func(c *Config) { c.MaxWords = 3 })
	for _, term := range []string{"a", "b", "c", "d"} {
		s.PushWord("c1", "b1", term)
	}
	if err := s.Consolidate(context.Background(), true); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	n, err := s.CountWords("c1", "b1")
	if err != nil {
		t.Fatalf("CountWords: %v", err)
	}
	if n != 3 {
		t.Fatalf("CountWords() = %d, want 3", n)
	}
	words, err := s.ListWords("c1", "b1", 0, 0)
	if err != nil {
		t.Fatalf("ListWords: %v", err)
	}
	for _, w := range words {
		if w == "d" {
			t.Fatalf("ListWords() = %v, want the fourth term truncated", words)
		}
	}
}

// Scenario 4: atomicity under crash simulation (spec.md §8 scenario 4).
func TestStoreConsolidateSurvivesCreateFailure(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.Path = root

	seed := Open(vfs.Default(), cfg, nil, nil)
	seed.PushWord("c1", "b1", "alpha")
	seed.PushWord("c1", "b1", "beta")
	if err := seed.Consolidate(context.Background(), true); err != nil {
		t.Fatalf("seed Consolidate: %v", err)
	}
	before, err := seed.ListWords("c1", "b1", 0, 0)
	if err != nil {
		t.Fatalf("ListWords: %v", err)
	}

	faultyFS := vfs.NewFaultInjectionFS(vfs.Default())
	faultyFS.InjectWriteError("") // fails every Create, simulating a crash mid-consolidation
	faulty := Open(faultyFS, cfg, nil, nil)
	faulty.PushWord("c1", "b1", "gamma")
	if err := faulty.Consolidate(context.Background(), true); err != nil {
		t.Fatalf("Consolidate with injected fault: %v", err)
	}

	after, err := seed.ListWords("c1", "b1", 0, 0)
	if err != nil {
		t.Fatalf("ListWords after faulty consolidate: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("old FST was modified despite a write failure: before=%v after=%v", before, after)
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("old FST was modified despite a write failure: before=%v after=%v", before, after)
		}
	}
}

// Scenario 5: erase (spec.md §8 scenario 5).
func TestStoreErase(t *testing.T) {
	s := newTestStore(t, nil)
	s.PushWord("c1", "b1", "x")
	s.PushWord("c1", "b2", "y")
	if err := s.Consolidate(context.Background(), true); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	n, err := s.EraseCollection("c1")
	if err != nil {
		t.Fatalf("EraseCollection: %v", err)
	}
	if n != 1 {
		t.Fatalf("EraseCollection() = %d, want 1", n)
	}

	count, err := s.CountWords("c1", "b1")
	if err != nil {
		t.Fatalf("CountWords: %v", err)
	}
	if count != 0 {
		t.Fatalf("CountWords() after erase = %d, want 0 (fresh empty handle)", count)
	}
}

// Scenario 6: restore (spec.md §8 scenario 6).
func TestStoreBackupThenRestore(t *testing.T) {
	s := newTestStore(t, nil)
	for _, term := range []string{"c", "a", "b"} {
		s.PushWord("c1", "b1", term)
	}
	if err := s.Consolidate(context.Background(), true); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}

	dest := t.TempDir()
	if err := s.Backup(vfs.Default(), dest); err != nil {
		t.Fatalf("Backup: %v", err)
	}

	if _, err := s.EraseBucket("c1", "b1"); err != nil {
		t.Fatalf("EraseBucket: %v", err)
	}

	if err := s.Restore(vfs.Default(), dest); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	words, err := s.ListWords("c1", "b1", 0, 0)
	if err != nil {
		t.Fatalf("ListWords: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(words) != len(want) {
		t.Fatalf("ListWords() = %v, want %v", words, want)
	}
	for i := range want {
		if words[i] != want[i] {
			t.Fatalf("ListWords() = %v, want %v", words, want)
		}
	}
}

func TestStorePushWordRejectsOverlongTerm(t *testing.T) {
	s := newTestStore(t, nil)
	overlong := make([]byte, WordLimitLength+1)
	for i := range overlong {
		overlong[i] = 'a'
	}
	if s.PushWord("c1", "b1", string(overlong)) {
		t.Fatalf("PushWord accepted a %d-byte term, want rejection over %d", len(overlong), WordLimitLength)
	}

	exact := make([]byte, WordLimitLength)
	for i := range exact {
		exact[i] = 'a'
	}
	if !s.PushWord("c1", "b1", string(exact)) {
		t.Fatalf("PushWord rejected an exactly-%d-byte term", WordLimitLength)
	}
}

func TestStorePoolCount(t *testing.T) {
	s := newTestStore(t, nil)
	s.PushWord("c1", "b1", "x")
	s.PushWord("c1", "b2", "y")
	live, pending := s.PoolCount()
	if live != 2 {
		t.Fatalf("PoolCount live = %d, want 2", live)
	}
	if pending != 2 {
		t.Fatalf("PoolCount pending = %d, want 2", pending)
	}
}

func TestStoreJanitorEvictsIdleHandles(t *testing.T) {
	s := newTestStore(t, func(c *Config) { c.InactiveAfter = 0 })
	s.PushWord("c1", "b1", "x")
	evicted := s.Janitor()
	if evicted != 1 {
		t.Fatalf("Janitor() = %d, want 1", evicted)
	}
	live, _ := s.PoolCount()
	if live != 0 {
		t.Fatalf("PoolCount live after janitor = %d, want 0", live)
	}
}

func TestStoreCountCollectionBuckets(t *testing.T) {
	s := newTestStore(t, nil)
	s.PushWord("c1", "b1", "x")
	s.PushWord("c1", "b2", "y")
	if err := s.Consolidate(context.Background(), true); err != nil {
		t.Fatalf("Consolidate: %v", err)
	}
	n, err := s.CountCollectionBuckets("c1")
	if err != nil {
		t.Fatalf("CountCollectionBuckets: %v", err)
	}
	if n != 2 {
		t.Fatalf("CountCollectionBuckets() = %d, want 2", n)
	}
}
