package fstset

import (
	"os"
	"path/filepath"
	"testing"
)

func buildFile(t *testing.T, path string, terms []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := NewBuilder(f)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	for _, term := range terms {
		if err := b.Insert([]byte(term)); err != nil {
			t.Fatalf("Insert(%q): %v", term, err)
		}
	}
	if err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestOpenMissingFileIsEmptySet(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "absent.fst"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if s.Cardinality() != 0 {
		t.Fatalf("Cardinality() = %d, want 0", s.Cardinality())
	}
	if s.Contains([]byte("anything")) {
		t.Fatalf("Contains() on empty set returned true")
	}
	var seen []string
	if err := s.Stream(func(term []byte) bool { seen = append(seen, string(term)); return true }); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(seen) != 0 {
		t.Fatalf("Stream on empty set yielded %v", seen)
	}
}

func TestBuilderAndOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.fst")
	terms := []string{"apple", "banana", "cherry", "date"}
	buildFile(t, path, terms)

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if got, want := s.Cardinality(), uint64(len(terms)); got != want {
		t.Fatalf("Cardinality() = %d, want %d", got, want)
	}
	for _, term := range terms {
		if !s.Contains([]byte(term)) {
			t.Errorf("Contains(%q) = false, want true", term)
		}
	}
	if s.Contains([]byte("missing")) {
		t.Errorf("Contains(%q) = true, want false", "missing")
	}

	var streamed []string
	if err := s.Stream(func(term []byte) bool { streamed = append(streamed, string(term)); return true }); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(streamed) != len(terms) {
		t.Fatalf("Stream yielded %v, want %v", streamed, terms)
	}
	for i, term := range terms {
		if streamed[i] != term {
			t.Fatalf("Stream[%d] = %q, want %q (terms must come back in sorted order)", i, streamed[i], term)
		}
	}
}

func TestStreamStopsEarly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.fst")
	buildFile(t, path, []string{"a", "b", "c", "d", "e"})
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	var seen []string
	err = s.Stream(func(term []byte) bool {
		seen = append(seen, string(term))
		return len(seen) < 2
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("Stream did not stop early: saw %v", seen)
	}
}

func TestSearchPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.fst")
	buildFile(t, path, []string{"cat", "catalog", "catnip", "dog", "zebra"})
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	var matches []string
	if err := s.SearchPrefix("cat", "a-z", func(term []byte) bool {
		matches = append(matches, string(term))
		return true
	}); err != nil {
		t.Fatalf("SearchPrefix: %v", err)
	}
	want := []string{"cat", "catalog", "catnip"}
	if len(matches) != len(want) {
		t.Fatalf("SearchPrefix matches = %v, want %v", matches, want)
	}
	for i := range want {
		if matches[i] != want[i] {
			t.Fatalf("SearchPrefix matches = %v, want %v", matches, want)
		}
	}
}

func TestSearchPrefixNoMatches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.fst")
	buildFile(t, path, []string{"cat", "dog"})
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	var matches []string
	if err := s.SearchPrefix("zzz", "a-z", func(term []byte) bool {
		matches = append(matches, string(term))
		return true
	}); err != nil {
		t.Fatalf("SearchPrefix: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("SearchPrefix matches = %v, want none", matches)
	}
}

func TestSearchFuzzy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.fst")
	buildFile(t, path, []string{"hello", "helo", "help", "world"})
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	matches := make(map[string]bool)
	if err := s.SearchFuzzy("hello", 1, func(term []byte) bool {
		matches[string(term)] = true
		return true
	}); err != nil {
		t.Fatalf("SearchFuzzy: %v", err)
	}
	for _, want := range []string{"hello", "helo", "help"} {
		if !matches[want] {
			t.Errorf("SearchFuzzy(%q, 1) missing %q in %v", "hello", want, matches)
		}
	}
	if matches["world"] {
		t.Errorf("SearchFuzzy(%q, 1) unexpectedly matched %q", "hello", "world")
	}
}

func TestSizeBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.fst")
	buildFile(t, path, []string{"apple", "banana"})
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if s.SizeBytes() <= 0 {
		t.Fatalf("SizeBytes() = %d, want > 0", s.SizeBytes())
	}

	empty, err := Open(filepath.Join(t.TempDir(), "absent.fst"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer empty.Close()
	if empty.SizeBytes() != 0 {
		t.Fatalf("SizeBytes() on empty set = %d, want 0", empty.SizeBytes())
	}
}

func TestInsertOutOfOrderDoesNotCorruptBuilder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.fst")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	b, err := NewBuilder(f)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if err := b.Insert([]byte("banana")); err != nil {
		t.Fatalf("Insert(banana): %v", err)
	}
	if err := b.Insert([]byte("apple")); err == nil {
		t.Fatalf("Insert(apple) after banana: want out-of-order error, got nil")
	}
	if err := b.Insert([]byte("cherry")); err != nil {
		t.Fatalf("Insert(cherry) after rejected out-of-order insert: %v", err)
	}
	if err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()
	if !s.Contains([]byte("banana")) || !s.Contains([]byte("cherry")) {
		t.Fatalf("expected banana and cherry to survive the rejected insert")
	}
	if s.Contains([]byte("apple")) {
		t.Fatalf("apple should have been rejected, not silently inserted")
	}
}

func TestBuilderBytesWrittenGrows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.fst")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	b, err := NewBuilder(f)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	before := b.BytesWritten()
	for _, term := range []string{"aaaaaaaaaa", "bbbbbbbbbb", "cccccccccc"} {
		if err := b.Insert([]byte(term)); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}
	if err := b.Finish(); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if after := b.BytesWritten(); after <= before {
		t.Fatalf("BytesWritten() did not grow: before=%d after=%d", before, after)
	}
}
