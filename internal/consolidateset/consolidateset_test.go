package consolidateset

import (
	"testing"

	"github.com/aalhour/graphfst/internal/atom"
)

func TestAddContainsRemove(t *testing.T) {
	s := New()
	k := atom.KeyFromNames("c1", "b1")
	if s.Contains(k) {
		t.Fatalf("Contains() = true before Add")
	}
	s.Add(k)
	if !s.Contains(k) {
		t.Fatalf("Contains() = false after Add")
	}
	s.Remove(k)
	if s.Contains(k) {
		t.Fatalf("Contains() = true after Remove")
	}
}

func TestDrainEmptiesAndReturnsAll(t *testing.T) {
	s := New()
	keys := []atom.Key{
		atom.KeyFromNames("c1", "b1"),
		atom.KeyFromNames("c1", "b2"),
		atom.KeyFromNames("c2", "b1"),
	}
	for _, k := range keys {
		s.Add(k)
	}
	if got := s.Len(); got != len(keys) {
		t.Fatalf("Len() = %d, want %d", got, len(keys))
	}

	drained := s.Drain()
	if len(drained) != len(keys) {
		t.Fatalf("Drain() returned %d keys, want %d", len(drained), len(keys))
	}
	if s.Len() != 0 {
		t.Fatalf("Len() after Drain() = %d, want 0", s.Len())
	}
	for _, k := range keys {
		if s.Contains(k) {
			t.Fatalf("Contains(%v) = true after Drain", k)
		}
	}
}

func TestDrainOnEmptySetReturnsNil(t *testing.T) {
	s := New()
	if drained := s.Drain(); drained != nil {
		t.Fatalf("Drain() on empty set = %v, want nil", drained)
	}
}

func TestKeysDoesNotRemove(t *testing.T) {
	s := New()
	k := atom.KeyFromNames("c1", "b1")
	s.Add(k)
	keys := s.Keys()
	if len(keys) != 1 || keys[0] != k {
		t.Fatalf("Keys() = %v, want [%v]", keys, k)
	}
	if !s.Contains(k) {
		t.Fatalf("Keys() removed the key, want it to remain pending")
	}
}

func TestAddDuringDrainIsNotLost(t *testing.T) {
	s := New()
	k1 := atom.KeyFromNames("c1", "b1")
	k2 := atom.KeyFromNames("c1", "b2")
	s.Add(k1)
	_ = s.Drain()
	s.Add(k2) // arrives "during" a hypothetical overlapping sweep
	if !s.Contains(k2) {
		t.Fatalf("key added after Drain was lost")
	}
}
