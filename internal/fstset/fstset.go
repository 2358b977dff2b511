// Package fstset wraps github.com/blevesearch/vellum to provide the FST set
// abstraction described in the design: a lexicographically ordered,
// immutable set of byte-string terms persisted as a single memory-mapped
// file, built by a single streaming append-only pass, and queryable by full
// enumeration, prefix automaton, or bounded edit-distance automaton.
//
// original_source/src/store/fst.rs built this on Rust's `fst` crate; vellum
// is the idiomatic Go analogue — same on-disk philosophy (append-only
// builder over strictly ascending keys, mmap-backed reader, automaton-
// driven filtered iteration) — and is the only FST implementation anywhere
// in the example pack, so it is the obvious domain-required addition rather
// than something grounded on a teacher file.
package fstset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/blevesearch/vellum"
	"github.com/blevesearch/vellum/levenshtein"
	vregexp "github.com/blevesearch/vellum/regexp"
)

// ErrRegexBuild is returned when a prefix query's generated automaton fails
// to compile (e.g. the tokenizer's character class contains characters that
// are not valid inside a regex character class).
var ErrRegexBuild = errors.New("fstset: regex automaton build failed")

// Set is a read-only view of an on-disk (or synthetic empty) FST.
//
// The zero value, and the value returned when the backing file does not
// exist, is a valid empty set: cardinality zero, an empty stream, no
// matches. This mirrors the spec's requirement that Open() synthesize an
// empty ordered set "without touching disk" when the permanent file is
// absent.
type Set struct {
	fst       *vellum.FST
	sizeBytes int64
}

// Open opens path as a memory-mapped FST. If path does not exist, Open
// returns an empty Set without touching disk. Any other stat/open failure
// is returned as an error (spec's GraphOpenFailure).
func Open(path string) (*Set, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Set{}, nil
		}
		return nil, fmt.Errorf("fstset: stat %s: %w", path, err)
	}
	fst, err := vellum.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fstset: open %s: %w", path, err)
	}
	return &Set{fst: fst, sizeBytes: info.Size()}, nil
}

// SizeBytes returns the on-disk size of the file this set was opened from,
// or 0 for a synthetic empty set. Used by the push-action size-cap check.
func (s *Set) SizeBytes() int64 {
	return s.sizeBytes
}

// Close releases the memory-mapped file, if any. Safe to call on an empty
// Set.
func (s *Set) Close() error {
	if s.fst == nil {
		return nil
	}
	return s.fst.Close()
}

// Cardinality returns the number of terms in the set.
func (s *Set) Cardinality() uint64 {
	if s.fst == nil {
		return 0
	}
	return uint64(s.fst.Len())
}

// Contains reports whether term is a member of the set.
func (s *Set) Contains(term []byte) bool {
	if s.fst == nil {
		return false
	}
	ok, err := s.fst.Contains(term)
	return err == nil && ok
}

// Stream calls fn for every term in ascending byte-lexicographic order,
// stopping early if fn returns false.
func (s *Set) Stream(fn func(term []byte) bool) error {
	if s.fst == nil {
		return nil
	}
	it, err := s.fst.Iterator(nil, nil)
	return drain(it, err, fn)
}

// SearchPrefix builds "<escaped prefix>([unicodeClass]*)" and streams every
// matching term, in ascending order, stopping early if fn returns false.
// unicodeClass is the raw contents of a regex character class (no brackets)
// supplied by the tokenizer — never ".*", to avoid the pathological
// traversal the spec warns against.
func (s *Set) SearchPrefix(prefix, unicodeClass string, fn func(term []byte) bool) error {
	if s.fst == nil {
		return nil
	}
	pattern := regexp.QuoteMeta(prefix) + "([" + unicodeClass + "]*)"
	aut, err := vregexp.New(pattern)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrRegexBuild, pattern, err)
	}
	it, err := s.fst.Search(aut, nil, nil)
	return drain(it, err, fn)
}

// SearchFuzzy streams every term within maxDistance edits of word, in
// ascending order, stopping early if fn returns false.
func (s *Set) SearchFuzzy(word string, maxDistance uint8, fn func(term []byte) bool) error {
	if s.fst == nil {
		return nil
	}
	aut, err := levenshtein.New(word, maxDistance)
	if err != nil {
		return fmt.Errorf("fstset: build levenshtein automaton: %w", err)
	}
	it, err := s.fst.Search(aut, nil, nil)
	return drain(it, err, fn)
}

// drain pulls terms off it (the result of Iterator/Search, plus its error)
// until exhaustion, a real error, or fn asking to stop. vellum signals
// exhaustion for both a never-matching query and a fully-consumed iterator
// via vellum.ErrIteratorDone.
func drain(it *vellum.FSTIterator, err error, fn func(term []byte) bool) error {
	for {
		if errors.Is(err, vellum.ErrIteratorDone) {
			return nil
		}
		if err != nil {
			return err
		}
		key, _ := it.Current()
		term := append([]byte(nil), key...)
		if !fn(term) {
			return nil
		}
		err = it.Next()
	}
}

// Builder streams strictly ascending terms into a new FST file.
type Builder struct {
	vb      *vellum.Builder
	w       io.Closer
	counter *countingWriter
}

// NewBuilder wraps w (typically a freshly created temporary file) with a
// vellum builder. The caller owns closing w; Finish flushes the FST footer
// into w but does not close it.
func NewBuilder(w io.WriteCloser) (*Builder, error) {
	cw := &countingWriter{w: w}
	vb, err := vellum.New(cw, nil)
	if err != nil {
		return nil, fmt.Errorf("fstset: new builder: %w", err)
	}
	return &Builder{vb: vb, w: w, counter: cw}, nil
}

// Insert appends term, which must sort strictly after every previously
// inserted term. An out-of-order insert returns an error without corrupting
// the builder; the caller (the consolidator) is expected to log and skip it
// per the spec's duplicate-handling note rather than treat it as fatal.
func (b *Builder) Insert(term []byte) error {
	return b.vb.Insert(term, 0)
}

// BytesWritten returns the number of bytes written to the underlying writer
// so far, used by the consolidator's size-cap check.
func (b *Builder) BytesWritten() int64 {
	return b.counter.n
}

// Finish flushes and seals the FST. It does not close the underlying
// writer.
func (b *Builder) Finish() error {
	return b.vb.Close()
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
