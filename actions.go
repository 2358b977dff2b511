package graphfst

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/aalhour/graphfst/internal/dump"
	"github.com/aalhour/graphfst/internal/graph"
	"github.com/aalhour/graphfst/internal/vfs"
)

func (s *Store) limits() graph.Limits {
	return graph.Limits{
		MaxWords:   s.cfg.MaxWords,
		MaxSizeKiB: s.cfg.MaxSizeKiB,
	}
}

// PushWord schedules term for insertion into (collection, bucket). It
// returns false if term exceeds WordLimitLength, if it is already present
// or already pending, or if the bucket's pending/word/size caps are
// already exhausted. A pending pop of the same term is cancelled and
// counted as a successful push.
func (s *Store) PushWord(collection, bucket, term string) bool {
	if len(term) > WordLimitLength {
		return false
	}
	h, err := s.pool.Acquire(collection, bucket)
	if err != nil {
		return false
	}
	return h.PushWord(term, s.limits(), s.pool.ConsolidateSet(), time.Now())
}

// PopWord schedules term for deletion from (collection, bucket). It
// returns false if term exceeds WordLimitLength, or if it is neither
// pending nor present on disk. A pending push of the same term is
// cancelled and counted as a successful pop.
func (s *Store) PopWord(collection, bucket, term string) bool {
	if len(term) > WordLimitLength {
		return false
	}
	h, err := s.pool.Acquire(collection, bucket)
	if err != nil {
		return false
	}
	return h.PopWord(term, s.pool.ConsolidateSet(), time.Now())
}

// SuggestWords returns up to limit distinct terms beginning with from,
// topped up with fuzzy matches (bounded by maxTypoFactor, if non-nil)
// when the prefix search alone yields fewer than limit. unicodeClass is
// the tokenizer's accepted alphabet as a regex character class (e.g.
// "a-z0-9"), supplied by the caller — the tokenizer itself is outside
// this package's scope. Returns nil if neither search yields any term.
func (s *Store) SuggestWords(collection, bucket, from, unicodeClass string, limit int, maxTypoFactor *uint8) ([]string, error) {
	if len(from) > WordLimitLength || limit <= 0 {
		return nil, nil
	}
	h, err := s.pool.Acquire(collection, bucket)
	if err != nil {
		return nil, fmt.Errorf("graphfst: suggest_words: %w", err)
	}

	seen := make(map[string]struct{}, limit)
	var out []string

	appendUnique := func(term []byte) bool {
		t := string(term)
		if _, ok := seen[t]; ok {
			return len(out) < limit
		}
		seen[t] = struct{}{}
		out = append(out, t)
		return len(out) < limit
	}

	if err := h.LookupBegins(from, unicodeClass, appendUnique); err != nil {
		// RegexBuildFailure: treated as an empty prefix result; the
		// fuzzy top-up below may still recover matches.
		out = nil
	}
	if len(out) < limit {
		if err := h.LookupTypos(from, maxTypoFactor, appendUnique); err != nil {
			return out, fmt.Errorf("graphfst: suggest_words: fuzzy lookup: %w", err)
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// ListWords enumerates every durable term in (collection, bucket),
// skipping offset entries and returning at most limit (a limit of zero or
// less returns every remaining term). Fails the whole call if any term is
// not valid UTF-8.
func (s *Store) ListWords(collection, bucket string, limit, offset int) ([]string, error) {
	h, err := s.pool.Acquire(collection, bucket)
	if err != nil {
		return nil, fmt.Errorf("graphfst: list_words: %w", err)
	}

	var out []string
	skipped := 0
	var streamErr error
	err = h.Stream(func(term []byte) bool {
		if !utf8.Valid(term) {
			streamErr = fmt.Errorf("graphfst: list_words: %w: %q", ErrInvalidUTF8, term)
			return false
		}
		if skipped < offset {
			skipped++
			return true
		}
		out = append(out, string(term))
		return limit <= 0 || len(out) < limit
	})
	if streamErr != nil {
		return nil, streamErr
	}
	if err != nil {
		return nil, fmt.Errorf("graphfst: list_words: %w", err)
	}
	return out, nil
}

// CountWords returns the cardinality of the durable FST for (collection,
// bucket). Pending terms are not counted.
func (s *Store) CountWords(collection, bucket string) (uint64, error) {
	h, err := s.pool.Acquire(collection, bucket)
	if err != nil {
		return 0, fmt.Errorf("graphfst: count_words: %w", err)
	}
	return h.Cardinality(), nil
}

// CountCollectionBuckets returns the number of permanent bucket files
// under collection.
func (s *Store) CountCollectionBuckets(collection string) (int, error) {
	return s.pool.CountBuckets(collection)
}

// EraseCollection closes every live handle for collection, removes them
// from the pool, and deletes the collection directory. Returns 1 if the
// directory existed, 0 otherwise.
func (s *Store) EraseCollection(collection string) (int, error) {
	return s.pool.EraseCollection(collection)
}

// EraseBucket closes the handle for (collection, bucket), removes it
// from the pool, and deletes the permanent file. Returns 1 if the file
// existed, 0 otherwise.
func (s *Store) EraseBucket(collection, bucket string) (int, error) {
	return s.pool.EraseBucket(collection, bucket)
}

// Backup walks the permanent FST tree and writes one text-line dump per
// bucket under dest. Structured errors are returned here, unlike the
// action verbs above, since Backup/Restore is the administrative path
// that needs diagnostics.
func (s *Store) Backup(fs vfs.FS, dest string) error {
	return dump.Backup(fs, s.pool.Resolver(), s.cfg.Path, dest, nil)
}

// Restore walks src for backup text dumps and rebuilds the permanent FST
// for each, force-closing any live handle first.
func (s *Store) Restore(fs vfs.FS, src string) error {
	return dump.Restore(s.pool, fs, s.pool.Resolver(), src, nil)
}

// Consolidate runs one consolidation sweep. With force=false, only keys
// past their debounce window are merged; with force=true, every pending
// key is merged regardless of age.
func (s *Store) Consolidate(ctx context.Context, force bool) error {
	return s.consolidator.Run(ctx, force)
}

// Janitor evicts every handle idle past cfg.InactiveAfter and returns the
// number evicted.
func (s *Store) Janitor() int {
	return s.pool.Janitor()
}

// PoolCount returns the number of live handles and the number of keys
// currently pending consolidation.
func (s *Store) PoolCount() (live, pending int) {
	return s.pool.Count(), s.pool.PendingCount()
}
