// Package atom implements the deterministic name-to-integer folding used to
// turn human-readable collection/bucket names into fixed-width identifiers
// that are cheap to use as map keys and filesystem path components.
//
// Reference: rockyardkv's internal/checksum package established the pattern
// of wrapping a single well-known hash primitive behind a small typed API;
// atom follows the same shape but folds names (not blocks) to 32 bits via
// the real github.com/zeebo/xxh3 implementation rather than a hand-rolled
// one, since the fold only needs to be stable, not block-checksum-grade.
package atom

import (
	"fmt"
	"strconv"

	"github.com/zeebo/xxh3"
)

// Atom is a 32-bit compact hash of a name string.
type Atom uint32

// Hash folds name into an Atom. Any stable, deterministic byte-string to
// uint32 map is permitted by the spec; this implementation truncates the
// 64-bit xxh3 digest to its low 32 bits.
func Hash(name string) Atom {
	return Atom(uint32(xxh3.HashString(name)))
}

// String renders the atom as lowercase hex, unpadded.
func (a Atom) String() string {
	return fmt.Sprintf("%x", uint32(a))
}

// ParseHex parses the hex rendering produced by String back into an Atom.
// Used by dump/restore, which addresses buckets by their on-disk hex name
// rather than by an original (collection, bucket) name pair — the fold in
// Hash is one-way, so a restored bucket is identified by Atom, never by name.
func ParseHex(s string) (Atom, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("atom: parse hex %q: %w", s, err)
	}
	return Atom(uint32(v)), nil
}

// Key is the pair (collection atom, bucket atom) that identifies one graph.
type Key struct {
	Collection Atom
	Bucket     Atom
}

// KeyFromNames folds a (collection, bucket) name pair into a Key.
func KeyFromNames(collection, bucket string) Key {
	return Key{Collection: Hash(collection), Bucket: Hash(bucket)}
}

// String renders the key as "<hex-collection>/<hex-bucket>".
func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Collection, k.Bucket)
}
