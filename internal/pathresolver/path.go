// Package pathresolver maps a (mode, collection atom, bucket atom) triple
// onto a filesystem path under a configured root.
//
// Layout: <root>/<hex collection>/<hex bucket><ext>. Extensions distinguish
// the three file modes a bucket can be addressed by.
package pathresolver

import (
	"path/filepath"
	"strings"

	"github.com/aalhour/graphfst/internal/atom"
)

// Mode selects which on-disk file a bucket path refers to.
type Mode int

const (
	// Permanent is the durable, consolidated FST: "<bucket>.fst".
	Permanent Mode = iota
	// Temporary is the in-progress consolidation output: "<bucket>.fst.tmp".
	Temporary
	// Backup is the text-line dump: "<bucket>.fst.bck".
	Backup
)

// ext returns the Mode's filename extension.
func (m Mode) ext() string {
	switch m {
	case Permanent:
		return ".fst"
	case Temporary:
		return ".fst.tmp"
	case Backup:
		return ".fst.bck"
	default:
		panic("pathresolver: unknown mode")
	}
}

// Resolver resolves graph keys to paths rooted at Root.
type Resolver struct {
	Root string
}

// New returns a Resolver rooted at root.
func New(root string) *Resolver {
	return &Resolver{Root: root}
}

// CollectionDir returns "<root>/<hex collection>".
func (r *Resolver) CollectionDir(collection atom.Atom) string {
	return filepath.Join(r.Root, collection.String())
}

// BucketPath returns "<root>/<hex collection>/<hex bucket><ext(mode)>".
func (r *Resolver) BucketPath(mode Mode, collection, bucket atom.Atom) string {
	return filepath.Join(r.CollectionDir(collection), bucket.String()+mode.ext())
}

// KeyBucketPath is a convenience wrapper taking an atom.Key.
func (r *Resolver) KeyBucketPath(mode Mode, key atom.Key) string {
	return r.BucketPath(mode, key.Collection, key.Bucket)
}

// IsPermanentName reports whether name (a directory entry's base name) is a
// permanent FST file, as opposed to a ".fst.tmp", ".fst.bck", or
// ".fst.chk" sibling.
func IsPermanentName(name string) bool {
	return strings.HasSuffix(name, Permanent.ext()) &&
		!strings.HasSuffix(name, Temporary.ext()) &&
		!strings.HasSuffix(name, Backup.ext()) &&
		!strings.HasSuffix(name, ".fst.chk")
}
