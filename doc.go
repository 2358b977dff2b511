/*
Package graphfst implements the suggestion/search graph store of a
lightweight, schema-less search backend.

For each logical (collection, bucket) pair the store keeps an immutable
on-disk ordered set of terms (an FST) together with an in-memory journal
of pending pushes and pops. Clients push or pop terms concurrently; a
background consolidation task periodically rewrites the on-disk FST to
reflect the accumulated pending changes. Clients also run prefix
("begins-with") and fuzzy (bounded edit-distance) queries against the
on-disk FST.

# Usage

A Store owns one pool of graph handles rooted at a configured directory.
Construct one with Open, then drive it with PushWord/PopWord/SuggestWords
and periodically call Consolidate and Janitor (typically from a ticker
goroutine the embedder owns — this package does not start its own).

# Concurrency

A Store is safe for concurrent use by multiple goroutines. Consolidate and
Janitor are not re-entrant with themselves, but may run concurrently with
any action verb.

# Compatibility

The on-disk FST format is whatever github.com/blevesearch/vellum defines;
only this implementation's own writer and reader are guaranteed to agree.
Backups are format-independent: one term per line, ascending
byte-lexicographic order.
*/
package graphfst
