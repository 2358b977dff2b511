package graphfst

import "errors"

// Sentinel errors of the graphfst package. Action-layer verbs (PushWord,
// PopWord, ...) report failure as a plain bool/nil, per the action
// surface's error policy: structured errors are reserved for the
// administrative path and for ListWords.
var (
	// ErrTermTooLong describes a term longer than WordLimitLength.
	// PushWord/PopWord/SuggestWords report such a term as a plain
	// rejection (false/nil); no Store verb returns this error.
	ErrTermTooLong = errors.New("graphfst: term exceeds word limit length")

	// ErrInvalidUTF8 is returned by ListWords when the on-disk FST yields
	// a byte string that is not valid UTF-8; the whole call fails rather
	// than silently skipping the offending term.
	ErrInvalidUTF8 = errors.New("graphfst: invalid utf-8 in term")
)
