package par

import "errors"

var (
	// ErrSyntax marks a malformed input line (manifest, stub).
	ErrSyntax = errors.New("syntax error")
	// ErrConfiguration marks inputs that are well-formed but not acceptable,
	// e.g. a duplicated stored path or a reserved name collision.
	ErrConfiguration = errors.New("configuration error")
	// ErrInternal marks a broken internal invariant. Reaching it is a bug.
	ErrInternal = errors.New("internal error")
)
