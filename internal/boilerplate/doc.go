// Package boilerplate renders the initialization code added to an archive's
// entry point and splices it into the entry-point source.
//
// The source encoding is unknown, so the source is handled as raw bytes and
// the boilerplate is restricted to printable ASCII. The code goes after any
// leading comments, blank lines, future imports and module docstrings, since
// future imports must come first in a module.
package boilerplate
