// Package stub recovers the interpreter and the default import roots from the
// launcher stub generated by the build system for a binary target.
package stub
