// Package version exposes build metadata for par-compiler and par-launcher
// and the cobra subcommand that prints it.
package version
