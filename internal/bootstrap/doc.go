// Package bootstrap prepares a process to load a par archive: it finds the
// archive the process is running from, optionally extracts it to a real
// directory, installs the archive's import roots into the module search path
// and publishes metadata of bundled distributions.
//
// The process is reached only through the Environment interface, so the same
// logic serves the par-launcher binary and tests.
package bootstrap
