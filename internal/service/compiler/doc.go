// Package compiler builds par archives: it scans the manifest, generates the
// entry point with the boilerplate spliced in and writes the launcher line
// plus the ZIP container to a temporary file that is renamed into place.
package compiler
