// Package manifest reads build manifests: UTF-8 text with one entry per line,
//
//	<stored_path>[ <local_path>]
//
// A missing or empty local path is a zero-length placeholder. Stored paths
// are unique; local paths may repeat.
package manifest
