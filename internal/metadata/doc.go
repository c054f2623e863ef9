// Package metadata finds distributions bundled in an archive (".dist-info"
// directories at the archive root or at an import root) and records them in
// a Registry so tooling can enumerate them like installed distributions.
package metadata
