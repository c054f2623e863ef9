package par

import (
	"errors"
	"fmt"
	"time"
)

// CompressionStore stores members without compression.
const CompressionStore = 0

var (
	// minTimestamp is the earliest time representable in ZIP (MS-DOS) headers.
	minTimestamp = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)
	// maxTimestamp is the latest time representable in ZIP (MS-DOS) headers.
	maxTimestamp = time.Date(2107, time.December, 31, 23, 59, 58, 0, time.UTC)

	errNoMainFile    = errors.New("main entry point file must be provided")
	errNoManifest    = errors.New("manifest file must be provided")
	errNoOutput      = errors.New("output file must be provided")
	errNoInterpreter = errors.New("interpreter must be provided")
)

// DefaultTimestamp is the fixed member timestamp used when none is configured.
func DefaultTimestamp() time.Time {
	return minTimestamp
}

// ArchiveSpec is the configuration of a single build.
// It is created once per build and must not be changed afterwards.
type ArchiveSpec struct {
	// MainFilename is the entry-point source file.
	MainFilename string
	// ImportRoots are the configured default search roots, in order.
	ImportRoots []string
	// Interpreter is the invocation written after "#!" in the launcher header.
	Interpreter string
	// ManifestFilename is the manifest listing all files to store.
	ManifestFilename string
	// ManifestRoot resolves relative local paths of the manifest. Empty means as-is.
	ManifestRoot string
	// OutputFilename is the final archive path.
	OutputFilename string
	// Timestamp is stored on every member instead of the wall clock.
	Timestamp time.Time
	// ZipSafe reports whether the archive may be loaded without extraction.
	ZipSafe bool
	// CompressionLevel is a deflate level 1..9, or CompressionStore.
	CompressionLevel int
	// BoilerplateTemplate overrides the generated boilerplate template. Empty means built-in.
	BoilerplateTemplate string
}

// Validate checks the build for required fields and representable values.
func (s *ArchiveSpec) Validate() error {
	switch {
	case s.MainFilename == "":
		return fmt.Errorf("%w: %w", ErrConfiguration, errNoMainFile)
	case s.ManifestFilename == "":
		return fmt.Errorf("%w: %w", ErrConfiguration, errNoManifest)
	case s.OutputFilename == "":
		return fmt.Errorf("%w: %w", ErrConfiguration, errNoOutput)
	case s.Interpreter == "":
		return fmt.Errorf("%w: %w", ErrConfiguration, errNoInterpreter)
	}

	ts := s.Timestamp.UTC()
	if ts.Before(minTimestamp) || ts.After(maxTimestamp) {
		return fmt.Errorf("%w: timestamp %s is outside the ZIP range", ErrConfiguration, ts.Format(time.RFC3339))
	}

	if s.CompressionLevel < CompressionStore || s.CompressionLevel > 9 {
		return fmt.Errorf("%w: compression level %d is outside 0..9", ErrConfiguration, s.CompressionLevel)
	}

	return nil
}
