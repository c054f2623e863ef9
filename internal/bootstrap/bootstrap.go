package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/par-builder/internal/container"
	"github.com/oshokin/par-builder/internal/logger"
	"github.com/oshokin/par-builder/internal/metadata"
)

// ExtractDirPrefix starts the name of every extraction directory,
// followed by the owning process id and a random suffix.
const ExtractDirPrefix = "par-extract-"

// KeptDirPrefix replaces ExtractDirPrefix for directories kept after exit,
// so SweepStale leaves them alone.
const KeptDirPrefix = "par-keep-"

// Location describes where the entry point of the process was loaded from.
type Location struct {
	// ArchivePath is the archive file.
	ArchivePath string
	// Prefix is the path inside the archive. Only an empty prefix is supported.
	Prefix string
}

// Environment is the part of the process the bootstrap manipulates.
type Environment interface {
	// EntryLocation reports where the entry point was loaded from.
	EntryLocation() (Location, bool)
	// SearchRoots returns the module search path. Entry 0 is the entry location.
	SearchRoots() []string
	// InsertSearchRoots inserts roots before position index, keeping their order.
	InsertSearchRoots(index int, roots ...string)
	// SetSearchRoot replaces the entry at index.
	SetSearchRoot(index int, root string)
	// RegisterShutdown adds fn to the hooks run when the process exits.
	RegisterShutdown(fn func())
}

// Options controls Setup.
type Options struct {
	// ImportRoots are archive-relative roots in final search order.
	ImportRoots []string
	// ZipSafe loads directly from the archive. Otherwise it is extracted first.
	ZipSafe bool
	// KeepExtracted leaves the extraction directory behind on exit.
	KeepExtracted bool
	// ExtractRoot is the parent of the extraction directory. Empty means os.TempDir().
	ExtractRoot string
	// Lookups return the metadata registries of the process. Missing ones are skipped.
	Lookups []metadata.Lookup
}

// State is the outcome of a successful Setup.
type State struct {
	// ArchivePath is the archive the process runs from.
	ArchivePath string
	// SearchPath is the final module search path.
	SearchPath []string
	// ExtractDir is the extraction directory, empty in zip-safe mode.
	ExtractDir string
	// Distributions are the bundled distributions that were published.
	Distributions []metadata.Distribution
}

// Setup initializes runtime support. Failures are reported as warnings and
// leave the search path unchanged; the return value tells whether setup happened.
func Setup(ctx context.Context, env Environment, opts *Options) (*State, bool) {
	ctx = logger.WithName(ctx, "bootstrap")

	location, ok := env.EntryLocation()
	if !ok || location.ArchivePath == "" {
		logger.Warn(ctx, "Failed to initialize archive runtime support: entry location is unknown")
		return nil, false
	}

	if location.Prefix != "" {
		logger.WarnKV(ctx, "Failed to initialize archive runtime support: unexpected prefix",
			"archive_path", location.ArchivePath,
			"prefix", location.Prefix)

		return nil, false
	}

	searchRoots := env.SearchRoots()
	if len(searchRoots) == 0 || !samePath(searchRoots[0], location.ArchivePath) {
		logger.WarnKV(ctx, "Failed to initialize archive runtime support: archive is not the first search root",
			"archive_path", location.ArchivePath,
			"search_path", searchRoots)

		return nil, false
	}

	archive, err := container.Open(location.ArchivePath)
	if err != nil {
		logger.WarnKV(ctx, "Failed to initialize archive runtime support",
			"archive_path", location.ArchivePath,
			"error", err)

		return nil, false
	}
	defer archive.Close() //nolint:errcheck // Read-only file.

	state := &State{ArchivePath: location.ArchivePath}
	prefix := location.ArchivePath

	if !opts.ZipSafe {
		if state.ExtractDir, err = extract(ctx, env, archive, opts); err != nil {
			logger.WarnKV(ctx, "Failed to initialize archive runtime support",
				"archive_path", location.ArchivePath,
				"error", err)

			return nil, false
		}

		env.SetSearchRoot(0, state.ExtractDir)
		prefix = state.ExtractDir
	}

	fullRoots := make([]string, 0, len(opts.ImportRoots))
	for _, root := range opts.ImportRoots {
		fullRoots = append(fullRoots, filepath.Join(prefix, filepath.FromSlash(root)))
	}

	env.InsertSearchRoots(1, fullRoots...)
	logger.DebugKV(ctx, "Added import roots to search path", "roots", fullRoots)

	state.Distributions = publishMetadata(ctx, archive, prefix, opts)
	state.SearchPath = env.SearchRoots()

	return state, true
}

// extract unpacks the archive into a new directory and schedules its removal.
func extract(ctx context.Context, env Environment, archive *container.Archive, opts *Options) (string, error) {
	root := opts.ExtractRoot
	if root == "" {
		root = os.TempDir()
	}

	prefix := ExtractDirPrefix
	if opts.KeepExtracted {
		prefix = KeptDirPrefix
	}

	dir, err := os.MkdirTemp(root, fmt.Sprintf("%s%d-", prefix, os.Getpid()))
	if err != nil {
		return "", fmt.Errorf("create extraction directory: %w", err)
	}

	if !opts.KeepExtracted {
		env.RegisterShutdown(func() {
			_ = os.RemoveAll(dir)
		})
	}

	logger.DebugKV(ctx, "Extracting archive",
		"archive_path", archive.Path,
		"extract_dir", dir)

	if err = container.Extract(archive.Reader, dir); err != nil {
		if !opts.KeepExtracted {
			_ = os.RemoveAll(dir)
		}

		return "", err
	}

	return dir, nil
}

// publishMetadata adds bundled distributions to every registry that is present.
func publishMetadata(
	ctx context.Context,
	archive *container.Archive,
	prefix string,
	opts *Options,
) []metadata.Distribution {
	var (
		dists      []metadata.Distribution
		discovered bool
	)

	for _, lookup := range opts.Lookups {
		registry, ok := lookup()
		if !ok || registry == nil {
			continue
		}

		if !discovered {
			dists = metadata.Discover(archive.Reader, prefix, opts.ImportRoots)
			discovered = true
		}

		for _, dist := range dists {
			registry.Add(dist)
		}
	}

	if len(dists) > 0 {
		logger.DebugKV(ctx, "Published bundled distributions", "count", len(dists))
	}

	return dists
}

// samePath compares two paths after making them absolute.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)

	return errA == nil && errB == nil && absA == absB
}
