package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/par-builder/internal/container"
	"github.com/oshokin/par-builder/internal/domain/par"
	"github.com/oshokin/par-builder/internal/logger"
	"github.com/oshokin/par-builder/internal/manifest"
	"github.com/oshokin/par-builder/internal/resource"
)

// OutputMode is the permission of a finished archive.
const OutputMode os.FileMode = 0o755

// tempPattern names the temporary archive next to the final one.
const tempPattern = ".par-compiler-*.tmp"

// Compile builds the archive described by spec. On failure the output path
// does not exist and no temporary file is left behind.
func Compile(ctx context.Context, spec *par.ArchiveSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Making archive", "output", spec.OutputFilename)

	if err := removeIfPresent(spec.OutputFilename); err != nil {
		return err
	}

	if err := checkOutputDir(spec.OutputFilename); err != nil {
		return err
	}

	logger.DebugKV(ctx, "Compiling file list", "manifest", spec.ManifestFilename)

	m, err := manifest.Parse(spec.ManifestFilename)
	if err != nil {
		return err
	}

	set, err := scanManifest(ctx, spec, m)
	if err != nil {
		return err
	}

	if err = writeArchive(ctx, spec, set); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Archive created", "output", spec.OutputFilename, "members", set.Len())

	return nil
}

// removeIfPresent deletes path, ignoring a missing file.
func removeIfPresent(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove previous output: %w", err)
	}

	return nil
}

// checkOutputDir verifies a file can be created next to the output before any
// work is done.
func checkOutputDir(output string) error {
	options := goupdate.Options{
		TargetPath: filepath.Clean(output),
		TargetMode: OutputMode,
	}

	if err := options.CheckPermissions(); err != nil {
		return fmt.Errorf("output directory of %s is not writable: %w", output, err)
	}

	return nil
}

// writeArchive writes the launcher line and every member to a temporary file
// in the output directory, then publishes it under the final name.
func writeArchive(ctx context.Context, spec *par.ArchiveSpec, set *resource.Set) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(spec.OutputFilename), tempPattern)
	if err != nil {
		return fmt.Errorf("create temporary archive: %w", err)
	}

	tmpName := tmp.Name()
	logger.DebugKV(ctx, "Writing archive to temporary file", "path", tmpName)

	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	offset, err := container.WriteHeader(tmp, spec.Interpreter)
	if err != nil {
		return err
	}

	w := container.NewWriter(tmp, offset, spec.Timestamp, spec.CompressionLevel)

	if err = set.WriteAll(w); err != nil {
		return err
	}

	if err = w.Close(); err != nil {
		return err
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temporary archive: %w", err)
	}

	if err = os.Chmod(tmpName, OutputMode); err != nil {
		return fmt.Errorf("chmod temporary archive: %w", err)
	}

	if err = os.Rename(tmpName, spec.OutputFilename); err != nil {
		return fmt.Errorf("publish archive: %w", err)
	}

	return nil
}
