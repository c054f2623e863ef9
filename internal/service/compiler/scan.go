package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/par-builder/internal/boilerplate"
	"github.com/oshokin/par-builder/internal/domain/par"
	"github.com/oshokin/par-builder/internal/logger"
	"github.com/oshokin/par-builder/internal/manifest"
	"github.com/oshokin/par-builder/internal/resource"
)

// ImportRoots returns the configured roots followed by the sorted top-level
// directories of the manifest.
func ImportRoots(configured []string, m *manifest.Manifest) []string {
	roots := make([]string, 0, len(configured))
	roots = append(roots, configured...)

	return append(roots, m.TopLevelDirs()...)
}

// scanManifest collects every member of the archive.
func scanManifest(ctx context.Context, spec *par.ArchiveSpec, m *manifest.Manifest) (*resource.Set, error) {
	importRoots := ImportRoots(spec.ImportRoots, m)
	set := resource.NewSet()

	// Support files first so that the manifest can shadow them.
	descriptor, err := par.NewDescriptor(spec, importRoots).Marshal()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", par.ErrInternal, err)
	}

	support, err := resource.NewContent(par.DescriptorPath, descriptor)
	if err != nil {
		return nil, err
	}

	set.Put(support)

	for _, entry := range m.Entries() {
		r, entryErr := newEntryResource(entry, spec.ManifestRoot)
		if entryErr != nil {
			return nil, fmt.Errorf("manifest %s line %d: %w", m.Name(), entry.Line, entryErr)
		}

		set.Put(r)
	}

	if set.Has(par.MainPath) {
		return nil, fmt.Errorf("%w for [%s]: manifest file included a file named %s, which is not allowed",
			par.ErrConfiguration, m.Name(), par.MainPath)
	}

	entryPoint, err := generateMain(spec, importRoots)
	if err != nil {
		return nil, err
	}

	set.Put(entryPoint)

	for _, marker := range par.PackageMarkerPaths() {
		if set.Has(marker) {
			logger.DebugKV(ctx, "Skipping package marker already present", "path", marker)
			continue
		}

		empty, markerErr := resource.NewEmpty(marker)
		if markerErr != nil {
			return nil, markerErr
		}

		set.Put(empty)
	}

	return set, nil
}

// generateMain reads the entry point and splices the boilerplate into it.
func generateMain(spec *par.ArchiveSpec, importRoots []string) (resource.Resource, error) {
	text, err := boilerplate.Render(spec.BoilerplateTemplate, boilerplate.NewParams(importRoots, spec.ZipSafe))
	if err != nil {
		return nil, err
	}

	original, err := os.ReadFile(filepath.Clean(spec.MainFilename))
	if err != nil {
		return nil, fmt.Errorf("read main file: %w", err)
	}

	content, err := boilerplate.Inject(original, text)
	if err != nil {
		return nil, fmt.Errorf("generate %s from %s: %w", par.MainPath, spec.MainFilename, err)
	}

	return resource.NewContent(par.MainPath, content)
}

// newEntryResource maps a manifest entry to a placeholder or a file-backed resource.
func newEntryResource(entry manifest.Entry, root string) (resource.Resource, error) {
	if entry.IsPlaceholder() {
		return resource.NewEmpty(entry.StoredPath)
	}

	return resource.NewFile(entry.StoredPath, entry.ResolveLocal(root))
}
