package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/klauspost/compress/zip"

	"github.com/oshokin/par-builder/internal/container"
	"github.com/oshokin/par-builder/internal/domain/par"
	"github.com/oshokin/par-builder/internal/logger"
	"github.com/oshokin/par-builder/internal/metadata"
)

// InspectOptions contains inputs for the inspect entry point.
type InspectOptions struct {
	// ArchivePath is the archive to describe.
	ArchivePath string
	// Out receives the report. Nil means stdout.
	Out io.Writer
}

// Inspect prints the launcher line, the bootstrap descriptor, bundled
// distributions and every member of an archive.
func Inspect(ctx context.Context, opts *InspectOptions) error {
	ctx = logger.WithName(ctx, "par-launcher")

	if opts == nil {
		return errNoOptions
	}

	archive, err := container.Open(opts.ArchivePath)
	if err != nil {
		return err
	}
	defer archive.Close() //nolint:errcheck // Read-only file.

	logger.DebugKV(ctx, "Inspecting archive", "path", opts.ArchivePath, "members", len(archive.File))

	out := writerOr(opts.Out, os.Stdout)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "archive:\t%s\n", archive.Path)
	fmt.Fprintf(tw, "interpreter:\t%s\n", archive.Interpreter)

	data, err := archive.ReadMember(par.DescriptorPath)
	switch {
	case container.IsMissing(err):
		fmt.Fprintf(tw, "descriptor:\tmissing\n")
	case err != nil:
		return err
	default:
		descriptor, parseErr := par.ParseDescriptor(data)
		if parseErr != nil {
			return parseErr
		}

		fmt.Fprintf(tw, "import roots:\t%v\n", descriptor.ImportRoots)
		fmt.Fprintf(tw, "zip safe:\t%t\n", descriptor.ZipSafe)

		for _, dist := range metadata.Discover(archive.Reader, archive.Path, descriptor.ImportRoots) {
			fmt.Fprintf(tw, "distribution:\t%s (%s)\n", dist, dist.DistInfo)
		}
	}

	fmt.Fprintf(tw, "members:\t%d\n", len(archive.File))

	for _, file := range archive.File {
		fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\n",
			file.Name,
			file.UncompressedSize64,
			methodName(file.Method),
			file.Modified.UTC().Format("2006-01-02 15:04:05"))
	}

	if err = tw.Flush(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	return nil
}

func methodName(method uint16) string {
	switch method {
	case zip.Store:
		return "store"
	case zip.Deflate:
		return "deflate"
	default:
		return fmt.Sprintf("method %d", method)
	}
}
