package container

import (
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"

	"github.com/oshokin/par-builder/internal/domain/par"
)

// MemberMode is the permission recorded on every member.
// Local file modes are ignored so that output does not depend on the build host.
const MemberMode fs.FileMode = 0o644

// Writer appends ZIP members with a fixed timestamp and compression.
type Writer struct {
	// zw is the underlying ZIP writer.
	zw *zip.Writer
	// modified is stored on every member.
	modified time.Time
	// method is zip.Deflate or zip.Store.
	method uint16
}

// NewWriter creates a Writer for ZIP data starting at offset bytes into the file,
// that is right after the launcher line.
func NewWriter(w io.Writer, offset int64, modified time.Time, level int) *Writer {
	zw := zip.NewWriter(w)
	zw.SetOffset(offset)

	method := zip.Deflate
	if level == par.CompressionStore {
		method = zip.Store
	} else {
		zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(out, level)
		})
	}

	return &Writer{
		zw:       zw,
		modified: modified.UTC(),
		method:   method,
	}
}

// Create adds a member and returns a writer for its content.
func (w *Writer) Create(storedPath string) (io.Writer, error) {
	//nolint:exhaustruct // Remaining header fields are computed by the zip writer.
	header := &zip.FileHeader{
		Name:     storedPath,
		Method:   w.method,
		Modified: w.modified,
	}
	header.SetMode(MemberMode)

	dst, err := w.zw.CreateHeader(header)
	if err != nil {
		return nil, fmt.Errorf("create member %s: %w", storedPath, err)
	}

	return dst, nil
}

// Close writes the central directory. It does not close the underlying writer.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("finish container: %w", err)
	}

	return nil
}
