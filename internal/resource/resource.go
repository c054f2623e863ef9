package resource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/oshokin/par-builder/internal/domain/par"
)

// Container accepts new members. *container.Writer implements it.
type Container interface {
	Create(storedPath string) (io.Writer, error)
}

// Resource is a single member of an archive.
type Resource interface {
	// StoredPath is the relative path of the member inside the archive.
	StoredPath() string
	// WriteInto adds the member to the container.
	WriteInto(dst Container) error
}

var (
	errEmptyStoredPath    = errors.New("stored path is empty")
	errAbsoluteStoredPath = errors.New("stored path must be relative")
)

// checkStoredPath rejects empty and absolute stored paths.
func checkStoredPath(storedPath string) error {
	if storedPath == "" {
		return fmt.Errorf("%w: %w", par.ErrConfiguration, errEmptyStoredPath)
	}

	if path.IsAbs(storedPath) || filepath.IsAbs(storedPath) {
		return fmt.Errorf("%w: %s: %w", par.ErrConfiguration, storedPath, errAbsoluteStoredPath)
	}

	return nil
}

// FileBacked stores the content of a local file, read when the archive is written.
type FileBacked struct {
	storedPath string
	localPath  string
}

// NewFile creates a resource backed by localPath.
func NewFile(storedPath, localPath string) (*FileBacked, error) {
	if err := checkStoredPath(storedPath); err != nil {
		return nil, err
	}

	return &FileBacked{storedPath: storedPath, localPath: localPath}, nil
}

// StoredPath implements Resource.
func (f *FileBacked) StoredPath() string {
	return f.storedPath
}

// LocalPath returns the file supplying the content.
func (f *FileBacked) LocalPath() string {
	return f.localPath
}

// WriteInto implements Resource.
func (f *FileBacked) WriteInto(dst Container) (err error) {
	src, err := os.Open(filepath.Clean(f.localPath))
	if err != nil {
		return fmt.Errorf("read %s for %s: %w", f.localPath, f.storedPath, err)
	}

	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	w, err := dst.Create(f.storedPath)
	if err != nil {
		return err
	}

	if _, err = io.Copy(w, src); err != nil {
		return fmt.Errorf("store %s from %s: %w", f.storedPath, f.localPath, err)
	}

	return nil
}

// InMemory stores bytes supplied at construction.
type InMemory struct {
	storedPath string
	content    []byte
}

// NewContent creates a resource holding a copy of content.
func NewContent(storedPath string, content []byte) (*InMemory, error) {
	if err := checkStoredPath(storedPath); err != nil {
		return nil, err
	}

	return &InMemory{storedPath: storedPath, content: bytes.Clone(content)}, nil
}

// NewEmpty creates a zero-length resource, used for placeholders and package markers.
func NewEmpty(storedPath string) (*InMemory, error) {
	return NewContent(storedPath, nil)
}

// StoredPath implements Resource.
func (m *InMemory) StoredPath() string {
	return m.storedPath
}

// Content returns the stored bytes.
func (m *InMemory) Content() []byte {
	return m.content
}

// WriteInto implements Resource.
func (m *InMemory) WriteInto(dst Container) error {
	w, err := dst.Create(m.storedPath)
	if err != nil {
		return err
	}

	if len(m.content) == 0 {
		return nil
	}

	if _, err = w.Write(m.content); err != nil {
		return fmt.Errorf("store %s: %w", m.storedPath, err)
	}

	return nil
}
