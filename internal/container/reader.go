package container

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// defaultDirMode is used for directories created during extraction.
const defaultDirMode = 0o755

var (
	errMemberEscapes = errors.New("member path escapes destination")
	errMemberMissing = errors.New("member not found")
)

// Archive is an opened par file.
type Archive struct {
	*zip.Reader

	// Path is the archive location on disk.
	Path string
	// Interpreter is the invocation from the launcher line, empty if the file has none.
	Interpreter string

	file *os.File
}

// Open opens a par file: the launcher line is optional, the ZIP data is not.
func Open(path string) (*Archive, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat archive: %w", err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("read container %s: %w", path, err)
	}

	interpreter, err := ReadHeader(io.NewSectionReader(f, 0, info.Size()))
	if err != nil {
		interpreter = ""
	}

	return &Archive{
		Reader:      zr,
		Path:        path,
		Interpreter: interpreter,
		file:        f,
	}, nil
}

// Close closes the archive file.
func (a *Archive) Close() error {
	return a.file.Close()
}

// ReadMember returns the content of a single member.
func (a *Archive) ReadMember(name string) ([]byte, error) {
	for _, file := range a.File {
		if file.Name != name {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open member %s: %w", name, err)
		}

		data, err := io.ReadAll(rc)
		_ = rc.Close()

		if err != nil {
			return nil, fmt.Errorf("read member %s: %w", name, err)
		}

		return data, nil
	}

	return nil, fmt.Errorf("%s: %w", name, errMemberMissing)
}

// IsMissing reports whether err means a member was not found.
func IsMissing(err error) bool {
	return errors.Is(err, errMemberMissing)
}

// Extract writes every member into dir, which must exist.
func Extract(zr *zip.Reader, dir string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve destination: %w", err)
	}

	for _, file := range zr.File {
		destPath := filepath.Join(absDir, filepath.FromSlash(file.Name))

		relPath, relErr := filepath.Rel(absDir, destPath)
		if relErr != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
			return fmt.Errorf("%s: %w", file.Name, errMemberEscapes)
		}

		if file.FileInfo().IsDir() || strings.HasSuffix(file.Name, "/") {
			if err = os.MkdirAll(destPath, defaultDirMode); err != nil {
				return fmt.Errorf("create directory %s: %w", relPath, err)
			}

			continue
		}

		if err = os.MkdirAll(filepath.Dir(destPath), defaultDirMode); err != nil {
			return fmt.Errorf("create parent of %s: %w", relPath, err)
		}

		if err = extractFile(file, destPath); err != nil {
			return fmt.Errorf("extract %s: %w", file.Name, err)
		}
	}

	return nil
}

// extractFile copies one member to destPath.
func extractFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := rc.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	mode := file.Mode().Perm()
	if mode == 0 {
		mode = MemberMode
	}

	destFile, err := os.OpenFile(filepath.Clean(destPath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := destFile.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	//nolint:gosec // G110: archives are produced by par-compiler and trusted by the caller.
	_, err = io.Copy(destFile, rc)

	return err
}
