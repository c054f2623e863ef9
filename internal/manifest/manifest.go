package manifest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/oshokin/par-builder/internal/domain/par"
)

const (
	// fieldSeparator splits stored path and local path.
	fieldSeparator = " "
	// maxLineLength bounds a single manifest line.
	maxLineLength = 1 << 20
)

// Entry is one manifest line.
type Entry struct {
	// StoredPath is the archive-relative path of the member.
	StoredPath string
	// LocalPath supplies the content. Empty means a zero-length placeholder.
	LocalPath string
	// Line is the 1-based line number the entry came from.
	Line int
}

// IsPlaceholder reports whether the entry has no local content.
func (e Entry) IsPlaceholder() bool {
	return e.LocalPath == ""
}

// ResolveLocal returns the local path, joined with root when it is relative.
func (e Entry) ResolveLocal(root string) string {
	if e.LocalPath == "" || root == "" || filepath.IsAbs(e.LocalPath) {
		return e.LocalPath
	}

	return filepath.Join(root, e.LocalPath)
}

// Manifest is a parsed manifest in file order.
type Manifest struct {
	name    string
	entries []Entry
	index   map[string]int
}

// Parse reads the manifest at path.
func Parse(path string) (*Manifest, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only file.

	return ParseReader(path, f)
}

// ParseReader reads a manifest from r; name is used in error messages.
func ParseReader(name string, r io.Reader) (*Manifest, error) {
	m := &Manifest{
		name:  name,
		index: make(map[string]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineLength)

	lineno := 0
	for scanner.Scan() {
		lineno++

		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		entry, err := parseLine(name, lineno, line)
		if err != nil {
			return nil, err
		}

		if first, seen := m.index[entry.StoredPath]; seen {
			return nil, fmt.Errorf("%w at line %d in [%s]: file [%s] specified more than once (first at line %d)",
				par.ErrConfiguration, lineno, name, entry.StoredPath, m.entries[first].Line)
		}

		m.index[entry.StoredPath] = len(m.entries)
		m.entries = append(m.entries, entry)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", name, err)
	}

	return m, nil
}

// parseLine splits a non-empty line into an Entry.
func parseLine(name string, lineno int, line string) (Entry, error) {
	if !utf8.ValidString(line) {
		return Entry{}, fmt.Errorf("%w at line %d in [%s]: not valid UTF-8", par.ErrSyntax, lineno, name)
	}

	fields := strings.Split(line, fieldSeparator)

	var entry Entry

	switch {
	case len(fields) == 1, len(fields) == 2 && fields[1] == "":
		// "foo" or "foo ".
		entry = Entry{StoredPath: fields[0], Line: lineno}
	case len(fields) == 2:
		// "foo bar".
		entry = Entry{StoredPath: fields[0], LocalPath: fields[1], Line: lineno}
	default:
		return Entry{}, fmt.Errorf("%w at line %d in [%s]: %q", par.ErrSyntax, lineno, name, line)
	}

	if entry.StoredPath == "" {
		return Entry{}, fmt.Errorf("%w at line %d in [%s]: empty stored path: %q", par.ErrSyntax, lineno, name, line)
	}

	return entry, nil
}

// Name returns the manifest file name.
func (m *Manifest) Name() string {
	return m.name
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Entries returns the entries in file order.
func (m *Manifest) Entries() []Entry {
	return slices.Clone(m.entries)
}

// Lookup returns the entry for a stored path.
func (m *Manifest) Lookup(storedPath string) (Entry, bool) {
	i, ok := m.index[storedPath]
	if !ok {
		return Entry{}, false
	}

	return m.entries[i], true
}

// TopLevelDirs returns the sorted, distinct first segments of stored paths
// that live in a directory. Archive paths use "/" on every platform.
func (m *Manifest) TopLevelDirs() []string {
	seen := make(map[string]struct{})

	for _, e := range m.entries {
		top, _, found := strings.Cut(e.StoredPath, "/")
		if !found || top == "" {
			continue
		}

		seen[top] = struct{}{}
	}

	dirs := make([]string, 0, len(seen))
	for top := range seen {
		dirs = append(dirs, top)
	}

	slices.Sort(dirs)

	return dirs
}
