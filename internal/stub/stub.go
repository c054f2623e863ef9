package stub

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/oshokin/par-builder/internal/domain/par"
)

var (
	importsPattern     = regexp.MustCompile(`^  python_imports = '([^']*)'$`)
	interpreterPattern = regexp.MustCompile(`^PYTHON_BINARY = '([^']*)'$`)

	// wrapperInterpreters maps toolchain wrapper scripts to the interpreter they run.
	//nolint:gochecknoglobals // Read-only lookup table.
	wrapperInterpreters = map[string]string{
		"py3wrapper.sh": "python3",
		"py2wrapper.sh": "python2",
	}

	errStubIncomplete      = errors.New("failed to parse stub file")
	errInterpreterLabel    = errors.New("interpreter must not be a label")
	errInterpreterRelative = errors.New("interpreter must be absolute or a bare name")
	errNotBool             = errors.New("expected True or False")
)

// Stub holds what the compiler needs from a launcher stub.
type Stub struct {
	// ImportRoots are the stub's import roots with empty entries removed.
	ImportRoots []string
	// Interpreter is the normalised invocation for the launcher line.
	Interpreter string
}

// Parse reads the stub file at path.
func Parse(path string) (*Stub, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open stub: %w", err)
	}
	defer f.Close() //nolint:errcheck // Read-only file.

	var (
		roots       []string
		foundRoots  bool
		interpreter string
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()

		if m := importsPattern.FindStringSubmatch(line); m != nil {
			foundRoots = true
			roots = roots[:0]

			for _, root := range strings.Split(m[1], ":") {
				if root != "" {
					roots = append(roots, root)
				}
			}
		}

		if m := interpreterPattern.FindStringSubmatch(line); m != nil {
			interpreter = m[1]
		}
	}

	if err = scanner.Err(); err != nil {
		return nil, fmt.Errorf("read stub: %w", err)
	}

	if interpreter == "" {
		return nil, fmt.Errorf("%w: %w [%s]", par.ErrConfiguration, errStubIncomplete, path)
	}

	normalized, err := NormalizeInterpreter(interpreter)
	if err != nil {
		return nil, fmt.Errorf("%w [%s]", err, path)
	}

	if !foundRoots {
		roots = nil
	}

	return &Stub{ImportRoots: roots, Interpreter: normalized}, nil
}

// NormalizeInterpreter turns a stub interpreter into a launcher invocation,
// following the search rules of the stub itself.
func NormalizeInterpreter(interpreter string) (string, error) {
	switch {
	case strings.HasPrefix(interpreter, "//"):
		return "", fmt.Errorf("%w: %w: %s", par.ErrConfiguration, errInterpreterLabel, interpreter)
	case strings.HasPrefix(interpreter, "/"):
		return interpreter, nil
	case strings.Contains(interpreter, "/"):
		if name, ok := wrapperInterpreters[filepath.Base(interpreter)]; ok {
			return "/usr/bin/env " + name, nil
		}

		return "", fmt.Errorf("%w: %w: %s", par.ErrConfiguration, errInterpreterRelative, interpreter)
	default:
		return "/usr/bin/env " + interpreter, nil
	}
}

// ParseBool accepts exactly "True" or "False".
func ParseBool(s string) (bool, error) {
	switch s {
	case "True":
		return true, nil
	case "False":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q: %w", par.ErrSyntax, s, errNotBool)
	}
}
