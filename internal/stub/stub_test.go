package stub

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/par-builder/internal/domain/par"
)

func writeStub(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stub")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

// TestParseInterpreters checks interpreter normalisation for the supported forms.
func TestParseInterpreters(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"PYTHON_BINARY = '/usr/bin/python'\n":                          "/usr/bin/python",
		"PYTHON_BINARY = 'python'\n":                                   "/usr/bin/env python",
		"PYTHON_BINARY = 'bazel_tools/tools/python/py3wrapper.sh'\n":   "/usr/bin/env python3",
		"\nPYTHON_BINARY = 'bazel_tools/tools/python/py2wrapper.sh'\n": "/usr/bin/env python2",
	}
	for content, expected := range cases {
		s, err := Parse(writeStub(t, content))
		require.NoError(t, err, content)
		require.Equal(t, expected, s.Interpreter)
	}
}

// TestParseInvalid checks stubs that must be rejected.
func TestParseInvalid(t *testing.T) {
	t.Parallel()

	for _, content := range []string{
		"",
		"\n\n",
		"PYTHON_BINARY = 'mydir/python'",
		"\nPYTHON_BINARY = '//mypackage:python'\n",
	} {
		_, err := Parse(writeStub(t, content))
		require.ErrorIs(t, err, par.ErrConfiguration, content)
	}

	_, err := Parse(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestParseImportRoots filters empty roots and keeps their order.
func TestParseImportRoots(t *testing.T) {
	t.Parallel()

	s, err := Parse(writeStub(t, "  python_imports = 'b::a:'\nPYTHON_BINARY = 'python3'\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"b", "a"}, s.ImportRoots)
	require.Equal(t, "/usr/bin/env python3", s.Interpreter)
}

// TestParseWithoutImportRoots accepts a stub that only names the interpreter.
func TestParseWithoutImportRoots(t *testing.T) {
	t.Parallel()

	s, err := Parse(writeStub(t, "PYTHON_BINARY = 'python3'\n"))
	require.NoError(t, err)
	require.Empty(t, s.ImportRoots)
	require.Equal(t, "/usr/bin/env python3", s.Interpreter)
}

// TestParseBool accepts only the two literal spellings.
func TestParseBool(t *testing.T) {
	t.Parallel()

	v, err := ParseBool("True")
	require.NoError(t, err)
	require.True(t, v)

	v, err = ParseBool("False")
	require.NoError(t, err)
	require.False(t, v)

	for _, s := range []string{"", "Yes", "true"} {
		_, err = ParseBool(s)
		require.ErrorIs(t, err, par.ErrSyntax)
	}
}
