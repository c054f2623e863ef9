package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/par-builder/internal/domain/par"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "manifest")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestParseValid(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "a.py\nb.py /tmp/b.py\n\nc/d.py \r\n")

	m, err := Parse(path)
	require.NoError(t, err)
	require.Equal(t, path, m.Name())
	require.Equal(t, 3, m.Len())

	entries := m.Entries()
	require.Equal(t, Entry{StoredPath: "a.py", Line: 1}, entries[0])
	require.Equal(t, Entry{StoredPath: "b.py", LocalPath: "/tmp/b.py", Line: 2}, entries[1])
	require.Equal(t, Entry{StoredPath: "c/d.py", Line: 4}, entries[2])

	require.True(t, entries[0].IsPlaceholder())
	require.False(t, entries[1].IsPlaceholder())
	require.True(t, entries[2].IsPlaceholder())

	e, ok := m.Lookup("b.py")
	require.True(t, ok)
	require.Equal(t, "/tmp/b.py", e.LocalPath)

	_, ok = m.Lookup("missing.py")
	require.False(t, ok)
}

func TestParseInvalidLines(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
	}{
		{"three fields", "a.py b.py c.py\n"},
		{"double space", "a.py  b.py\n"},
		{"leading space", " a.py\n"},
		{"invalid utf-8", "a\xff.py\n"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := ParseReader("manifest", strings.NewReader("ok.py\n"+tc.content))
			require.ErrorIs(t, err, par.ErrSyntax)
			require.ErrorContains(t, err, "line 2")
			require.ErrorContains(t, err, "[manifest]")
		})
	}
}

func TestParseDuplicate(t *testing.T) {
	t.Parallel()

	_, err := ParseReader("manifest", strings.NewReader("a.py\nb.py\na.py /tmp/a.py\n"))
	require.ErrorIs(t, err, par.ErrConfiguration)
	require.ErrorContains(t, err, "[a.py]")
	require.ErrorContains(t, err, "line 3")
	require.ErrorContains(t, err, "first at line 1")
}

func TestParseMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Parse(filepath.Join(t.TempDir(), "nope"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	m, err := ParseReader("manifest", strings.NewReader(""))
	require.NoError(t, err)
	require.Zero(t, m.Len())
	require.Empty(t, m.TopLevelDirs())
}

func TestTopLevelDirs(t *testing.T) {
	t.Parallel()

	m, err := ParseReader("manifest", strings.NewReader(
		"top.py\nzeta/a.py\nalpha/b/c.py\nalpha/d.py\n/abs.py\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "zeta"}, m.TopLevelDirs())
}

func TestResolveLocal(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	require.Equal(t, filepath.Join(root, "src/a.py"), Entry{LocalPath: "src/a.py"}.ResolveLocal(root))
	require.Equal(t, "/tmp/b.py", Entry{LocalPath: "/tmp/b.py"}.ResolveLocal(root))
	require.Equal(t, "src/a.py", Entry{LocalPath: "src/a.py"}.ResolveLocal(""))
	require.Empty(t, Entry{}.ResolveLocal(root))
}
