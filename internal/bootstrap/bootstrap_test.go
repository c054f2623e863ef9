package bootstrap

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/par-builder/internal/container"
	"github.com/oshokin/par-builder/internal/domain/par"
	"github.com/oshokin/par-builder/internal/metadata"
)

var testMembers = map[string]string{
	"__main__.py":                             "print('main')\n",
	"lib/mod.py":                              "x = 1\n",
	"pypi__six/six.py":                        "",
	"pypi__six/six-1.16.0.dist-info/METADATA": "Name: six\nVersion: 1.16.0\n",
}

// fakeEnv is an in-memory Environment.
type fakeEnv struct {
	location Location
	located  bool
	roots    []string
	hooks    []func()
}

func (f *fakeEnv) EntryLocation() (Location, bool) { return f.location, f.located }

func (f *fakeEnv) SearchRoots() []string { return slices.Clone(f.roots) }

func (f *fakeEnv) InsertSearchRoots(index int, roots ...string) {
	f.roots = slices.Insert(f.roots, index, roots...)
}

func (f *fakeEnv) SetSearchRoot(index int, root string) { f.roots[index] = root }

func (f *fakeEnv) RegisterShutdown(fn func()) { f.hooks = append(f.hooks, fn) }

func (f *fakeEnv) shutdown() {
	for i := len(f.hooks) - 1; i >= 0; i-- {
		f.hooks[i]()
	}
}

func writeArchive(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer

	offset, err := container.WriteHeader(&buf, "/usr/bin/env python3")
	require.NoError(t, err)

	w := container.NewWriter(&buf, offset, par.DefaultTimestamp(), 6)

	for name, content := range testMembers {
		dst, createErr := w.Create(name)
		require.NoError(t, createErr)

		_, writeErr := io.WriteString(dst, content)
		require.NoError(t, writeErr)
	}

	require.NoError(t, w.Close())

	path := filepath.Join(t.TempDir(), "app.par")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	return path
}

func newFakeEnv(archivePath string) *fakeEnv {
	return &fakeEnv{
		location: Location{ArchivePath: archivePath},
		located:  true,
		roots:    []string{archivePath, "/usr/lib/python3"},
	}
}

func TestSetupZipSafe(t *testing.T) {
	t.Parallel()

	archivePath := writeArchive(t)
	env := newFakeEnv(archivePath)
	registry := metadata.NewMemoryRegistry()

	state, ok := Setup(context.Background(), env, &Options{
		ImportRoots: []string{"lib", "pypi__six"},
		ZipSafe:     true,
		Lookups: []metadata.Lookup{
			func() (metadata.Registry, bool) { return nil, false },
			func() (metadata.Registry, bool) { return registry, true },
		},
	})
	require.True(t, ok)

	expected := []string{
		archivePath,
		filepath.Join(archivePath, "lib"),
		filepath.Join(archivePath, "pypi__six"),
		"/usr/lib/python3",
	}
	require.Equal(t, expected, env.roots)
	require.Equal(t, expected, state.SearchPath)
	require.Empty(t, state.ExtractDir)
	require.Empty(t, env.hooks)

	dist, found := registry.Find("six", "1.16.0")
	require.True(t, found)
	require.Equal(t, filepath.Join(archivePath, "pypi__six"), dist.Location)
	require.Len(t, state.Distributions, 1)
}

func TestSetupExtracts(t *testing.T) {
	t.Parallel()

	archivePath := writeArchive(t)
	env := newFakeEnv(archivePath)
	extractRoot := t.TempDir()

	state, ok := Setup(context.Background(), env, &Options{
		ImportRoots: []string{"lib"},
		ExtractRoot: extractRoot,
	})
	require.True(t, ok)

	dir := state.ExtractDir
	require.NotEmpty(t, dir)
	require.Equal(t, extractRoot, filepath.Dir(dir))
	require.Contains(t, filepath.Base(dir), ExtractDirPrefix+strconv.Itoa(os.Getpid())+"-")

	require.Equal(t, []string{dir, filepath.Join(dir, "lib"), "/usr/lib/python3"}, env.roots)

	for name, content := range testMembers {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
		require.NoError(t, err)
		require.Equal(t, content, string(data))
	}

	require.Len(t, env.hooks, 1)
	env.shutdown()
	require.NoDirExists(t, dir)
}

func TestSetupKeepExtracted(t *testing.T) {
	t.Parallel()

	env := newFakeEnv(writeArchive(t))
	root := t.TempDir()

	state, ok := Setup(context.Background(), env, &Options{
		KeepExtracted: true,
		ExtractRoot:   root,
	})
	require.True(t, ok)
	require.Empty(t, env.hooks)
	require.DirExists(t, state.ExtractDir)
	require.True(t, strings.HasPrefix(filepath.Base(state.ExtractDir), KeptDirPrefix+strconv.Itoa(os.Getpid())+"-"))

	// A later launch sweeping the same root must not take the kept directory.
	removed, err := SweepStale(context.Background(), root)
	require.NoError(t, err)
	require.Zero(t, removed)
	require.DirExists(t, state.ExtractDir)
}

func TestSetupFailures(t *testing.T) {
	t.Parallel()

	archivePath := writeArchive(t)

	cases := []struct {
		name string
		env  *fakeEnv
	}{
		{"location unknown", &fakeEnv{roots: []string{archivePath}}},
		{"non-empty prefix", &fakeEnv{
			location: Location{ArchivePath: archivePath, Prefix: "lib"},
			located:  true,
			roots:    []string{archivePath},
		}},
		{"archive is not first", &fakeEnv{
			location: Location{ArchivePath: archivePath},
			located:  true,
			roots:    []string{"/somewhere/else", archivePath},
		}},
		{"empty search path", &fakeEnv{
			location: Location{ArchivePath: archivePath},
			located:  true,
		}},
		{"not an archive", newFakeEnv(filepath.Join(t.TempDir(), "missing.par"))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			before := tc.env.SearchRoots()

			state, ok := Setup(context.Background(), tc.env, &Options{ImportRoots: []string{"lib"}, ZipSafe: true})
			require.False(t, ok)
			require.Nil(t, state)
			require.Equal(t, before, tc.env.roots)
		})
	}
}

func TestProcessEnv(t *testing.T) {
	t.Parallel()

	env := NewProcessEnv("/tmp/app.par", "PYTHONPATH", "/a"+string(os.PathListSeparator)+"/b")

	location, ok := env.EntryLocation()
	require.True(t, ok)
	require.Equal(t, "/tmp/app.par", location.ArchivePath)

	env.InsertSearchRoots(1, "/tmp/app.par/lib", "/tmp/app.par/pkg")
	env.SetSearchRoot(0, "/tmp/extracted")
	require.Equal(t, "/tmp/extracted", env.Entry())

	env.Registry().Add(metadata.Distribution{Name: "six", Version: "1.0", Location: "/tmp/app.par/pkg"})

	environ := env.Environ([]string{"HOME=/root", "PYTHONPATH=/old", "PAR_LAUNCHER=0"})
	sep := string(os.PathListSeparator)
	require.Equal(t, []string{
		"HOME=/root",
		"PYTHONPATH=/tmp/app.par/lib" + sep + "/tmp/app.par/pkg" + sep + "/a" + sep + "/b",
		"PAR_LAUNCHER=1",
		"PAR_DISTRIBUTIONS=six==1.0=/tmp/app.par/pkg",
	}, environ)

	var calls []int

	env.RegisterShutdown(func() { calls = append(calls, 1) })
	env.RegisterShutdown(func() { calls = append(calls, 2) })
	env.Close()
	env.Close()
	require.Equal(t, []int{2, 1}, calls)
}

func TestSweepStale(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	stale := filepath.Join(root, ExtractDirPrefix+"999999999-abc")
	own := filepath.Join(root, ExtractDirPrefix+strconv.Itoa(os.Getpid())+"-abc")
	malformed := filepath.Join(root, ExtractDirPrefix+"notapid-abc")
	unrelated := filepath.Join(root, "other-999999999-abc")
	kept := filepath.Join(root, KeptDirPrefix+"999999999-abc")

	for _, dir := range []string{stale, own, malformed, unrelated, kept} {
		require.NoError(t, os.Mkdir(dir, 0o755))
	}

	removed, err := SweepStale(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	require.NoDirExists(t, stale)
	require.DirExists(t, own)
	require.DirExists(t, malformed)
	require.DirExists(t, unrelated)
	require.DirExists(t, kept)
}

func TestSweepStaleMissingRoot(t *testing.T) {
	t.Parallel()

	removed, err := SweepStale(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Zero(t, removed)
}
