package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/par-builder/internal/domain/par"
)

// TestValidate checks defaults and rejected values.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.Error(t, Validate(nil))

	settings := new(Config)
	require.NoError(t, Validate(settings))
	require.Equal(t, par.DefaultTimestamp().Unix(), settings.Timestamp)
	require.Equal(t, DefaultCompressionLevel, settings.CompressionLevel)
	require.Equal(t, DefaultSearchPathVariable, settings.SearchPathVariable)
	require.Equal(t, "info", settings.LogLevel)
	require.Equal(t, DefaultInterpreter, settings.Interpreter)

	require.Error(t, Validate(&Config{CompressionLevel: 12}))
	require.ErrorIs(t, Validate(&Config{LogLevel: "loud"}), errBadLogLevel)
	require.ErrorIs(t, Validate(&Config{SearchPathVariable: "A=B"}), errBadVariable)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	settings := &Config{
		Interpreter:  "/usr/bin/env python3",
		Timestamp:    1_500_000_000,
		ForceExtract: true,
		Store:        true,
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.Interpreter, loaded.Interpreter)
	require.Equal(t, settings.Timestamp, loaded.Timestamp)
	require.True(t, loaded.ForceExtract)
	require.Equal(t, par.CompressionStore, loaded.Compression())
	require.Equal(t, int64(1_500_000_000), loaded.BuildTimestamp().Unix())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestLoadMissingExplicitPath verifies an explicit but absent path is an error.
func TestLoadMissingExplicitPath(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestLoadRejectsGarbage verifies malformed YAML is reported.
func TestLoadRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timestamp: [not a number"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
