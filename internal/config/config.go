package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/par-builder/internal/domain/par"
	"github.com/oshokin/par-builder/internal/logger"
)

// Config holds build defaults and runtime bootstrap behaviour.
type Config struct {
	// Interpreter is the fallback launcher invocation when no stub or flag provides one.
	Interpreter string `yaml:"interpreter"`
	// Timestamp is the fixed member timestamp, in Unix seconds.
	Timestamp int64 `yaml:"timestamp"`
	// CompressionLevel is the deflate level 1..9; 0 selects the default level.
	CompressionLevel int `yaml:"compression_level"`
	// Store disables compression of archive members.
	Store bool `yaml:"store"`
	// ForceExtract marks archives as not safe to load directly.
	ForceExtract bool `yaml:"force_extract"`
	// BoilerplateTemplate is an optional path to a custom boilerplate template.
	BoilerplateTemplate string `yaml:"boilerplate_template,omitempty"`
	// LogLevel is the minimum level of emitted log entries.
	LogLevel string `yaml:"log_level"`
	// SearchPathVariable is the environment variable handed to the interpreter.
	SearchPathVariable string `yaml:"search_path_variable"`
	// ExtractRoot is where extraction directories are created. Empty means the OS temp dir.
	ExtractRoot string `yaml:"extract_root,omitempty"`
	// KeepExtracted leaves extraction directories in place after exit.
	KeepExtracted bool `yaml:"keep_extracted"`
	// DisableMetadata skips publishing bundled distribution metadata.
	DisableMetadata bool `yaml:"disable_metadata"`
}

const (
	// DefaultConfigFilename is the settings file looked up in the working directory.
	DefaultConfigFilename = "par-builder-settings.yaml"

	// DefaultInterpreter starts archives when neither a stub nor a flag names one.
	DefaultInterpreter = "/usr/bin/env python3"

	// DefaultSearchPathVariable is the search path variable of the default runtime.
	DefaultSearchPathVariable = "PYTHONPATH"

	// DefaultCompressionLevel is used when no level is configured.
	DefaultCompressionLevel = 6

	// DefaultFilePermissions is the default file permission for settings files.
	DefaultFilePermissions = 0o600

	// xdgConfigFile is the settings path relative to the XDG config directories.
	xdgConfigFile = "par-builder/settings.yaml"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errBadLogLevel is returned for unknown log levels.
	errBadLogLevel = errors.New("unknown log level")
	// errBadVariable is returned for unusable search path variable names.
	errBadVariable = errors.New("invalid search path variable")
)

// Default returns settings with every default applied.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg) //nolint:errcheck // Defaults always validate.

	return cfg
}

// Locate returns the settings file to use for the provided path.
// An empty result means no settings file exists and defaults apply.
func Locate(path string) string {
	if path != "" {
		return path
	}

	if _, err := os.Stat(DefaultConfigFilename); err == nil {
		return DefaultConfigFilename
	}

	if found, err := xdg.SearchConfigFile(xdgConfigFile); err == nil {
		return found
	}

	return ""
}

// Load reads settings from the located file, or returns defaults when none exists.
// An explicit path that cannot be read is an error.
func Load(path string) (*Config, error) {
	located := Locate(path)
	if located == "" {
		return Default(), nil
	}

	contents, err := os.ReadFile(filepath.Clean(located))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the settings and fills in defaults.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.Interpreter == "" {
		cfg.Interpreter = DefaultInterpreter
	}

	if cfg.Timestamp == 0 {
		cfg.Timestamp = par.DefaultTimestamp().Unix()
	}

	if cfg.CompressionLevel == 0 {
		cfg.CompressionLevel = DefaultCompressionLevel
	}

	if cfg.CompressionLevel < 1 || cfg.CompressionLevel > 9 {
		return fmt.Errorf("compression level %d is outside 1..9", cfg.CompressionLevel)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%s: %w", cfg.LogLevel, errBadLogLevel)
	}

	if cfg.SearchPathVariable == "" {
		cfg.SearchPathVariable = DefaultSearchPathVariable
	}

	if strings.ContainsAny(cfg.SearchPathVariable, "= \t\n") {
		return fmt.Errorf("%q: %w", cfg.SearchPathVariable, errBadVariable)
	}

	return nil
}

// BuildTimestamp returns the fixed member timestamp as a UTC time.
func (c *Config) BuildTimestamp() time.Time {
	return time.Unix(c.Timestamp, 0).UTC()
}

// Compression returns the level recorded in an ArchiveSpec.
func (c *Config) Compression() int {
	if c.Store {
		return par.CompressionStore
	}

	return c.CompressionLevel
}
