package compiler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oshokin/par-builder/internal/config"
	"github.com/oshokin/par-builder/internal/domain/par"
	"github.com/oshokin/par-builder/internal/logger"
	"github.com/oshokin/par-builder/internal/stub"
)

// Options contains inputs for the compiler entry point.
// Empty values fall back to the stub file, then to the settings file.
type Options struct {
	// ConfigPath is an optional settings file. Empty means the default lookup.
	ConfigPath string
	// MainFilename is the entry-point source file.
	MainFilename string
	// ManifestFilename lists every file stored in the archive.
	ManifestFilename string
	// ManifestRoot resolves relative local paths of the manifest.
	ManifestRoot string
	// OutputFilename is the archive to create.
	OutputFilename string
	// StubFilename is an optional launcher stub supplying import roots and the interpreter.
	StubFilename string
	// Interpreter overrides the interpreter of the stub and the settings.
	Interpreter string
	// ImportRoots are appended to the import roots of the stub.
	ImportRoots []string
	// ZipSafe is "True", "False" or empty to keep the settings value.
	ZipSafe string
	// Timestamp is the member timestamp in Unix seconds. Zero keeps the settings value.
	Timestamp int64
	// LogLevel overrides the log level of the settings.
	LogLevel string
}

var errNoOptions = errors.New("compiler options are not set")

// Run merges settings, stub and flags into an ArchiveSpec and compiles it.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "par-compiler")

	if opts == nil {
		return errNoOptions
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if err = applyLogLevel(opts.LogLevel, cfg.LogLevel); err != nil {
		return err
	}

	spec, err := buildSpec(opts, cfg)
	if err != nil {
		return err
	}

	if err = Compile(ctx, spec); err != nil {
		return fmt.Errorf("compile %s: %w", opts.OutputFilename, err)
	}

	return nil
}

// applyLogLevel switches the global logger to the flag level, else the settings level.
func applyLogLevel(flagLevel, settingsLevel string) error {
	name := flagLevel
	if name == "" {
		name = settingsLevel
	}

	level, ok := logger.ParseLogLevel(name)
	if !ok {
		return fmt.Errorf("%w: unknown log level %q", par.ErrConfiguration, name)
	}

	logger.SetLevel(level)

	return nil
}

// buildSpec resolves every input of a build.
func buildSpec(opts *Options, cfg *config.Config) (*par.ArchiveSpec, error) {
	spec := &par.ArchiveSpec{
		MainFilename:     opts.MainFilename,
		Interpreter:      cfg.Interpreter,
		ManifestFilename: opts.ManifestFilename,
		ManifestRoot:     opts.ManifestRoot,
		OutputFilename:   opts.OutputFilename,
		Timestamp:        cfg.BuildTimestamp(),
		ZipSafe:          !cfg.ForceExtract,
		CompressionLevel: cfg.Compression(),
	}

	if opts.StubFilename != "" {
		s, err := stub.Parse(opts.StubFilename)
		if err != nil {
			return nil, err
		}

		spec.ImportRoots = append(spec.ImportRoots, s.ImportRoots...)
		spec.Interpreter = s.Interpreter
	}

	spec.ImportRoots = append(spec.ImportRoots, opts.ImportRoots...)

	if opts.Interpreter != "" {
		interpreter, err := stub.NormalizeInterpreter(opts.Interpreter)
		if err != nil {
			return nil, err
		}

		spec.Interpreter = interpreter
	}

	if opts.ZipSafe != "" {
		zipSafe, err := stub.ParseBool(opts.ZipSafe)
		if err != nil {
			return nil, fmt.Errorf("zip_safe: %w", err)
		}

		spec.ZipSafe = zipSafe
	}

	if opts.Timestamp != 0 {
		spec.Timestamp = time.Unix(opts.Timestamp, 0).UTC()
	}

	if cfg.BoilerplateTemplate != "" {
		text, err := os.ReadFile(filepath.Clean(cfg.BoilerplateTemplate))
		if err != nil {
			return nil, fmt.Errorf("read boilerplate template: %w", err)
		}

		spec.BoilerplateTemplate = string(text)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return spec, nil
}
