package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"mvdan.cc/sh/v3/shell"

	"github.com/oshokin/par-builder/internal/bootstrap"
	"github.com/oshokin/par-builder/internal/config"
	"github.com/oshokin/par-builder/internal/container"
	"github.com/oshokin/par-builder/internal/domain/par"
	"github.com/oshokin/par-builder/internal/logger"
	"github.com/oshokin/par-builder/internal/metadata"
)

// Options contains inputs for the launcher entry point.
type Options struct {
	// ConfigPath is an optional settings file. Empty means the default lookup.
	ConfigPath string
	// ArchivePath is the archive to run.
	ArchivePath string
	// Args are passed to the entry point.
	Args []string
	// Interpreter overrides the invocation of the launcher line.
	Interpreter string
	// KeepExtracted leaves the extraction directory behind, in addition to the settings value.
	KeepExtracted bool
	// Stdin, Stdout and Stderr of the child. Nil means the launcher's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// ExitError carries a non-zero exit code of the child interpreter.
type ExitError struct {
	// Code is the exit code of the child.
	Code int
}

// Error implements error.
func (e *ExitError) Error() string {
	return "interpreter exited with code " + strconv.Itoa(e.Code)
}

var (
	errNoOptions     = errors.New("launcher options are not set")
	errNoInterpreter = errors.New("archive has no launcher line and no interpreter was given")
)

// Run starts the archive and blocks until the child interpreter exits.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "par-launcher")

	if opts == nil {
		return errNoOptions
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	if level, ok := logger.ParseLogLevel(cfg.LogLevel); ok {
		logger.SetLevel(level)
	}

	archivePath, err := filepath.Abs(opts.ArchivePath)
	if err != nil {
		return fmt.Errorf("resolve archive path: %w", err)
	}

	descriptor, headerInterpreter, err := readArchive(archivePath)
	if err != nil {
		return err
	}

	interpreter := firstNonEmpty(opts.Interpreter, headerInterpreter, descriptor.Interpreter)
	if interpreter == "" {
		return fmt.Errorf("%w: %s", errNoInterpreter, archivePath)
	}

	if removed, sweepErr := bootstrap.SweepStale(ctx, cfg.ExtractRoot); sweepErr != nil {
		logger.WarnKV(ctx, "Unable to sweep stale extraction directories", "error", sweepErr)
	} else if removed > 0 {
		logger.InfoKV(ctx, "Removed stale extraction directories", "count", removed)
	}

	env := bootstrap.NewProcessEnv(archivePath, cfg.SearchPathVariable, os.Getenv(cfg.SearchPathVariable))
	defer env.Close()

	setupOpts := &bootstrap.Options{
		ImportRoots:   descriptor.ImportRoots,
		ZipSafe:       descriptor.ZipSafe,
		KeepExtracted: cfg.KeepExtracted || opts.KeepExtracted,
		ExtractRoot:   cfg.ExtractRoot,
	}

	if !cfg.DisableMetadata {
		setupOpts.Lookups = []metadata.Lookup{env.Lookup}
	}

	if state, ok := bootstrap.Setup(ctx, env, setupOpts); ok {
		logger.DebugKV(ctx, "Runtime support initialized",
			"search_path", state.SearchPath,
			"extract_dir", state.ExtractDir,
			"distributions", len(state.Distributions))
	}

	return runInterpreter(ctx, interpreter, env, opts)
}

// readArchive returns the bootstrap descriptor and the launcher line interpreter.
func readArchive(archivePath string) (*par.Descriptor, string, error) {
	archive, err := container.Open(archivePath)
	if err != nil {
		return nil, "", err
	}
	defer archive.Close() //nolint:errcheck // Read-only file.

	data, err := archive.ReadMember(par.DescriptorPath)
	if err != nil {
		return nil, "", fmt.Errorf("%s is not a par archive: %w", archivePath, err)
	}

	descriptor, err := par.ParseDescriptor(data)
	if err != nil {
		return nil, "", err
	}

	return descriptor, archive.Interpreter, nil
}

// runInterpreter executes the interpreter on the entry of env.
func runInterpreter(ctx context.Context, interpreter string, env *bootstrap.ProcessEnv, opts *Options) error {
	argv, err := shell.Fields(interpreter, os.Getenv)
	if err != nil {
		return fmt.Errorf("%w: cannot split interpreter %q: %w", par.ErrConfiguration, interpreter, err)
	}

	if len(argv) == 0 {
		return fmt.Errorf("%w: %s", errNoInterpreter, env.Entry())
	}

	argv = append(argv, env.Entry())
	argv = append(argv, opts.Args...)

	logger.DebugKV(ctx, "Starting interpreter", "argv", argv)

	//nolint:gosec // G204: the interpreter comes from the archive being run on purpose.
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = env.Environ(os.Environ())
	cmd.Stdin = readerOr(opts.Stdin, os.Stdin)
	cmd.Stdout = writerOr(opts.Stdout, os.Stdout)
	cmd.Stderr = writerOr(opts.Stderr, os.Stderr)

	err = cmd.Run()
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return &ExitError{Code: exitErr.ExitCode()}
	}

	return fmt.Errorf("run interpreter %s: %w", argv[0], err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func readerOr(r, fallback io.Reader) io.Reader {
	if r != nil {
		return r
	}

	return fallback
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}

	return fallback
}
