package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/par-builder/internal/logger"
	"github.com/oshokin/par-builder/internal/service/launcher"
	"github.com/oshokin/par-builder/internal/version"
)

var (
	// configPath to the settings YAML file. Empty means the default lookup.
	configPath string
	// verbose logs every bootstrap step regardless of the configured level.
	verbose bool

	// runOptions collects the run flags.
	runOptions = new(launcher.Options)

	// rootCmd represents the base command for running archives.
	rootCmd = &cobra.Command{
		Use:           "par-launcher",
		Short:         "Run and inspect par archives",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// runCmd starts an archive through the runtime bootstrap.
	runCmd = &cobra.Command{
		Use:   "run [archive] [args...]",
		Short: "Run an archive, extracting it first when it is not zip-safe",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := newContext()
			defer stop()

			runOptions.ConfigPath = configPath
			runOptions.ArchivePath = args[0]
			runOptions.Args = args[1:]

			return launcher.Run(ctx, runOptions)
		},
	}

	// inspectCmd describes an archive.
	inspectCmd = &cobra.Command{
		Use:   "inspect [archive]",
		Short: "Print the launcher line, descriptor and members of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := newContext()
			defer stop()

			return launcher.Inspect(ctx, &launcher.InspectOptions{
				ArchivePath: args[0],
				Out:         cmd.OutOrStdout(),
			})
		},
	}
)

// newContext sets up graceful shutdown handling and the --verbose logger.
func newContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	if verbose {
		ctx = logger.ToContext(ctx, logger.Pinned(zapcore.DebugLevel))
	}

	return ctx, stop
}

// Execute runs the par-launcher CLI. A failing child passes its exit code through.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(runCmd, inspectCmd)

	err := rootCmd.Execute()
	if err == nil {
		return
	}

	var exitErr *launcher.ExitError
	if errors.As(err, &exitErr) {
		os.Exit(exitErr.Code)
	}

	_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to settings file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every bootstrap step")

	// Everything after the archive belongs to the entry point.
	runCmd.Flags().SetInterspersed(false)
	runCmd.Flags().StringVar(&runOptions.Interpreter, "interpreter", "", "override the interpreter of the launcher line")
	runCmd.Flags().BoolVar(&runOptions.KeepExtracted, "keep_extracted", false, "do not remove the extraction directory on exit")
}
