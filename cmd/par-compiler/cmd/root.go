package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/par-builder/internal/config"
	"github.com/oshokin/par-builder/internal/service/compiler"
	"github.com/oshokin/par-builder/internal/version"
)

var (
	// configPath to the settings YAML file. Empty means the default lookup.
	configPath string

	// options collects the build flags.
	options = new(compiler.Options)

	// rootCmd represents the base command for building archives.
	rootCmd = &cobra.Command{
		Use:           "par-compiler [main_filename]",
		Short:         "Build a self-executing par archive",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options.ConfigPath = configPath
			options.MainFilename = args[0]

			return compiler.Run(ctx, options)
		},
	}

	// initSettingsCmd writes a settings file with every default filled in.
	initSettingsCmd = &cobra.Command{
		Use:   "init-settings",
		Short: "Write a settings file with default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath
			if path == "" {
				path = config.DefaultConfigFilename
			}

			if err := config.Save(path, config.Default()); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Settings written to", path)

			return nil
		},
	}
)

// Execute runs the par-compiler CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)
	rootCmd.AddCommand(initSettingsCmd)

	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to settings file")

	flags := rootCmd.Flags()
	flags.StringVar(&options.ManifestFilename, "manifest_file", "", "file listing all files to be included in the archive")
	flags.StringVar(&options.ManifestRoot, "manifest_root", "", "root directory of all relative paths in the manifest file")
	flags.StringVar(&options.OutputFilename, "outputpar", "", "filename of the generated archive")
	flags.StringVar(&options.StubFilename, "stub_file", "", "read import roots and interpreter from the launcher stub")
	flags.StringVar(&options.Interpreter, "interpreter", "", "interpreter invocation for the launcher line")
	flags.StringArrayVar(&options.ImportRoots, "import_root", nil, "additional import root, may be repeated")
	flags.StringVar(&options.ZipSafe, "zip_safe", "", "whether the archive can run without extraction (True or False)")
	flags.Int64Var(&options.Timestamp, "timestamp", 0, "member timestamp in Unix seconds")
	flags.StringVar(&options.LogLevel, "log_level", "", "log level: debug, info, warn, error")

	_ = rootCmd.MarkFlagRequired("manifest_file")
	_ = rootCmd.MarkFlagRequired("outputpar")
}
