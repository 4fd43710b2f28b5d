package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/asset-sync/internal/service/syncer"
	"github.com/oshokin/asset-sync/internal/version"
)

var (
	// options are shared by every subcommand.
	options = new(syncer.Options) //nolint:gochecknoglobals // Cobra flags bind to package state.

	// rootCmd syncs the named assets, or every configured asset when none are named.
	rootCmd = &cobra.Command{ //nolint:gochecknoglobals // Required by Cobra CLI framework architecture.
		Use:   "asset-sync [asset...]",
		Short: "Download and install the latest upstream releases of vendored assets",
		Long: "asset-sync compares the tag recorded for every vendored asset with the latest upstream release,\n" +
			"downloads the platform builds of newer releases and swaps them into the project tree.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Assets = args

			return syncer.Run(cmd.Context(), options)
		},
	}

	// checkCmd reports pending updates without downloading anything.
	checkCmd = &cobra.Command{ //nolint:gochecknoglobals // Required by Cobra CLI framework architecture.
		Use:   "check [asset...]",
		Short: "Report whether newer releases are available",
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Assets = args

			return syncer.Check(cmd.Context(), options)
		},
	}

	// statusCmd prints the stored tags and the state of every installed tree.
	statusCmd = &cobra.Command{ //nolint:gochecknoglobals // Required by Cobra CLI framework architecture.
		Use:   "status [asset...]",
		Short: "Show installed tags and trees",
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Assets = args

			rows, err := syncer.Status(cmd.Context(), options)
			if err != nil {
				return err
			}

			return renderStatus(cmd.OutOrStdout(), rows)
		},
	}
)

// Execute runs the asset-sync CLI and exits with non-zero status on error.
func Execute() {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		var reported *syncer.ReportedError
		if !errors.As(err, &reported) {
			rootCmd.PrintErrln("Error:", err)
		}

		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	version.Register(rootCmd)

	rootCmd.AddCommand(checkCmd, statusCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&options.ConfigPath, "config", "c", "", "path to configuration file (default: lookup)")
	flags.StringVar(&options.LogLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	flags.BoolVarP(&options.Verbose, "verbose", "v", false, "mirror the log to stderr")

	rootCmd.Flags().BoolVarP(&options.Force, "force", "f", false, "reinstall even when the stored tag is current")
	checkCmd.Flags().BoolVarP(&options.Force, "force", "f", false, "treat every asset as not installed")
}
