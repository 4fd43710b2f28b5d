package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Register sets the --version output of root and adds a version subcommand.
func Register(root *cobra.Command) {
	root.Version = Version

	var short bool

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show the build of asset-sync",
		Long:  "Show the release, commit, build time and Go toolchain of this binary. --short prints the release only.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if short {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), Version)
				return
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), Current())
		},
	}

	versionCmd.Flags().BoolVar(&short, "short", false, "print the release only")
	root.AddCommand(versionCmd)
}
