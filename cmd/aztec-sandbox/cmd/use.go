package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/sandbox-version-manager/internal/service/selector"
)

// useCmd pins the version run starts.
var useCmd = &cobra.Command{
	Use:   "use <version>",
	Short: "Set the sandbox version started by run.",
	Long: `Write the version to <home>/version. The value is stored exactly as given
and is not checked against installed images.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		options := &selector.Options{
			Version:    args[0],
			Repository: stateRepository(),
		}

		return selector.Run(cmd.Context(), options)
	},
}
