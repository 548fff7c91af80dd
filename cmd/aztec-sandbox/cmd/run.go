package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/sandbox-version-manager/internal/service/launcher"
)

// runCmd starts the sandbox in the foreground.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the sandbox with the active version.",
	Long: `Start the sandbox with the compose engine in the foreground.

The compose file is written to <home>/run on first use and never regenerated,
so local edits are kept. Interrupts go straight to the compose engine, and its
exit status becomes the exit status of this command.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		options := &launcher.Options{
			Config:     settings,
			Repository: stateRepository(),
			Stdin:      cmd.InOrStdin(),
			Stdout:     cmd.OutOrStdout(),
			Stderr:     cmd.ErrOrStderr(),
		}

		return launcher.Run(cmd.Context(), options)
	},
}
