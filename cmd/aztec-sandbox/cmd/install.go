package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sandbox-version-manager/internal/service/installer"
)

// installCmd pulls an image version into the local container cache.
var installCmd = &cobra.Command{
	Use:   "install <tag>",
	Short: "Pull a sandbox image version.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		options := &installer.Options{
			Tag:    args[0],
			Config: settings,
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		}

		return installer.Run(ctx, options)
	},
}
