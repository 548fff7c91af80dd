package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/sandbox-version-manager/internal/service/updater"
)

// updateCmd replaces the version manager binary with the latest release.
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download and install the latest version manager release.",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		// Setup graceful shutdown handling.
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		return updater.Run(ctx, &updater.Options{Config: settings})
	},
}
