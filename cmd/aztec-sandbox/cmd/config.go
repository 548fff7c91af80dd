package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oshokin/sandbox-version-manager/internal/config"
	"github.com/oshokin/sandbox-version-manager/internal/logger"
)

var (
	// forceConfig overwrites an existing configuration file.
	forceConfig bool

	errConfigExists = errors.New("configuration file already exists, use --force to overwrite")

	// configCmd groups configuration helpers.
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file.",
	}

	// configInitCmd writes a starter configuration with every default spelled out.
	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := configPath
			if path == "" {
				path = filepath.Join(settings.Root, config.DefaultConfigFilename)
			}

			if _, err := os.Stat(path); err == nil && !forceConfig {
				return fmt.Errorf("%s: %w", path, errConfigExists)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("check settings: %w", err)
			}

			if err := config.Save(path, config.Default()); err != nil {
				return err
			}

			logger.InfoKV(cmd.Context(), "Wrote configuration", "path", path)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	configInitCmd.Flags().BoolVarP(&forceConfig, "force", "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
}
