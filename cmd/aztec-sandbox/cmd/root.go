package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/oshokin/sandbox-version-manager/internal/config"
	"github.com/oshokin/sandbox-version-manager/internal/domain/sandbox"
	"github.com/oshokin/sandbox-version-manager/internal/logger"
	"github.com/oshokin/sandbox-version-manager/internal/repository/state"
	"github.com/oshokin/sandbox-version-manager/internal/version"
)

var (
	// homePath is the state root; empty resolves $AZTEC_HOME or ~/.aztec.
	homePath string
	// configPath to the configuration YAML file; empty means <home>/config.yaml.
	configPath string
	// logLevel of the global logger.
	logLevel string

	// settings are loaded once per invocation before any subcommand runs.
	settings *config.Config

	errUnknownLogLevel = errors.New("unknown log level")

	// rootCmd represents the base command of the version manager.
	rootCmd = &cobra.Command{
		Use:   "aztec-sandbox",
		Short: "Install, pin and run versions of the local sandbox.",
		Long: `Manage the containerized local sandbox.

Images are pulled with the container runtime, the active version is pinned in
<home>/version and the sandbox is started from the compose file at <home>/run.
The update command replaces this binary in <home>/bin with the latest release.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadSettings,
	}
)

// Execute runs the aztec-sandbox CLI and exits with non-zero status on error.
// A failed child process passes its own exit status through.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(context.Background(), err))
	}
}

// exitCode logs the failure once and picks the process exit status for it.
func exitCode(ctx context.Context, err error) int {
	logger.ErrorKV(ctx, "Command failed", "error", err)

	if code, ok := sandbox.ExitCode(err); ok {
		return code
	}

	return 1
}

// loadSettings applies the log level and reads the configuration.
// A missing config file means defaults, unless --config named it explicitly.
// config init always starts from defaults, so it can replace a broken file.
func loadSettings(cmd *cobra.Command, _ []string) error {
	level, ok := logger.ParseLogLevel(logLevel)
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, logLevel)
	}

	logger.SetLevel(level)

	root := homePath
	if root == "" {
		var err error
		if root, err = config.DefaultRoot(); err != nil {
			return err
		}
	}

	path := configPath
	if path == "" {
		path = filepath.Join(root, config.DefaultConfigFilename)
	}

	cfg, err := config.Load(path)

	switch {
	case err == nil:
		logger.Debugf(cmd.Context(), "Loaded settings from %s", path)
	case errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	case cmd == configInitCmd:
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warnf(cmd.Context(), "Ignoring unreadable settings: %v", err)
		}

		cfg = config.Default()
	default:
		return err
	}

	cfg.Root = filepath.Clean(root)
	settings = cfg

	return nil
}

// stateRepository opens the file-backed state under the resolved root.
func stateRepository() state.Repository {
	return state.NewFileRepository(settings.Root)
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().
		StringVarP(&homePath, "home", "H", "", "state directory (default $"+config.RootEnv+" or ~/"+config.DefaultRootDirname+")")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "", "path to configuration file (default <home>/"+config.DefaultConfigFilename+")")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "log level: debug, info, warn, error")

	rootCmd.AddCommand(installCmd, useCmd, runCmd, updateCmd, configCmd)
}
