package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/oshokin/sandbox-version-manager/internal/config"
	"github.com/oshokin/sandbox-version-manager/internal/domain/sandbox"
	"github.com/oshokin/sandbox-version-manager/internal/logger"
	"github.com/oshokin/sandbox-version-manager/internal/service/common"
)

// Options are inputs accepted by the installer entry point.
type Options struct {
	// Tag is the image version to pull.
	Tag string
	// Config supplies the image repository and container runtime.
	Config *config.Config
	// Runner executes the container runtime; nil uses the OS runner.
	Runner common.Runner
	// Stdout and Stderr receive the pull progress; nil uses the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

var errSettingsNotInitialised = errors.New("settings are not initialized")

// Run pulls <repository>:<tag> through the container runtime.
// Success is decided only by the runtime's exit status; there is no retry.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "installer")

	if opts.Config == nil {
		return errSettingsNotInitialised
	}

	image, err := sandbox.NewImageTag(opts.Config.ImageRepository, opts.Tag)
	if err != nil {
		return fmt.Errorf("compose image reference: %w", err)
	}

	runner := opts.Runner
	if runner == nil {
		runner = common.NewOSRunner()
	}

	cmd := &common.Command{
		Name:   opts.Config.ContainerRuntime,
		Args:   []string{"pull", image.String()},
		Stdout: writerOr(opts.Stdout, os.Stdout),
		Stderr: writerOr(opts.Stderr, os.Stderr),
	}

	logger.InfoKV(ctx, "Pulling image", "image", image.String(), "runtime", cmd.Name)

	if err = runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("install image %s: %w", opts.Tag, err)
	}

	logger.Infof(ctx, "Image %s installed successfully", opts.Tag)

	return nil
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}

	return fallback
}
