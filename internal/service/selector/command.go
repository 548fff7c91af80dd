package selector

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/sandbox-version-manager/internal/logger"
	"github.com/oshokin/sandbox-version-manager/internal/repository/state"
)

// Options are inputs accepted by the selector entry point.
type Options struct {
	// Version is stored exactly as given.
	Version string
	// Repository persists the choice.
	Repository state.Repository
}

var (
	errEmptyVersion          = errors.New("version must not be empty")
	errRepositoryNotProvided = errors.New("state repository is not set")
)

// Run overwrites the active version record.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "selector")

	if opts.Repository == nil {
		return errRepositoryNotProvided
	}

	if opts.Version == "" {
		return errEmptyVersion
	}

	if err := opts.Repository.WriteActiveVersion(ctx, opts.Version); err != nil {
		return fmt.Errorf("set active version: %w", err)
	}

	logger.InfoKV(ctx, "Set version", "version", opts.Version, "path", opts.Repository.VersionPath())

	return nil
}
