package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/sandbox-version-manager/internal/artifact"
	"github.com/oshokin/sandbox-version-manager/internal/config"
	"github.com/oshokin/sandbox-version-manager/internal/domain/sandbox"
	"github.com/oshokin/sandbox-version-manager/internal/logger"
	"github.com/oshokin/sandbox-version-manager/internal/platform"
	"github.com/oshokin/sandbox-version-manager/internal/service/common"
)

var (
	errSettingsNotInitialised = errors.New("settings are not initialized")
	errNoExecutable           = errors.New("archive does not contain the executable")
)

// Options are inputs accepted by the updater entry point.
type Options struct {
	// Config supplies the state root and the release naming scheme.
	Config *config.Config
	// Fetcher downloads the archive; nil uses HTTP with Config.FetchTimeout.
	Fetcher common.Fetcher
	// Host overrides the queried host; nil asks the operating system.
	Host *platform.Host
}

// runner holds the state of a single update execution.
// It is intentionally unexported; call Run(ctx, Options) from callers.
type runner struct {
	cfg                *config.Config // Configuration with a resolved Root.
	fetcher            common.Fetcher // Transport for the archive download.
	host               *platform.Host // Optional host override.
	stagingDirectory   string         // Where the archive is unpacked before the swap.
	stagedFiles        []string       // Relative paths of unpacked regular files.
	executableRelative string         // Relative path of the executable inside the archive.
	chmod              func(string, os.FileMode) error
}

// Run downloads the release archive for this host and installs it into <root>/bin.
// Every step depends on the previous one; nothing is retried or resumed.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "updater")

	if opts.Config == nil {
		return errSettingsNotInitialised
	}

	up := newRunner(opts)

	defer up.cleanup(ctx)

	if err := up.Run(ctx); err != nil {
		return err
	}

	logger.Info(ctx, "Installation complete")

	return nil
}

func newRunner(opts *Options) *runner {
	up := &runner{
		cfg:                opts.Config,
		fetcher:            opts.Fetcher,
		host:               opts.Host,
		executableRelative: opts.Config.Update.ArtifactName,
		chmod:              os.Chmod,
	}

	if up.fetcher == nil {
		up.fetcher = common.NewHTTPFetcher(opts.Config.FetchTimeout)
	}

	return up
}

// Run executes the workflow:
// 1) Resolve the platform.
// 2) Locate the archive.
// 3) Download it.
// 4) Unpack it into a staging directory.
// 5) Move the staged files over the live ones.
// 6) Mark the executable as executable.
func (u *runner) Run(ctx context.Context) error {
	descriptor, err := u.resolvePlatform()
	if err != nil {
		return fmt.Errorf("resolve platform: %w", err)
	}

	ctx = logger.WithFields(ctx, "repository", u.cfg.Update.Repository, "channel", u.cfg.Update.Channel)

	locator := artifact.NewLocator(&u.cfg.Update)
	url := locator.Locate(u.cfg.Update.Repository, u.cfg.Update.Channel, descriptor)

	logger.InfoKV(ctx, "Downloading latest version", "url", url)

	data, err := u.fetcher.Fetch(ctx, url)
	if err != nil {
		return fmt.Errorf("download update: %w", err)
	}

	logger.InfoKV(ctx, "Unpacking update", "bytes", len(data))

	if err = u.stage(ctx, data); err != nil {
		return fmt.Errorf("unpack update: %w", err)
	}

	if err = u.install(ctx); err != nil {
		return fmt.Errorf("install update: %w", err)
	}

	u.markExecutable(ctx)
	warnRunningInstances(ctx, u.cfg.Update.ArtifactName)

	return nil
}

// resolvePlatform maps the host to release tokens before anything touches the network.
func (u *runner) resolvePlatform() (platform.Descriptor, error) {
	if u.host != nil {
		return platform.Resolve(*u.host)
	}

	return platform.Detect()
}

// stage unpacks the archive into a fresh directory next to the live binary,
// so the later move is a same-filesystem rename.
func (u *runner) stage(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(u.cfg.BinDir(), config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("%w: create bin directory: %w", sandbox.ErrIO, err)
	}

	stagingDirectory, err := os.MkdirTemp(u.cfg.BinDir(), stagingPattern)
	if err != nil {
		return fmt.Errorf("%w: create staging directory: %w", sandbox.ErrIO, err)
	}

	u.stagingDirectory = stagingDirectory

	stream, err := decompress(u.cfg.Update.ArchiveFormat, bytes.NewReader(data))
	if err != nil {
		return err
	}

	files, err := extract(ctx, stream, stagingDirectory)
	if err != nil {
		return err
	}

	if !slices.Contains(files, u.executableRelative) {
		return fmt.Errorf("%w: %w: %s", sandbox.ErrArchive, errNoExecutable, u.executableRelative)
	}

	u.stagedFiles = files

	logger.DebugKV(ctx, "Staged update", "directory", stagingDirectory, "files", files)

	return nil
}

// install moves every staged file into bin, the executable last.
func (u *runner) install(ctx context.Context) error {
	for _, relative := range u.stagedFiles {
		if relative == u.executableRelative {
			continue
		}

		target := filepath.Join(u.cfg.BinDir(), relative)
		if err := os.MkdirAll(filepath.Dir(target), config.DefaultDirPermissions); err != nil {
			return fmt.Errorf("%w: %w", sandbox.ErrIO, err)
		}

		if err := os.Rename(filepath.Join(u.stagingDirectory, relative), target); err != nil {
			return fmt.Errorf("%w: move %s: %w", sandbox.ErrIO, relative, err)
		}

		logger.DebugKV(ctx, "Installed file", "path", target)
	}

	return u.replaceExecutable(ctx)
}

// replaceExecutable swaps the staged executable in with go-update when a live copy
// exists, or renames it into place when none does. Either way the live path only
// ever holds a complete binary.
func (u *runner) replaceExecutable(ctx context.Context) error {
	staged := filepath.Join(u.stagingDirectory, u.executableRelative)
	live := u.cfg.ExecutablePath()

	if _, err := os.Stat(live); errors.Is(err, fs.ErrNotExist) {
		if err = os.Rename(staged, live); err != nil {
			return fmt.Errorf("%w: move executable: %w", sandbox.ErrIO, err)
		}

		logger.InfoKV(ctx, "Installed executable", "path", live)

		return nil
	}

	file, err := os.Open(staged)
	if err != nil {
		return fmt.Errorf("%w: open staged executable: %w", sandbox.ErrIO, err)
	}

	defer func() {
		_ = file.Close()
	}()

	options := goupdate.Options{
		TargetPath: live,
		TargetMode: DefaultFileMode,
	}

	if err = goupdate.Apply(file, options); err != nil {
		return fmt.Errorf("%w: replace executable: %w", sandbox.ErrIO, err)
	}

	logger.InfoKV(ctx, "Replaced executable", "path", live)

	return nil
}

// markExecutable is best-effort: some filesystems and platforms have no execute bit.
func (u *runner) markExecutable(ctx context.Context) {
	if err := u.chmod(u.cfg.ExecutablePath(), DefaultFileMode); err != nil {
		logger.WarnKV(ctx, "Could not mark the binary as executable", "path", u.cfg.ExecutablePath(), "error", err)
	}
}

// cleanup removes the staging directory whatever the outcome.
func (u *runner) cleanup(ctx context.Context) {
	if u.stagingDirectory == "" {
		return
	}

	if err := os.RemoveAll(u.stagingDirectory); err != nil {
		logger.WarnKV(ctx, "Could not remove staging directory", "path", u.stagingDirectory, "error", err)
	}
}
