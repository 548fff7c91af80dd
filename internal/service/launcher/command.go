package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/oshokin/sandbox-version-manager/internal/config"
	"github.com/oshokin/sandbox-version-manager/internal/domain/sandbox"
	"github.com/oshokin/sandbox-version-manager/internal/logger"
	"github.com/oshokin/sandbox-version-manager/internal/repository/state"
	"github.com/oshokin/sandbox-version-manager/internal/service/common"
)

// Options are inputs accepted by the launcher entry point.
type Options struct {
	// Config supplies the compose command and the version variable name.
	Config *config.Config
	// Repository holds the template and the active version.
	Repository state.Repository
	// Runner executes the compose engine; nil uses the OS runner.
	Runner common.Runner
	// Environ is the base child environment; nil uses os.Environ().
	Environ []string
	// Stdin, Stdout and Stderr are forwarded to the engine; nil uses the process streams.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

var (
	errSettingsNotInitialised = errors.New("settings are not initialized")
	errRepositoryNotProvided  = errors.New("state repository is not set")
)

// Run ensures the template, binds the active version and runs `<compose> -f <template> up`.
// Nothing is spawned when the template or the version record is missing.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "launcher")

	if opts.Config == nil {
		return errSettingsNotInitialised
	}

	if opts.Repository == nil {
		return errRepositoryNotProvided
	}

	ctx = logger.WithKV(ctx, "root", opts.Config.Root)

	created, err := opts.Repository.EnsureTemplate(ctx)
	if err != nil {
		return fmt.Errorf("write compose template: %w", err)
	}

	if created {
		logger.InfoKV(ctx, "Wrote compose template", "path", opts.Repository.TemplatePath())
	}

	activeVersion, err := readRequiredState(ctx, opts.Repository)
	if err != nil {
		return err
	}

	argv, err := opts.Config.ComposeArgv()
	if err != nil {
		return err
	}

	environ := opts.Environ
	if environ == nil {
		environ = os.Environ()
	}

	runner := opts.Runner
	if runner == nil {
		runner = common.NewOSRunner()
	}

	args := make([]string, 0, len(argv)+2)
	args = append(args, argv[1:]...)
	args = append(args, "-f", opts.Repository.TemplatePath(), "up")

	cmd := &common.Command{
		Name:   argv[0],
		Args:   args,
		Env:    BindEnvironment(environ, opts.Config.VersionEnv, activeVersion),
		Stdin:  readerOr(opts.Stdin, os.Stdin),
		Stdout: writerOr(opts.Stdout, os.Stdout),
		Stderr: writerOr(opts.Stderr, os.Stderr),
	}

	logger.InfoKV(ctx, "Starting sandbox", "version", activeVersion, "command", cmd.String())

	if err = runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("run sandbox %s: %w", activeVersion, err)
	}

	logger.Info(ctx, "Sandbox stopped")

	return nil
}

// readRequiredState checks both files run depends on and returns the active version.
func readRequiredState(ctx context.Context, repo state.Repository) (string, error) {
	if err := requireFile(repo.TemplatePath(), "docker-compose file", nil); err != nil {
		return "", err
	}

	if err := requireFile(repo.VersionPath(), "version file", sandbox.ErrNotFound); err != nil {
		return "", err
	}

	activeVersion, err := repo.ReadActiveVersion(ctx)
	if errors.Is(err, sandbox.ErrNotFound) {
		return "", &sandbox.MissingConfigurationError{
			Artifact: "version file",
			Path:     repo.VersionPath(),
			Err:      err,
		}
	}

	if err != nil {
		return "", fmt.Errorf("read active version: %w", err)
	}

	return activeVersion, nil
}

func requireFile(path, artifact string, cause error) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %w", sandbox.ErrIO, artifact, err)
	}

	if cause == nil {
		cause = err
	}

	return &sandbox.MissingConfigurationError{Artifact: artifact, Path: path, Err: cause}
}

// BindEnvironment returns a copy of environ with name set to value.
// Earlier bindings of name are dropped so the child sees exactly one.
func BindEnvironment(environ []string, name, value string) []string {
	prefix := name + "="
	result := make([]string, 0, len(environ)+1)

	for _, kv := range environ {
		if strings.HasPrefix(kv, prefix) {
			continue
		}

		result = append(result, kv)
	}

	return append(result, prefix+value)
}

func readerOr(r, fallback io.Reader) io.Reader {
	if r != nil {
		return r
	}

	return fallback
}

func writerOr(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}

	return fallback
}
