//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"io"
	"os/exec"

	"github.com/kballard/go-shellquote"

	"github.com/oshokin/sandbox-version-manager/internal/domain/sandbox"
	"github.com/oshokin/sandbox-version-manager/internal/logger"
)

// Command describes one foreground subprocess.
type Command struct {
	// Name is the executable, looked up in PATH.
	Name string
	// Args are passed after the name.
	Args []string
	// Env is the complete child environment; nil inherits the caller's.
	Env []string
	// Stdin, Stdout and Stderr are connected to the child; nil means the null device.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the command line with shell quoting, for logs.
func (c *Command) String() string {
	return shellquote.Join(append([]string{c.Name}, c.Args...)...)
}

// Runner runs a subprocess to completion.
type Runner interface {
	// Run blocks until the process exits. A failure to start or a non-zero
	// exit is returned as *sandbox.ExternalProcessError.
	Run(ctx context.Context, cmd *Command) error
}

// OSRunner runs commands with os/exec.
type OSRunner struct{}

// NewOSRunner returns the Runner used outside tests.
func NewOSRunner() *OSRunner {
	return &OSRunner{}
}

// Run implements Runner.
func (r *OSRunner) Run(ctx context.Context, cmd *Command) error {
	logger.DebugKV(ctx, "Running command", "command", cmd.String())

	process := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	process.Env = cmd.Env
	process.Stdin = cmd.Stdin
	process.Stdout = cmd.Stdout
	process.Stderr = cmd.Stderr

	err := process.Run()
	if err == nil {
		return nil
	}

	processErr := &sandbox.ExternalProcessError{
		Command:  cmd.Name,
		Args:     cmd.Args,
		ExitCode: -1,
		Err:      err,
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		processErr.ExitCode = exitErr.ExitCode()
	}

	return processErr
}
