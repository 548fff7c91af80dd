package sandbox

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnsupportedPlatform is returned when the host OS has no release artifacts.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	// ErrUnsupportedArchitecture is returned when the host CPU has no release artifacts.
	ErrUnsupportedArchitecture = errors.New("unsupported architecture")
	// ErrNotFound is returned when no active version has been selected yet.
	ErrNotFound = errors.New("active version not set")
	// ErrMissingConfiguration is returned when run finds a required file absent.
	ErrMissingConfiguration = errors.New("missing configuration")
	// ErrFetch is returned when downloading the update artifact fails.
	ErrFetch = errors.New("fetch failed")
	// ErrArchive is returned when the update artifact cannot be unpacked.
	ErrArchive = errors.New("invalid archive")
	// ErrIO is returned when a filesystem write or create fails.
	ErrIO = errors.New("filesystem error")
	// ErrExternalProcess is returned when the container runtime or compose engine fails.
	ErrExternalProcess = errors.New("external process failed")
)

// MissingConfigurationError names the file run expected but did not find.
type MissingConfigurationError struct {
	// Artifact is a human-readable name of the missing file.
	Artifact string
	// Path is where the file was expected.
	Path string
	// Err is the underlying cause, e.g. ErrNotFound for the version record.
	Err error
}

func (e *MissingConfigurationError) Error() string {
	return fmt.Sprintf("%s: no %s found at %s", ErrMissingConfiguration, e.Artifact, e.Path)
}

// Is matches ErrMissingConfiguration.
func (e *MissingConfigurationError) Is(target error) bool {
	return target == ErrMissingConfiguration
}

func (e *MissingConfigurationError) Unwrap() error {
	return e.Err
}

// ExternalProcessError describes a subprocess that could not start or exited non-zero.
type ExternalProcessError struct {
	// Command is the executable name.
	Command string
	// Args are the arguments the executable was started with.
	Args []string
	// ExitCode is the process exit status, or -1 when it never started.
	ExitCode int
	// Err is the error reported by os/exec.
	Err error
}

func (e *ExternalProcessError) Error() string {
	commandLine := strings.TrimSpace(e.Command + " " + strings.Join(e.Args, " "))
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s: %s: %v", ErrExternalProcess, commandLine, e.Err)
	}

	return fmt.Sprintf("%s: %s exited with status %d", ErrExternalProcess, commandLine, e.ExitCode)
}

// Is matches ErrExternalProcess.
func (e *ExternalProcessError) Is(target error) bool {
	return target == ErrExternalProcess
}

func (e *ExternalProcessError) Unwrap() error {
	return e.Err
}

// ExitCode extracts the child exit status carried by err.
// The boolean is false when err does not wrap an ExternalProcessError with a real status.
func ExitCode(err error) (int, bool) {
	var processErr *ExternalProcessError
	if !errors.As(err, &processErr) || processErr.ExitCode <= 0 {
		return 0, false
	}

	return processErr.ExitCode, true
}
