package platform

import (
	"fmt"

	"github.com/oshokin/sandbox-version-manager/internal/domain/sandbox"
)

// Host is what the operating system reports about itself, in uname terms.
type Host struct {
	// System is the kernel name, e.g. Darwin or Linux (uname -s).
	System string
	// Machine is the hardware name, e.g. x86_64, arm64 or aarch64 (uname -m).
	Machine string
}

// Descriptor holds the canonical tokens used in release archive names.
type Descriptor struct {
	// Arch is the CPU token, e.g. x86_64 or aarch64.
	Arch string
	// OS is the vendor-system token, e.g. apple-darwin or unknown-linux-gnu.
	OS string
}

// Triple renders the descriptor as <arch>-<os>.
func (d Descriptor) Triple() string {
	return d.Arch + "-" + d.OS
}

//nolint:gochecknoglobals // Read-only lookup tables.
var (
	osTriples = map[string]string{
		"Darwin": "apple-darwin",
		"Linux":  "unknown-linux-gnu",
	}

	archTokens = map[string]string{
		"arm64":   "aarch64",
		"aarch64": "aarch64",
		"x86_64":  "x86_64",
	}
)

// Resolve maps a host to its release descriptor.
// The OS is checked before the architecture.
func Resolve(host Host) (Descriptor, error) {
	osTriple, ok := osTriples[host.System]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", sandbox.ErrUnsupportedPlatform, host.System)
	}

	arch, ok := archTokens[host.Machine]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", sandbox.ErrUnsupportedArchitecture, host.Machine)
	}

	return Descriptor{Arch: arch, OS: osTriple}, nil
}

// Detect queries the running host and resolves it.
func Detect() (Descriptor, error) {
	host, err := QueryHost()
	if err != nil {
		return Descriptor{}, err
	}

	return Resolve(host)
}
