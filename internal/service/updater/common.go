package updater

import (
	"context"
	"os"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/sandbox-version-manager/internal/logger"
)

const (
	// DefaultFileMode is applied to the installed executable.
	DefaultFileMode os.FileMode = 0o755

	// stagingPattern names the temporary extraction directory inside bin.
	stagingPattern = ".staging-"

	// commLimit is how many bytes of a process name Linux keeps in /proc/<pid>/stat.
	commLimit = 15
)

// runningInstances returns PIDs of other processes executing a binary with the given name.
func runningInstances(executable string) ([]int, error) {
	processList, err := ps.Processes()
	if err != nil {
		return nil, err
	}

	thisProcessID := os.Getpid()

	var pids []int

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if !matchesExecutable(process.Executable(), executable) {
			continue
		}

		pids = append(pids, process.Pid())
	}

	return pids, nil
}

// matchesExecutable compares a reported process name with an executable name,
// allowing for the kernel truncating long names.
func matchesExecutable(processName, executable string) bool {
	if processName == executable {
		return true
	}

	return len(processName) == commLimit && strings.HasPrefix(executable, processName)
}

// warnRunningInstances logs other copies of the executable that keep the old binary mapped.
func warnRunningInstances(ctx context.Context, executable string) {
	pids, err := runningInstances(executable)
	if err != nil {
		logger.DebugKV(ctx, "Could not list processes", "error", err)
		return
	}

	if len(pids) > 0 {
		logger.WarnKV(ctx, "Running instances keep the previous version until restarted",
			"executable", executable, "pids", pids)
	}
}
