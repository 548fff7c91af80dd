//go:build unix

package platform

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// QueryHost reads the kernel name and machine hardware name via uname(2).
func QueryHost() (Host, error) {
	var name unix.Utsname
	if err := unix.Uname(&name); err != nil {
		return Host{}, fmt.Errorf("uname: %w", err)
	}

	return Host{
		System:  unix.ByteSliceToString(name.Sysname[:]),
		Machine: unix.ByteSliceToString(name.Machine[:]),
	}, nil
}
