//go:build !unix

package platform

import "runtime"

// QueryHost reports the Go target on systems without uname(2).
// Such targets have no release artifacts, so resolution rejects them.
func QueryHost() (Host, error) {
	return Host{System: runtime.GOOS, Machine: runtime.GOARCH}, nil
}
