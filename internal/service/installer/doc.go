// Package installer pulls a sandbox image version into the local container cache.
package installer
