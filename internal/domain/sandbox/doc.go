// Package sandbox contains core domain types of the version manager.
//
// It defines the container image reference built from a user tag and the error
// taxonomy shared by every command, so callers can classify failures with
// errors.Is and errors.As regardless of which layer produced them.
package sandbox
