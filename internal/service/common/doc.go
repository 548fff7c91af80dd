// Package common holds helpers shared by several services.
//
// It provides the Runner abstraction over external processes (container
// runtime, compose engine) and the Fetcher abstraction over the update
// download, with real implementations on os/exec and net/http.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
