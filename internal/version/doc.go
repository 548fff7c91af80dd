// Package version exposes build metadata of the version manager itself.
//
// Version, Commit and BuildTime are injected via ldflags at release time.
package version
