// Package updater replaces the version manager binary with the latest release.
//
// It resolves the host platform, downloads the matching archive, unpacks it to
// a staging directory inside the install location and only then swaps the
// staged files in, so an interrupted or corrupt update leaves the previous
// binary in place.
package updater
