// Package launcher runs the sandbox through the compose engine.
//
// It makes sure the compose template exists, reads the active version and
// hands it to the engine through an explicit child environment, then blocks
// with the engine attached to the terminal until it exits.
package launcher
