// Package state implements persistence for the version manager.
//
// The FileRepository keeps two plain files under the state root: the active
// version record, overwritten on every `use`, and the compose template, written
// once and then treated as authoritative.
package state
