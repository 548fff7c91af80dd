// Package config defines the settings of the version manager and provides
// helpers to load, validate and save them in YAML format.
//
// Every field has a default, so the config file is optional. The naming scheme
// of release artifacts (repository, channel, artifact name, archive format) is
// configurable because releases have been published under more than one scheme.
package config
