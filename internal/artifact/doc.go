// Package artifact builds download URLs of self-update release archives.
package artifact
