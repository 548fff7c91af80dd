package artifact

import (
	"fmt"
	"net/url"
	"path"

	"github.com/oshokin/sandbox-version-manager/internal/config"
	"github.com/oshokin/sandbox-version-manager/internal/platform"
)

// Locator composes release download URLs. It never checks that the URL exists.
type Locator struct {
	// Host serves releases, e.g. github.com.
	Host string
	// ArtifactName prefixes archive file names.
	ArtifactName string
	// Extension is the archive extension without the leading dot.
	Extension string
}

// NewLocator builds a Locator from the update section of the configuration.
func NewLocator(cfg *config.Update) *Locator {
	return &Locator{
		Host:         cfg.Host,
		ArtifactName: cfg.ArtifactName,
		Extension:    cfg.ArchiveFormat,
	}
}

// FileName is the archive name for a descriptor: <artifact>-<arch>-<os>.<ext>.
func (l *Locator) FileName(d platform.Descriptor) string {
	return fmt.Sprintf("%s-%s.%s", l.ArtifactName, d.Triple(), l.Extension)
}

// Locate returns https://<host>/<repository>/releases/download/<channel>/<file>.
// Identical inputs always produce the identical URL.
func (l *Locator) Locate(repository, channel string, d platform.Descriptor) string {
	u := url.URL{
		Scheme: "https",
		Host:   l.Host,
		Path:   "/" + path.Join(repository, "releases", "download", channel, l.FileName(d)),
	}

	return u.String()
}
