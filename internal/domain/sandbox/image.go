package sandbox

import (
	"errors"
	"strings"
)

var errEmptyImagePart = errors.New("image repository and tag must not be empty")

// ImageTag identifies one sandbox image version in a container registry.
type ImageTag struct {
	// Repository is the image name without tag, e.g. aztecprotocol/aztec-sandbox.
	Repository string
	// Tag is the version label supplied by the user.
	Tag string
}

// NewImageTag validates both parts and returns the reference.
func NewImageTag(repository, tag string) (ImageTag, error) {
	if strings.TrimSpace(repository) == "" || strings.TrimSpace(tag) == "" {
		return ImageTag{}, errEmptyImagePart
	}

	return ImageTag{Repository: repository, Tag: tag}, nil
}

// String renders the reference as <repository>:<tag>.
func (t ImageTag) String() string {
	return t.Repository + ":" + t.Tag
}
