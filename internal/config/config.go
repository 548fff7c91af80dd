package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"
)

// Config holds the naming scheme and external commands used by the version manager.
type Config struct {
	// ImageRepository is the container image name versions are pulled from.
	ImageRepository string `yaml:"image_repository"`
	// ContainerRuntime is the executable that pulls images (docker, podman).
	ContainerRuntime string `yaml:"container_runtime"`
	// ComposeCommand is the compose engine command line, split with shell rules.
	ComposeCommand string `yaml:"compose_command"`
	// VersionEnv is the variable the compose template reads the active version from.
	VersionEnv string `yaml:"version_env"`
	// FetchTimeout bounds the whole update download.
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	// Update describes where self-update archives are published.
	Update Update `yaml:"update"`
	// Root is the state directory. It is set at runtime from --home and not persisted.
	Root string `yaml:"-"`
}

// Update describes the release artifact naming scheme.
type Update struct {
	// Host is the release host, github.com unless mirrored.
	Host string `yaml:"host"`
	// Repository is the owner/name of the repository publishing releases.
	Repository string `yaml:"repository"`
	// Channel is the release tag followed by update, e.g. nightly or latest.
	Channel string `yaml:"channel"`
	// ArtifactName is the archive name prefix and the executable it contains.
	ArtifactName string `yaml:"artifact_name"`
	// ArchiveFormat is tar.gz or tar.xz.
	ArchiveFormat string `yaml:"archive_format"`
}

const (
	// DefaultConfigFilename is the config file name looked up in the state root.
	DefaultConfigFilename = "config.yaml"

	// DefaultRootDirname is the state root directory name under the user's home.
	DefaultRootDirname = ".aztec"

	// RootEnv overrides the state root when --home is not given.
	RootEnv = "AZTEC_HOME"

	// DefaultImageRepository is the sandbox image repository.
	DefaultImageRepository = "aztecprotocol/aztec-sandbox"

	// DefaultContainerRuntime pulls images.
	DefaultContainerRuntime = "docker"

	// DefaultComposeCommand runs the orchestration template.
	DefaultComposeCommand = "docker-compose"

	// DefaultVersionEnv is read by the embedded compose template.
	DefaultVersionEnv = "SANDBOX_VERSION"

	// DefaultFetchTimeout bounds update downloads.
	DefaultFetchTimeout = 5 * time.Minute

	// DefaultUpdateHost hosts release artifacts.
	DefaultUpdateHost = "github.com"

	// DefaultUpdateRepository publishes version manager releases.
	DefaultUpdateRepository = "AztecProtocol/sandbox-version-manager"

	// DefaultUpdateChannel is the release tag followed by update.
	DefaultUpdateChannel = "nightly"

	// DefaultArtifactName prefixes archive names and names the executable.
	DefaultArtifactName = "aztec-sandbox"

	// ArchiveFormatTarGz is a gzip-compressed tarball.
	ArchiveFormatTarGz = "tar.gz"

	// ArchiveFormatTarXz is an xz-compressed tarball.
	ArchiveFormatTarXz = "tar.xz"

	// DefaultFilePermissions is the permission of files written into the state root.
	DefaultFilePermissions = 0o644

	// DefaultDirPermissions is the permission of directories created in the state root.
	DefaultDirPermissions = 0o755
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errEmptyComposeCommand is returned when the compose command has no words.
	errEmptyComposeCommand = errors.New("compose command must not be empty")
	// errInvalidVersionEnv is returned for names the shell could not export.
	errInvalidVersionEnv = errors.New("version variable must be a valid environment variable name")
	// errUnknownArchiveFormat is returned for formats other than tar.gz and tar.xz.
	errUnknownArchiveFormat = errors.New("archive format must be tar.gz or tar.xz")
	// errInvalidName is returned for repository, channel or artifact names with path separators or spaces.
	errInvalidName = errors.New("invalid name")

	envNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Default returns a configuration with every field set to its default.
func Default() *Config {
	return &Config{
		ImageRepository:  DefaultImageRepository,
		ContainerRuntime: DefaultContainerRuntime,
		ComposeCommand:   DefaultComposeCommand,
		VersionEnv:       DefaultVersionEnv,
		FetchTimeout:     DefaultFetchTimeout,
		Update: Update{
			Host:          DefaultUpdateHost,
			Repository:    DefaultUpdateRepository,
			Channel:       DefaultUpdateChannel,
			ArtifactName:  DefaultArtifactName,
			ArchiveFormat: ArchiveFormatTarGz,
		},
	}
}

// DefaultRoot resolves the state root: $AZTEC_HOME, else ~/.aztec.
func DefaultRoot() (string, error) {
	if root := strings.TrimSpace(os.Getenv(RootEnv)); root != "" {
		return filepath.Clean(root), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}

	return filepath.Join(home, DefaultRootDirname), nil
}

// Load reads configuration from the provided path, fills defaults and validates it.
// A missing file is reported with an error wrapping fs.ErrNotExist.
func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the provided path, creating its directory.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	if err := os.WriteFile(path, data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills empty fields with defaults and rejects malformed values.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	defaults := Default()
	setDefault(&cfg.ImageRepository, defaults.ImageRepository)
	setDefault(&cfg.ContainerRuntime, defaults.ContainerRuntime)
	setDefault(&cfg.ComposeCommand, defaults.ComposeCommand)
	setDefault(&cfg.VersionEnv, defaults.VersionEnv)
	setDefault(&cfg.Update.Host, defaults.Update.Host)
	setDefault(&cfg.Update.Repository, defaults.Update.Repository)
	setDefault(&cfg.Update.Channel, defaults.Update.Channel)
	setDefault(&cfg.Update.ArtifactName, defaults.Update.ArtifactName)
	setDefault(&cfg.Update.ArchiveFormat, defaults.Update.ArchiveFormat)

	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}

	if _, err := cfg.ComposeArgv(); err != nil {
		return err
	}

	if !envNamePattern.MatchString(cfg.VersionEnv) {
		return fmt.Errorf("%q: %w", cfg.VersionEnv, errInvalidVersionEnv)
	}

	switch cfg.Update.ArchiveFormat {
	case ArchiveFormatTarGz, ArchiveFormatTarXz:
	default:
		return fmt.Errorf("%q: %w", cfg.Update.ArchiveFormat, errUnknownArchiveFormat)
	}

	for field, value := range map[string]string{
		"update.host":          cfg.Update.Host,
		"update.channel":       cfg.Update.Channel,
		"update.artifact_name": cfg.Update.ArtifactName,
	} {
		if strings.ContainsAny(value, "/\\ \t") {
			return fmt.Errorf("%s %q: %w", field, value, errInvalidName)
		}
	}

	if strings.Count(cfg.Update.Repository, "/") != 1 || strings.ContainsAny(cfg.Update.Repository, " \t") {
		return fmt.Errorf("update.repository %q must be owner/name: %w", cfg.Update.Repository, errInvalidName)
	}

	return nil
}

// ComposeArgv splits ComposeCommand into the executable and its leading arguments.
func (c *Config) ComposeArgv() ([]string, error) {
	words, err := shellquote.Split(c.ComposeCommand)
	if err != nil {
		return nil, fmt.Errorf("parse compose command %q: %w", c.ComposeCommand, err)
	}

	if len(words) == 0 {
		return nil, errEmptyComposeCommand
	}

	return words, nil
}

// BinDir is where the self-updated executable lives.
func (c *Config) BinDir() string {
	return filepath.Join(c.Root, "bin")
}

// ExecutablePath is the live path of the self-updated executable.
func (c *Config) ExecutablePath() string {
	return filepath.Join(c.BinDir(), c.Update.ArtifactName)
}

func setDefault(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}
