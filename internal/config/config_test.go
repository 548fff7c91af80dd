package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks default filling and format validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := new(Config)
	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultImageRepository, cfg.ImageRepository)
	require.Equal(t, DefaultVersionEnv, cfg.VersionEnv)
	require.Equal(t, ArchiveFormatTarGz, cfg.Update.ArchiveFormat)
	require.Equal(t, DefaultFetchTimeout, cfg.FetchTimeout)

	bad := []*Config{
		{VersionEnv: "1BAD"},
		{VersionEnv: "SANDBOX-VERSION"},
		{ComposeCommand: `docker "compose`},
		{Update: Update{ArchiveFormat: "zip"}},
		{Update: Update{Repository: "no-owner"}},
		{Update: Update{Channel: "night ly"}},
		{Update: Update{ArtifactName: "../escape"}},
	}
	for _, cfg := range bad {
		require.Error(t, Validate(cfg), "%+v", cfg)
	}

	require.Error(t, Validate(nil))
}

// TestComposeArgv verifies shell-style splitting of the compose command.
func TestComposeArgv(t *testing.T) {
	t.Parallel()

	cfg := &Config{ComposeCommand: `docker compose --project-name 'aztec sandbox'`}

	argv, err := cfg.ComposeArgv()
	require.NoError(t, err)
	require.Equal(t, []string{"docker", "compose", "--project-name", "aztec sandbox"}, argv)

	cfg.ComposeCommand = "   "
	_, err = cfg.ComposeArgv()
	require.Error(t, err)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", DefaultConfigFilename)

	cfg := Default()
	cfg.ComposeCommand = "docker compose"
	cfg.FetchTimeout = time.Minute
	cfg.Update.Channel = "latest"
	cfg.Update.ArchiveFormat = ArchiveFormatTarXz
	cfg.Root = dir

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "docker compose", loaded.ComposeCommand)
	require.Equal(t, time.Minute, loaded.FetchTimeout)
	require.Equal(t, "latest", loaded.Update.Channel)
	require.Equal(t, ArchiveFormatTarXz, loaded.Update.ArchiveFormat)
	require.Empty(t, loaded.Root, "root is runtime-only")
}

// TestLoad_PartialFileKeepsDefaults ensures unspecified keys fall back to defaults.
func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte("update:\n  channel: latest\n"), DefaultFilePermissions))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "latest", cfg.Update.Channel)
	require.Equal(t, DefaultUpdateRepository, cfg.Update.Repository)
	require.Equal(t, DefaultComposeCommand, cfg.ComposeCommand)
}

// TestLoad_Missing reports fs.ErrNotExist so callers can fall back to defaults.
func TestLoad_Missing(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, fs.ErrNotExist)
}

// TestDefaultRoot_Env verifies AZTEC_HOME overrides the home-based root.
func TestDefaultRoot_Env(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(RootEnv, dir)

	root, err := DefaultRoot()
	require.NoError(t, err)
	require.Equal(t, dir, root)
}

// TestExecutablePath checks the bin layout under the root.
func TestExecutablePath(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Root = filepath.FromSlash("/home/u/.aztec")

	require.Equal(t, filepath.FromSlash("/home/u/.aztec/bin"), cfg.BinDir())
	require.Equal(t, filepath.FromSlash("/home/u/.aztec/bin/aztec-sandbox"), cfg.ExecutablePath())
}

// TestValidate_RuntimePath accepts a container runtime given as an absolute path.
func TestValidate_RuntimePath(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.ContainerRuntime = "/usr/local/bin/podman"

	require.NoError(t, Validate(cfg))
	require.Equal(t, "/usr/local/bin/podman", cfg.ContainerRuntime)
}
