package integration

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/sandbox-version-manager/internal/config"
	"github.com/oshokin/sandbox-version-manager/internal/domain/sandbox"
	"github.com/oshokin/sandbox-version-manager/internal/platform"
	"github.com/oshokin/sandbox-version-manager/internal/repository/state"
	"github.com/oshokin/sandbox-version-manager/internal/service/common"
	"github.com/oshokin/sandbox-version-manager/internal/service/installer"
	"github.com/oshokin/sandbox-version-manager/internal/service/launcher"
	"github.com/oshokin/sandbox-version-manager/internal/service/selector"
	"github.com/oshokin/sandbox-version-manager/internal/service/updater"
)

const (
	helperEnv       = "SANDBOX_WANT_HELPER_PROCESS"
	helperOutputEnv = "SANDBOX_HELPER_OUTPUT"
	helperExitEnv   = "SANDBOX_HELPER_EXIT"
	releasePath     = "/AztecProtocol/sandbox-version-manager/releases/download/nightly/" +
		"aztec-sandbox-x86_64-unknown-linux-gnu.tar.gz"
)

// TestHelperCompose is not a real test: it is the compose engine started by the launcher.
// It records the version variable and its arguments, then exits with the requested status.
func TestHelperCompose(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		t.Skip("helper process")
	}

	args := os.Args
	for i, arg := range args {
		if arg == "--" {
			args = args[i+1:]
			break
		}
	}

	record := os.Getenv(config.DefaultVersionEnv) + "\n" + strings.Join(args, " ")
	if err := os.WriteFile(os.Getenv(helperOutputEnv), []byte(record), 0o600); err != nil {
		os.Exit(2)
	}

	code, _ := strconv.Atoi(os.Getenv(helperExitEnv))
	os.Exit(code)
}

// helperConfig points the compose command at this test binary.
func helperConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Root = filepath.Join(t.TempDir(), ".aztec")
	cfg.ComposeCommand = shellquote.Join(os.Args[0], "-test.run=^TestHelperCompose$", "--")

	require.NoError(t, config.Validate(cfg))

	return cfg
}

func runLauncher(t *testing.T, cfg *config.Config, repo state.Repository, exitCode int) (string, error) {
	t.Helper()

	output := filepath.Join(t.TempDir(), "engine.out")
	environ := []string{
		helperEnv + "=1",
		helperOutputEnv + "=" + output,
		helperExitEnv + "=" + strconv.Itoa(exitCode),
		config.DefaultVersionEnv + "=stale",
	}

	err := launcher.Run(context.Background(), &launcher.Options{
		Config:     cfg,
		Repository: repo,
		Environ:    environ,
		Stdin:      strings.NewReader(""),
		Stdout:     io.Discard,
		Stderr:     io.Discard,
	})

	record, readErr := os.ReadFile(output)
	if readErr != nil {
		return "", err
	}

	return string(record), err
}

// TestWorkflow_UseThenRun pins a version and starts a real child process that sees it.
func TestWorkflow_UseThenRun(t *testing.T) {
	t.Parallel()

	cfg := helperConfig(t)
	repo := state.NewFileRepository(cfg.Root)

	require.NoError(t, selector.Run(context.Background(), &selector.Options{Version: "v1.2.3", Repository: repo}))

	record, err := runLauncher(t, cfg, repo, 0)
	require.NoError(t, err)

	lines := strings.SplitN(record, "\n", 2)
	require.Len(t, lines, 2)
	require.Equal(t, "v1.2.3", lines[0])
	require.Equal(t, "-f "+filepath.Join(cfg.Root, state.TemplateFilename)+" up", lines[1])

	template, err := os.ReadFile(filepath.Join(cfg.Root, state.TemplateFilename))
	require.NoError(t, err)
	require.Equal(t, state.Template, template)
}

// TestWorkflow_RunBeforeUse never starts the engine.
func TestWorkflow_RunBeforeUse(t *testing.T) {
	t.Parallel()

	cfg := helperConfig(t)
	repo := state.NewFileRepository(cfg.Root)

	record, err := runLauncher(t, cfg, repo, 0)
	require.ErrorIs(t, err, sandbox.ErrMissingConfiguration)
	require.Empty(t, record)
}

// TestWorkflow_RunPropagatesExitCode surfaces the engine's status.
func TestWorkflow_RunPropagatesExitCode(t *testing.T) {
	t.Parallel()

	cfg := helperConfig(t)
	repo := state.NewFileRepository(cfg.Root)

	require.NoError(t, selector.Run(context.Background(), &selector.Options{Version: "latest", Repository: repo}))

	_, err := runLauncher(t, cfg, repo, 3)
	require.ErrorIs(t, err, sandbox.ErrExternalProcess)

	code, ok := sandbox.ExitCode(err)
	require.True(t, ok)
	require.Equal(t, 3, code)
}

// pullRecorder records container runtime invocations.
type pullRecorder struct {
	commands []*common.Command
}

func (p *pullRecorder) Run(_ context.Context, cmd *common.Command) error {
	p.commands = append(p.commands, cmd)
	return nil
}

// TestWorkflow_InstallThenUse pulls a tag and pins it.
func TestWorkflow_InstallThenUse(t *testing.T) {
	t.Parallel()

	cfg := helperConfig(t)
	repo := state.NewFileRepository(cfg.Root)
	runtime := new(pullRecorder)

	require.NoError(t, installer.Run(context.Background(), &installer.Options{
		Tag:    "v1.2.3",
		Config: cfg,
		Runner: runtime,
		Stdout: io.Discard,
		Stderr: io.Discard,
	}))
	require.NoError(t, selector.Run(context.Background(), &selector.Options{Version: "v1.2.3", Repository: repo}))

	require.Len(t, runtime.commands, 1)
	require.Equal(t, []string{"pull", "aztecprotocol/aztec-sandbox:v1.2.3"}, runtime.commands[0].Args)

	active, err := repo.ReadActiveVersion(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v1.2.3", active)
}

func releaseArchive(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     config.DefaultArtifactName,
		Mode:     0o755,
		Size:     int64(len(body)),
		Typeflag: tar.TypeReg,
	}))

	_, err := tw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	return buf.Bytes()
}

func updateOptions(cfg *config.Config, ts *httptest.Server) *updater.Options {
	cfg.Update.Host = ts.Listener.Addr().String()

	return &updater.Options{
		Config:  cfg,
		Fetcher: &common.HTTPFetcher{Client: ts.Client(), Timeout: cfg.FetchTimeout},
		Host:    &platform.Host{System: "Linux", Machine: "x86_64"},
	}
}

// TestWorkflow_UpdateOverHTTPS downloads a release over TLS and replaces the live binary.
func TestWorkflow_UpdateOverHTTPS(t *testing.T) {
	t.Parallel()

	archive := releaseArchive(t, "release-binary")

	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != releasePath {
			http.NotFound(w, r)
			return
		}

		_, _ = w.Write(archive)
	}))
	defer ts.Close()

	cfg := helperConfig(t)
	require.NoError(t, os.MkdirAll(cfg.BinDir(), 0o755))
	require.NoError(t, os.WriteFile(cfg.ExecutablePath(), []byte("previous-binary"), 0o755))

	require.NoError(t, updater.Run(context.Background(), updateOptions(cfg, ts)))

	body, err := os.ReadFile(cfg.ExecutablePath())
	require.NoError(t, err)
	require.Equal(t, "release-binary", string(body))
}

// TestWorkflow_UpdateAbortedMidStream cuts the download short and checks the live binary survives.
func TestWorkflow_UpdateAbortedMidStream(t *testing.T) {
	t.Parallel()

	archive := releaseArchive(t, strings.Repeat("release-binary", 1024))

	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Length", strconv.Itoa(len(archive)))
		_, _ = w.Write(archive[:len(archive)/2])

		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		panic(http.ErrAbortHandler)
	}))
	defer ts.Close()

	cfg := helperConfig(t)
	require.NoError(t, os.MkdirAll(cfg.BinDir(), 0o755))
	require.NoError(t, os.WriteFile(cfg.ExecutablePath(), []byte("previous-binary"), 0o755))

	err := updater.Run(context.Background(), updateOptions(cfg, ts))
	require.ErrorIs(t, err, sandbox.ErrFetch)

	body, readErr := os.ReadFile(cfg.ExecutablePath())
	require.NoError(t, readErr)
	require.Equal(t, "previous-binary", string(body))

	entries, readErr := os.ReadDir(cfg.BinDir())
	require.NoError(t, readErr)
	require.Len(t, entries, 1, fmt.Sprintf("unexpected files in bin: %v", entries))
}

// TestWorkflow_UpdateNotFound reports a missing release as a fetch error.
func TestWorkflow_UpdateNotFound(t *testing.T) {
	t.Parallel()

	ts := httptest.NewTLSServer(http.NotFoundHandler())
	defer ts.Close()

	cfg := helperConfig(t)

	err := updater.Run(context.Background(), updateOptions(cfg, ts))
	require.ErrorIs(t, err, sandbox.ErrFetch)

	_, statErr := os.Stat(cfg.ExecutablePath())
	require.ErrorIs(t, statErr, os.ErrNotExist)
}
