package state

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/oshokin/sandbox-version-manager/internal/config"
	"github.com/oshokin/sandbox-version-manager/internal/domain/sandbox"
)

const (
	// VersionFilename holds the active version as plain text.
	VersionFilename = "version"
	// TemplateFilename holds the compose template.
	TemplateFilename = "run"
)

// Repository defines persistence operations for the version manager state.
type Repository interface {
	WriteActiveVersion(ctx context.Context, version string) error
	ReadActiveVersion(ctx context.Context) (string, error)
	EnsureTemplate(ctx context.Context) (bool, error)
	VersionPath() string
	TemplatePath() string
}

// FileRepository keeps the state as plain files under a single root directory.
type FileRepository struct {
	// root is the state directory, created lazily on first write.
	root string
	// template is written to TemplatePath when the file is absent.
	template []byte
	// mu serializes access from a single process; separate processes are not coordinated.
	mu sync.Mutex
}

// NewFileRepository creates a repository rooted at root using the embedded template.
func NewFileRepository(root string) *FileRepository {
	return NewFileRepositoryWithTemplate(root, Template)
}

// NewFileRepositoryWithTemplate creates a repository writing a custom template.
func NewFileRepositoryWithTemplate(root string, template []byte) *FileRepository {
	return &FileRepository{
		root:     filepath.Clean(root),
		template: template,
	}
}

// VersionPath is the location of the active version record.
func (r *FileRepository) VersionPath() string {
	return filepath.Join(r.root, VersionFilename)
}

// TemplatePath is the location of the compose template.
func (r *FileRepository) TemplatePath() string {
	return filepath.Join(r.root, TemplateFilename)
}

// WriteActiveVersion overwrites the active version record with the exact string given.
func (r *FileRepository) WriteActiveVersion(_ context.Context, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureRoot(); err != nil {
		return err
	}

	if err := os.WriteFile(r.VersionPath(), []byte(version), config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("%w: write version file: %w", sandbox.ErrIO, err)
	}

	return nil
}

// ReadActiveVersion returns the record byte for byte, without trimming.
func (r *FileRepository) ReadActiveVersion(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.VersionPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", sandbox.ErrNotFound
		}

		return "", fmt.Errorf("%w: read version file: %w", sandbox.ErrIO, err)
	}

	return string(contents), nil
}

// EnsureTemplate writes the template only when no file exists at TemplatePath.
// An existing file is never touched, even if its contents differ from the template.
// The boolean reports whether the file was created by this call.
func (r *FileRepository) EnsureTemplate(_ context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := r.TemplatePath()

	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("%w: stat template: %w", sandbox.ErrIO, err)
	}

	if err := r.ensureRoot(); err != nil {
		return false, err
	}

	// O_EXCL keeps a file created between the Stat and here.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, config.DefaultFilePermissions)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}

		return false, fmt.Errorf("%w: create template: %w", sandbox.ErrIO, err)
	}

	if _, err = file.Write(r.template); err != nil {
		_ = file.Close()
		_ = os.Remove(path)

		return false, fmt.Errorf("%w: write template: %w", sandbox.ErrIO, err)
	}

	if err = file.Close(); err != nil {
		_ = os.Remove(path)

		return false, fmt.Errorf("%w: close template: %w", sandbox.ErrIO, err)
	}

	return true, nil
}

// ensureRoot creates the state directory when it does not exist yet.
func (r *FileRepository) ensureRoot() error {
	if err := os.MkdirAll(r.root, config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("%w: create state directory: %w", sandbox.ErrIO, err)
	}

	return nil
}
