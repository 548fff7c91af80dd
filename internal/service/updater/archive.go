package updater

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/ulikunitz/xz"

	"github.com/oshokin/sandbox-version-manager/internal/config"
	"github.com/oshokin/sandbox-version-manager/internal/domain/sandbox"
	"github.com/oshokin/sandbox-version-manager/internal/logger"
)

var errUnknownArchiveFormat = errors.New("unknown archive format")

// decompress wraps r with the decoder for the configured archive format.
func decompress(format string, r io.Reader) (io.Reader, error) {
	switch format {
	case config.ArchiveFormatTarGz:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip: %w", sandbox.ErrArchive, err)
		}

		return gz, nil
	case config.ArchiveFormatTarXz:
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: xz: %w", sandbox.ErrArchive, err)
		}

		return xzReader, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownArchiveFormat, format)
	}
}

// extract unpacks a tar stream under dir and returns the relative paths of the regular files,
// each listed once. A repeated entry overwrites the earlier copy, as tar does.
// Entry names are resolved inside dir, so "../" and absolute names cannot escape it.
// Links and special files are skipped.
func extract(ctx context.Context, r io.Reader, dir string) ([]string, error) {
	reader := tar.NewReader(r)

	var files []string

	seen := make(map[string]struct{})

	for {
		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%w: read entry: %w", sandbox.ErrArchive, err)
		}

		target, err := securejoin.SecureJoin(dir, header.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %q: %w", sandbox.ErrArchive, header.Name, err)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err = os.MkdirAll(target, config.DefaultDirPermissions); err != nil {
				return nil, fmt.Errorf("%w: create %s: %w", sandbox.ErrIO, header.Name, err)
			}
		case tar.TypeReg:
			if err = writeEntry(reader, target, header.FileInfo().Mode().Perm()); err != nil {
				return nil, fmt.Errorf("extract %s: %w", header.Name, err)
			}

			relative, err := filepath.Rel(dir, target)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %q: %w", sandbox.ErrArchive, header.Name, err)
			}

			if _, ok := seen[relative]; ok {
				logger.DebugKV(ctx, "Archive entry repeated, keeping the last copy", "name", header.Name)
				continue
			}

			seen[relative] = struct{}{}
			files = append(files, relative)
		default:
			logger.DebugKV(ctx, "Skipping archive entry", "name", header.Name, "type", string(header.Typeflag))
		}
	}

	return files, nil
}

// writeEntry copies the current tar entry into a new file at target.
func writeEntry(r io.Reader, target string, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("%w: %w", sandbox.ErrIO, err)
	}

	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o600)
	if err != nil {
		return fmt.Errorf("%w: %w", sandbox.ErrIO, err)
	}

	_, copyErr := io.Copy(file, r)
	closeErr := file.Close()

	if copyErr != nil {
		// Write failures come back as *fs.PathError, read failures do not.
		var pathErr *fs.PathError
		if errors.As(copyErr, &pathErr) {
			return fmt.Errorf("%w: %w", sandbox.ErrIO, copyErr)
		}

		return fmt.Errorf("%w: %w", sandbox.ErrArchive, copyErr)
	}

	if closeErr != nil {
		return fmt.Errorf("%w: %w", sandbox.ErrIO, closeErr)
	}

	return nil
}
