package updater

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

// entry is one file placed into a test archive.
type entry struct {
	name     string
	body     string
	mode     int64
	typeflag byte
}

func buildTar(t *testing.T, entries []entry) []byte {
	t.Helper()

	var buf bytes.Buffer

	tw := tar.NewWriter(&buf)

	for _, e := range entries {
		typeflag := e.typeflag
		if typeflag == 0 {
			typeflag = tar.TypeReg
		}

		mode := e.mode
		if mode == 0 {
			mode = 0o644
		}

		header := &tar.Header{
			Name:     e.name,
			Mode:     mode,
			Size:     int64(len(e.body)),
			Typeflag: typeflag,
		}

		if typeflag != tar.TypeReg {
			header.Size = 0
		}

		if typeflag == tar.TypeSymlink {
			header.Linkname = e.body
		}

		require.NoError(t, tw.WriteHeader(header))

		if typeflag == tar.TypeReg {
			_, err := tw.Write([]byte(e.body))
			require.NoError(t, err)
		}
	}

	require.NoError(t, tw.Close())

	return buf.Bytes()
}

func buildTarGz(t *testing.T, entries []entry) []byte {
	t.Helper()

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	_, err := gz.Write(buildTar(t, entries))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	return buf.Bytes()
}

func buildTarXz(t *testing.T, entries []entry) []byte {
	t.Helper()

	var buf bytes.Buffer

	w, err := xz.NewWriter(&buf)
	require.NoError(t, err)

	_, err = w.Write(buildTar(t, entries))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

// fakeFetcher serves a fixed body and records requested URLs.
type fakeFetcher struct {
	body []byte
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) ([]byte, error) {
	f.urls = append(f.urls, url)
	if f.err != nil {
		return nil, f.err
	}

	return f.body, nil
}
