//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oshokin/sandbox-version-manager/internal/domain/sandbox"
	"github.com/oshokin/sandbox-version-manager/internal/logger"
	"github.com/oshokin/sandbox-version-manager/internal/version"
)

// Fetcher downloads the body behind a URL.
type Fetcher interface {
	// Fetch returns the whole body. Any transport failure or non-2xx status,
	// including a body that breaks off mid-stream, wraps sandbox.ErrFetch.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher fetches over HTTP(S) with a single GET and no retries.
type HTTPFetcher struct {
	// Client performs the request.
	Client *http.Client
	// Timeout bounds the whole download when positive.
	Timeout time.Duration
}

// NewHTTPFetcher returns a fetcher on a dedicated client.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{
		Client:  &http.Client{},
		Timeout: timeout,
	}
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %w", sandbox.ErrFetch, url, err)
	}

	req.Header.Set("User-Agent", version.UserAgent())

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	response, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", sandbox.ErrFetch, url, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s: unexpected status %s", sandbox.ErrFetch, url, response.Status)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body of %s: %w", sandbox.ErrFetch, url, err)
	}

	logger.DebugKV(ctx, "Downloaded", "url", url, "bytes", len(data))

	return data, nil
}
