package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxBodyBytes caps how much of a contributions page we read. A real grid
// page is well under 1MB; anything bigger is not what we asked for.
const maxBodyBytes = 5 * 1024 * 1024

// Fetcher retrieves one URL's body. The aggregator depends on this
// capability, not on a concrete transport, so tests can feed it canned
// documents.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (status int, body string, err error)
}

// HTTPFetcher fetches over HTTP with a bounded timeout and body size.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with the given timeout and User-Agent.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	return &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// Fetch performs a GET and returns the status code and body text. A non-2xx
// status is not an error here; the caller decides what statuses mean.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("read body: %w", err)
	}

	return resp.StatusCode, string(body), nil
}
