package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ArtifactFetcher downloads remote binary resources in a single attempt.
// Any transport error or non-2xx status is a failure; retries are the
// caller's concern. No size cap is enforced; wrap the response with
// http.MaxBytesReader if pointed at untrusted URLs.
type ArtifactFetcher struct {
	httpClient *http.Client
	authHeader string
}

// NewArtifactFetcher creates a fetcher. apiKey may be empty, in which case
// requests carry no Authorization header.
func NewArtifactFetcher(apiKey string) *ArtifactFetcher {
	var authHeader string
	if apiKey != "" {
		authHeader = "Bearer " + apiKey
	}
	return &ArtifactFetcher{
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		authHeader: authHeader,
	}
}

// Fetch downloads the resource at url and returns the full body.
func (f *ArtifactFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.authHeader != "" {
		req.Header.Set("Authorization", f.authHeader)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch artifact: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("artifact fetch failed (status %d)", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
