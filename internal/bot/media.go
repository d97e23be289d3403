package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Discord rejects uploads above 25 MiB for non-boosted guilds.
const maxMediaBytes = 25 << 20

// mediaFetcher downloads the GIFs the reaction API points to. Those URLs are
// arbitrary CDN locations, so this is a plain client of its own rather than
// one of the base-URL bound backend clients.
type mediaFetcher struct {
	client   *http.Client
	maxBytes int64
}

func newMediaFetcher(timeout time.Duration) *mediaFetcher {
	return &mediaFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxMediaBytes,
	}
}

func (m *mediaFetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("media url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("media url: unsupported scheme %q", u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("media get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media get: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, m.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("media read: %w", err)
	}
	if int64(len(data)) > m.maxBytes {
		return nil, fmt.Errorf("media too large: more than %d bytes", m.maxBytes)
	}
	return data, nil
}
