package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Probe checks that a URL exists without transferring the payload.
// It issues a HEAD request and falls back to a ranged GET for servers
// that reject HEAD. A failed probe is cheap grounds to suggest known
// versions to the caller before committing to a full download.
func (d *Downloader) Probe(ctx context.Context, url string) error {
	err := d.probeOnce(ctx, http.MethodHead, url)
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusMethodNotAllowed {
		return d.probeOnce(ctx, http.MethodGet, url)
	}
	return err
}

func (d *Downloader) probeOnce(ctx context.Context, method, url string) error {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return fmt.Errorf("create probe request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)
	if method == http.MethodGet {
		// Only the headers matter; don't pull the payload.
		req.Header.Set("Range", "bytes=0-0")
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &StatusError{URL: url, StatusCode: resp.StatusCode}
}
