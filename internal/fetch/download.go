// Package fetch downloads release artifacts over HTTPS with bounded
// retries, per-attempt timeouts, and a local download cache.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/relget/relget/internal/artifact"
	"github.com/relget/relget/internal/logging"
)

const (
	// DefaultTimeout is the default per-attempt HTTP timeout.
	DefaultTimeout = 5 * time.Minute
	// DefaultMaxAttempts is the default number of download attempts.
	DefaultMaxAttempts = 3
	// DefaultBackoff is the fixed wait between attempts.
	DefaultBackoff = 2 * time.Second
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "relget/1.0"
)

// Downloader performs HTTP downloads with retry logic.
type Downloader struct {
	client      *http.Client
	cacheDir    string
	userAgent   string
	maxAttempts int
	backoff     time.Duration
	log         logging.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithMaxAttempts sets the attempt ceiling.
func WithMaxAttempts(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.maxAttempts = n
		}
	}
}

// WithBackoff sets the fixed wait between attempts.
func WithBackoff(backoff time.Duration) Option {
	return func(d *Downloader) {
		d.backoff = backoff
	}
}

// WithTimeout sets the per-attempt timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Downloader) {
		d.client.Timeout = timeout
	}
}

// WithLogger sets the logger.
func WithLogger(log logging.Logger) Option {
	return func(d *Downloader) {
		d.log = log
	}
}

// NewDownloader creates a downloader caching into cacheDir.
func NewDownloader(cacheDir string, opts ...Option) *Downloader {
	d := &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cacheDir:    cacheDir,
		userAgent:   DefaultUserAgent,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultBackoff,
		log:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DownloadToFile downloads a URL to destPath. Transient failures are
// retried with a fixed backoff up to the attempt ceiling; exhaustion
// returns an ExhaustedError carrying the last cause. Non-transient HTTP
// errors fail immediately.
func (d *Downloader) DownloadToFile(ctx context.Context, url, destPath string) error {
	var lastErr error

	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 1 {
			d.log.Warn("retrying download",
				"url", url, "attempt", attempt, "max_attempts", d.maxAttempts, "cause", lastErr)
			select {
			case <-time.After(d.backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := d.downloadOnce(ctx, url, destPath)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Transient() {
			return err
		}

		lastErr = err
	}

	return &ExhaustedError{URL: url, Attempts: d.maxAttempts, Last: lastErr}
}

// downloadOnce performs a single download attempt. The payload lands in
// a temp file next to the destination and is renamed into place only on
// success, so destPath is never a partial write.
func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// DownloadArtifact downloads a resolved artifact payload into the cache
// and returns the cached path. Cache hits skip the network entirely;
// verification always runs on the returned file regardless.
func (d *Downloader) DownloadArtifact(ctx context.Context, resolved *artifact.Resolved) (string, error) {
	if resolved == nil {
		return "", fmt.Errorf("resolved artifact is nil")
	}

	cachePath := filepath.Join(d.cacheDir, resolved.Spec.Name, resolved.Version, resolved.Filename())

	if fileExists(cachePath) {
		d.log.Debug("cache hit", "path", cachePath)
		return cachePath, nil
	}

	d.log.Info("downloading artifact",
		"artifact", resolved.Spec.Name, "version", resolved.Version, "url", resolved.URL)

	if err := d.DownloadToFile(ctx, resolved.URL, cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

// DownloadSidecar downloads a verification sidecar (checksum file or
// detached signature) into the cache next to the payload.
func (d *Downloader) DownloadSidecar(ctx context.Context, resolved *artifact.Resolved, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("no sidecar URL available")
	}

	cachePath := filepath.Join(d.cacheDir, resolved.Spec.Name, resolved.Version, sidecarFilename(url))

	if fileExists(cachePath) {
		return cachePath, nil
	}

	if err := d.DownloadToFile(ctx, url, cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

// sidecarFilename derives the cache basename for a sidecar URL,
// dropping any query string so tokens never end up in filenames.
func sidecarFilename(url string) string {
	if i := strings.IndexByte(url, '?'); i >= 0 {
		url = url[:i]
	}
	return filepath.Base(url)
}

// fileExists checks if a file exists and is not empty.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
