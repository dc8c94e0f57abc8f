// Package links downloads media blobs referenced by platform file links.
package links

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrTooManyRedirects indicates too many HTTP redirects.
var ErrTooManyRedirects = errors.New("too many redirects")

// ErrHTTPStatusNotOK indicates an HTTP response with a non-200 status code.
var ErrHTTPStatusNotOK = errors.New("HTTP status not OK")

// ErrFileTooLarge indicates the blob exceeds the configured size cap.
var ErrFileTooLarge = errors.New("file too large")

const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBytes     = 20 * 1024 * 1024
	limiterBurst        = 5
	maxRedirects        = 5
)

// Downloader fetches file bytes over HTTP behind a shared token bucket.
type Downloader struct {
	client    *http.Client
	limiter   *rate.Limiter
	maxBytes  int64
	userAgent string
}

func NewDownloader(rps float64, timeout time.Duration, maxBytes int64) *Downloader {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}

	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}

	return &Downloader{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return ErrTooManyRedirects
				}

				return nil
			},
		},
		limiter:   rate.NewLimiter(limit, limiterBurst),
		maxBytes:  maxBytes,
		userAgent: "MediaDedupBot/1.0",
	}
}

// Fetch downloads rawURL. Bodies larger than the cap fail with ErrFileTooLarge,
// they are never truncated.
func (d *Downloader) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrHTTPStatusNotOK, resp.StatusCode)
	}

	if resp.ContentLength > d.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrFileTooLarge, resp.ContentLength)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if int64(len(body)) > d.maxBytes {
		return nil, fmt.Errorf("%w: over %d bytes", ErrFileTooLarge, d.maxBytes)
	}

	return body, nil
}
