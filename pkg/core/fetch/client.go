package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrNotFound marks a permanent miss (404 or wrong content type).
	// Callers must not retry it.
	ErrNotFound = errors.New("document not found")

	// ErrUnavailable marks a transient failure that exhausted its retry
	// budget. The affected filing is skipped, never fatal for the run.
	ErrUnavailable = errors.New("source unavailable")
)

// Options configures a Client. Zero values get sane defaults.
type Options struct {
	UserAgent         string
	RequestsPerSecond float64
	MaxConns          int
	Retries           int
	Timeout           time.Duration
}

// Client is a token-paced HTTP client with bounded concurrency. Excess
// requests queue on the semaphore instead of opening unbounded connections.
type Client struct {
	http      *http.Client
	pacer     *Pacer
	sem       *semaphore.Weighted
	userAgent string
	retries   int
}

// NewClient creates a client. The connection pool size caps both the
// semaphore and the transport's per-host connections.
func NewClient(opts Options) *Client {
	if opts.MaxConns <= 0 {
		opts.MaxConns = 6
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	transport := &http.Transport{
		MaxConnsPerHost:     opts.MaxConns,
		MaxIdleConnsPerHost: opts.MaxConns,
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout, Transport: transport},
		pacer:     NewPacer(opts.RequestsPerSecond),
		sem:       semaphore.NewWeighted(int64(opts.MaxConns)),
		userAgent: opts.UserAgent,
		retries:   opts.Retries,
	}
}

// Get fetches a URL. A non-empty contentType must appear in the response
// Content-Type header for the body to be accepted.
//
// 404 and content-type mismatches return ErrNotFound immediately. Timeouts,
// transport errors, 429 and 5xx retry with exponential backoff plus jitter
// until the retry budget runs out, then return ErrUnavailable.
func (c *Client) Get(ctx context.Context, url string, contentType string) ([]byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	for attempt := 0; ; attempt++ {
		if err := c.pacer.Acquire(ctx); err != nil {
			return nil, err
		}

		body, retryable, err := c.once(ctx, url, contentType)
		if err == nil {
			return body, nil
		}
		if !retryable || attempt >= c.retries {
			if retryable {
				return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, url, err)
			}
			return nil, err
		}
		if err := sleepBackoff(ctx, attempt); err != nil {
			return nil, err
		}
	}
}

func (c *Client) once(ctx context.Context, url, contentType string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and resets look alike here; both are transient.
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("%w: %s returned status %d", ErrNotFound, url, resp.StatusCode)
	}

	if contentType != "" &&
		!strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), contentType) {
		return nil, false, fmt.Errorf("%w: %s has content type %q", ErrNotFound, url, resp.Header.Get("Content-Type"))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	return data, false, nil
}

// sleepBackoff waits 0.5s * 2^attempt plus up to 200ms of jitter.
func sleepBackoff(ctx context.Context, attempt int) error {
	delay := time.Duration(float64(500*time.Millisecond)*float64(int(1)<<attempt)) +
		time.Duration(rand.Int63n(int64(200*time.Millisecond)))
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
