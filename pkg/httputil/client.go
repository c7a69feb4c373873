package httputil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/creatornet/pkg/buildinfo"
	"github.com/matzehuels/creatornet/pkg/observability"
)

// Defaults for [ClientOptions].
const (
	DefaultTimeout  = 15 * time.Second
	DefaultAttempts = 3
	DefaultBackoff  = 500 * time.Millisecond
)

// maxBody bounds how much of a response is read.
const maxBody = 64 << 20

// StatusError is a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: %s", e.URL, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("GET %s: %s: %s", e.URL, http.StatusText(e.StatusCode), e.Body)
}

// ClientOptions configures [NewClient]. Zero values take defaults.
type ClientOptions struct {
	Timeout   time.Duration
	Attempts  int
	Backoff   time.Duration
	UserAgent string
	// Transport overrides the HTTP transport, for tests.
	Transport http.RoundTripper
}

// Client performs retried JSON requests.
type Client struct {
	http      *http.Client
	attempts  int
	backoff   time.Duration
	userAgent string
}

// NewClient returns a client with opts applied.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.Backoff <= 0 {
		opts.Backoff = DefaultBackoff
	}
	if opts.UserAgent == "" {
		opts.UserAgent = buildinfo.UserAgent()
	}
	return &Client{
		http:      &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		attempts:  opts.Attempts,
		backoff:   opts.Backoff,
		userAgent: opts.UserAgent,
	}
}

// GetJSON fetches url and decodes the JSON body into v, retrying transient
// failures. Non-2xx responses are returned as *[StatusError].
func (c *Client) GetJSON(ctx context.Context, url string, v any) error {
	return Retry(ctx, c.attempts, c.backoff, func() error {
		return c.getJSON(ctx, url, v)
	})
}

func (c *Client) getJSON(ctx context.Context, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return Retryable(err)
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Retryable(fmt.Errorf("read %s: %w", url, err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &StatusError{URL: url, StatusCode: resp.StatusCode, Body: snippet(body)}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return Retryable(serr)
		}
		return serr
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func snippet(b []byte) string {
	const n = 200
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
