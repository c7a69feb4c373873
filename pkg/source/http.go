package source

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/httputil"
	"github.com/matzehuels/creatornet/pkg/network"
)

// networkPath is the backend route serving the latest network.
const networkPath = "/api/creators/network"

// HTTP fetches networks from the backend API.
type HTTP struct {
	base   string
	client *httputil.Client
}

// NewHTTP returns a source for the backend at base, e.g. http://localhost:8000.
func NewHTTP(base string, opts Options) (*HTTP, error) {
	opts = opts.withDefaults()
	if err := errors.ValidateURL(base); err != nil {
		return nil, err
	}
	return &HTTP{
		base:   strings.TrimRight(base, "/"),
		client: httputil.NewClient(httputil.ClientOptions{Timeout: opts.Timeout}),
	}, nil
}

// newHTTPWithClient is used by tests to shorten backoff.
func newHTTPWithClient(base string, c *httputil.Client) *HTTP {
	return &HTTP{base: strings.TrimRight(base, "/"), client: c}
}

func (h *HTTP) Load(ctx context.Context, platform string) (network.Payload, error) {
	platform, err := platformOrDefault(platform)
	if err != nil {
		return network.Payload{}, err
	}
	u := h.base + networkPath + "?" + url.Values{"platform": {platform}}.Encode()

	var p network.Payload
	if err := h.client.GetJSON(ctx, u, &p); err != nil {
		return network.Payload{}, classify(err, "load network from %s", h.base)
	}
	return p, nil
}

func (h *HTTP) Name() string { return h.base }

func (h *HTTP) Close() error { return nil }

func classify(err error, format string, args ...any) error {
	var serr *httputil.StatusError
	switch {
	case stderrors.Is(err, context.Canceled):
		return err
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Wrap(errors.ErrCodeTimeout, err, format, args...)
	case stderrors.As(err, &serr) && serr.StatusCode == http.StatusNotFound:
		return errors.Wrap(errors.ErrCodeNotFound, err, format, args...)
	case stderrors.As(err, &serr) && serr.StatusCode < 500 && serr.StatusCode != http.StatusTooManyRequests:
		return errors.Wrap(errors.ErrCodeInvalidInput, err, format, args...)
	case httputil.IsRetryable(err):
		return errors.Wrap(errors.ErrCodeSourceUnavailable, err, format, args...)
	default:
		return errors.Wrap(errors.ErrCodeInvalidNetwork, err, format, args...)
	}
}
