// Package fetcher performs the single outbound GET of a load.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/junkliveoz/FriendBook/internal/logger"
)

// ErrTransport wraps every failure at or below the HTTP exchange.
var ErrTransport = errors.New("transport error")

// StatusError is returned for a completed exchange with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	if e.Status == "" {
		return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected HTTP status %s", e.Status)
}

// Is makes errors.Is(err, ErrTransport) hold for status errors too.
func (e *StatusError) Is(target error) bool {
	return target == ErrTransport
}

// Fetcher issues plain GET requests without headers, query parameters,
// authentication or retries.
type Fetcher struct {
	client *resty.Client
}

// Option configures a Fetcher.
type Option func(*options)

type options struct {
	timeout   time.Duration
	transport http.RoundTripper
}

// WithTimeout bounds every request. Zero keeps the client default, which
// never times out on its own.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithTransport replaces the underlying round tripper.
func WithTransport(transport http.RoundTripper) Option {
	return func(o *options) {
		o.transport = transport
	}
}

// New creates a Fetcher.
func New(optionsProto ...Option) *Fetcher {
	opts := &options{}
	for _, protoOption := range optionsProto {
		protoOption(opts)
	}

	client := resty.New().SetRetryCount(0)
	if opts.timeout > 0 {
		client.SetTimeout(opts.timeout)
	}
	if opts.transport != nil {
		client.SetTransport(opts.transport)
	}

	return &Fetcher{client: client}
}

// Fetch returns the raw body of a successful GET to rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	start := time.Now()

	resp, err := f.client.R().
		SetContext(ctx).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	logger.Log.Debugln(
		"fetched",
		"url", rawURL,
		"status", resp.StatusCode(),
		"size", len(resp.Body()),
		"duration", time.Since(start),
	)

	if !resp.IsSuccess() {
		return nil, &StatusError{
			StatusCode: resp.StatusCode(),
			Status:     resp.Status(),
		}
	}

	return resp.Body(), nil
}
