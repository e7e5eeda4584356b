package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/tapo-protocol/tapo-go/pkg/errs"
)

const (
	// DefaultTimeout bounds a single request when the context has no deadline.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize caps how much of a reply is read (1 MiB).
	DefaultMaxBodySize = 1 << 20
)

// ErrBodyTooLarge is returned when a reply exceeds MaxBodySize.
var ErrBodyTooLarge = errors.New("transport: reply body exceeds limit")

// ClientConfig configures a device HTTP client.
type ClientConfig struct {
	// Timeout bounds each request (default: 30s).
	Timeout time.Duration

	// MaxBodySize is the maximum reply size (default: 1 MiB).
	MaxBodySize int64

	// HTTPClient overrides the underlying client. Its Timeout is ignored in
	// favour of the context deadline.
	HTTPClient *http.Client

	// Logger is used for debug output. Nil disables logging.
	Logger *slog.Logger
}

// Client posts requests to devices over plain HTTP.
type Client struct {
	config ClientConfig
	http   *http.Client
	logger *slog.Logger
}

var _ Poster = (*Client)(nil)

// NewClient creates a new device client.
func NewClient(config ClientConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.MaxBodySize == 0 {
		config.MaxBodySize = DefaultMaxBodySize
	}
	hc := config.HTTPClient
	if hc == nil {
		hc = &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{config: config, http: hc, logger: logger}
}

// Post sends req and reads the whole reply.
func (c *Client) Post(ctx context.Context, req *Request) (*Response, error) {
	op := "post " + req.Path

	// Apply timeout from config if context doesn't have one
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.URL(), bytes.NewReader(req.Body))
	if err != nil {
		return nil, errs.New(errs.KindInvalidParameters, op, err)
	}
	ct := req.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	hreq.Header.Set("Content-Type", ct)
	hreq.Header.Set("Accept", "*/*")
	for _, ck := range req.Cookies {
		hreq.AddCookie(ck)
	}

	start := time.Now()
	hresp, err := c.http.Do(hreq)
	if err != nil {
		c.logger.Debug("request failed", "address", req.Address, "path", req.Path, "error", err)
		return nil, errs.New(errs.KindNetwork, op, err)
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(hresp.Body, c.config.MaxBodySize+1))
	if err != nil {
		return nil, errs.New(errs.KindNetwork, op, fmt.Errorf("read reply: %w", err))
	}
	if int64(len(body)) > c.config.MaxBodySize {
		return nil, errs.New(errs.KindUnknown, op, ErrBodyTooLarge)
	}

	c.logger.Debug("request complete",
		"address", req.Address,
		"path", req.Path,
		"status", hresp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start))

	return &Response{
		StatusCode: hresp.StatusCode,
		Body:       body,
		Cookies:    hresp.Cookies(),
	}, nil
}
