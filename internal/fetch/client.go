package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds one request, including the body transfer.
	DefaultTimeout = 30 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "gdvm/1.0"

	maxErrorBody = 512
	maxRedirects = 10
)

// Client performs retried GET requests into sinks. Sources share one.
type Client struct {
	http      *http.Client
	userAgent string
	policy    RetryPolicy
	logger    *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p RetryPolicy) ClientOption {
	return func(c *Client) { c.policy = p }
}

// WithLogger sets the logger used for retry notices.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient returns a Client with a 10-redirect limit and the default retry
// policy.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		http: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		userAgent: DefaultUserAgent,
		policy:    DefaultRetryPolicy(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get downloads url into sink, retrying transient failures. headers are
// added to every attempt.
func (c *Client) Get(ctx context.Context, url string, headers http.Header, sink Sink) error {
	policy := c.policy
	policy.Notify = func(err error, delay time.Duration) {
		c.logger.Debug("retrying request", "url", url, "delay", delay, "error", err)
	}
	_, err := Retry(ctx, policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.getOnce(ctx, url, headers, sink)
	})
	return err
}

func (c *Client) getOnce(ctx context.Context, url string, headers http.Header, sink Sink) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	c.logger.Debug("GET", "url", url)
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ConnectionFailure{Message: "request to " + url + " failed", Details: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &RequestFailure{URL: url, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := sink.Begin(resp.ContentLength); err != nil {
		return err
	}

	w := &trackedWriter{w: sink}
	n, err := io.Copy(w, resp.Body)
	switch {
	case w.err != nil:
		return fmt.Errorf("write body of %s: %w", url, w.err)
	case err != nil:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &ConnectionFailure{Message: "reading " + url + " failed", Details: err.Error()}
	case resp.ContentLength >= 0 && n != resp.ContentLength:
		return &ConnectionFailure{
			Message: "reading " + url + " failed",
			Details: fmt.Sprintf("body truncated at %d of %d bytes", n, resp.ContentLength),
		}
	}
	return nil
}

// trackedWriter remembers write errors so they are not mistaken for
// transport failures.
type trackedWriter struct {
	w   io.Writer
	err error
}

func (t *trackedWriter) Write(p []byte) (int, error) {
	n, err := t.w.Write(p)
	if err != nil {
		t.err = err
	}
	return n, err
}
