// Package httpclient builds and dispatches the HTTP requests produced by
// templates and ad-hoc commands.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTimeout bounds a request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// Request is a fully resolved request ready to send.
type Request struct {
	Method      string
	URL         string
	Headers     map[string]string
	Body        []byte
	ContentType string

	BasicAuth   *BasicAuth
	BearerToken string
}

// BasicAuth holds HTTP basic credentials. Password may be empty.
type BasicAuth struct {
	User     string
	Password string
}

// Response is a received response with its body fully read.
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       string
	Duration   time.Duration
}

// Client sends requests.
type Client struct {
	http   *http.Client
	tokens oauth2.TokenSource
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client. Its timeout is kept.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTokenSource authorizes every request with a token from ts.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithLogger sets the logger used for request and response traces.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New creates a client with a DefaultTimeout.
func New(opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends req and reads the whole response body.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.build(ctx, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending request",
		"method", httpReq.Method,
		"url", httpReq.URL.String(),
		"headers", redact(httpReq.Header))

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	headers := make(map[string]string, len(httpResp.Header))
	for key, values := range httpResp.Header {
		headers[key] = strings.Join(values, ", ")
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Body:       string(body),
		Duration:   time.Since(start),
	}
	c.logger.Debug("received response",
		"status", resp.Status,
		"duration", resp.Duration,
		"headers", headers)
	return resp, nil
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	if strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("request URL is required")
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	switch {
	case req.BasicAuth != nil:
		httpReq.SetBasicAuth(req.BasicAuth.User, req.BasicAuth.Password)
	case req.BearerToken != "":
		httpReq.Header.Set("Authorization", "Bearer "+req.BearerToken)
	case c.tokens != nil:
		token, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to obtain oauth2 token: %w", err)
		}
		token.SetAuthHeader(httpReq)
	}
	return httpReq, nil
}

// redact hides credentials from logged headers.
func redact(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for key, values := range h {
		if strings.EqualFold(key, "Authorization") || strings.EqualFold(key, "Proxy-Authorization") {
			out[key] = "[redacted]"
			continue
		}
		out[key] = strings.Join(values, ", ")
	}
	return out
}
