// Package apiclient is the HTTP wrapper every kennel provider talks through.
// It attaches credentials, normalizes the server's heterogeneous response
// envelopes into a single Response shape, and only returns an error when the
// request could not be sent or its body could not be parsed. HTTP-level
// failures (4xx/5xx) come back as a Response with OK=false. Requests are never
// retried.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const maxBodyBytes = 10 << 20

var (
	// ErrNotConfigured is returned by New when no base URL is set.
	ErrNotConfigured = errors.New("apiclient: API base URL not configured")

	// ErrTransport wraps failures to send a request or read its response.
	ErrTransport = errors.New("apiclient: transport failure")

	// ErrMalformedResponse wraps a successful response whose body is not valid JSON
	// or does not decode into the requested type.
	ErrMalformedResponse = errors.New("apiclient: malformed response")
)

// Config holds the Client settings.
type Config struct {
	BaseURL string        // API root, e.g. https://kennel.example.com/api
	Token   string        // Bearer credential attached to every request
	Timeout time.Duration // 0 leaves timing to the transport

	HTTPClient *http.Client      // optional; overrides Timeout
	Logger     *slog.Logger      // optional; defaults to slog.Default()
	Metrics    *Metrics          // optional
	Missing    *MissingEndpoints // optional; a fresh cache is created when nil
}

// Client issues authenticated JSON requests against the kennel API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
	metrics *Metrics
	missing *MissingEndpoints
}

// New creates a Client. The base URL must be absolute.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("apiclient: invalid base url: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	missing := cfg.Missing
	if missing == nil {
		missing = NewMissingEndpoints()
	}

	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		token:   strings.TrimSpace(cfg.Token),
		http:    hc,
		logger:  logger,
		metrics: cfg.Metrics,
		missing: missing,
	}, nil
}

// Missing returns the client's cache of endpoints known to answer 404.
func (c *Client) Missing() *MissingEndpoints {
	return c.missing
}

// Get issues GET {base}/{path}?{query}.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post issues POST {base}/{path} with body encoded as JSON.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Put issues PUT {base}/{path} with body encoded as JSON.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

// Delete issues DELETE {base}/{path}.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	start := time.Now()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("apiclient: marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), reqBody)
	if err != nil {
		return nil, fmt.Errorf("apiclient: new request: %w", err)
	}

	requestID := ulid.Make().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(method, outcomeNetworkError, time.Since(start))
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.metrics.observe(method, outcomeNetworkError, time.Since(start))
		return nil, fmt.Errorf("%w: read body: %w", ErrTransport, err)
	}

	out, err := normalize(resp.StatusCode, raw)
	if err != nil {
		c.metrics.observe(method, outcomeMalformed, time.Since(start))
		return nil, err
	}

	c.metrics.observe(method, outcomeFor(out), time.Since(start))
	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"ok", out.OK,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return out, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
