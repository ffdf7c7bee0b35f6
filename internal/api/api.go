package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"stock-sentiment-agent/internal/logger"
	"stock-sentiment-agent/internal/trace"
)

// BrowserUserAgent is sent to providers that reject non-browser clients.
const BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxResponseBody = 10 << 20

// Client is a small JSON-over-HTTP client shared by the market and scorer
// adapters.
type Client struct {
	hc      *http.Client
	baseURL string
	headers http.Header
	debug   bool
}

// StatusError is returned for responses with status >= 400.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, body)
}

// NotFound reports whether the provider said the resource does not exist.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

type ClientOption func(*Client)

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.hc.Timeout = timeout
		}
	}
}

func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) { c.baseURL = baseURL }
}

func WithHeader(key, value string) ClientOption {
	return func(c *Client) { c.headers.Set(key, value) }
}

// WithHeaders merges several default headers.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.headers.Set(k, v)
		}
	}
}

// WithLogging logs each exchange at debug level.
func WithLogging(enabled bool) ClientOption {
	return func(c *Client) { c.debug = enabled }
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		hc:      &http.Client{Timeout: 30 * time.Second},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetJSON issues a GET and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	return c.exchange(ctx, http.MethodGet, path, nil, nil, out)
}

// PostJSON sends body as JSON with the extra headers and decodes the reply
// into out.
func (c *Client) PostJSON(ctx context.Context, path string, body any, headers map[string]string, out any) error {
	return c.exchange(ctx, http.MethodPost, path, body, headers, out)
}

func (c *Client) exchange(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	target := c.baseURL + path

	ctx, span := trace.StartSpan(ctx, "http."+method)
	defer span.End()
	span.SetAttributes(attribute.String("http.url", target))

	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range c.headers {
		req.Header[k] = vs
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.logDebug(ctx, "HTTP request failed", "method", method, "url", target, "error", err)
		span.RecordError(err)
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logDebug(ctx, "HTTP exchange",
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"bytes", len(raw))

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, URL: target, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response from %s: %w", target, err)
	}
	return nil
}

func (c *Client) logDebug(ctx context.Context, msg string, args ...any) {
	if c.debug {
		logger.Debug(ctx, msg, args...)
	}
}

// YahooFinanceHeaders returns the headers the Yahoo chart API expects.
func YahooFinanceHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      BrowserUserAgent,
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
		"Referer":         "https://finance.yahoo.com/",
	}
}
