// Package httpclient is the shared JSON-over-HTTP plumbing for the storefront
// REST collaborators (cart backend, identity lookup, exchange rates).
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cartview/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsStatus reports whether err carries the given HTTP status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// DefaultMaxBodyBytes caps how much of an upstream response is read.
const DefaultMaxBodyBytes = 4 << 20

var ErrResponseTooLarge = errors.New("response body too large")

type Client struct {
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxBodyBytes int64
}

type Option func(*Client)

// WithLimiter throttles outgoing requests; Wait honours the request context.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

func WithMaxBodyBytes(n int64) Option {
	return func(c *Client) { c.maxBodyBytes = n }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: timeout},
		maxBodyBytes: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do sends body (if any) as JSON and decodes a 2xx response into out (if any).
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	url := c.baseURL + path
	log := logger.FromCtx(ctx).With(
		zap.String("method", method),
		zap.String("url", url),
	)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			log.Warn("Outgoing request throttled", zap.Error(err))
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			log.Error("Failed to marshal request", zap.Error(err))
			return err
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		log.Error("Failed creating request", zap.Error(err))
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	reqID := logger.RequestIDFrom(ctx)
	if reqID == "" {
		reqID = uuid.New().String()
	}
	req.Header.Set(logger.RequestIDHeader, reqID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes+1))
	if err != nil {
		log.Error("Failed to read response body", zap.Error(err))
		return fmt.Errorf("read response: %w", err)
	}
	if int64(len(bodyBytes)) > c.maxBodyBytes {
		log.Error("Upstream response exceeds limit", zap.Int64("limit", c.maxBodyBytes))
		return fmt.Errorf("read response: %w", ErrResponseTooLarge)
	}

	log = log.With(zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn("Upstream returned non-success status", zap.ByteString("response", bodyBytes))
		return &StatusError{
			Method:     method,
			URL:        url,
			StatusCode: resp.StatusCode,
			Body:       string(bodyBytes),
		}
	}

	log.Debug("Upstream request completed")

	if out == nil || len(bytes.TrimSpace(bodyBytes)) == 0 {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, out); err != nil {
		log.Error("Failed decoding response", zap.Error(err))
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
