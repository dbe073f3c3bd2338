// Package data fetches upstream payloads and loads historical files.
package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"renewables-pnl/internal/logger"
)

// UpstreamError represents a non-200 answer from an upstream API.
type UpstreamError struct {
	Service    string
	StatusCode int
	Code       string
	Message    string
	RetryAfter string // For rate limit errors
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

// Temporary reports whether retrying later may succeed.
func (e *UpstreamError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500 || e.StatusCode == 0
}

// ClientOptions are shared by every upstream client.
type ClientOptions struct {
	BaseURL string
	Timeout time.Duration
	// RequestsPerSecond limits outbound calls; zero disables limiting.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

type baseClient struct {
	service string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *slog.Logger
}

func newBaseClient(service, defaultURL string, opts ClientOptions) baseClient {
	base := opts.BaseURL
	if base == "" {
		base = defaultURL
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	var lim *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		lim = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}
	return baseClient{
		service: service,
		baseURL: base,
		http:    hc,
		limiter: lim,
		log:     logger.Component(service),
	}
}

// get performs one GET and returns the body of a 200 response.
func (c *baseClient) get(ctx context.Context, path string, q url.Values, headers map[string]string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if q != nil {
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	c.log.Debug("request", "method", "GET", "path", u.Path)

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.log.Warn("request failed", "path", u.Path, "error", err, "duration", duration)
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("response", "path", u.Path, "status", resp.StatusCode, "duration", duration)

	if resp.StatusCode != http.StatusOK {
		upstreamErr := c.statusError(resp)
		c.log.Warn("upstream error", "path", u.Path, "status", resp.StatusCode, "code", upstreamErr.Code)
		return nil, upstreamErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}

func (c *baseClient) getJSON(ctx context.Context, path string, q url.Values, headers map[string]string, out any) error {
	body, err := c.get(ctx, path, q, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", c.service, err)
	}
	return nil
}

func (c *baseClient) statusError(resp *http.Response) *UpstreamError {
	switch resp.StatusCode {
	case http.StatusForbidden:
		return &UpstreamError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Code:       "INVALID_API_KEY",
			Message:    "Invalid API key or insufficient permissions",
		}
	case http.StatusTooManyRequests:
		retryAfter := resp.Header.Get("Retry-After")
		return &UpstreamError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Code:       "RATE_LIMIT_EXCEEDED",
			Message:    fmt.Sprintf("Rate limit exceeded. Retry after: %s", retryAfter),
			RetryAfter: retryAfter,
		}
	case http.StatusUnauthorized:
		return &UpstreamError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Code:       "UNAUTHORIZED",
			Message:    "Unauthorized: Invalid API key",
		}
	default:
		return &UpstreamError{
			Service:    c.service,
			StatusCode: resp.StatusCode,
			Code:       "API_ERROR",
			Message:    fmt.Sprintf("API returned status %d: %s", resp.StatusCode, resp.Status),
		}
	}
}

func requireKey(service, key string) error {
	if key == "" {
		return &UpstreamError{
			Service: service,
			Code:    "MISSING_API_KEY",
			Message: "API key is required",
		}
	}
	return nil
}
