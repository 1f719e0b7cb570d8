// Package watercryst provides a client for the WaterCryst BIOCAT cloud API.
//
// The API is observed to intermittently return empty bodies even on success
// paths, so the transport treats an empty 200 as transient and retries a
// small fixed number of times before surfacing a failure.
package watercryst

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the WaterCryst app API endpoint.
	DefaultBaseURL = "https://appapi.watercryst.com/v1"

	// DefaultTimeout bounds a single request attempt. Retries start a fresh
	// attempt, they never extend this.
	DefaultTimeout = 30 * time.Second

	// DefaultRetryDelay is the fixed pause between transient-failure retries.
	DefaultRetryDelay = 2 * time.Second

	// DefaultMaxAttempts is the total number of attempts per request.
	DefaultMaxAttempts = 3
)

// Client handles HTTP requests to the WaterCryst API. It is stateless apart
// from the underlying HTTP connection pool and is safe for concurrent use.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	ownsClient  bool
	retryDelay  time.Duration
	maxAttempts int
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient makes the client use a caller-owned HTTP client. The caller
// remains responsible for it; Close will not touch a borrowed client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.ownsClient = false
	}
}

// WithBaseURL overrides the API base URL. Used in tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") }
}

// WithRetryDelay overrides the fixed delay between transient retries.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithMaxAttempts overrides the total attempts per request.
func WithMaxAttempts(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a WaterCryst API client authenticated with the given key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		retryDelay:  DefaultRetryDelay,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		}
		c.ownsClient = true
	}

	return c
}

// Close releases the connection pool if this client owns it. A borrowed
// HTTP client is never closed.
func (c *Client) Close() {
	if c.ownsClient {
		c.httpClient.CloseIdleConnections()
	}
}

// Raw is the decoded result of a raw-value endpoint: either a number or, if
// numeric coercion failed, the trimmed body text.
type Raw struct {
	Number   float64
	Text     string
	IsNumber bool
}

// attemptResult carries one HTTP attempt's outcome before classification.
type attemptResult struct {
	status      int
	contentType string
	body        string
}

// do performs a single GET attempt against the API.
func (c *Client) do(ctx context.Context, endpoint string, params url.Values) (*attemptResult, error) {
	u := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &attemptResult{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        string(data),
	}, nil
}

// classifyStatus maps fatal HTTP statuses onto the error taxonomy.
// It returns (nil, false) for statuses the caller must handle itself.
func classifyStatus(res *attemptResult) (error, bool) {
	switch res.status {
	case http.StatusUnauthorized:
		return ErrAuthentication, true
	case http.StatusForbidden:
		return ErrDisabled, true
	case http.StatusTooManyRequests:
		return ErrRateLimited, true
	case http.StatusBadRequest:
		return ErrUnsupported, true
	}
	return nil, false
}

// looksLikeErrorPage reports whether a non-JSON 200 body is actually an
// error message or HTML error page.
func looksLikeErrorPage(text string) bool {
	lower := strings.ToLower(text)
	return strings.HasPrefix(lower, "error") || strings.HasPrefix(lower, "<!doctype")
}

// sleepRetry waits the fixed retry delay, aborting early on cancellation.
func (c *Client) sleepRetry(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrConnection, ctx.Err())
	case <-time.After(c.retryDelay):
		return nil
	}
}

// request performs a GET with retry on transient failures and returns the
// response as raw JSON. With allowEmpty, an empty body is a success and
// yields an empty object immediately, with no retry.
func (c *Client) request(ctx context.Context, endpoint string, params url.Values, allowEmpty bool) (json.RawMessage, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		res, err := c.do(ctx, endpoint, params)
		if err != nil {
			lastErr = fmt.Errorf("%w: %w", ErrConnection, err)
			c.logger.Warn("connection error", "endpoint", endpoint, "attempt", attempt, "error", err)
			if attempt < c.maxAttempts {
				if serr := c.sleepRetry(ctx); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, lastErr
		}

		if res.status != http.StatusOK {
			if ferr, fatal := classifyStatus(res); fatal {
				return nil, ferr
			}
			lastErr = &StatusError{StatusCode: res.status, Body: res.body}
			if res.status >= 500 && attempt < c.maxAttempts {
				c.logger.Warn("server error", "endpoint", endpoint, "status", res.status, "attempt", attempt)
				if serr := c.sleepRetry(ctx); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, lastErr
		}

		text := strings.TrimSpace(res.body)
		c.logger.Debug("API response", "endpoint", endpoint, "attempt", attempt,
			"content_type", res.contentType, "length", len(text))

		if text == "" {
			if allowEmpty {
				return json.RawMessage("{}"), nil
			}
			lastErr = fmt.Errorf("%w from %s", ErrEmptyResponse, endpoint)
			if attempt < c.maxAttempts {
				c.logger.Warn("empty response, retrying", "endpoint", endpoint, "attempt", attempt)
				if serr := c.sleepRetry(ctx); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, lastErr
		}

		if strings.Contains(res.contentType, "application/json") {
			if json.Valid([]byte(text)) {
				return json.RawMessage(text), nil
			}
			lastErr = fmt.Errorf("%w from %s: %.200s", ErrInvalidResponse, endpoint, text)
			if attempt < c.maxAttempts {
				c.logger.Warn("invalid JSON, retrying", "endpoint", endpoint, "attempt", attempt)
				if serr := c.sleepRetry(ctx); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, lastErr
		}

		if looksLikeErrorPage(text) {
			lastErr = fmt.Errorf("%w from %s: %.200s", ErrServerError, endpoint, text)
			if attempt < c.maxAttempts {
				c.logger.Warn("error page on 200, retrying", "endpoint", endpoint, "attempt", attempt)
				if serr := c.sleepRetry(ctx); serr != nil {
					return nil, serr
				}
				continue
			}
			return nil, lastErr
		}

		// Some endpoints return JSON without declaring the content type.
		if json.Valid([]byte(text)) {
			return json.RawMessage(text), nil
		}
		wrapped, _ := json.Marshal(map[string]string{"raw_response": text})
		return wrapped, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: request to %s failed after %d attempts", ErrInvalidResponse, endpoint, c.maxAttempts)
}

// requestRaw performs a GET against an endpoint that replies with a bare
// number or text instead of JSON. Empty bodies are always transient here.
func (c *Client) requestRaw(ctx context.Context, endpoint string, params url.Values) (Raw, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		res, err := c.do(ctx, endpoint, params)
		if err != nil {
			lastErr = fmt.Errorf("%w: %w", ErrConnection, err)
			c.logger.Warn("connection error", "endpoint", endpoint, "attempt", attempt, "error", err)
			if attempt < c.maxAttempts {
				if serr := c.sleepRetry(ctx); serr != nil {
					return Raw{}, serr
				}
				continue
			}
			return Raw{}, lastErr
		}

		if res.status != http.StatusOK {
			if ferr, fatal := classifyStatus(res); fatal {
				return Raw{}, ferr
			}
			lastErr = &StatusError{StatusCode: res.status, Body: res.body}
			if res.status >= 500 && attempt < c.maxAttempts {
				c.logger.Warn("server error", "endpoint", endpoint, "status", res.status, "attempt", attempt)
				if serr := c.sleepRetry(ctx); serr != nil {
					return Raw{}, serr
				}
				continue
			}
			return Raw{}, lastErr
		}

		text := strings.TrimSpace(res.body)
		c.logger.Debug("API raw response", "endpoint", endpoint, "attempt", attempt, "body", text)

		if text == "" {
			lastErr = fmt.Errorf("%w from %s", ErrEmptyResponse, endpoint)
			if attempt < c.maxAttempts {
				c.logger.Warn("empty response, retrying", "endpoint", endpoint, "attempt", attempt)
				if serr := c.sleepRetry(ctx); serr != nil {
					return Raw{}, serr
				}
				continue
			}
			return Raw{}, lastErr
		}

		if n, err := strconv.ParseFloat(text, 64); err == nil {
			return Raw{Number: n, IsNumber: true}, nil
		}
		return Raw{Text: text}, nil
	}

	if lastErr != nil {
		return Raw{}, lastErr
	}
	return Raw{}, fmt.Errorf("%w: raw request to %s failed after %d attempts", ErrInvalidResponse, endpoint, c.maxAttempts)
}

// getJSON performs request and decodes the result into v.
func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, allowEmpty bool, v any) error {
	data, err := c.request(ctx, endpoint, params, allowEmpty)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrInvalidResponse, endpoint, err)
	}
	return nil
}
