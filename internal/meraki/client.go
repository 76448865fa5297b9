// Package meraki provides a client for the Cisco Meraki dashboard API.
//
// The client paces its calls to stay inside the dashboard's per-key
// budget of five calls per second and transparently retries once when
// the dashboard answers 429, honoring the Retry-After header. Anything
// beyond that single retry is returned to the caller as an *APIError.
package meraki

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/packetintransit/meraki/internal/brand"
	"github.com/packetintransit/meraki/internal/clock"
	"github.com/packetintransit/meraki/internal/logging"
	"github.com/packetintransit/meraki/internal/metrics"
)

const (
	// DefaultBaseURL is the dashboard API v1 endpoint.
	DefaultBaseURL = "https://api.meraki.com/api/v1"

	// DefaultCallInterval spaces successive calls. The dashboard allows
	// five calls per second per key; 200ms keeps us exactly at budget.
	DefaultCallInterval = 200 * time.Millisecond

	// DefaultTimeout bounds a single HTTP exchange.
	DefaultTimeout = 30 * time.Second

	apiKeyHeader = "X-Cisco-Meraki-API-Key"
)

// Client talks to the Meraki dashboard API.
type Client struct {
	rc          *resty.Client
	clk         clock.Clock
	logger      *logging.Logger
	minInterval time.Duration

	mu       sync.Mutex
	lastCall time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the dashboard API key sent on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.rc.SetHeader(apiKeyHeader, key)
	}
}

// WithBaseURL overrides the API endpoint. Tests point this at a local
// server.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.rc.SetBaseURL(url)
	}
}

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.rc.SetTimeout(d)
	}
}

// WithClock injects the time source used for pacing and retry waits.
func WithClock(clk clock.Clock) Option {
	return func(c *Client) {
		c.clk = clk
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithCallInterval overrides the minimum spacing between calls. Zero
// disables pacing.
func WithCallInterval(d time.Duration) Option {
	return func(c *Client) {
		c.minInterval = d
	}
}

// New creates a dashboard API client.
func New(opts ...Option) *Client {
	c := &Client{
		clk:         &clock.RealClock{},
		logger:      logging.Default().WithComponent("client"),
		minInterval: DefaultCallInterval,
	}
	c.rc = resty.New().
		SetBaseURL(DefaultBaseURL).
		SetTimeout(DefaultTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", brand.UserAgent(brand.Version))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetAPIKey replaces the API key on a live client. The chat surfaces
// let users swap keys mid-session.
func (c *Client) SetAPIKey(key string) {
	c.rc.SetHeader(apiKeyHeader, key)
}

// ClearAPIKey removes the stored API key.
func (c *Client) ClearAPIKey() {
	c.rc.Header.Del(apiKeyHeader)
}

// HasAPIKey reports whether an API key is configured.
func (c *Client) HasAPIKey() bool {
	return c.rc.Header.Get(apiKeyHeader) != ""
}

// BaseURL returns the configured API endpoint.
func (c *Client) BaseURL() string {
	return c.rc.BaseURL
}

// pace blocks until the minimum interval since the previous call has
// elapsed. Serialized so concurrent callers queue instead of bursting.
func (c *Client) pace() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.minInterval <= 0 {
		c.lastCall = c.clk.Now()
		return
	}
	if !c.lastCall.IsZero() {
		if wait := c.minInterval - c.clk.Since(c.lastCall); wait > 0 {
			c.clk.Sleep(wait)
		}
	}
	c.lastCall = c.clk.Now()
}

// execute performs one paced HTTP exchange.
func (c *Client) execute(ctx context.Context, method, path string, query map[string]string, body any) (*resty.Response, error) {
	c.pace()

	req := c.rc.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	start := c.clk.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		metrics.Get().APIRequests.WithLabelValues(method, "error").Inc()
		return nil, fmt.Errorf("request failed: %w", err)
	}
	metrics.Get().APIRequests.WithLabelValues(method, strconv.Itoa(resp.StatusCode())).Inc()
	metrics.Get().APILatency.WithLabelValues(method).Observe(c.clk.Since(start).Seconds())

	c.logger.Debug("dashboard request", "method", method, "path", path, "status", resp.StatusCode())
	return resp, nil
}

// do runs a request against the dashboard and decodes the JSON response
// into result. A 429 is retried exactly once after the advertised wait.
func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body, result any) error {
	resp, err := c.execute(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	if resp.StatusCode() == http.StatusTooManyRequests {
		wait := retryAfter(resp.Header().Get("Retry-After"))
		c.logger.Warn("rate limited by dashboard", "path", path, "wait", wait)
		metrics.Get().APIRateLimited.Inc()
		c.clk.Sleep(wait)

		resp, err = c.execute(ctx, method, path, query, body)
		if err != nil {
			return err
		}
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode(),
			Endpoint:   path,
			Body:       string(resp.Body()),
		}
	}

	if result != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// get is shorthand for a GET with no body.
func (c *Client) get(ctx context.Context, path string, query map[string]string, result any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, result)
}

// put is shorthand for a PUT with a JSON body.
func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, result)
}

// Raw fetches path and returns the undecoded response body. Backup
// flows keep the dashboard's exact JSON so nothing is lost to a partial
// schema on our side.
func (c *Client) Raw(ctx context.Context, path string, query map[string]string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.get(ctx, path, query, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// retryAfter parses a Retry-After header. The dashboard sends whole
// seconds; anything unparseable falls back to one second.
func retryAfter(h string) time.Duration {
	secs, err := strconv.Atoi(h)
	if err != nil || secs < 1 {
		return time.Second
	}
	return time.Duration(secs) * time.Second
}

// timespanQuery renders a timespan duration as the whole-second query
// parameter the dashboard expects.
func timespanQuery(timespan time.Duration) map[string]string {
	return map[string]string{
		"timespan": strconv.Itoa(int(timespan / time.Second)),
	}
}
