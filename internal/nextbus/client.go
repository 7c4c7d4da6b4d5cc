// Package nextbus is a client for the NextBus public JSON feed, used by the
// companion to answer live prediction requests.
package nextbus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/mobil-koeln/stopsync/internal/cache"
	"github.com/mobil-koeln/stopsync/internal/catalog"
)

const (
	defaultTimeout = 10 * time.Second

	// DefaultCacheTTL matches the feed's own refresh interval
	DefaultCacheTTL = 20 * time.Second

	userAgent = "stopsync (+https://github.com/mobil-koeln/stopsync)"
)

// Cache interface for caching HTTP responses
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte) error
}

// Client is the API client for the NextBus feed
type Client struct {
	httpClient *http.Client
	baseURL    string
	agency     string
	cache      Cache
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCache enables caching with the provided cache implementation
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithDefaultCache enables an in-memory cache with DefaultCacheTTL
func WithDefaultCache() ClientOption {
	return func(c *Client) {
		c.cache = cache.NewMemoryCache(DefaultCacheTTL)
	}
}

// WithBaseURL points the client at another feed URL
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithAgency sets the agency tag, e.g. "ttc"
func WithAgency(agency string) ClientOption {
	return func(c *Client) {
		if agency != "" {
			c.agency = agency
		}
	}
}

// NewClient creates a new API client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: BaseURL,
		agency:  DefaultAgency,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Agency returns the agency tag requests are made for
func (c *Client) Agency() string {
	return c.agency
}

// GetPredictions fetches the arrivals of a route at a stop
func (c *Client) GetPredictions(ctx context.Context, routeTag, stopTag string) (*Predictions, error) {
	body, err := c.GetPredictionsRaw(ctx, routeTag, stopTag)
	if err != nil {
		return nil, err
	}

	var resp PredictionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse predictions response: %w", err)
	}

	if resp.Error != nil {
		status := http.StatusBadRequest
		if resp.Error.ShouldRetry == "true" {
			status = http.StatusServiceUnavailable
		}
		return nil, NewAPIErrorWithMessage(status, CommandPredictions, resp.Error.Content)
	}

	return resp.ToPredictions(), nil
}

// GetPredictionsRaw fetches predictions and returns raw JSON
func (c *Client) GetPredictionsRaw(ctx context.Context, routeTag, stopTag string) (json.RawMessage, error) {
	if routeTag == "" {
		return nil, ErrMissingField("routeTag")
	}
	if stopTag == "" {
		return nil, ErrMissingField("stopTag")
	}

	params := url.Values{}
	params.Set("command", CommandPredictions)
	params.Set("a", c.agency)
	params.Set("r", routeTag)
	params.Set("s", stopTag)

	return c.doRequest(ctx, c.baseURL+"?"+params.Encode(), CommandPredictions)
}

// Predict implements the companion's prediction source
func (c *Client) Predict(ctx context.Context, routeTag, stopTag string) (catalog.Prediction, error) {
	p, err := c.GetPredictions(ctx, routeTag, stopTag)
	if err != nil {
		return nil, err
	}
	return p.Prediction(), nil
}

// doRequest performs an HTTP GET request with optional caching
func (c *Client) doRequest(ctx context.Context, reqURL, command string) ([]byte, error) {
	// Check cache first
	if c.cache != nil {
		if data, ok := c.cache.Get(reqURL); ok {
			return data, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Check for context errors
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, NewAPIError(resp.StatusCode, resp.Status, command)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	// Store in cache
	if c.cache != nil {
		_ = c.cache.Set(reqURL, body)
	}

	return body, nil
}
