package client

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"Mansoor88-6/labor-cost-dashboard/internal/cache"
	"Mansoor88-6/labor-cost-dashboard/internal/ratelimit"

	"go.uber.org/zap"
)

const (
	// PageSize is the limit sent with every paginated request
	PageSize = 100

	apiKeyHeader = "X-Redmine-API-Key"
)

// Cache keys for reference data
const (
	CacheKeyActivities      = "activities"
	CacheKeyIssueStatuses   = "issue_statuses"
	CacheKeyIssuePriorities = "issue_priorities"
	CacheKeyProjects        = "projects"
	CacheKeyUsers           = "users"
)

// DefaultCacheTTL returns the reference-data TTLs
func DefaultCacheTTL() map[string]time.Duration {
	return map[string]time.Duration{
		CacheKeyActivities:      24 * time.Hour,
		CacheKeyIssueStatuses:   24 * time.Hour,
		CacheKeyIssuePriorities: 24 * time.Hour,
		CacheKeyProjects:        time.Hour,
		CacheKeyUsers:           time.Hour,
	}
}

// Options configures a Client
type Options struct {
	BaseURL            string
	APIKey             string
	Timeout            time.Duration
	VerifySSL          bool
	RateLimitPerSecond float64
	RateLimitBurst     int
	RetryDelay         time.Duration
	MaxAttempts        int
	MaxThrottleRetries int
	CacheEnabled       bool
	CacheTTL           map[string]time.Duration
	Limiter            *ratelimit.Limiter
}

// DefaultOptions returns options with the standard limits filled in
func DefaultOptions(baseURL, apiKey string) Options {
	return Options{
		BaseURL:            baseURL,
		APIKey:             apiKey,
		Timeout:            30 * time.Second,
		VerifySSL:          true,
		RateLimitPerSecond: 10,
		RateLimitBurst:     30,
		RetryDelay:         time.Second,
		MaxAttempts:        3,
		MaxThrottleRetries: 5,
		CacheEnabled:       true,
	}
}

// Client handles communication with the Redmine REST API
type Client struct {
	baseURL            string
	apiKey             string
	httpClient         *http.Client
	limiter            *ratelimit.Limiter
	cache              *cache.Cache[any]
	cacheEnabled       bool
	ttlMu              sync.RWMutex
	cacheTTL           map[string]time.Duration
	retryDelay         time.Duration
	maxAttempts        int
	maxThrottleRetries int
	sleep              func(time.Duration)
	now                func() time.Time
	logger             *zap.Logger
}

// NewClient creates a new API client
func NewClient(opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.MaxThrottleRetries <= 0 {
		opts.MaxThrottleRetries = 5
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = 0
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !opts.VerifySSL {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.New(opts.RateLimitPerSecond, opts.RateLimitBurst, logger)
	}

	ttl := DefaultCacheTTL()
	for k, v := range opts.CacheTTL {
		ttl[k] = v
	}

	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter:            limiter,
		cache:              cache.New[any](logger),
		cacheEnabled:       opts.CacheEnabled,
		cacheTTL:           ttl,
		retryDelay:         opts.RetryDelay,
		maxAttempts:        opts.MaxAttempts,
		maxThrottleRetries: opts.MaxThrottleRetries,
		sleep:              time.Sleep,
		now:                time.Now,
		logger:             logger,
	}
}

// get issues a GET to endpoint and returns the response body. Transport
// failures are retried with linear backoff, 429 responses are retried
// after Retry-After without consuming the transport budget.
func (c *Client) get(endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	attempt := 1
	throttled := 0
	for {
		if err := c.limiter.Acquire(); err != nil {
			return nil, err
		}

		startTime := time.Now()
		statusCode, header, body, err := c.do(reqURL)
		duration := time.Since(startTime)

		if err != nil {
			c.logger.Warn("Request attempt failed",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("duration", duration),
				zap.Error(err),
			)
			if attempt >= c.maxAttempts {
				c.logger.Error("Request failed",
					zap.String("endpoint", endpoint),
					zap.Int("attempts", attempt),
					zap.Error(err),
				)
				return nil, &TransportError{Attempts: attempt, Err: err}
			}
			c.sleep(c.retryDelay * time.Duration(attempt))
			attempt++
			continue
		}

		if statusCode == http.StatusTooManyRequests {
			throttled++
			if throttled > c.maxThrottleRetries {
				c.logger.Error("Rate limited by server, giving up",
					zap.String("endpoint", endpoint),
					zap.Int("retries", throttled-1),
				)
				return nil, &RateLimitedError{
					APIError: APIError{Message: "Too many requests", Status: statusCode},
					Retries:  throttled - 1,
				}
			}
			wait := c.retryAfter(header.Get("Retry-After"))
			c.logger.Warn("Rate limited by server",
				zap.String("endpoint", endpoint),
				zap.Duration("retry_after", wait),
			)
			c.sleep(wait)
			continue
		}

		if statusCode >= 200 && statusCode < 300 {
			c.logger.Debug("Request completed",
				zap.String("endpoint", endpoint),
				zap.Int("status_code", statusCode),
				zap.Duration("duration", duration),
			)
			return body, nil
		}

		statusErr := newStatusError(statusCode, body)
		c.logger.Error("Redmine returned an error",
			zap.String("endpoint", endpoint),
			zap.Int("status_code", statusCode),
			zap.String("response", truncate(string(body), 512)),
		)
		return nil, statusErr
	}
}

// do performs one HTTP attempt. Any error is a transport failure.
func (c *Client) do(reqURL string) (int, http.Header, []byte, error) {
	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, resp.Header, body, nil
}

// retryAfter parses a Retry-After header given in seconds or as an HTTP date
func (c *Client) retryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return c.retryDelay
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		if secs < 0 || secs*float64(time.Second) >= math.MaxInt64 {
			return c.retryDelay
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(value); err == nil {
		if d := t.Sub(c.now()); d > 0 {
			return d
		}
		return 0
	}
	return c.retryDelay
}

// getJSON fetches endpoint and decodes the body into out
func (c *Client) getJSON(endpoint string, params url.Values, out any) error {
	body, err := c.get(endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", endpoint, err)
	}
	return nil
}

// decodePage extracts the item list under key and total_count
func decodePage(body []byte, key string) ([]json.RawMessage, int, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, 0, err
	}

	var items []json.RawMessage
	if v, ok := raw[key]; ok && len(v) > 0 && string(v) != "null" {
		if err := json.Unmarshal(v, &items); err != nil {
			return nil, 0, err
		}
	}

	total := 0
	if v, ok := raw["total_count"]; ok {
		_ = json.Unmarshal(v, &total)
	}
	return items, total, nil
}

// getPaginated walks offset/limit pages until the total_count reported
// by the first page is reached
func getPaginated[T any](c *Client, endpoint, key string, params url.Values) ([]T, error) {
	all := make([]T, 0)
	offset := 0
	totalCount := -1

	for {
		pageParams := url.Values{}
		for k, v := range params {
			pageParams[k] = append([]string(nil), v...)
		}
		pageParams.Set("offset", strconv.Itoa(offset))
		pageParams.Set("limit", strconv.Itoa(PageSize))

		body, err := c.get(endpoint, pageParams)
		if err != nil {
			return nil, err
		}

		items, total, err := decodePage(body, key)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s page at offset %d: %w", endpoint, offset, err)
		}
		if totalCount < 0 {
			totalCount = total
		}

		for _, item := range items {
			var v T
			if err := json.Unmarshal(item, &v); err != nil {
				return nil, fmt.Errorf("failed to decode %s item: %w", key, err)
			}
			all = append(all, v)
		}

		if len(items) == 0 || len(all) >= totalCount {
			break
		}
		offset += PageSize
	}

	c.logger.Debug("Fetched paginated resource",
		zap.String("endpoint", endpoint),
		zap.Int("count", len(all)),
		zap.Int("total_count", totalCount),
	)
	return all, nil
}

// cached serves key from the cache or populates it with fetch
func cached[T any](c *Client, key string, fetch func() (T, error)) (T, error) {
	if c.cacheEnabled {
		if v, ok := c.cache.Get(key); ok {
			if typed, ok := v.(T); ok {
				c.logger.Debug("Cache hit", zap.String("key", key))
				return typed, nil
			}
		}
	}

	v, err := fetch()
	if err != nil {
		return v, err
	}

	if c.cacheEnabled {
		c.cache.Set(key, v, c.ttlFor(key))
	}
	return v, nil
}

func (c *Client) ttlFor(key string) time.Duration {
	c.ttlMu.RLock()
	defer c.ttlMu.RUnlock()
	return c.cacheTTL[key]
}

// InvalidateCache removes one cached resource, or all of them for an empty key
func (c *Client) InvalidateCache(key string) {
	if !c.cacheEnabled {
		return
	}
	if key == "" {
		c.cache.Clear()
		c.logger.Info("Cache cleared")
		return
	}
	c.cache.Invalidate(key)
	c.logger.Info("Cache entry invalidated", zap.String("key", key))
}

// SetCacheTTL updates the TTL used for future writes of key
func (c *Client) SetCacheTTL(key string, ttl time.Duration) {
	c.ttlMu.Lock()
	defer c.ttlMu.Unlock()
	c.cacheTTL[key] = ttl
}

// HealthCheck checks that Redmine is reachable and the API key is accepted
func (c *Client) HealthCheck() error {
	var out struct {
		User json.RawMessage `json:"user"`
	}
	if err := c.getJSON("users/current.json", nil, &out); err != nil {
		var statusErr StatusError
		if errors.As(err, &statusErr) {
			return fmt.Errorf("health check returned status %d: %w", statusErr.StatusCode(), err)
		}
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
