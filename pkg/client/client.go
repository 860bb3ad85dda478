// Package client provides the Vectra AI On-Premise REST API client with
// client-side rate limiting, retry of transport failures, typed errors,
// auto-pagination, and an optional Redis response cache.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/cache"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/pagination"
	"github.com/vectra-ai-research/vectra-ai-mcp-server-qux/pkg/ratelimit"
)

// Prometheus metrics for Vectra client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vectra_requests_total",
		Help: "Total Vectra API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vectra_request_duration_seconds",
		Help:    "Vectra API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vectra_errors_total",
		Help: "Total Vectra API errors by kind",
	}, []string{"kind"})
)

// DefaultUserAgent is sent with every request.
const DefaultUserAgent = "VectraMCPServer-OnPrem/1.0.0"

// Object is a decoded JSON object returned by the API.
type Object = map[string]any

// Client is the Vectra API client. It is safe for concurrent use; every call
// shares one token bucket and one connection pool.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.TokenBucket
	cache      *cache.Manager
	paginator  *pagination.Paginator
	config     Config
	apiBase    string
	scope      string
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the appliance, e.g. "https://brain.example.com" (REQUIRED)
	BaseURL string

	// APIKey sent as "Authorization: Token <key>" (REQUIRED)
	APIKey string

	// APIVersion path segment, e.g. "v2.5"
	APIVersion string

	// UserAgent header
	UserAgent string

	// Timeout is the hard deadline of a single attempt
	Timeout time.Duration

	// VerifySSL enables TLS certificate verification
	VerifySSL bool

	// Rate limiting: at most RateLimitRequests per RateLimitPeriod
	RateLimitRequests int
	RateLimitPeriod   time.Duration

	// Retry policy for transport failures
	Retry RetryConfig

	// MaxPages bounds auto-pagination
	MaxPages int

	// Optional response cache; disabled when Redis is nil or CacheTTL <= 0
	Redis    *redis.Client
	CacheTTL time.Duration
}

// DefaultConfig returns the default configuration for an appliance.
func DefaultConfig(baseURL, apiKey string) Config {
	return Config{
		BaseURL:           baseURL,
		APIKey:            apiKey,
		APIVersion:        "v2.5",
		UserAgent:         DefaultUserAgent,
		Timeout:           30 * time.Second,
		VerifySSL:         true,
		RateLimitRequests: 100,
		RateLimitPeriod:   60 * time.Second,
		Retry:             DefaultRetryConfig(),
		MaxPages:          pagination.DefaultConfig().MaxPages,
		CacheTTL:          5 * time.Minute,
	}
}

// New creates a new Vectra client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.APIVersion == "" {
		return nil, fmt.Errorf("api version is required")
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive (got %s)", cfg.Timeout)
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	limiter, err := ratelimit.New(cfg.RateLimitRequests, cfg.RateLimitPeriod)
	if err != nil {
		return nil, fmt.Errorf("create rate limiter: %w", err)
	}

	logger := log.With().Str("component", "vectra-client").Logger()

	c := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				MaxConnsPerHost:     10,
				IdleConnTimeout:     90 * time.Second,
				TLSClientConfig:     &tls.Config{InsecureSkipVerify: !cfg.VerifySSL}, //nolint:gosec // appliances often use self-signed certificates
			},
		},
		limiter: limiter,
		config:  cfg,
		apiBase: base.String() + "/api/" + cfg.APIVersion,
		scope:   base.Host,
		logger:  logger,
	}

	if cfg.Redis != nil && cfg.CacheTTL > 0 {
		c.cache = cache.NewManager(cfg.Redis, cfg.CacheTTL)
	}

	c.paginator = pagination.New(c, pagination.Config{MaxPages: cfg.MaxPages}, logger)

	return c, nil
}

// Request describes one API call.
type Request struct {
	// Method defaults to GET
	Method string

	// Endpoint relative to the versioned API root, e.g. "detections/42"
	Endpoint string

	Params url.Values

	// JSON is encoded as the request body when set
	JSON any

	// Form is sent url-encoded when set and JSON is nil
	Form url.Values
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

// body returns a fresh reader for every attempt.
func (r Request) body() (io.Reader, string, error) {
	switch {
	case r.JSON != nil:
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	case r.Form != nil:
		return strings.NewReader(r.Form.Encode()), "application/x-www-form-urlencoded", nil
	default:
		return nil, "", nil
	}
}

type response struct {
	status      int
	contentType string
	body        []byte
}

// object decodes a successful response. JSON bodies that are not objects
// and non-JSON bodies are wrapped under "data".
func (r *response) object() (Object, error) {
	if !strings.HasPrefix(strings.ToLower(r.contentType), "application/json") {
		return Object{"data": string(r.body)}, nil
	}

	if len(bytes.TrimSpace(r.body)) == 0 {
		return Object{}, nil
	}

	var v any
	if err := json.Unmarshal(r.body, &v); err != nil {
		return nil, &APIError{
			StatusCode: r.status,
			Kind:       KindAPI,
			Message:    "invalid JSON response",
			Err:        err,
		}
	}

	if obj, ok := v.(map[string]any); ok {
		return obj, nil
	}
	return Object{"data": v}, nil
}

// Do performs one API call and returns the decoded body.
func (c *Client) Do(ctx context.Context, req Request) (Object, error) {
	resp, err := c.execute(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.object()
}

// execute runs a request through cache, rate limiter, and retry loop.
func (c *Client) execute(ctx context.Context, req Request) (*response, error) {
	method := req.method()
	endpoint := strings.Trim(req.Endpoint, "/")
	label := endpointLabel(endpoint)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(label).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Cache
	key := cache.Key{Scope: c.scope, Endpoint: endpoint, Params: req.Params}
	if c.cache != nil && method == http.MethodGet {
		entry, err := c.cache.Get(ctx, key)
		switch {
		case err == nil:
			requestsTotal.WithLabelValues(label, "cache_hit").Inc()
			c.logger.Debug().Str("endpoint", endpoint).Msg("Serving response from cache")
			return &response{status: entry.StatusCode, contentType: entry.ContentType, body: entry.Data}, nil
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	// Step 2: Build URL
	target := c.apiBase + "/" + endpoint
	if len(req.Params) > 0 {
		target += "?" + req.Params.Encode()
	}

	// Step 3: Execute with retry; writes that are not idempotent run once
	retryable := retryTransport
	if !isIdempotent(method) {
		retryable = neverRetry
	}

	requestID := uuid.NewString()
	logger := c.logger.With().Str("request_id", requestID).Logger()

	var resp *response
	err := retryWithBackoff(ctx, logger, c.config.Retry, retryable, func(attempt int) error {
		r, err := c.attempt(ctx, method, target, label, req, requestID, attempt)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 4: Update Cache
	if c.cache != nil {
		if method == http.MethodGet {
			entry := &cache.Entry{Data: resp.body, ContentType: resp.contentType, StatusCode: resp.status}
			if err := c.cache.Set(ctx, key, entry); err != nil {
				c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Failed to cache response")
			}
		} else {
			for _, prefix := range key.InvalidationPrefixes() {
				removed, err := c.cache.InvalidatePrefix(ctx, prefix)
				if err != nil {
					c.logger.Warn().Err(err).Str("endpoint", endpoint).Str("prefix", prefix).Msg("Failed to invalidate cache")
				} else if removed > 0 {
					c.logger.Debug().Str("endpoint", endpoint).Str("prefix", prefix).Int("keys", removed).Msg("Invalidated cached responses")
				}
			}
		}
	}

	return resp, nil
}

// attempt performs a single HTTP exchange and classifies its outcome.
func (c *Client) attempt(ctx context.Context, method, target, label string, req Request, requestID string, attempt int) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContextCancelled, err)
	}

	body, contentType, err := req.body()
	if err != nil {
		return nil, err
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Authorization", "Token "+c.config.APIKey)
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.config.UserAgent)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Int("attempt", attempt).
		Str("method", method).
		Str("url", target).
		Interface("params", req.Params).
		Msgf("Making %s request to %s", method, target)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.transportError(ctx, label, requestID, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, c.transportError(ctx, label, requestID, err)
	}

	requestsTotal.WithLabelValues(label, strconv.Itoa(httpResp.StatusCode)).Inc()

	if apiErr := classifyStatus(httpResp.StatusCode, data); apiErr != nil {
		errorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()
		c.logger.Warn().
			Str("request_id", requestID).
			Str("method", method).
			Int("status", httpResp.StatusCode).
			Str("kind", string(apiErr.Kind)).
			Msg("Vectra request error")
		return nil, apiErr
	}

	return &response{
		status:      httpResp.StatusCode,
		contentType: httpResp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

func (c *Client) transportError(ctx context.Context, label, requestID string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
	}

	errorsTotal.WithLabelValues(string(KindTransport)).Inc()
	requestsTotal.WithLabelValues(label, "transport_error").Inc()
	c.logger.Warn().Err(err).Str("request_id", requestID).Msg("HTTP request failed")

	return &APIError{Kind: KindTransport, Message: "request error", Err: err}
}

// isIdempotent reports whether a method may be retried after a transport
// failure without risking a duplicated side effect.
func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

var numericSegment = regexp.MustCompile(`(^|/)\d+(/|$)`)

// endpointLabel collapses numeric path segments so metric cardinality stays
// bounded: "detections/42/notes/7" becomes "detections/{id}/notes/{id}".
func endpointLabel(endpoint string) string {
	for numericSegment.MatchString(endpoint) {
		endpoint = numericSegment.ReplaceAllString(endpoint, "$1{id}$2")
	}
	if endpoint == "" {
		return "/"
	}
	return endpoint
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (Object, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint, Params: params})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (Object, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, JSON: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body any) (Object, error) {
	return c.Do(ctx, Request{Method: http.MethodPut, Endpoint: endpoint, JSON: body})
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, endpoint string, body any) (Object, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Endpoint: endpoint, JSON: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string) (Object, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Endpoint: endpoint})
}

// GetBytes performs a GET request and returns the raw body.
func (c *Client) GetBytes(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	resp, err := c.execute(ctx, Request{Method: http.MethodGet, Endpoint: endpoint, Params: params})
	if err != nil {
		return nil, err
	}
	return resp.body, nil
}

// FetchPage implements pagination.PageFetcher.
func (c *Client) FetchPage(ctx context.Context, endpoint string, params url.Values) (map[string]any, error) {
	return c.Get(ctx, endpoint, params)
}

// GetAllPages fetches every page of a list endpoint. It never fails: on error
// the items gathered so far are returned.
func (c *Client) GetAllPages(ctx context.Context, endpoint string, params url.Values) Object {
	return c.paginator.FetchAll(ctx, endpoint, params)
}

// APIBaseURL returns the versioned API root, e.g. "https://brain/api/v2.5".
func (c *Client) APIBaseURL() string {
	return c.apiBase
}

// Limiter returns the client's token bucket.
func (c *Client) Limiter() *ratelimit.TokenBucket {
	return c.limiter
}

// CacheEnabled reports whether GET responses are cached.
func (c *Client) CacheEnabled() bool {
	return c.cache != nil
}

// Close releases idle connections. The Redis client is owned by the caller.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
