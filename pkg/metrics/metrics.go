// Package metrics provides the Prometheus registry and scrape handler for
// the Vectra MCP server. Metrics are defined in their owning packages
// (client, cache, ratelimit, pagination, tools) and registered via promauto.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the server.
var Registry = prometheus.DefaultRegisterer

// ToolCalls counts MCP tool invocations by tool name and outcome
// ("ok", "error").
var ToolCalls = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "vectra_mcp_tool_calls_total",
	Help: "MCP tool invocations by tool and outcome",
}, []string{"tool", "outcome"})

// ToolDuration tracks tool handler latency.
var ToolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "vectra_mcp_tool_duration_seconds",
	Help:    "MCP tool handler duration",
	Buckets: prometheus.DefBuckets,
}, []string{"tool"})

// Handler returns the scrape handler for the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Rate Limiter Metrics (pkg/ratelimit):
//   - vectra_rate_limiter_waits_total (Counter): Acquisitions that had to wait for a token
//   - vectra_rate_limiter_wait_seconds (Histogram): Time spent waiting for a token
//   - vectra_rate_limiter_tokens (Gauge): Tokens left after the last acquisition
//
// Cache Metrics (pkg/cache):
//   - vectra_cache_hits_total (Counter): Cached GET responses served
//   - vectra_cache_misses_total (Counter): GET lookups that went upstream
//   - vectra_cache_written_bytes_total (Counter): Bytes written to the cache
//   - vectra_cache_invalidations_total (Counter): Keys removed after writes
//   - vectra_cache_errors_total{operation} (Counter): Redis failures
//
// Request Metrics (pkg/client):
//   - vectra_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - vectra_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - vectra_errors_total{kind} (Counter): Errors by kind (auth, forbidden, not_found, rate_limited, api, transport)
//
// Retry Metrics (pkg/client):
//   - vectra_retries_total (Counter): Retry attempts after transport failures
//   - vectra_retry_backoff_seconds (Histogram): Backoff slept before each retry
//   - vectra_retry_exhausted_total (Counter): Requests that used every attempt
//
// Pagination Metrics (pkg/pagination):
//   - vectra_pagination_pages_total (Counter): Pages fetched by the auto-paginator
//   - vectra_pagination_errors_total (Counter): Page fetches that failed
//   - vectra_pagination_truncated_total{reason} (Counter): Aggregations stopped early
//
// Tool Metrics (this package):
//   - vectra_mcp_tool_calls_total{tool, outcome} (Counter)
//   - vectra_mcp_tool_duration_seconds{tool} (Histogram)
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(vectra_cache_hits_total[5m])) /
//   (sum(rate(vectra_cache_hits_total[5m])) + sum(rate(vectra_cache_misses_total[5m])))
//
//   # Time callers spend throttled
//   rate(vectra_rate_limiter_wait_seconds_sum[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(vectra_request_duration_seconds_bucket[5m]))
