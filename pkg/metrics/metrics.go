// Package metrics provides the centralized Prometheus metrics reference
// for the Search Console client. All metrics are defined in their
// respective packages (client, searchanalytics, ratelimit) via promauto
// to maintain modularity and avoid circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - gsc_requests_total{operation, status} (Counter): Requests by operation (query, list_sites, inspect_url) and outcome (ok, error, rate_limited)
//   - gsc_request_duration_seconds{operation} (Histogram): Request duration by operation
//   - gsc_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/client):
//   - gsc_retries_total{error_class} (Counter): Retry attempts by error class
//   - gsc_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - gsc_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Pagination Metrics (pkg/searchanalytics):
//   - gsc_pages_fetched_total (Counter): Search-analytics pages fetched
//   - gsc_rows_fetched_total (Counter): Search-analytics rows fetched
//   - gsc_fetch_duration_seconds (Histogram): Duration of full multi-page fetches
//
// Rate Limit Metrics (pkg/ratelimit):
//   - gsc_ratelimit_waits_total (Counter): Requests that waited for a slot
//   - gsc_ratelimit_wait_seconds (Histogram): Time spent waiting for a slot
//   - gsc_ratelimit_cancels_total (Counter): Waits aborted by context cancellation
//
// Example Prometheus Queries:
//
//   # Request Error Rate
//   rate(gsc_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(gsc_request_duration_seconds_bucket[5m]))
//
//   # Average Rows per Page
//   rate(gsc_rows_fetched_total[5m]) / rate(gsc_pages_fetched_total[5m])
//
//   # Time Lost to Client-Side Throttling
//   rate(gsc_ratelimit_wait_seconds_sum[5m])
