// Package ratelimit implements client-side request gating for the Search
// Console API. The API enforces fixed per-minute quotas and returns no
// budget headers, so the gate is a local token bucket: every request
// waits for a slot before going out, and waits are observable.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Defaults sized well under the documented 1200 queries/minute/site quota,
// leaving headroom for other consumers of the same property.
const (
	DefaultQPS   = 5.0
	DefaultBurst = 5
)

// Prometheus metrics for request gating.
var (
	gscRateLimitWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gsc_ratelimit_waits_total",
		Help: "Total requests that had to wait for a rate limit slot",
	})

	gscRateLimitWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gsc_ratelimit_wait_seconds",
		Help:    "Time spent waiting for a rate limit slot",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	})

	gscRateLimitCancelsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gsc_ratelimit_cancels_total",
		Help: "Total waits aborted by context cancellation",
	})
)

// Limiter gates outgoing requests at a fixed QPS.
type Limiter struct {
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a limiter. Non-positive qps or burst fall back to defaults.
func New(qps float64, burst int, logger zerolog.Logger) *Limiter {
	if qps <= 0 {
		qps = DefaultQPS
	}
	if burst <= 0 {
		burst = DefaultBurst
	}
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
		logger:  logger,
	}
}

// Wait blocks until a request slot is available or the context is
// cancelled. A cancelled wait aborts the caller's request.
func (l *Limiter) Wait(ctx context.Context) error {
	if l.limiter.Allow() {
		return nil
	}

	gscRateLimitWaitsTotal.Inc()
	start := time.Now()

	if err := l.limiter.Wait(ctx); err != nil {
		gscRateLimitCancelsTotal.Inc()
		l.logger.Warn().
			Err(err).
			Dur("waited", time.Since(start)).
			Msg("Rate limit wait cancelled")
		return fmt.Errorf("rate limit wait: %w", err)
	}

	waited := time.Since(start)
	gscRateLimitWaitSeconds.Observe(waited.Seconds())
	l.logger.Debug().
		Dur("waited", waited).
		Msg("Request delayed by rate limiter")
	return nil
}

// Limit returns the configured requests-per-second rate.
func (l *Limiter) Limit() float64 {
	return float64(l.limiter.Limit())
}
