package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for local throttling.
var (
	rateLimiterWaitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vectra_rate_limiter_waits_total",
		Help: "Total number of acquisitions that had to wait for a token",
	})

	rateLimiterWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vectra_rate_limiter_wait_seconds",
		Help:    "Time spent waiting for a rate limiter token",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	rateLimiterTokens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vectra_rate_limiter_tokens",
		Help: "Tokens left in the bucket after the most recent acquisition",
	})
)

// TokenBucket is a mutex-guarded token bucket shared by every request of a
// client. The lock is held only while the bucket state is updated, never
// while a caller sleeps.
type TokenBucket struct {
	capacity float64
	period   time.Duration

	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time

	now func() time.Time
}

// New creates a full bucket allowing capacity requests per period.
func New(capacity int, period time.Duration) (*TokenBucket, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("rate limit capacity must be positive, got %d", capacity)
	}
	if period <= 0 {
		return nil, fmt.Errorf("rate limit period must be positive, got %s", period)
	}

	b := &TokenBucket{
		capacity: float64(capacity),
		period:   period,
		tokens:   float64(capacity),
		now:      time.Now,
	}
	b.lastRefill = b.now()
	rateLimiterTokens.Set(b.tokens)

	return b, nil
}

// Acquire blocks until a token is available and consumes it.
// It never fails.
func (b *TokenBucket) Acquire() {
	_ = b.Wait(context.Background())
}

// Wait blocks until a token is available and consumes it, or until ctx is
// done. A cancelled wait forfeits the reserved token.
func (b *TokenBucket) Wait(ctx context.Context) error {
	wait := b.reserve()
	if wait <= 0 {
		return nil
	}

	rateLimiterWaitsTotal.Inc()
	rateLimiterWaitSeconds.Observe(wait.Seconds())

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// reserve performs the refill and consumption step and returns how long
// the caller must sleep before its token is usable.
//
// A caller that finds fewer than one token reserves the next one: tokens
// drops to 0 and lastRefill moves to the instant that token is fully
// refilled. Until then no refill is credited, so concurrent callers queue
// behind it one interval apart.
func (b *TokenBucket) reserve() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if now.After(b.lastRefill) {
		elapsed := now.Sub(b.lastRefill).Seconds()
		b.tokens += elapsed * b.capacity / b.period.Seconds()
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.lastRefill = now
	}

	if b.tokens >= 1 {
		b.tokens--
		rateLimiterTokens.Set(b.tokens)
		return 0
	}

	wait := b.lastRefill.Sub(now) + time.Duration((1-b.tokens)*float64(b.period)/b.capacity)
	b.tokens = 0
	b.lastRefill = now.Add(wait)
	rateLimiterTokens.Set(0)

	return wait
}

// State returns a snapshot of the bucket.
func (b *TokenBucket) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	return State{
		Capacity:   int(b.capacity),
		Period:     b.period,
		Tokens:     b.tokens,
		LastRefill: b.lastRefill,
	}
}

// Tokens returns the number of tokens recorded at the last refill.
func (b *TokenBucket) Tokens() float64 {
	return b.State().Tokens
}
