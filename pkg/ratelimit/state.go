// Package ratelimit implements the client-side token bucket that bounds the
// outbound request rate of one Vectra API client.
//
// A bucket holds up to Capacity tokens and refills continuously at
// Capacity tokens per Period. Every request consumes one token; when the
// bucket is empty the caller is suspended until a token becomes available.
// Local throttling never fails, it only delays.
package ratelimit

import (
	"time"
)

// State is a point-in-time snapshot of a TokenBucket.
type State struct {
	// Capacity is the maximum number of tokens the bucket holds.
	Capacity int `json:"capacity"`

	// Period is the time it takes to refill the bucket from empty to full.
	Period time.Duration `json:"period"`

	// Tokens is the number of tokens available at LastRefill.
	// Always within [0, Capacity].
	Tokens float64 `json:"tokens"`

	// LastRefill is the instant the token count was last brought up to date.
	// It lies in the future while callers are queued for a token.
	LastRefill time.Time `json:"last_refill"`
}

// Interval returns the time needed to refill a single token.
func (s State) Interval() time.Duration {
	if s.Capacity <= 0 {
		return 0
	}
	return s.Period / time.Duration(s.Capacity)
}

// Queued reports whether tokens have been reserved ahead of now.
func (s State) Queued(now time.Time) bool {
	return s.LastRefill.After(now)
}

// TimeUntilAvailable returns how long a caller arriving at now would wait
// for a token. Returns 0 if a token is available immediately.
func (s State) TimeUntilAvailable(now time.Time) time.Duration {
	if s.Capacity <= 0 || s.Period <= 0 {
		return 0
	}
	tokens := s.Tokens
	ahead := time.Duration(0)
	if s.LastRefill.After(now) {
		ahead = s.LastRefill.Sub(now)
	} else {
		tokens += now.Sub(s.LastRefill).Seconds() * float64(s.Capacity) / s.Period.Seconds()
		if tokens > float64(s.Capacity) {
			tokens = float64(s.Capacity)
		}
	}
	if tokens >= 1 {
		return 0
	}
	return ahead + time.Duration((1-tokens)*float64(s.Period)/float64(s.Capacity))
}
