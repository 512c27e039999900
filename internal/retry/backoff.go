package retry

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes the delay before each retry attempt.
type Backoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	maxAttempts  int

	// jitter of 0.1 means +/- 10% randomness
	jitter     float64
	jitterFunc func() float64
}

// Option configures a Backoff.
type Option func(*Backoff)

// WithInitialDelay sets the delay before the first retry.
func WithInitialDelay(d time.Duration) Option {
	return func(b *Backoff) {
		b.initialDelay = d
	}
}

// WithMaxDelay caps the delay between attempts.
func WithMaxDelay(d time.Duration) Option {
	return func(b *Backoff) {
		b.maxDelay = d
	}
}

// WithJitter sets the jitter factor (0.0-1.0).
func WithJitter(j float64) Option {
	return func(b *Backoff) {
		b.jitter = j
	}
}

// WithJitterFunc replaces the random source used for jitter.
func WithJitterFunc(f func() float64) Option {
	return func(b *Backoff) {
		b.jitterFunc = f
	}
}

// NewBackoff returns a Backoff allowing maxAttempts attempts in total, starting at
// 200ms and doubling up to 5s.
func NewBackoff(maxAttempts int, opts ...Option) *Backoff {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	b := &Backoff{
		initialDelay: 200 * time.Millisecond,
		maxDelay:     5 * time.Second,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
		jitterFunc:   rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// MaxAttempts returns the total number of attempts allowed.
func (b *Backoff) MaxAttempts() int {
	return b.maxAttempts
}

// Delay returns the wait after the given failed attempt (0-based).
func (b *Backoff) Delay(attempt int) time.Duration {
	delay := float64(b.initialDelay) * math.Pow(b.multiplier, float64(attempt))
	if delay > float64(b.maxDelay) {
		delay = float64(b.maxDelay)
	}
	if b.jitter > 0 {
		offset := (b.jitterFunc() - 0.5) * 2.0
		delay *= 1.0 + b.jitter*offset
	}
	return time.Duration(delay)
}
