package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Config defines token bucket parameters: a bucket holds up to Capacity
// tokens and gains RefillRate tokens every RefillInterval.
type Config struct {
	Capacity       int
	RefillRate     int
	RefillInterval time.Duration
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive", ErrInvalidConfig)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive", ErrInvalidConfig)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// Result reports the outcome of a token consumption attempt.
type Result struct {
	Limit     int       // bucket capacity
	Remaining int       // tokens left after the attempt, never negative
	ResetAt   time.Time // when the next refill lands

	allowed bool
}

// Allowed reports whether the tokens were consumed.
func (r *Result) Allowed() bool {
	return r.allowed
}

// RetryAfter returns how long the caller should wait before retrying, or
// zero when the attempt was allowed.
func (r *Result) RetryAfter() time.Duration {
	if r.allowed {
		return 0
	}
	d := time.Until(r.ResetAt)
	if d < 0 {
		return 0
	}
	return d
}

// RateLimiter is the consumption contract middleware and services build on.
type RateLimiter interface {
	// Allow consumes one token for key.
	Allow(ctx context.Context, key string) (*Result, error)
	// AllowN consumes n tokens for key.
	AllowN(ctx context.Context, key string, n int) (*Result, error)
}

// Store persists bucket state. ConsumeTokens decrements unconditionally and
// may return a negative remaining count; callers interpret the sign. A zero
// token count reads the current state without consuming.
type Store interface {
	ConsumeTokens(ctx context.Context, key string, tokens int, config Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

// Bucket implements RateLimiter over a pluggable Store.
type Bucket struct {
	store  Store
	config Config
}

// NewBucket creates a token bucket limiter with the given store and
// configuration.
func NewBucket(store Store, config Config) (*Bucket, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store is required", ErrInvalidConfig)
	}
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Bucket{store: store, config: config}, nil
}

// Allow consumes one token for key.
func (b *Bucket) Allow(ctx context.Context, key string) (*Result, error) {
	return b.AllowN(ctx, key, 1)
}

// AllowN consumes n tokens for key. A negative store balance means the
// request exceeded the limit; the consumption still counts against the
// bucket, which penalizes clients that keep hammering past the limit.
func (b *Bucket) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTokenCount, n)
	}
	return b.consume(ctx, key, n)
}

// Status reports the current bucket state without consuming tokens.
func (b *Bucket) Status(ctx context.Context, key string) (*Result, error) {
	return b.consume(ctx, key, 0)
}

// Reset clears the bucket state for key, an administrative override.
func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}

func (b *Bucket) consume(ctx context.Context, key string, n int) (*Result, error) {
	remaining, resetAt, err := b.store.ConsumeTokens(ctx, key, n, b.config)
	if err != nil {
		return nil, err
	}
	return &Result{
		Limit:     b.config.Capacity,
		Remaining: max(remaining, 0),
		ResetAt:   resetAt,
		allowed:   remaining >= 0,
	}, nil
}
