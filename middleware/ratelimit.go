package middleware

import (
	"net/http"
	"strconv"

	"github.com/dmitrymomot/conduit"
	"github.com/dmitrymomot/conduit/ratelimiter"
)

// RateLimitConfig configures the rate limiting middleware.
type RateLimitConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx *conduit.Context) bool
	// Limiter is the rate limiting implementation to use (required)
	Limiter ratelimiter.RateLimiter
	// KeyFunc extracts the rate limiting key from the request
	// (default: resolved client IP, falling back to the adapter address)
	KeyFunc func(ctx *conduit.Context) string
	// ErrorHandler builds the response for rejected requests
	// (default: 429 Too Many Requests)
	ErrorHandler func(ctx *conduit.Context, result *ratelimiter.Result) *conduit.Response
	// SetHeaders determines whether to include X-RateLimit-* response headers
	SetHeaders bool
}

// RateLimit creates a rate limiting middleware with the given limiter and
// rate limit headers enabled.
func RateLimit(limiter ratelimiter.RateLimiter) conduit.Handler {
	return RateLimitWithConfig(RateLimitConfig{Limiter: limiter, SetHeaders: true})
}

// RateLimitWithConfig creates a rate limiting middleware with custom
// configuration. Requests over the limit are answered immediately; allowed
// requests continue down the chain with limit headers stamped on whatever
// response ends the request. Panics if no limiter is provided.
func RateLimitWithConfig(cfg RateLimitConfig) conduit.Handler {
	if cfg.Limiter == nil {
		panic("ratelimit middleware: limiter is required")
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(ctx *conduit.Context) string {
			if ip, ok := GetClientIP(ctx); ok {
				return ip
			}
			if ip := ctx.IP(); ip != "" {
				return ip
			}
			return ctx.Request().RemoteAddr
		}
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(_ *conduit.Context, result *ratelimiter.Result) *conduit.Response {
			res := conduit.TextWithStatus("Too Many Requests", http.StatusTooManyRequests)
			if retry := result.RetryAfter(); retry > 0 {
				res.Header.Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
			}
			return res
		}
	}

	return conduit.HandlerFunc(func(ctx *conduit.Context) (conduit.Result, error) {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return conduit.Result{}, nil
		}

		result, err := cfg.Limiter.Allow(ctx.Request().Context(), cfg.KeyFunc(ctx))
		if err != nil {
			return conduit.Result{}, err
		}

		out := conduit.Result{}
		if cfg.SetHeaders {
			out.Callbacks = []conduit.ResponseCallback{rateLimitHeaders(result)}
		}
		if !result.Allowed() {
			out.Response = cfg.ErrorHandler(ctx, result)
		}
		return out, nil
	})
}

// rateLimitHeaders stamps the standard X-RateLimit-* headers on the final
// response so clients can implement backoff.
func rateLimitHeaders(result *ratelimiter.Result) conduit.ResponseCallback {
	return func(res *conduit.Response) (*conduit.Response, error) {
		res.Header.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		res.Header.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		res.Header.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
		return res, nil
	}
}
