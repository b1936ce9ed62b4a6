package middleware_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/conduit"
	"github.com/dmitrymomot/conduit/middleware"
	"github.com/dmitrymomot/conduit/ratelimiter"
)

func newLimiter(t *testing.T, capacity int) ratelimiter.RateLimiter {
	t.Helper()

	store := ratelimiter.NewMemoryStore()
	t.Cleanup(store.Close)

	limiter, err := ratelimiter.NewBucket(store, ratelimiter.Config{
		Capacity:       capacity,
		RefillRate:     1,
		RefillInterval: time.Minute,
	})
	require.NoError(t, err)
	return limiter
}

// denyLimiter rejects every request; the zero Result reads as not allowed.
type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) (*ratelimiter.Result, error) {
	return &ratelimiter.Result{Limit: 1}, nil
}

func (denyLimiter) AllowN(context.Context, string, int) (*ratelimiter.Result, error) {
	return &ratelimiter.Result{Limit: 1}, nil
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	t.Run("allows under the limit with headers", func(t *testing.T) {
		chain := conduit.New().
			Use(middleware.RateLimit(newLimiter(t, 2))).
			Use(conduit.HandlerFunc(okHandler))

		res, err := chain.Handle(newBase(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Equal(t, "2", res.Header.Get("X-RateLimit-Limit"))
		assert.Equal(t, "1", res.Header.Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, res.Header.Get("X-RateLimit-Reset"))
	})

	t.Run("denies over the limit", func(t *testing.T) {
		chain := conduit.New().
			Use(middleware.RateLimit(newLimiter(t, 1))).
			Use(conduit.HandlerFunc(okHandler))

		res, err := chain.Handle(newBase(http.MethodGet, "/", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)

		res, err = chain.Handle(newBase(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
		assert.Equal(t, "0", res.Header.Get("X-RateLimit-Remaining"))
		assert.NotEmpty(t, res.Header.Get("Retry-After"))
	})

	t.Run("keys are independent", func(t *testing.T) {
		chain := conduit.New().
			Use(middleware.RateLimitWithConfig(middleware.RateLimitConfig{
				Limiter: newLimiter(t, 1),
				KeyFunc: func(ctx *conduit.Context) string {
					return ctx.Request().Header.Get("X-User")
				},
			})).
			Use(conduit.HandlerFunc(okHandler))

		res, err := chain.Handle(newBase(http.MethodGet, "/", map[string]string{"X-User": "a"}))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode)

		res, err = chain.Handle(newBase(http.MethodGet, "/", map[string]string{"X-User": "b"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)

		res, err = chain.Handle(newBase(http.MethodGet, "/", map[string]string{"X-User": "a"}))
		require.NoError(t, err)
		assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	})

	t.Run("custom error handler", func(t *testing.T) {
		chain := conduit.New().
			Use(middleware.RateLimitWithConfig(middleware.RateLimitConfig{
				Limiter: denyLimiter{},
				ErrorHandler: func(_ *conduit.Context, _ *ratelimiter.Result) *conduit.Response {
					return conduit.TextWithStatus("slow down", http.StatusServiceUnavailable)
				},
			})).
			Use(conduit.HandlerFunc(okHandler))

		res, err := chain.Handle(newBase(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)
		assert.Equal(t, "slow down", string(res.Body))
	})

	t.Run("skip bypasses limiting", func(t *testing.T) {
		chain := conduit.New().
			Use(middleware.RateLimitWithConfig(middleware.RateLimitConfig{
				Limiter: denyLimiter{},
				Skip:    func(*conduit.Context) bool { return true },
			})).
			Use(conduit.HandlerFunc(okHandler))

		res, err := chain.Handle(newBase(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, res.StatusCode)
	})

	t.Run("panics without limiter", func(t *testing.T) {
		assert.Panics(t, func() {
			middleware.RateLimitWithConfig(middleware.RateLimitConfig{})
		})
	})
}
