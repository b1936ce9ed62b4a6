package middleware_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/conduit"
	"github.com/dmitrymomot/conduit/middleware"
)

func TestRequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates uuid and stamps response header", func(t *testing.T) {
		var seen string
		chain := conduit.New().
			Use(middleware.RequestID()).
			Use(conduit.HandlerFunc(func(ctx *conduit.Context) (conduit.Result, error) {
				seen, _ = middleware.GetRequestID(ctx)
				return okHandler(ctx)
			}))

		res, err := chain.Handle(newBase(http.MethodGet, "/", nil))
		require.NoError(t, err)

		require.NotEmpty(t, seen)
		_, err = uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, res.Header.Get("X-Request-ID"))
	})

	t.Run("stamps header even when another handler responds first", func(t *testing.T) {
		chain := conduit.New().
			Use(middleware.RequestID()).
			Use(conduit.HandlerFunc(func(ctx *conduit.Context) (conduit.Result, error) {
				return conduit.Respond(conduit.NotFound()), nil
			}))

		res, err := chain.Handle(newBase(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
	})

	t.Run("reuses incoming id when configured", func(t *testing.T) {
		chain := conduit.New().
			Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{UseExisting: true})).
			Use(conduit.HandlerFunc(okHandler))

		res, err := chain.Handle(newBase(http.MethodGet, "/", map[string]string{
			"X-Request-ID": "incoming-id",
		}))
		require.NoError(t, err)
		assert.Equal(t, "incoming-id", res.Header.Get("X-Request-ID"))
	})

	t.Run("ignores incoming id by default", func(t *testing.T) {
		chain := conduit.New().
			Use(middleware.RequestID()).
			Use(conduit.HandlerFunc(okHandler))

		res, err := chain.Handle(newBase(http.MethodGet, "/", map[string]string{
			"X-Request-ID": "incoming-id",
		}))
		require.NoError(t, err)
		assert.NotEqual(t, "incoming-id", res.Header.Get("X-Request-ID"))
	})

	t.Run("skip bypasses the middleware", func(t *testing.T) {
		chain := conduit.New().
			Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
				Skip: func(*conduit.Context) bool { return true },
			})).
			Use(conduit.HandlerFunc(okHandler))

		res, err := chain.Handle(newBase(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Empty(t, res.Header.Get("X-Request-ID"))
	})

	t.Run("custom generator and header name", func(t *testing.T) {
		chain := conduit.New().
			Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
				Generator:  func() string { return "fixed" },
				HeaderName: "X-Trace-ID",
			})).
			Use(conduit.HandlerFunc(okHandler))

		res, err := chain.Handle(newBase(http.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, "fixed", res.Header.Get("X-Trace-ID"))
	})
}
