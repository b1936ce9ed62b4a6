package middleware

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/conduit"
)

// RequestIDProp is the context property holding the request ID.
const RequestIDProp = "request_id"

// RequestIDConfig configures the request ID middleware.
type RequestIDConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx *conduit.Context) bool
	// Generator creates new request IDs (default: UUID v4)
	Generator func() string
	// HeaderName specifies the header name for the request ID (default: "X-Request-ID")
	HeaderName string
	// UseExisting determines whether to reuse a request ID from the incoming request
	UseExisting bool
}

// RequestID creates a request ID middleware with default configuration.
// It generates a new UUID for each request and exposes it both as a context
// property and on the final response headers.
func RequestID() conduit.Handler {
	return RequestIDWithConfig(RequestIDConfig{})
}

// RequestIDWithConfig creates a request ID middleware with custom configuration.
// The ID is extended onto the context for downstream handlers and stamped on
// whatever response ends the request, including responses produced before
// this middleware would otherwise see them.
func RequestIDWithConfig(cfg RequestIDConfig) conduit.Handler {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Request-ID"
	}
	if cfg.Generator == nil {
		cfg.Generator = func() string {
			return uuid.New().String()
		}
	}

	return conduit.HandlerFunc(func(ctx *conduit.Context) (conduit.Result, error) {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return conduit.Result{}, nil
		}

		var id string
		if cfg.UseExisting {
			id = ctx.Request().Header.Get(cfg.HeaderName)
		}
		if id == "" {
			id = cfg.Generator()
		}

		return conduit.Result{
			Props: conduit.Props{RequestIDProp: id},
			Callbacks: []conduit.ResponseCallback{
				func(res *conduit.Response) (*conduit.Response, error) {
					res.Header.Set(cfg.HeaderName, id)
					return res, nil
				},
			},
		}, nil
	})
}

// GetRequestID retrieves the request ID from the context.
// Returns the ID and a boolean indicating whether it was found.
func GetRequestID(ctx *conduit.Context) (string, bool) {
	v, ok := ctx.Get(RequestIDProp)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
