package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrymomot/conduit"
)

// CORSConfig defines configuration options for the CORS middleware.
type CORSConfig struct {
	// Skip allows bypassing CORS handling for specific requests
	Skip func(ctx *conduit.Context) bool

	// AllowOrigins specifies allowed origins. Use "*" for all origins.
	// If empty, defaults to allowing all origins ("*")
	AllowOrigins []string

	// AllowMethods specifies allowed HTTP methods.
	// If empty, defaults to GET, HEAD, PUT, PATCH, POST, DELETE
	AllowMethods []string

	// AllowHeaders specifies allowed request headers.
	// If empty, defaults to common headers including Authorization and Content-Type
	AllowHeaders []string

	// ExposeHeaders specifies which headers are exposed to the client
	ExposeHeaders []string

	// AllowCredentials indicates whether credentials are allowed.
	// Incompatible with wildcard origins, so a wildcard match echoes the
	// request origin instead when this is set
	AllowCredentials bool

	// MaxAge specifies how long preflight results may be cached (in seconds)
	MaxAge int

	// AllowOriginFunc provides custom origin validation logic. Takes
	// precedence over AllowOrigins when set. Returns the origin value to
	// send and whether the origin is allowed
	AllowOriginFunc func(origin string) (string, bool)
}

// CORS returns a CORS middleware with default configuration: all origins,
// common methods and headers, no credentials.
func CORS() conduit.Handler {
	return CORSWithConfig(CORSConfig{})
}

// CORSWithConfig returns a CORS middleware with custom configuration.
// Preflight OPTIONS requests are answered directly without reaching later
// handlers; actual requests continue down the chain and get the CORS headers
// stamped on the final response.
func CORSWithConfig(cfg CORSConfig) conduit.Handler {
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = []string{"*"}
	}
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPut,
			http.MethodPatch,
			http.MethodPost,
			http.MethodDelete,
		}
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Requested-With",
		}
	}

	allowMethods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")

	return conduit.HandlerFunc(func(ctx *conduit.Context) (conduit.Result, error) {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return conduit.Result{}, nil
		}

		req := ctx.Request()
		origin := req.Header.Get("Origin")
		if origin == "" {
			// Same-origin request, nothing to negotiate.
			return conduit.Result{}, nil
		}

		allowOrigin, ok := cfg.resolveOrigin(origin)
		if !ok {
			return conduit.Result{}, nil
		}

		if req.Method == http.MethodOptions && req.Header.Get("Access-Control-Request-Method") != "" {
			res := conduit.Status(http.StatusNoContent)
			setOriginHeaders(res.Header, allowOrigin, cfg.AllowCredentials)
			res.Header.Set("Access-Control-Allow-Methods", allowMethods)
			res.Header.Set("Access-Control-Allow-Headers", allowHeaders)
			if cfg.MaxAge > 0 {
				res.Header.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
			}
			return conduit.Respond(res), nil
		}

		return conduit.OnResponse(func(res *conduit.Response) (*conduit.Response, error) {
			setOriginHeaders(res.Header, allowOrigin, cfg.AllowCredentials)
			if exposeHeaders != "" {
				res.Header.Set("Access-Control-Expose-Headers", exposeHeaders)
			}
			return res, nil
		}), nil
	})
}

func (cfg CORSConfig) resolveOrigin(origin string) (string, bool) {
	if cfg.AllowOriginFunc != nil {
		return cfg.AllowOriginFunc(origin)
	}
	if slices.Contains(cfg.AllowOrigins, "*") {
		// Credentials require a concrete origin, so echo the caller's.
		if cfg.AllowCredentials {
			return origin, true
		}
		return "*", true
	}
	if slices.Contains(cfg.AllowOrigins, origin) {
		return origin, true
	}
	return "", false
}

func setOriginHeaders(h http.Header, allowOrigin string, credentials bool) {
	h.Set("Access-Control-Allow-Origin", allowOrigin)
	if allowOrigin != "*" {
		h.Add("Vary", "Origin")
	}
	if credentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}
