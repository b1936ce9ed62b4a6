package middleware

import (
	"log/slog"
	"slices"
	"time"

	"github.com/dmitrymomot/conduit"
)

// LoggingConfig configures the request/response logging middleware.
type LoggingConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx *conduit.Context) bool

	// Logger is the slog logger to use (default: slog.Default())
	Logger *slog.Logger

	// LogLevel for request logging (default: slog.LevelInfo)
	LogLevel slog.Level

	// LogHeaders enables logging of request headers (default: false for security)
	LogHeaders bool

	// SensitiveHeaders is a list of header names to redact (default: common auth headers)
	SensitiveHeaders []string

	// SlowRequestThreshold logs slow requests at warning level (default: 5s)
	SlowRequestThreshold time.Duration

	// Component name for structured logging (default: "http")
	Component string
}

// Logging creates a request/response logging middleware with default
// configuration. It logs the incoming request, then logs completion with
// status, size, and duration once the final response is known.
func Logging() conduit.Handler {
	return LoggingWithConfig(LoggingConfig{})
}

// LoggingWithLogger creates a logging middleware with a custom logger.
func LoggingWithLogger(log *slog.Logger) conduit.Handler {
	return LoggingWithConfig(LoggingConfig{Logger: log})
}

// LoggingWithConfig creates a request/response logging middleware with custom
// configuration. The completion entry is logged from the response phase, so
// it observes the response that actually goes out, including replacements
// made by later response handlers upstream of this one.
func LoggingWithConfig(cfg LoggingConfig) conduit.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = slog.LevelInfo
	}
	if cfg.SensitiveHeaders == nil {
		cfg.SensitiveHeaders = []string{
			"Authorization",
			"Cookie",
			"Set-Cookie",
			"X-Api-Key",
			"X-Auth-Token",
			"X-Csrf-Token",
		}
	}
	if cfg.SlowRequestThreshold <= 0 {
		cfg.SlowRequestThreshold = 5 * time.Second
	}
	if cfg.Component == "" {
		cfg.Component = "http"
	}

	return conduit.HandlerFunc(func(ctx *conduit.Context) (conduit.Result, error) {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return conduit.Result{}, nil
		}

		start := time.Now()
		req := ctx.Request()

		attrs := []slog.Attr{
			slog.String("component", cfg.Component),
			slog.String("method", req.Method),
			slog.String("path", ctx.URL().Path),
			slog.String("remote_addr", req.RemoteAddr),
		}
		if id, ok := GetRequestID(ctx); ok {
			attrs = append(attrs, slog.String("request_id", id))
		}
		if q := ctx.URL().RawQuery; q != "" {
			attrs = append(attrs, slog.String("query", q))
		}
		if cfg.LogHeaders {
			headers := make(map[string]any, len(req.Header))
			for key, values := range req.Header {
				if slices.Contains(cfg.SensitiveHeaders, key) {
					headers[key] = "[REDACTED]"
					continue
				}
				if len(values) == 1 {
					headers[key] = values[0]
				} else {
					headers[key] = values
				}
			}
			if len(headers) > 0 {
				attrs = append(attrs, slog.Any("request_headers", headers))
			}
		}

		cfg.Logger.LogAttrs(req.Context(), cfg.LogLevel, "request started", attrs...)

		return conduit.OnResponse(func(res *conduit.Response) (*conduit.Response, error) {
			duration := time.Since(start)

			respAttrs := []slog.Attr{
				slog.String("component", cfg.Component),
				slog.String("method", req.Method),
				slog.String("path", ctx.URL().Path),
				slog.Int("status", res.StatusCode),
				slog.Int("bytes_out", len(res.Body)),
				slog.Duration("duration", duration),
			}
			if id, ok := GetRequestID(ctx); ok {
				respAttrs = append(respAttrs, slog.String("request_id", id))
			}

			level := cfg.LogLevel
			switch {
			case res.StatusCode >= 500:
				level = slog.LevelError
			case res.StatusCode >= 400:
				level = slog.LevelWarn
			case duration > cfg.SlowRequestThreshold:
				level = slog.LevelWarn
				respAttrs = append(respAttrs, slog.Bool("slow_request", true))
			}

			cfg.Logger.LogAttrs(req.Context(), level, "request completed", respAttrs...)
			return res, nil
		}), nil
	})
}
