package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/dmitrymomot/conduit"
)

// ClientIPProp is the context property holding the resolved client IP.
const ClientIPProp = "client_ip"

// Proxy headers checked in priority order: CDN headers first, then the
// common proxy headers. X-Forwarded-For may carry a chain; the leftmost
// entry is the original client.
var defaultIPHeaders = []string{
	"CF-Connecting-IP",
	"DO-Connecting-IP",
	"X-Forwarded-For",
	"X-Real-IP",
}

// ClientIPConfig configures the client IP resolution middleware.
type ClientIPConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx *conduit.Context) bool
	// TrustedHeaders overrides the default proxy header priority order
	TrustedHeaders []string
	// StoreInHeader determines whether to echo the IP on the response
	StoreInHeader bool
	// HeaderName specifies the response header name (default: "X-Client-IP")
	HeaderName string
}

// ClientIP creates a client IP middleware with default configuration.
func ClientIP() conduit.Handler {
	return ClientIPWithConfig(ClientIPConfig{})
}

// ClientIPWithConfig creates a client IP middleware with custom configuration.
// It resolves the real client address from proxy headers, falling back to the
// adapter-provided address, and extends it onto the context.
func ClientIPWithConfig(cfg ClientIPConfig) conduit.Handler {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-Client-IP"
	}
	if cfg.TrustedHeaders == nil {
		cfg.TrustedHeaders = defaultIPHeaders
	}

	return conduit.HandlerFunc(func(ctx *conduit.Context) (conduit.Result, error) {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return conduit.Result{}, nil
		}

		ip := resolveIP(ctx, cfg.TrustedHeaders)

		result := conduit.Extend(conduit.Props{ClientIPProp: ip})
		if cfg.StoreInHeader {
			result.Callbacks = []conduit.ResponseCallback{
				func(res *conduit.Response) (*conduit.Response, error) {
					res.Header.Set(cfg.HeaderName, ip)
					return res, nil
				},
			}
		}
		return result, nil
	})
}

// GetClientIP retrieves the resolved client IP from the context.
// Returns the IP and a boolean indicating whether it was found.
func GetClientIP(ctx *conduit.Context) (string, bool) {
	v, ok := ctx.Get(ClientIPProp)
	if !ok {
		return "", false
	}
	ip, ok := v.(string)
	return ip, ok
}

func resolveIP(ctx *conduit.Context, headers []string) string {
	if ip := fromHeaders(ctx.Request().Header, headers); ip != "" {
		return ip
	}
	if ip := ctx.IP(); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(ctx.Request().RemoteAddr); err == nil {
		if ip := normalizeIP(host); ip != "" {
			return ip
		}
	}
	return ctx.Request().RemoteAddr
}

func fromHeaders(h http.Header, headers []string) string {
	for _, name := range headers {
		value := h.Get(name)
		if value == "" {
			continue
		}
		// Take the leftmost entry of a comma-separated chain.
		if idx := strings.IndexByte(value, ','); idx >= 0 {
			value = value[:idx]
		}
		if ip := normalizeIP(strings.TrimSpace(value)); ip != "" {
			return ip
		}
	}
	return ""
}

// normalizeIP validates and canonicalizes an IP string. The unspecified
// address is rejected, it never identifies a real client.
func normalizeIP(s string) string {
	ip := net.ParseIP(s)
	if ip == nil || ip.IsUnspecified() {
		return ""
	}
	return ip.String()
}
