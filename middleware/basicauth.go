package middleware

import (
	"fmt"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/conduit"
)

// AuthUserProp is the context property holding the authenticated username.
const AuthUserProp = "auth_user"

// BasicAuthConfig configures the HTTP basic authentication middleware.
type BasicAuthConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx *conduit.Context) bool
	// Credentials maps usernames to bcrypt password hashes
	Credentials map[string]string
	// Validator overrides Credentials with custom verification logic
	Validator func(ctx *conduit.Context, username, password string) bool
	// Realm is the authentication realm in the challenge (default: "Restricted")
	Realm string
}

// BasicAuth creates a basic authentication middleware from a map of
// usernames to bcrypt password hashes.
func BasicAuth(credentials map[string]string) conduit.Handler {
	return BasicAuthWithConfig(BasicAuthConfig{Credentials: credentials})
}

// BasicAuthWithConfig creates a basic authentication middleware with custom
// configuration. Unauthenticated requests are answered with a 401 challenge;
// authenticated requests get the username extended onto the context.
// Panics if neither Credentials nor Validator is provided.
func BasicAuthWithConfig(cfg BasicAuthConfig) conduit.Handler {
	if len(cfg.Credentials) == 0 && cfg.Validator == nil {
		panic("basicauth middleware: credentials or validator is required")
	}
	if cfg.Realm == "" {
		cfg.Realm = "Restricted"
	}
	if cfg.Validator == nil {
		cfg.Validator = func(_ *conduit.Context, username, password string) bool {
			hash, ok := cfg.Credentials[username]
			if !ok {
				return false
			}
			return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
		}
	}

	challenge := fmt.Sprintf("Basic realm=%q", cfg.Realm)

	return conduit.HandlerFunc(func(ctx *conduit.Context) (conduit.Result, error) {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return conduit.Result{}, nil
		}

		username, password, ok := ctx.Request().BasicAuth()
		if !ok || !cfg.Validator(ctx, username, password) {
			res := conduit.TextWithStatus("Unauthorized", http.StatusUnauthorized)
			res.Header.Set("WWW-Authenticate", challenge)
			return conduit.Respond(res), nil
		}

		return conduit.Extend(conduit.Props{AuthUserProp: username}), nil
	})
}

// GetAuthUser retrieves the authenticated username from the context.
// Returns the username and a boolean indicating whether it was found.
func GetAuthUser(ctx *conduit.Context) (string, bool) {
	v, ok := ctx.Get(AuthUserProp)
	if !ok {
		return "", false
	}
	username, ok := v.(string)
	return username, ok
}
