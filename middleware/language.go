package middleware

import (
	"golang.org/x/text/language"

	"github.com/dmitrymomot/conduit"
)

// LanguageProp is the context property holding the negotiated language tag.
const LanguageProp = "language"

// LanguageConfig configures the language negotiation middleware.
type LanguageConfig struct {
	// Skip defines a function to skip middleware execution for specific requests
	Skip func(ctx *conduit.Context) bool
	// Supported lists the languages the application serves; the first entry
	// is the fallback when negotiation fails (required)
	Supported []language.Tag
	// QueryParam optionally names a query parameter that overrides the
	// Accept-Language header, e.g. "lang"
	QueryParam string
	// SetContentLanguage stamps the negotiated tag on the response
	// Content-Language header (default: true via Language constructor)
	SetContentLanguage bool
}

// Language creates a language negotiation middleware for the given supported
// languages. The first tag is the fallback.
func Language(supported ...language.Tag) conduit.Handler {
	return LanguageWithConfig(LanguageConfig{
		Supported:          supported,
		SetContentLanguage: true,
	})
}

// LanguageWithConfig creates a language negotiation middleware with custom
// configuration. It matches the request's Accept-Language header (or the
// configured query parameter) against the supported set and extends the
// winning tag onto the context. Panics if no supported languages are given.
func LanguageWithConfig(cfg LanguageConfig) conduit.Handler {
	if len(cfg.Supported) == 0 {
		panic("language middleware: at least one supported language is required")
	}

	matcher := language.NewMatcher(cfg.Supported)

	return conduit.HandlerFunc(func(ctx *conduit.Context) (conduit.Result, error) {
		if cfg.Skip != nil && cfg.Skip(ctx) {
			return conduit.Result{}, nil
		}

		accept := ctx.Request().Header.Get("Accept-Language")
		if cfg.QueryParam != "" {
			if v := ctx.URL().Query().Get(cfg.QueryParam); v != "" {
				accept = v
			}
		}

		// ParseAcceptLanguage errors on garbage input; the matcher then
		// falls back to the first supported tag. Match by index because the
		// matcher may synthesize a more specific tag than we support.
		tags, _, _ := language.ParseAcceptLanguage(accept)
		_, idx, _ := matcher.Match(tags...)
		tag := cfg.Supported[idx]

		result := conduit.Extend(conduit.Props{LanguageProp: tag})
		if cfg.SetContentLanguage {
			result.Callbacks = []conduit.ResponseCallback{
				func(res *conduit.Response) (*conduit.Response, error) {
					res.Header.Set("Content-Language", tag.String())
					return res, nil
				},
			}
		}
		return result, nil
	})
}

// GetLanguage retrieves the negotiated language tag from the context.
// Returns the tag and a boolean indicating whether it was found.
func GetLanguage(ctx *conduit.Context) (language.Tag, bool) {
	v, ok := ctx.Get(LanguageProp)
	if !ok {
		return language.Und, false
	}
	tag, ok := v.(language.Tag)
	return tag, ok
}
