package middleware_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/conduit"
	"github.com/dmitrymomot/conduit/middleware"
)

func negotiate(t *testing.T, h conduit.Handler, headers map[string]string, target string) (language.Tag, *conduit.Response) {
	t.Helper()

	var tag language.Tag
	chain := conduit.New().
		Use(h).
		Use(conduit.HandlerFunc(func(ctx *conduit.Context) (conduit.Result, error) {
			tag, _ = middleware.GetLanguage(ctx)
			return okHandler(ctx)
		}))

	res, err := chain.Handle(newBase(http.MethodGet, target, headers))
	require.NoError(t, err)
	return tag, res
}

func TestLanguage(t *testing.T) {
	t.Parallel()

	supported := []language.Tag{language.English, language.German, language.French}

	t.Run("negotiates best match", func(t *testing.T) {
		tag, res := negotiate(t, middleware.Language(supported...), map[string]string{
			"Accept-Language": "de-DE,de;q=0.9,en;q=0.5",
		}, "/")
		assert.Equal(t, language.German, tag)
		assert.Equal(t, "de", res.Header.Get("Content-Language"))
	})

	t.Run("falls back to first supported", func(t *testing.T) {
		tag, _ := negotiate(t, middleware.Language(supported...), map[string]string{
			"Accept-Language": "ja-JP",
		}, "/")
		assert.Equal(t, language.English, tag)
	})

	t.Run("missing header uses fallback", func(t *testing.T) {
		tag, _ := negotiate(t, middleware.Language(supported...), nil, "/")
		assert.Equal(t, language.English, tag)
	})

	t.Run("query parameter overrides header", func(t *testing.T) {
		mw := middleware.LanguageWithConfig(middleware.LanguageConfig{
			Supported:  supported,
			QueryParam: "lang",
		})
		tag, _ := negotiate(t, mw, map[string]string{
			"Accept-Language": "de",
		}, "/?lang=fr")
		assert.Equal(t, language.French, tag)
	})

	t.Run("content language disabled by config", func(t *testing.T) {
		mw := middleware.LanguageWithConfig(middleware.LanguageConfig{
			Supported: supported,
		})
		_, res := negotiate(t, mw, map[string]string{
			"Accept-Language": "de",
		}, "/")
		assert.Empty(t, res.Header.Get("Content-Language"))
	})

	t.Run("panics without supported languages", func(t *testing.T) {
		assert.Panics(t, func() {
			middleware.LanguageWithConfig(middleware.LanguageConfig{})
		})
	})
}
