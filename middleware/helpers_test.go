package middleware_test

import (
	"net/http/httptest"

	"github.com/dmitrymomot/conduit"
)

// newBase builds a minimal adapter context for exercising middleware chains.
func newBase(method, target string, headers map[string]string) *conduit.BaseContext {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return &conduit.BaseContext{Request: req, IP: "192.0.2.10"}
}

// okHandler terminates a chain with a plain 200 response.
func okHandler(ctx *conduit.Context) (conduit.Result, error) {
	return conduit.Respond(conduit.Text("ok")), nil
}
