// Package conduit is a middleware composition library for HTTP request
// handling built on plain request/response values. Chains are immutable
// ordered handler sequences: every Use returns a new chain, handlers
// extend a layered per-request context without leaking into their caller,
// and the same handler identity executes at most once per request no
// matter how many composed chains reference it.
//
// # Package Organization
//
//	github.com/dmitrymomot/conduit            - chain engine, context, router, response values
//	github.com/dmitrymomot/conduit/pattern    - default path matcher behind the Matcher interface
//	github.com/dmitrymomot/conduit/middleware - ready-made handlers (request ID, logging, CORS, auth, rate limiting)
//	github.com/dmitrymomot/conduit/ratelimiter - token bucket stores (memory, Redis)
//	github.com/dmitrymomot/conduit/config     - type-safe environment configuration
//	github.com/dmitrymomot/conduit/httpserver - net/http adapter and server with graceful shutdown
//
// # Composition
//
// A chain collects request-phase handlers in order. A handler returns a
// Result: a terminal response, context extensions for downstream handlers,
// environment overlays, response-phase callbacks, or nothing at all.
//
//	auth := conduit.HandlerFunc(func(ctx *conduit.Context) (conduit.Result, error) {
//		user, err := authenticate(ctx.Request())
//		if err != nil {
//			return conduit.Respond(conduit.Status(http.StatusUnauthorized)), nil
//		}
//		return conduit.Extend(conduit.Props{"user": user}), nil
//	})
//
//	chain := conduit.New().
//		Use(middleware.RequestID()).
//		Use(auth)
//
// Passing a chain to Use splices its handlers in, keeping its context
// extensions visible downstream. Wrap it with Isolate to contain them:
//
//	chain = chain.Use(subchain.Isolate())
//
// # Routing
//
// A Router registers (method, pattern) pairs on top of the same engine and
// is itself a handler, so it nests into chains like anything else:
//
//	r := conduit.NewRouter(conduit.WithChain(chain))
//	r.Get("/users/{id}", showUser)
//	res, err := r.HandleRequest(base)
//
// # Adapters
//
// The engine operates purely on already-constructed request/response
// values. An adapter supplies the BaseContext (request, environment
// accessor, platform value, background-work hook) and translates the final
// Response onto its platform; the httpserver package ships the net/http
// adapter.
package conduit
