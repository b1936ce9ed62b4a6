// Package middleware provides composable request handlers for the conduit
// chain engine: request IDs, logging, client IP resolution, language
// negotiation, basic authentication, rate limiting, and CORS.
//
// Each middleware follows the same shape: a zero-configuration constructor
// and a WithConfig variant taking a config struct whose Skip field can
// bypass the middleware per request:
//
//	chain := conduit.New().
//		Use(middleware.RequestID()).
//		Use(middleware.ClientIP()).
//		Use(middleware.Logging()).
//		Use(middleware.RateLimit(limiter)).
//		Use(appHandler)
//
// Middleware communicate with downstream handlers through context
// properties (exported *Prop constants with Get* accessors) and decorate
// the outgoing response through response callbacks, so a header they stamp
// lands on the final response no matter which handler produced it:
//
//	func appHandler(ctx *conduit.Context) (conduit.Result, error) {
//		if ip, ok := middleware.GetClientIP(ctx); ok {
//			slog.Info("serving", "ip", ip)
//		}
//		return conduit.Respond(conduit.Text("ok")), nil
//	}
//
// Because every constructor returns a fresh handler value, the same
// middleware can be configured differently on different chains without the
// instances deduplicating against each other, while a single instance
// shared across merged chains still runs once per request.
package middleware
