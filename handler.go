package conduit

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Handler processes one request-phase step of a middleware chain.
// A handler may short-circuit the chain by returning a terminal response,
// extend the context for downstream handlers, or do neither and let the
// chain continue.
type Handler interface {
	Serve(ctx *Context) (Result, error)
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx *Context) (Result, error)

// Serve implements the Handler interface.
func (f HandlerFunc) Serve(ctx *Context) (Result, error) {
	return f(ctx)
}

// ResponseHandler inspects or replaces the finalized response. It runs after
// the request phase has produced a response (or the chain synthesized one).
// Returning nil keeps the current response unchanged.
type ResponseHandler interface {
	ServeResponse(ctx *Context, res *Response) (*Response, error)
}

// ResponseHandlerFunc adapts a plain function to the ResponseHandler interface.
type ResponseHandlerFunc func(ctx *Context, res *Response) (*Response, error)

// ServeResponse implements the ResponseHandler interface.
func (f ResponseHandlerFunc) ServeResponse(ctx *Context, res *Response) (*Response, error) {
	return f(ctx, res)
}

// ResponseCallback is a response hook registered dynamically by a request
// handler via Result.Callbacks. Callbacks run after all static response
// handlers, in registration order. Returning nil keeps the current response.
type ResponseCallback func(res *Response) (*Response, error)

// Props is a set of context properties contributed by a handler.
// Merged properties are visible to every handler that runs later in the
// same chain, but never to the chain's caller.
type Props map[string]any

// Result is what a request handler returns. The zero value means "continue
// with the next handler". Setting Response terminates the request phase;
// the remaining fields extend the context for downstream handlers.
type Result struct {
	// Response terminates the request phase immediately. No further request
	// handlers run; response handlers still do.
	Response *Response

	// Props are merged into the context for subsequent handlers in this
	// chain. Defining the same key twice within one chain invocation is a
	// programming error and panics.
	Props Props

	// Env overlays the context's environment accessor for subsequent
	// handlers. Keys not present in the overlay fall through to the parent
	// accessor.
	Env map[string]string

	// Callbacks are enqueued for the response phase in the order the
	// request handlers returned them.
	Callbacks []ResponseCallback
}

// Respond builds a terminal result carrying the given response.
func Respond(res *Response) Result {
	return Result{Response: res}
}

// Extend builds a result that merges props into the context for
// downstream handlers.
func Extend(props Props) Result {
	return Result{Props: props}
}

// ExtendEnv builds a result that overlays the context's environment
// accessor for downstream handlers.
func ExtendEnv(vars map[string]string) Result {
	return Result{Env: vars}
}

// OnResponse builds a result that enqueues a response-phase callback.
func OnResponse(cb ResponseCallback) Result {
	return Result{Callbacks: []ResponseCallback{cb}}
}

// identityOf derives the deduplication key for a handler value. The same
// handler registered twice anywhere in a composed chain executes at most
// once per request, keyed by identity rather than content.
//
// Function values are keyed by their closure instance, so two closures
// produced by separate constructor calls stay distinct even though they
// share code. Pointer and other comparable values key by themselves.
func identityOf(h any) any {
	v := reflect.ValueOf(h)
	if v.Kind() == reflect.Func {
		return funcInstance(h)
	}
	if !v.Type().Comparable() {
		panic(fmt.Sprintf("conduit: handler type %T is not comparable and cannot be deduplicated", h))
	}
	return h
}

// funcInstance returns the address of the function object boxed in the
// interface. Go func values point at a per-closure allocation, so this
// distinguishes closure instances where reflect.Value.Pointer (the shared
// code address) cannot.
func funcInstance(h any) uintptr {
	type iface struct {
		typ  unsafe.Pointer
		data unsafe.Pointer
	}
	return uintptr((*iface)(unsafe.Pointer(&h)).data)
}
