package conduit

import (
	"fmt"
	"net/http"
	"strings"
)

// Context property keys the router defines on a matched dispatch.
const (
	// MethodProp holds the request's HTTP method as a string.
	MethodProp = "method"
	// ParamsProp holds the extracted path parameters as a
	// map[string]string.
	ParamsProp = "params"
)

var validMethods = map[string]struct{}{
	http.MethodConnect: {},
	http.MethodDelete:  {},
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodOptions: {},
	http.MethodPatch:   {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodTrace:   {},
}

type route struct {
	pattern string
	methods map[string]struct{} // nil matches any method
	handler Handler
}

// Router is a stateful registry mapping (method, path pattern) pairs to
// handlers, dispatched through the same chain engine. Registration is
// expected to happen during setup, before concurrent dispatch begins;
// dispatch itself only reads the route table and the compiled matcher.
//
// The router is itself a Handler. When it matches nothing it produces no
// response, so the enclosing chain contributes the default 404.
type Router struct {
	chain   *Chain
	compile MatcherCompiler
	routes  []route
	matcher Matcher // nil when stale, rebuilt lazily on next dispatch
}

// RouterOption configures a Router during creation.
type RouterOption func(*Router)

// WithChain sets the base middleware chain matched handlers are appended
// to, so every dispatch benefits from the chain's context extensions.
func WithChain(c *Chain) RouterOption {
	return func(r *Router) {
		if c != nil {
			r.chain = c
		}
	}
}

// WithMatcher replaces the default path matcher compiler.
func WithMatcher(compile MatcherCompiler) RouterOption {
	return func(r *Router) {
		if compile != nil {
			r.compile = compile
		}
	}
}

// NewRouter creates a router with the given options.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{compile: DefaultMatcher}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Handle registers a handler for the pattern under every HTTP method.
func (r *Router) Handle(pattern string, h Handler) {
	r.register(pattern, h, nil)
}

// Method registers a handler for one or more specific HTTP methods.
// Panics when no method is given or a method token is unknown, since that
// is a composition bug.
func (r *Router) Method(pattern string, h Handler, methods ...string) {
	if len(methods) == 0 {
		panic(fmt.Errorf("%w: no methods provided", ErrInvalidMethod))
	}
	ms := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(m)
		if _, ok := validMethods[m]; !ok {
			panic(fmt.Errorf("%w: %s", ErrInvalidMethod, m))
		}
		ms[m] = struct{}{}
	}
	r.register(pattern, h, ms)
}

// Get registers a handler for GET requests.
func (r *Router) Get(pattern string, h Handler) {
	r.Method(pattern, h, http.MethodGet)
}

// Post registers a handler for POST requests.
func (r *Router) Post(pattern string, h Handler) {
	r.Method(pattern, h, http.MethodPost)
}

// Put registers a handler for PUT requests.
func (r *Router) Put(pattern string, h Handler) {
	r.Method(pattern, h, http.MethodPut)
}

// Delete registers a handler for DELETE requests.
func (r *Router) Delete(pattern string, h Handler) {
	r.Method(pattern, h, http.MethodDelete)
}

// Patch registers a handler for PATCH requests.
func (r *Router) Patch(pattern string, h Handler) {
	r.Method(pattern, h, http.MethodPatch)
}

// Head registers a handler for HEAD requests.
func (r *Router) Head(pattern string, h Handler) {
	r.Method(pattern, h, http.MethodHead)
}

// Options registers a handler for OPTIONS requests.
func (r *Router) Options(pattern string, h Handler) {
	r.Method(pattern, h, http.MethodOptions)
}

func (r *Router) register(pattern string, h Handler, methods map[string]struct{}) {
	if h == nil {
		panic(ErrNilHandler)
	}
	r.routes = append(r.routes, route{pattern: pattern, methods: methods, handler: h})
	r.matcher = nil
}

// RouteInfo describes one registered route.
type RouteInfo struct {
	Methods []string // nil when the route matches any method
	Pattern string
}

// Routes returns the registered routes in registration order.
func (r *Router) Routes() []RouteInfo {
	infos := make([]RouteInfo, len(r.routes))
	for i, rt := range r.routes {
		info := RouteInfo{Pattern: rt.pattern}
		for m := range rt.methods {
			info.Methods = append(info.Methods, m)
		}
		infos[i] = info
	}
	return infos
}

// Serve implements Handler. The matcher reports candidates best-first; the
// router takes the first one whose method filter accepts the request, so a
// path match with the wrong method falls through to the next candidate
// rather than ending the dispatch. Matching nothing produces no response.
func (r *Router) Serve(ctx *Context) (Result, error) {
	m, err := r.compiled()
	if err != nil {
		return Result{}, err
	}

	method := ctx.Request().Method
	for _, cand := range m.Match(ctx.URL().Path) {
		rt := r.routes[cand.Index]
		if rt.methods != nil {
			if _, ok := rt.methods[method]; !ok {
				continue
			}
		}
		params := cand.Params
		if params == nil {
			params = map[string]string{}
		}
		annotate := &routeProps{props: Props{MethodProp: method, ParamsProp: params}}
		return r.base().Use(annotate).Use(rt.handler).Serve(ctx)
	}
	return Result{}, nil
}

// HandleRequest runs the router as the outermost unit of a request
// execution by wrapping it in a chain, which owns the 404 fallback.
func (r *Router) HandleRequest(base *BaseContext) (*Response, error) {
	return New(Handler(r)).Handle(base)
}

func (r *Router) compiled() (Matcher, error) {
	if r.matcher == nil {
		if r.compile == nil {
			return nil, ErrNoMatcher
		}
		patterns := make([]string, len(r.routes))
		for i, rt := range r.routes {
			patterns[i] = rt.pattern
		}
		m, err := r.compile(patterns)
		if err != nil {
			return nil, err
		}
		r.matcher = m
	}
	return r.matcher, nil
}

var emptyChain = &Chain{}

func (r *Router) base() *Chain {
	if r.chain != nil {
		return r.chain
	}
	return emptyChain
}

// routeProps injects the router's method and params annotations as the
// first handler of a dispatch. Every dispatch allocates a fresh value so
// annotations from one dispatch never deduplicate away another's.
type routeProps struct {
	props Props
}

func (p *routeProps) Serve(*Context) (Result, error) {
	return Extend(p.props), nil
}

// RouteParams returns the path parameters the router extracted for the
// current dispatch, or nil outside one.
func RouteParams(ctx *Context) map[string]string {
	if v, ok := ctx.Get(ParamsProp); ok {
		if params, ok := v.(map[string]string); ok {
			return params
		}
	}
	return nil
}

// RouteParam returns a single path parameter by key, or the empty string
// when absent.
func RouteParam(ctx *Context, key string) string {
	return RouteParams(ctx)[key]
}
