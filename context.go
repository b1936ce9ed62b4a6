package conduit

import (
	"fmt"
	"net/http"
	"net/url"
)

// BaseContext is the platform adapter's input for one request execution.
// The adapter constructs it from whatever the platform hands over and
// invokes the outermost chain with it. All fields except Request are
// optional.
type BaseContext struct {
	// Request is the inbound request. The engine never mutates it.
	Request *http.Request

	// Env looks up a platform environment value. The second return reports
	// whether the key exists.
	Env func(key string) (string, bool)

	// Platform carries an opaque per-platform value for handlers that know
	// what to do with it.
	Platform any

	// WaitUntil schedules background work that must not block the response.
	// When nil, tasks run on an untracked goroutine.
	WaitUntil func(task func())

	// IP is the originating address as resolved by the adapter.
	IP string
}

// requestState is the per-request mutable state shared by every context
// layer derived during one top-level execution.
type requestState struct {
	base          *BaseContext
	url           *url.URL
	seen          map[any]struct{}
	passedThrough bool
	responsePhase bool
}

// Context is one layer of the per-request property chain. Each chain
// invocation derives a fresh layer: property reads check the local table
// first and then delegate to the parent, while writes always stay local.
// This keeps a nested chain's extensions invisible to its caller.
type Context struct {
	state  *requestState
	parent *Context
	props  map[string]any
	env    map[string]string
	header http.Header
}

// newRootContext wraps the adapter-supplied base in the outermost layer.
func newRootContext(base *BaseContext) *Context {
	return &Context{
		state: &requestState{
			base: base,
			seen: make(map[any]struct{}),
		},
	}
}

// derive creates a child layer that reads through to c.
func (c *Context) derive() *Context {
	return &Context{state: c.state, parent: c}
}

// Request returns the inbound request.
func (c *Context) Request() *http.Request {
	return c.state.base.Request
}

// Platform returns the opaque per-platform value supplied by the adapter.
func (c *Context) Platform() any {
	return c.state.base.Platform
}

// IP returns the originating address as resolved by the adapter.
func (c *Context) IP() string {
	return c.state.base.IP
}

// URL returns the parsed request URL with scheme and host filled in from
// the request. The value is computed once per request and cached.
func (c *Context) URL() *url.URL {
	if c.state.url != nil {
		return c.state.url
	}
	r := c.state.base.Request
	u := *r.URL
	if u.Host == "" {
		u.Host = r.Host
	}
	if u.Scheme == "" {
		if r.TLS != nil {
			u.Scheme = "https"
		} else {
			u.Scheme = "http"
		}
	}
	c.state.url = &u
	return c.state.url
}

// Env looks up an environment value, checking overlays contributed by
// handlers before delegating to the adapter's accessor.
func (c *Context) Env(key string) (string, bool) {
	for l := c; l != nil; l = l.parent {
		if v, ok := l.env[key]; ok {
			return v, true
		}
	}
	if c.state.base.Env != nil {
		return c.state.base.Env(key)
	}
	return "", false
}

// Get returns the context property stored under key, walking up the layer
// chain. The second return reports whether the property exists.
func (c *Context) Get(key string) (any, bool) {
	for l := c; l != nil; l = l.parent {
		if v, ok := l.props[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether a context property is defined under key.
func (c *Context) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// PassThrough signals that processing should stop and the enclosing caller
// (ultimately the platform adapter) should handle the request instead. The
// executor checks the flag after every handler returns.
func (c *Context) PassThrough() {
	c.state.passedThrough = true
}

// WaitUntil schedules background work through the adapter's hook.
func (c *Context) WaitUntil(task func()) {
	if task == nil {
		return
	}
	if c.state.base.WaitUntil != nil {
		c.state.base.WaitUntil(task)
		return
	}
	go task()
}

// SetHeader buffers a response header until a response exists. The buffer
// is applied to the final response just before the response phase begins;
// a later write to the same key wins. Calling SetHeader once the response
// phase has started is a programming error and panics; mutate the
// response's headers directly at that point.
func (c *Context) SetHeader(key, value string) {
	if c.state.responsePhase {
		panic(ErrHeadersSent)
	}
	if c.header == nil {
		// Writes never touch an ancestor's buffer: inherit its entries by
		// cloning on first use.
		c.header = c.inheritedHeader().Clone()
		if c.header == nil {
			c.header = make(http.Header)
		}
	}
	c.header.Set(key, value)
}

// inheritedHeader returns the nearest buffered header table up the layer
// chain, or nil when no layer has buffered anything yet.
func (c *Context) inheritedHeader() http.Header {
	for l := c; l != nil; l = l.parent {
		if l.header != nil {
			return l.header
		}
	}
	return nil
}

// extend merges handler-contributed properties into this layer. Redefining
// a key already present in the same layer indicates two handlers fighting
// over one property, which is a composition bug.
func (c *Context) extend(props Props) {
	if c.props == nil {
		c.props = make(map[string]any, len(props))
	}
	for k, v := range props {
		if _, exists := c.props[k]; exists {
			panic(fmt.Errorf("%w: %q", ErrDuplicateProperty, k))
		}
		c.props[k] = v
	}
}

// extendEnv overlays environment values on this layer. Later writes within
// the same layer win, unlike properties, since the overlay models an
// accessor rather than a value table.
func (c *Context) extendEnv(vars map[string]string) {
	if c.env == nil {
		c.env = make(map[string]string, len(vars))
	}
	for k, v := range vars {
		c.env[k] = v
	}
}

// applyHeaders copies the effective buffered headers onto the response,
// replacing any values the response already carries for those keys.
func (c *Context) applyHeaders(res *Response) {
	buffered := c.inheritedHeader()
	if len(buffered) == 0 {
		return
	}
	for k, vv := range buffered {
		res.Header[k] = append([]string(nil), vv...)
	}
}
