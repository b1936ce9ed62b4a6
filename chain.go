package conduit

// entry is one slot in a chain's ordered handler list. Exactly one field
// is set: request-phase handlers run in list order, response-phase
// handlers are deferred until a response exists.
type entry struct {
	req Handler
	res ResponseHandler
}

// Chain is an immutable, append-only ordered sequence of handlers. Every
// composition operation returns a new chain value; the receiver is never
// mutated, so chains can be shared and extended from multiple call sites
// without copying discipline.
//
// A chain is itself a Handler: invoking it runs its request phase against
// a freshly derived context layer, so properties its handlers contribute
// stay invisible to the caller. Adapters invoke the outermost chain with
// Handle, which additionally owns the 404 fallback and the response phase.
type Chain struct {
	entries []entry
}

// New creates a chain from the given handlers. With no arguments it
// returns an empty chain. When the single argument is already a chain,
// that chain is returned unchanged.
func New(handlers ...Handler) *Chain {
	if len(handlers) == 1 {
		if sub, ok := handlers[0].(*Chain); ok {
			return sub
		}
	}
	c := &Chain{}
	for _, h := range handlers {
		c = c.Use(h)
	}
	return c
}

// Use returns a new chain with h appended. Passing a chain splices its
// full handler sequence into the result, so its context extensions remain
// visible to handlers added afterwards; wrap the argument with Isolate to
// keep its extensions scoped instead.
func (c *Chain) Use(h Handler) *Chain {
	if h == nil {
		panic(ErrNilHandler)
	}
	if sub, ok := h.(*Chain); ok {
		return c.concat(sub.entries)
	}
	return c.concat([]entry{{req: h}})
}

// UseResponse returns a new chain with a response-phase handler appended.
// Response handlers run once a response exists, in registration order,
// regardless of which request handler produced it.
func (c *Chain) UseResponse(h ResponseHandler) *Chain {
	if h == nil {
		panic(ErrNilHandler)
	}
	return c.concat([]entry{{res: h}})
}

// Isolate wraps the chain as a single opaque handler. The wrapped chain
// runs against its own derived context, so nothing its handlers add leaks
// into the invoking chain, while a response it produces still terminates
// the invoker. An empty chain isolates to a no-op so composition does not
// pay for an empty invocation.
func (c *Chain) Isolate() Handler {
	if len(c.entries) == 0 {
		return noopHandler{}
	}
	return isolated{chain: c}
}

// Len returns the number of registered handlers, both phases included.
func (c *Chain) Len() int {
	return len(c.entries)
}

// concat builds a new chain from the receiver's entries followed by more.
func (c *Chain) concat(more []entry) *Chain {
	entries := make([]entry, 0, len(c.entries)+len(more))
	entries = append(entries, c.entries...)
	entries = append(entries, more...)
	return &Chain{entries: entries}
}

// Serve implements Handler, running the chain as a nested unit. No 404 is
// synthesized here: producing nothing defers the decision to the caller,
// which is also how a pass-through signal travels upward. The nested
// response phase runs only when this level produced a response.
func (c *Chain) Serve(ctx *Context) (Result, error) {
	child := ctx.derive()
	res, callbacks, err := c.run(child)
	if err != nil {
		return Result{}, err
	}
	if res == nil {
		return Result{}, nil
	}
	final, err := c.finalize(child, res, callbacks)
	if err != nil {
		return Result{}, err
	}
	return Respond(final), nil
}

// Handle runs the chain as the outermost unit of a request execution. It
// derives the root context from the adapter's base, synthesizes a 404 when
// no handler produced a response, applies buffered headers, and runs the
// response phase. A pass-through request still yields the 404 here, but
// flagged so the adapter can reinterpret it.
func (c *Chain) Handle(base *BaseContext) (*Response, error) {
	ctx := newRootContext(base)
	res, callbacks, err := c.run(ctx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = NotFound()
	}
	final, err := c.finalize(ctx, res, callbacks)
	if err != nil {
		return nil, err
	}
	final.passedThrough = ctx.state.passedThrough
	return final, nil
}

// run executes the request phase: each non-deduplicated request handler in
// list order, interpreting its result until one responds, the pass-through
// flag is raised, or the list ends.
func (c *Chain) run(ctx *Context) (*Response, []ResponseCallback, error) {
	var callbacks []ResponseCallback
	for _, e := range c.entries {
		if e.req == nil {
			continue
		}
		key := identityOf(e.req)
		if _, done := ctx.state.seen[key]; done {
			continue
		}
		ctx.state.seen[key] = struct{}{}

		result, err := e.req.Serve(ctx)
		if err != nil {
			return nil, nil, err
		}
		if len(result.Props) > 0 {
			ctx.extend(result.Props)
		}
		if len(result.Env) > 0 {
			ctx.extendEnv(result.Env)
		}
		callbacks = append(callbacks, result.Callbacks...)
		if result.Response != nil {
			return result.Response, callbacks, nil
		}
		if ctx.state.passedThrough {
			return nil, callbacks, nil
		}
	}
	return nil, callbacks, nil
}

// finalize runs the response phase: buffered headers are applied first,
// then static response handlers in registration order, then dynamically
// registered callbacks in the order request handlers enqueued them. Each
// may replace the current response; opaque responses are cloned before any
// of this touches them.
func (c *Chain) finalize(ctx *Context, res *Response, callbacks []ResponseCallback) (*Response, error) {
	res = res.ensureMutable()
	ctx.applyHeaders(res)
	ctx.state.responsePhase = true

	for _, e := range c.entries {
		if e.res == nil {
			continue
		}
		key := identityOf(e.res)
		if _, done := ctx.state.seen[key]; done {
			continue
		}
		ctx.state.seen[key] = struct{}{}

		next, err := e.res.ServeResponse(ctx, res)
		if err != nil {
			return nil, err
		}
		if next != nil {
			res = next.ensureMutable()
		}
	}

	for _, cb := range callbacks {
		next, err := cb(res)
		if err != nil {
			return nil, err
		}
		if next != nil {
			res = next.ensureMutable()
		}
	}
	return res, nil
}

// isolated adapts a chain into an opaque single handler. It is a
// comparable value keyed by the wrapped chain, so isolating the same chain
// twice still deduplicates while isolates of different chains stay
// distinct.
type isolated struct {
	chain *Chain
}

func (i isolated) Serve(ctx *Context) (Result, error) {
	return i.chain.Serve(ctx)
}

// noopHandler is what an empty chain isolates to.
type noopHandler struct{}

func (noopHandler) Serve(*Context) (Result, error) {
	return Result{}, nil
}
