package httpserver

import (
	"log/slog"
	"net"
	"net/http"
	"os"
	"sync"

	"github.com/dmitrymomot/conduit"
)

// RequestHandler is the execution entry point the adapter drives. Both
// *conduit.Chain and *conduit.Router satisfy it.
type RequestHandler interface {
	Handle(base *conduit.BaseContext) (*conduit.Response, error)
}

// Adapter bridges net/http and the chain engine: it builds a BaseContext
// from each incoming request, runs the handler, and writes the resulting
// response. Pass-through responses are delegated to a fallback handler when
// one is configured.
type Adapter struct {
	handler      RequestHandler
	fallback     http.Handler
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
	env          func(key string) (string, bool)
	logger       *slog.Logger

	wg sync.WaitGroup
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithFallback sets the handler that serves requests the chain passed
// through. Without one, a pass-through is answered with the engine's 404.
func WithFallback(h http.Handler) AdapterOption {
	return func(a *Adapter) {
		a.fallback = h
	}
}

// WithErrorHandler overrides how handler errors are answered
// (default: log and respond 500).
func WithErrorHandler(f func(w http.ResponseWriter, r *http.Request, err error)) AdapterOption {
	return func(a *Adapter) {
		if f != nil {
			a.errorHandler = f
		}
	}
}

// WithEnv overrides the environment lookup exposed to handlers through
// Context.Env (default: process environment).
func WithEnv(env func(key string) (string, bool)) AdapterOption {
	return func(a *Adapter) {
		if env != nil {
			a.env = env
		}
	}
}

// WithAdapterLogger sets the logger for adapter-level failures.
func WithAdapterLogger(logger *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAdapter creates an http.Handler executing the given chain or router.
// Panics if handler is nil.
func NewAdapter(handler RequestHandler, opts ...AdapterOption) *Adapter {
	if handler == nil {
		panic("httpserver: handler is required")
	}
	a := &Adapter{
		handler: handler,
		env:     os.LookupEnv,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.errorHandler == nil {
		a.errorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
			a.logger.ErrorContext(r.Context(), "request failed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
	return a
}

// ServeHTTP implements http.Handler.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	base := &conduit.BaseContext{
		Request:   r,
		Env:       a.env,
		WaitUntil: a.spawn,
		IP:        remoteIP(r),
	}

	res, err := a.handler.Handle(base)
	if err != nil {
		a.errorHandler(w, r, err)
		return
	}

	if res.PassedThrough() && a.fallback != nil {
		a.fallback.ServeHTTP(w, r)
		return
	}

	writeResponse(w, res)
}

// Wait blocks until all background tasks registered through
// Context.WaitUntil have finished. Call during graceful shutdown.
func (a *Adapter) Wait() {
	a.wg.Wait()
}

func (a *Adapter) spawn(task func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		task()
	}()
}

func writeResponse(w http.ResponseWriter, res *conduit.Response) {
	h := w.Header()
	for key, values := range res.Header {
		h[key] = values
	}
	w.WriteHeader(res.StatusCode)
	if len(res.Body) > 0 {
		_, _ = w.Write(res.Body)
	}
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
