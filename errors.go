package conduit

import "errors"

// Composition and usage errors. These indicate bugs in how chains are
// assembled or used, so the engine surfaces them as panics at the offending
// call site rather than deferring them.
var (
	// ErrDuplicateProperty is raised when two handlers define the same
	// context property key within one chain invocation.
	ErrDuplicateProperty = errors.New("conduit: context property already defined")

	// ErrHeadersSent is raised when SetHeader is called after the response
	// phase has begun.
	ErrHeadersSent = errors.New("conduit: headers already applied to the response")

	// ErrNilHandler is raised when a nil handler is passed to Use.
	ErrNilHandler = errors.New("conduit: nil handler")
)

// Router configuration errors, returned (not panicked) since matcher
// compilation happens lazily at dispatch time.
var (
	ErrInvalidMethod = errors.New("conduit: invalid http method")
	ErrNoMatcher     = errors.New("conduit: no matcher compiler configured")
)
