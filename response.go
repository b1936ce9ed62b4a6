package conduit

import (
	"encoding/json"
	"net/http"
)

// Response is an in-memory response value: status, headers, and body. The
// engine threads it through the response phase, where handlers may mutate
// headers or replace the value entirely. Adapters translate the final
// value onto whatever the platform expects.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	opaque        bool
	passedThrough bool
}

// NewResponse creates a response with the given status and body.
func NewResponse(status int, body []byte) *Response {
	return &Response{
		StatusCode: status,
		Header:     make(http.Header),
		Body:       body,
	}
}

// Text creates a text/plain response with 200 OK status.
func Text(content string) *Response {
	return TextWithStatus(content, http.StatusOK)
}

// TextWithStatus creates a text/plain response with a custom status code.
func TextWithStatus(content string, status int) *Response {
	res := NewResponse(status, []byte(content))
	res.Header.Set("Content-Type", "text/plain; charset=utf-8")
	return res
}

// HTML creates a text/html response with 200 OK status.
func HTML(content string) *Response {
	res := NewResponse(http.StatusOK, []byte(content))
	res.Header.Set("Content-Type", "text/html; charset=utf-8")
	return res
}

// JSON creates an application/json response with 200 OK status.
// The value is marshaled eagerly so encoding failures surface at the
// handler rather than during adapter writes.
func JSON(v any) (*Response, error) {
	return JSONWithStatus(v, http.StatusOK)
}

// JSONWithStatus creates an application/json response with a custom status code.
func JSONWithStatus(v any, status int) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	res := NewResponse(status, body)
	res.Header.Set("Content-Type", "application/json; charset=utf-8")
	return res, nil
}

// Status creates an empty response with the specified status code.
func Status(code int) *Response {
	return NewResponse(code, nil)
}

// NoContent creates a 204 No Content response.
func NoContent() *Response {
	return Status(http.StatusNoContent)
}

// NotFound creates the default 404 response an outermost chain falls back
// to when no handler produced anything.
func NotFound() *Response {
	return TextWithStatus(http.StatusText(http.StatusNotFound), http.StatusNotFound)
}

// Redirect creates a redirect response pointing at url. The code should be
// in the 3xx range; http.StatusFound is the usual choice.
func Redirect(url string, code int) *Response {
	res := NewResponse(code, nil)
	res.Header.Set("Location", url)
	return res
}

// Opaque creates a response whose headers must not be mutated in place,
// modeling a response sourced from an external immutable origin. The
// engine clones it into a mutable equivalent before any header buffering
// or response-phase processing touches it.
func Opaque(status int, header http.Header, body []byte) *Response {
	if header == nil {
		header = make(http.Header)
	}
	return &Response{
		StatusCode: status,
		Header:     header,
		Body:       body,
		opaque:     true,
	}
}

// IsOpaque reports whether the response forbids in-place header mutation.
func (r *Response) IsOpaque() bool {
	return r.opaque
}

// PassedThrough reports whether the chain signaled pass-through while
// producing this response. Adapters use it to hand the request back to the
// surrounding platform instead of writing the synthesized 404.
func (r *Response) PassedThrough() bool {
	return r.passedThrough
}

// Clone returns a mutable deep copy of the response.
func (r *Response) Clone() *Response {
	body := append([]byte(nil), r.Body...)
	return &Response{
		StatusCode:    r.StatusCode,
		Header:        r.Header.Clone(),
		Body:          body,
		passedThrough: r.passedThrough,
	}
}

// ensureMutable returns the response itself when header mutation is
// allowed, or a mutable clone when it is opaque.
func (r *Response) ensureMutable() *Response {
	if !r.opaque {
		return r
	}
	return r.Clone()
}
