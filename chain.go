package actionclient

import (
	"context"
)

// Handler handles a Request and produces a Response.  Handlers sit at the
// end of a Chain: the inbound chain ends in a transport adapter, which
// sends the request somewhere and returns the reply.  Adapters are
// Handlers too.
type Handler interface {
	Handle(ctx context.Context, req *Request) (*Response, error)
}

// HandlerFunc adapts a function to implement Handler.
type HandlerFunc func(ctx context.Context, req *Request) (*Response, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Stage is one unit of a middleware Chain.  It wraps the Handler which
// represents the rest of the chain:
//
//     logging := func(next Handler) Handler {
//         return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
//             log.Println(req.Method, req.URL)
//             return next.Handle(ctx, req)
//         })
//     }
//
// A stage may modify or replace the request before calling next, and
// modify or replace the response after.  A stage isn't required to call
// next at all: a cache can answer from memory.
//
// Stages are installed on a client with Use() (outbound) or UseInbound().
type Stage func(Handler) Handler

// Chain is an ordered list of stages.
type Chain []Stage

// Then composes the chain around terminal.  The first stage is the
// outermost: Chain{a, b}.Then(t) is equivalent to a(b(t)).
//
// Errors returned by any stage are returned to the caller unmodified.
func (c Chain) Then(terminal Handler) Handler {
	h := terminal
	for i := len(c) - 1; i > -1; i-- {
		h = c[i](h)
	}
	return h
}

// Append returns a new chain with stages appended.  The receiver is not
// modified.
func (c Chain) Append(stages ...Stage) Chain {
	c2 := make(Chain, 0, len(c)+len(stages))
	c2 = append(c2, c...)
	return append(c2, stages...)
}

// Passthrough is the terminal of the outbound chain.  It doesn't send
// anything: it returns a Response holding the request it received, which
// becomes the built request.
var Passthrough Handler = HandlerFunc(func(_ context.Context, req *Request) (*Response, error) {
	return &Response{Request: req}, nil
})

// Wrap applies stages to a handler.  The returned handler invokes the
// stages in the order of the arguments.
func Wrap(h Handler, stages ...Stage) Handler {
	return Chain(stages).Then(h)
}
