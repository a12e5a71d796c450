package actionclient

import (
	"context"
	"sync"
)

// Inspector is a stage which captures requests and responses.
// It's useful for inspecting the contents of exchanges in tests.
//
// An Inspector can be installed on either chain.  In the outbound chain it
// sees each built request, and the Passthrough response.  In the inbound
// chain it sees each submitted request and the adapter's reply:
//
//     var i actionclient.Inspector
//     c, _ := actionclient.New("articles", actionclient.UseInbound(i.Stage))
//
// It keeps requests and responses around longer than their intended
// lifespan, so it should not be used in production code or benchmarks.
type Inspector struct {
	mu sync.Mutex

	// The last request seen.
	Request *Request

	// The last response seen.
	Response *Response

	// The last error seen.
	Err error
}

// Clear clears the inspector's fields.
func (i *Inspector) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Request = nil
	i.Response = nil
	i.Err = nil
}

// Last returns the last captured request, response, and error.
func (i *Inspector) Last() (*Request, *Response, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.Request, i.Response, i.Err
}

// Stage implements Stage.  Captured values are copies, so later changes by
// other stages don't show up in the inspector.
func (i *Inspector) Stage(next Handler) Handler {
	return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		i.mu.Lock()
		i.Request = req.Clone()
		i.mu.Unlock()

		resp, err := next.Handle(ctx, req)

		i.mu.Lock()
		defer i.mu.Unlock()
		i.Response = nil
		if resp != nil {
			i.Response = resp.Clone()
		}
		i.Err = err
		return resp, err
	})
}
