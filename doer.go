package actionclient

import (
	"context"
	"net/http"

	"github.com/ThalesGroup/actionclient/httpclient"
	"github.com/ansel1/merry"
)

// Doer executes http requests.  It is implemented by *http.Client.  The
// HTTP adapter sends requests with a Doer.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to implement Doer
type DoerFunc func(req *http.Request) (*http.Response, error)

// Do implements the Doer interface
func (f DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// HTTP returns an adapter which sends requests over the network with d.
// If d is nil, a client built by httpclient.New() is used.
//
// The adapter reads and closes the response body.  Response headers with
// multiple values are joined with ", ".
func HTTP(d Doer) Handler {
	if d == nil {
		c, err := httpclient.New()
		if err != nil {
			// httpclient.New with no options can't fail
			panic(err)
		}
		d = c
	}
	return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
		httpReq, err := req.HTTPRequest(ctx)
		if err != nil {
			return nil, err
		}

		httpResp, err := d.Do(httpReq)
		if err != nil {
			return nil, merry.Prependf(err, "%s %s", req.Method, req.URL)
		}

		resp, err := newResponse(httpResp)
		if resp != nil {
			resp.Request = req
		}
		return resp, err
	})
}

// NewHTTPAdapter builds an HTTP adapter with a new *http.Client, configured
// with the httpclient options:
//
//     h, err := actionclient.NewHTTPAdapter(httpclient.Timeout(10 * time.Second))
//     actionclient.RegisterAdapter("http-short", h)
//
func NewHTTPAdapter(opts ...httpclient.Option) (Handler, error) {
	c, err := httpclient.New(opts...)
	if err != nil {
		return nil, err
	}
	return HTTP(c), nil
}
