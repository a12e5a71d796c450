package actionclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ansel1/merry"
)

// Request is an outbound HTTP request built by a client action.
//
// It's a plain value: the fields can be read (e.g. to preview or assert on
// the request in a test) without sending anything.  Submit sends it
// through the client's inbound chain and adapter.
//
//     req, err := articles.Create(ctx, article)
//     fmt.Println(req.Method, req.URL, string(req.Body))
//
//     resp, err := req.Submit(ctx)
//     fmt.Println(resp.StatusCode, resp.Value)
//
type Request struct {
	// Client and Action name the client and action which built the request.
	Client string
	Action string

	// Method is always upper case.
	Method string

	// URL is always absolute.
	URL *url.URL

	Header *Headers
	Body   []byte

	submitter *submitter
}

// submitter binds a request to the configuration of the client which
// built it.
type submitter struct {
	inbound   Chain
	transport Handler
	adapter   string
	decoder   Decoder
}

func (s *submitter) handler() (Handler, error) {
	terminal := s.transport
	if terminal == nil {
		name := s.adapter
		if name == "" {
			name = DefaultAdapter
		}
		var ok bool
		terminal, ok = LookupAdapter(name)
		if !ok {
			return nil, merry.Here(merry.Appendf(ErrUnknownAdapter, "%q", name))
		}
	}
	return s.inbound.Then(terminal), nil
}

// Submit sends the request through the client's inbound chain, ending in
// the client's adapter, and decodes the response body into Response.Value.
//
// Errors from stages or the adapter are returned unmodified, along with the
// response if there was one.  If the body can't be decoded, the response is
// returned with a nil Value and an error for which IsDecodeError is true.
func (r *Request) Submit(ctx context.Context) (*Response, error) {
	if r.submitter == nil {
		return nil, configError("request was not built by a client")
	}

	h, err := r.submitter.handler()
	if err != nil {
		return nil, err
	}

	resp, err := h.Handle(ctx, r.Clone())
	if err != nil {
		return resp, err
	}
	if resp == nil {
		return nil, merry.Errorf("%s %s: handler returned no response", r.Method, r.URL)
	}
	if resp.Request == nil {
		resp.Request = r
	}

	decoder := r.submitter.decoder
	if decoder == nil {
		decoder = DefaultDecoder
	}
	resp.Value, err = decoder.Decode(resp.Header.Get(HeaderContentType), resp.Body)
	if err != nil {
		return resp, err
	}
	return resp, nil
}

// Clone returns a deep copy of the request.  The copy is bound to the same
// client configuration.
func (r *Request) Clone() *Request {
	r2 := *r
	r2.URL = cloneURL(r.URL)
	r2.Header = r.Header.Clone()
	if r.Body != nil {
		r2.Body = append([]byte(nil), r.Body...)
	}
	return &r2
}

// HTTPRequest converts the request to an *http.Request, bound to ctx.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	urlS := ""
	if r.URL != nil {
		urlS = r.URL.String()
	}

	var body io.Reader
	if len(r.Body) > 0 {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, urlS, body)
	if err != nil {
		return nil, merry.Wrap(err)
	}
	req.Header = r.Header.HTTP()
	return req, nil
}

// String renders the request for previews and debugging: the request
// line, the headers, and the body.
func (r *Request) String() string {
	var sb strings.Builder
	sb.WriteString(r.Method)
	sb.WriteString(" ")
	if r.URL != nil {
		sb.WriteString(r.URL.String())
	}
	sb.WriteString("\r\n")
	sb.WriteString(r.Header.String())
	if len(r.Body) > 0 {
		sb.WriteString("\r\n")
		sb.Write(r.Body)
	}
	return sb.String()
}
