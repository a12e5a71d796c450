package actionclient

import (
	"io"
	"net/http"

	"github.com/ansel1/merry"
	"github.com/tidwall/gjson"
)

// Response is the reply to a submitted Request.
type Response struct {
	StatusCode int

	// Header holds one value per header name.  Headers received more than
	// once are joined with ", ", which is lossy for Set-Cookie: use
	// RawHeader for those.
	Header *Headers

	// RawHeader is the header as received by the HTTP adapter.  It's nil
	// for responses which didn't come from net/http, like stubs.
	RawHeader http.Header

	// Body is the raw response body.
	Body []byte

	// Value is the decoded body, set by Request.Submit.  Its type depends
	// on the client's Decoder.  With the DefaultDecoder, it's the result
	// of json.Unmarshal into interface{} for JSON, an *etree.Document for
	// XML, or Body itself for other content types.
	Value interface{}

	// Request is the request which produced this response.
	Request *Request
}

// Unmarshal unmarshals the raw body into v, using the DefaultUnmarshaler.
func (r *Response) Unmarshal(v interface{}) error {
	return DefaultUnmarshaler.Unmarshal(r.Body, r.Header.Get(HeaderContentType), v)
}

// Get looks up a value in a JSON body with a gjson path, e.g.
// "articles.0.title".  See https://github.com/tidwall/gjson for the path
// syntax.
func (r *Response) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}

// Clone returns a copy of the response.  Value is copied by reference.
func (r *Response) Clone() *Response {
	r2 := *r
	r2.Header = r.Header.Clone()
	r2.RawHeader = r.RawHeader.Clone()
	if r.Body != nil {
		r2.Body = append([]byte(nil), r.Body...)
	}
	return &r2
}

// newResponse reads and closes an *http.Response.
func newResponse(resp *http.Response) (*Response, error) {
	r := &Response{
		StatusCode: resp.StatusCode,
		Header:     HeadersFromHTTP(resp.Header),
		RawHeader:  resp.Header.Clone(),
	}
	if resp.Body == nil {
		return r, nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return r, merry.Prepend(err, "reading response body")
	}
	r.Body = body
	return r, nil
}
