package actionclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// These are tools for writing tests.

// StubResponse creates a Response with a status code, a Content-Type
// header (if not empty), and a body.
func StubResponse(statusCode int, contentType, body string) *Response {
	resp := &Response{
		StatusCode: statusCode,
		Header:     &Headers{},
	}
	if contentType != "" {
		resp.Header.Set(HeaderContentType, contentType)
	}
	if body != "" {
		resp.Body = []byte(body)
	}
	return resp
}

// Stub creates an adapter which returns a copy of resp for every request,
// without sending anything.  Install it with Transport(), or register it
// with RegisterAdapter():
//
//     c, _ := actionclient.New("articles",
//         actionclient.BaseURL("https://example.com"),
//         actionclient.Transport(actionclient.Stub(actionclient.StubResponse(201, "application/json", `{"id":1}`))),
//     )
//
func Stub(resp *Response) HandlerFunc {
	return func(_ context.Context, req *Request) (*Response, error) {
		r := resp.Clone()
		r.Request = req
		return r, nil
	}
}

// StubJSON creates an adapter which returns v, marshaled to JSON, with
// Content-Type: application/json.  Panics if v can't be marshaled.
func StubJSON(statusCode int, v interface{}) HandlerFunc {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Stub(StubResponse(statusCode, MediaTypeJSON, string(b)))
}

// ChannelStub returns an adapter and a channel.  The adapter will return the responses
// sent on the channel, blocking until one arrives or ctx is done.
func ChannelStub() (chan<- *Response, HandlerFunc) {
	input := make(chan *Response, 1)

	return input, func(ctx context.Context, req *Request) (*Response, error) {
		select {
		case resp := <-input:
			resp.Request = req
			return resp, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// MockHandler returns an http.Handler which replies with the status code,
// content type and body.  It's the server-side counterpart of Stub, for
// tests which go through the HTTP adapter.
func MockHandler(statusCode int, contentType, body string) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, _ *http.Request) {
		if contentType != "" {
			writer.Header().Set(HeaderContentType, contentType)
		}
		writer.WriteHeader(statusCode)
		_, _ = io.WriteString(writer, body)
	})
}

// ChannelHandler returns an http.Handler and an input channel.  The Handler
// replies with the Responses sent to the channel.
func ChannelHandler() (chan<- *Response, http.Handler) {
	input := make(chan *Response, 1)

	return input, http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		resp := <-input

		h := writer.Header()
		for key, value := range resp.Header.HTTP() {
			h[key] = value
		}

		writer.WriteHeader(resp.StatusCode)

		_, _ = writer.Write(resp.Body)
	})
}
