package actionclient

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httputil"
	"os"

	"github.com/ansel1/merry"
)

// Dump is an inbound stage which dumps requests and responses to a writer.
// Just intended for debugging.
func Dump(w io.Writer) Stage {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			// Write the entire request and response out as a single Write() call
			// So if this is being redirected to a logger, it's all sent in a single
			// package
			dump, dumperr := dumpRequest(ctx, req)
			if dumperr != nil {
				io.WriteString(w, "Error dumping request: "+dumperr.Error()+"\n")
			} else {
				io.WriteString(w, string(dump)+"\n")
			}
			resp, err := next.Handle(ctx, req)
			if resp != nil {
				dump, dumperr = dumpResponse(resp)
				if dumperr != nil {
					io.WriteString(w, "Error dumping response: "+dumperr.Error()+"\n")
				} else {
					io.WriteString(w, string(dump)+"\n")
				}
			}
			return resp, err
		})
	}
}

func dumpRequest(ctx context.Context, req *Request) ([]byte, error) {
	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return nil, err
	}
	return httputil.DumpRequestOut(httpReq, true)
}

func dumpResponse(resp *Response) ([]byte, error) {
	httpResp := &http.Response{
		StatusCode:    resp.StatusCode,
		Status:        http.StatusText(resp.StatusCode),
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        resp.Header.HTTP(),
		Body:          io.NopCloser(bytes.NewReader(resp.Body)),
		ContentLength: int64(len(resp.Body)),
	}
	return httputil.DumpResponse(httpResp, true)
}

// DumpToStout dumps requests to os.Stdout.
func DumpToStout() Stage {
	return Dump(os.Stdout)
}

type logFunc func(a ...interface{})

func (f logFunc) Write(p []byte) (n int, err error) {
	f(string(p))
	return len(p), nil
}

// DumpToLog dumps the request and response to a logging function.
// logf is compatible with fmt.Print(), testing.T.Log, or log.XXX()
// functions.
//
// Request and response will be logged separately.  Though logf
// takes a variadic arg, it will only be called with one string
// arg at a time.
func DumpToLog(logf func(a ...interface{})) Stage {
	return Dump(logFunc(logf))
}

// ExpectCode is an inbound stage which generates an error if the response's status code does not match
// the expected code.
func ExpectCode(code int) Stage {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			resp, err := next.Handle(ctx, req)
			if err == nil && resp != nil && resp.StatusCode != code {
				return resp, merry.Errorf("server returned unexpected status code.  expected: %d, received: %d", code, resp.StatusCode).
					WithHTTPCode(resp.StatusCode)
			}

			return resp, err
		})
	}
}

// ExpectSuccessCode is an inbound stage which generates an error if the response's status code is not between 200 and
// 299.
func ExpectSuccessCode() Stage {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			resp, err := next.Handle(ctx, req)
			if err == nil && resp != nil && (resp.StatusCode < 200 || resp.StatusCode > 299) {
				return resp, merry.Errorf("server returned an unsuccessful status code: %d", resp.StatusCode).
					WithHTTPCode(resp.StatusCode)
			}

			return resp, err
		})
	}
}
