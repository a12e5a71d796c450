package httptestutil

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/http/httputil"
	"os"
)

// DumpTo wraps an http.Handler, writing each request and response to w with
// httputil.DumpRequest and httputil.DumpResponse.
func DumpTo(handler http.Handler, w io.Writer) http.Handler {
	if handler == nil {
		handler = http.DefaultServeMux
	}
	rec := NewRecorder(1)
	recorded := rec.Wrap(handler)
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		dump, err := httputil.DumpRequest(req, true)
		if err != nil {
			fmt.Fprintf(w, "error dumping request: %#v", err)
		} else {
			_, _ = w.Write(append(dump, "\r\n"...))
		}

		recorded.ServeHTTP(rw, req)

		ex := rec.Last()
		if ex == nil {
			return
		}
		resp := http.Response{
			Proto:         req.Proto,
			ProtoMajor:    req.ProtoMajor,
			ProtoMinor:    req.ProtoMinor,
			StatusCode:    ex.StatusCode,
			Status:        fmt.Sprintf("%d %s", ex.StatusCode, http.StatusText(ex.StatusCode)),
			Header:        ex.Header,
			Body:          io.NopCloser(bytes.NewReader(ex.ResponseBody)),
			ContentLength: int64(len(ex.ResponseBody)),
		}
		d, err := httputil.DumpResponse(&resp, true)
		if err != nil {
			fmt.Fprintf(w, "error dumping response: %#v", err)
		} else {
			_, _ = w.Write(append(d, "\r\n"...))
		}
	})
}

// Dump installs DumpTo on the test server.  Like Record, it should be
// called after the real handler has been installed.
func Dump(ts *httptest.Server, w io.Writer) {
	ts.Config.Handler = DumpTo(ts.Config.Handler, w)
}

// DumpToStdout dumps the test server's traffic to stdout.
func DumpToStdout(ts *httptest.Server) {
	Dump(ts, os.Stdout)
}

// DumpToLog dumps the test server's traffic with a logging function, like
// testing.T.Log.  Each request and each response is one call.
func DumpToLog(ts *httptest.Server, logf func(a ...interface{})) {
	Dump(ts, logWriter(logf))
}

type logWriter func(a ...interface{})

func (f logWriter) Write(p []byte) (int, error) {
	f(string(p))
	return len(p), nil
}
