package httptestutil

import (
	"bytes"
	"io"
	"net/http"

	"github.com/ThalesGroup/actionclient"
	"github.com/felixge/httpsnoop"
)

// Exchange is a snapshot of one request/response exchange with the server.
type Exchange struct {
	Request     *http.Request
	RequestBody []byte

	StatusCode   int
	Header       http.Header
	ResponseBody []byte
}

// RequestHeaders returns the request's headers as actionclient Headers,
// for comparing with a built Request's headers.
func (e *Exchange) RequestHeaders() *actionclient.Headers {
	if e.Request == nil {
		return &actionclient.Headers{}
	}
	return actionclient.HeadersFromHTTP(e.Request.Header)
}

// Recorder is server-side middleware which captures exchanges in a
// buffered channel.  When the buffer is full, further exchanges are
// dropped.
//
// Exchanges can be received from the channel directly, or with Next, Last
// and Drain.
type Recorder struct {
	Exchanges chan Exchange
}

// NewRecorder creates a Recorder with the given buffer size.  If 0, the
// size defaults to 50.
func NewRecorder(size int) *Recorder {
	if size == 0 {
		size = 50
	}
	return &Recorder{
		Exchanges: make(chan Exchange, size),
	}
}

// Next receives the oldest exchange, or nil if none is ready.  It doesn't
// block.
func (r *Recorder) Next() *Exchange {
	select {
	case e := <-r.Exchanges:
		return &e
	default:
		return nil
	}
}

// Last receives the most recent exchange, or nil if none is ready.  It
// drains the channel, and doesn't block.
func (r *Recorder) Last() *Exchange {
	var last *Exchange
	for {
		select {
		case e := <-r.Exchanges:
			last = &e
		default:
			return last
		}
	}
}

// Drain receives all ready exchanges, oldest first.
func (r *Recorder) Drain() []*Exchange {
	var all []*Exchange
	for {
		select {
		case e := <-r.Exchanges:
			all = append(all, &e)
		default:
			return all
		}
	}
}

// Clear discards all ready exchanges.
func (r *Recorder) Clear() {
	if r == nil {
		return
	}
	r.Drain()
}

// Wrap installs the recorder around an http.Handler.  A nil handler means
// http.DefaultServeMux, as in http.Server.
func (r *Recorder) Wrap(next http.Handler) http.Handler {
	if next == nil {
		next = http.DefaultServeMux
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ex := Exchange{Request: req}
		if req.Body != nil && req.Body != http.NoBody {
			body, err := io.ReadAll(req.Body)
			if err != nil {
				panic(err)
			}
			_ = req.Body.Close()
			ex.RequestBody = body
			req.Body = io.NopCloser(bytes.NewReader(body))
		}

		var respBody bytes.Buffer
		next.ServeHTTP(httpsnoop.Wrap(w, capture(&ex, &respBody, w)), req)
		if ex.StatusCode == 0 {
			// the handler never called WriteHeader or Write
			ex.StatusCode = http.StatusOK
			ex.Header = w.Header().Clone()
		}
		ex.ResponseBody = respBody.Bytes()

		select {
		case r.Exchanges <- ex:
		default:
		}
	})
}

// capture returns hooks which record the status code, headers and body
// written to w.
func capture(ex *Exchange, body *bytes.Buffer, w http.ResponseWriter) httpsnoop.Hooks {
	recordHeader := func(code int) {
		if ex.StatusCode == 0 {
			ex.StatusCode = code
			ex.Header = w.Header().Clone()
		}
	}
	return httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				recordHeader(code)
				next(code)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				recordHeader(http.StatusOK)
				body.Write(b)
				return next(b)
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				recordHeader(http.StatusOK)
				start := body.Len()
				if _, err := body.ReadFrom(src); err != nil {
					return 0, err
				}
				return next(bytes.NewReader(body.Bytes()[start:]))
			}
		},
	}
}
