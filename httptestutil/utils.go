// Package httptestutil contains utilities for testing actionclient clients
// against an httptest.Server.
//
// Client builds a client which talks to the test server.  Record captures
// the traffic to and from the server, and Dump writes it out.
package httptestutil

import (
	"net/http/httptest"

	"github.com/ThalesGroup/actionclient"
)

// Client creates a client which is pre-configured to send requests to the
// test server: its base URL is the server's URL, and its transport is the
// server's http.Client (which trusts the server's TLS certs, if any).
// Further options are applied after those.
func Client(ts *httptest.Server, name string, opts ...actionclient.Option) *actionclient.Client {
	base := []actionclient.Option{
		actionclient.BaseURL(ts.URL),
		actionclient.Transport(actionclient.HTTP(ts.Client())),
	}
	return actionclient.MustNew(name, append(base, opts...)...)
}

// Record installs and returns a Recorder, which captures exchanges with
// the test server.
//
// Record wraps and replaces the server's Handler, so it should be called
// after the real Handler has been installed.
func Record(ts *httptest.Server) *Recorder {
	r := NewRecorder(0)
	ts.Config.Handler = r.Wrap(ts.Config.Handler)
	return r
}
