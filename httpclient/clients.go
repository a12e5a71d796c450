// Package httpclient builds the *http.Client used by actionclient's HTTP
// adapter.
//
// Clients are created with New, which takes Options implementing common
// recipes, like disabling server TLS verification, or setting a proxy:
//
//     c, err := httpclient.New(httpclient.SkipVerify(true), httpclient.Timeout(10*time.Second))
//     adapter := actionclient.HTTP(c)
//
// The same settings can be read from configuration with Config.
package httpclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/ansel1/merry"
)

// New builds a new *http.Client.  With no arguments, the client behaves
// like http.DefaultClient, but it's a distinct instance, so it can be
// modified without a global effect.
func New(opts ...Option) (*http.Client, error) {
	c := &http.Client{}
	return c, Apply(c, opts...)
}

// Apply applies options to an existing client.  Nil options are skipped.
func Apply(c *http.Client, opts ...Option) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.Apply(c); err != nil {
			return merry.Prepend(err, "configuring http client")
		}
	}
	return nil
}

// newTransport returns a transport configured like http.DefaultTransport.
// http.DefaultTransport itself can't be copied, as it holds a mutex.
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Option configures an http.Client.
type Option interface {
	// Apply makes a configuration change to the client, which is never nil.
	Apply(*http.Client) error
}

// OptionFunc adapts a function to the Option interface.
type OptionFunc func(*http.Client) error

// Apply implements Option.
func (f OptionFunc) Apply(c *http.Client) error {
	return f(c)
}

// A TransportOption configures the client's transport.  A transport
// configured like http.DefaultTransport is installed first if the client
// has none.  If the client's transport isn't a *http.Transport, Apply
// returns an error.
type TransportOption func(transport *http.Transport) error

// Apply implements Option.
func (f TransportOption) Apply(c *http.Client) error {
	var transport *http.Transport
	switch t := c.Transport.(type) {
	case nil:
		transport = newTransport()
		c.Transport = transport
	case *http.Transport:
		transport = t
	default:
		return merry.Errorf("client.Transport is not a *http.Transport.  It's a %T", c.Transport)
	}

	return f(transport)
}

// A TLSOption configures the client transport's TLS config, creating one
// if necessary.
type TLSOption func(c *tls.Config) error

// Apply implements Option.
func (f TLSOption) Apply(c *http.Client) error {
	return TransportOption(func(t *http.Transport) error {
		if t.TLSClientConfig == nil {
			t.TLSClientConfig = &tls.Config{} // nolint:gosec
		}
		return f(t.TLSClientConfig)
	}).Apply(c)
}
