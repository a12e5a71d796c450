package httpclient

import (
	"crypto/tls"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/ansel1/merry"
)

// NoRedirects stops the client from following redirects.  The redirect
// response is returned instead.
func NoRedirects() Option {
	return OptionFunc(func(client *http.Client) error {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
		return nil
	})
}

// MaxRedirects sets the number of redirects the client follows before
// giving up.
func MaxRedirects(max int) Option {
	return OptionFunc(func(client *http.Client) error {
		client.CheckRedirect = func(_ *http.Request, via []*http.Request) error {
			if len(via) > max {
				return merry.Errorf("stopped after %d redirects", max)
			}
			return nil
		}
		return nil
	})
}

// CookieJar installs a cookie jar, created with opts (which may be nil).
func CookieJar(opts *cookiejar.Options) Option {
	return OptionFunc(func(client *http.Client) error {
		jar, err := cookiejar.New(opts)
		if err != nil {
			return merry.Wrap(err)
		}
		client.Jar = jar
		return nil
	})
}

// ProxyURL sends all requests through a single proxy.
func ProxyURL(proxyURL string) Option {
	return TransportOption(func(t *http.Transport) error {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return merry.Prependf(err, "invalid proxy url %q", proxyURL)
		}
		t.Proxy = http.ProxyURL(u)
		return nil
	})
}

// ProxyFunc sets the transport's proxy function.
func ProxyFunc(f func(request *http.Request) (*url.URL, error)) Option {
	return TransportOption(func(t *http.Transport) error {
		t.Proxy = f
		return nil
	})
}

// Timeout sets the client's overall request timeout.
func Timeout(d time.Duration) Option {
	return OptionFunc(func(client *http.Client) error {
		client.Timeout = d
		return nil
	})
}

// IdleConnections sets the transport's connection pool limits.  Zero
// values leave the current setting.
func IdleConnections(maxIdle, maxIdlePerHost int, idleTimeout time.Duration) Option {
	return TransportOption(func(t *http.Transport) error {
		if maxIdle > 0 {
			t.MaxIdleConns = maxIdle
		}
		if maxIdlePerHost > 0 {
			t.MaxIdleConnsPerHost = maxIdlePerHost
		}
		if idleTimeout > 0 {
			t.IdleConnTimeout = idleTimeout
		}
		return nil
	})
}

// SkipVerify sets the TLS config's InsecureSkipVerify flag.
func SkipVerify(skip bool) Option {
	return TLSOption(func(c *tls.Config) error {
		c.InsecureSkipVerify = skip // nolint:gosec
		return nil
	})
}
