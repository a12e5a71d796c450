package httpclient

import (
	"io"
	"net/http"
	"time"

	"github.com/ansel1/merry"
	"gopkg.in/yaml.v3"
)

// Config holds http.Client settings which can be read from a
// configuration file:
//
//     timeout: 10s
//     proxy: http://proxy.internal:3128
//     skip_verify: false
//     max_redirects: 3
//     cookies: true
//     max_idle_conns_per_host: 10
//
type Config struct {
	Timeout             Duration `yaml:"timeout"`
	Proxy               string   `yaml:"proxy"`
	SkipVerify          bool     `yaml:"skip_verify"`
	MaxRedirects        *int     `yaml:"max_redirects"`
	Cookies             bool     `yaml:"cookies"`
	MaxIdleConns        int      `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int      `yaml:"max_idle_conns_per_host"`
	IdleConnTimeout     Duration `yaml:"idle_conn_timeout"`
}

// Duration is a time.Duration which unmarshals from YAML strings like
// "10s" or "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return merry.Wrap(err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return merry.Prependf(err, "line %d", value.Line)
	}
	*d = Duration(parsed)
	return nil
}

// ReadConfig reads a YAML Config.  Unknown keys are an error.  An empty
// document is the zero Config.
func ReadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return nil, merry.Prepend(err, "reading http client config")
	}
	return &cfg, nil
}

// Options returns the Options equivalent to the config.  Zero values are
// omitted, so they leave the client's defaults alone.
func (c *Config) Options() []Option {
	if c == nil {
		return nil
	}
	var opts []Option
	if c.Timeout > 0 {
		opts = append(opts, Timeout(time.Duration(c.Timeout)))
	}
	if c.Proxy != "" {
		opts = append(opts, ProxyURL(c.Proxy))
	}
	if c.SkipVerify {
		opts = append(opts, SkipVerify(true))
	}
	if c.MaxRedirects != nil {
		if *c.MaxRedirects == 0 {
			opts = append(opts, NoRedirects())
		} else {
			opts = append(opts, MaxRedirects(*c.MaxRedirects))
		}
	}
	if c.Cookies {
		opts = append(opts, CookieJar(nil))
	}
	if c.MaxIdleConns > 0 || c.MaxIdleConnsPerHost > 0 || c.IdleConnTimeout > 0 {
		opts = append(opts, IdleConnections(c.MaxIdleConns, c.MaxIdleConnsPerHost, time.Duration(c.IdleConnTimeout)))
	}
	return opts
}

// Build creates a client from the config.
func (c *Config) Build() (*http.Client, error) {
	return New(c.Options()...)
}
