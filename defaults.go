package actionclient

import (
	"io"
	"net/url"

	"github.com/ThalesGroup/actionclient/httpclient"
	"github.com/ansel1/merry"
	"gopkg.in/yaml.v3"
)

// Defaults is the configuration shared by every action of a client.
//
// Defaults are assembled by Options when the client is constructed, and
// are read-only afterwards.  A client created with Extend starts from a
// deep copy of its parent's Defaults.
type Defaults struct {
	// BaseURL is joined with the Path of each action.
	BaseURL *url.URL

	// Header holds default request headers.  Headers passed to an action
	// take precedence over these, which take precedence over the
	// Content-Type derived from the body template.
	Header *Headers

	// Adapter names the registered adapter which sends requests.  See
	// RegisterAdapter.  Defaults to DefaultAdapter.
	Adapter string

	// Transport, if set, is used instead of the named Adapter.
	Transport Handler

	// Values are arbitrary client settings.  They're passed to body
	// templates as locals, under the locals passed to the action.
	Values map[string]interface{}

	// Outbound stages run while an action builds its request.
	Outbound Chain

	// Inbound stages run when a request is submitted, ending in the
	// adapter.
	Inbound Chain

	// Resolver finds and renders body templates.  If nil, requests have
	// empty bodies.
	Resolver TemplateResolver

	// Decoder decodes response bodies.  Defaults to DefaultDecoder.
	Decoder Decoder

	// Layout is the default layout for body templates.
	Layout string
}

// Clone returns a deep copy of the Defaults.  Chains, maps, and headers
// are copied; the handlers, resolver, and decoder are shared.
func (d *Defaults) Clone() *Defaults {
	d2 := *d
	if d.BaseURL != nil {
		u := *d.BaseURL
		d2.BaseURL = &u
	}
	if d.Header != nil {
		d2.Header = d.Header.Clone()
	}
	if d.Values != nil {
		d2.Values = make(map[string]interface{}, len(d.Values))
		for k, v := range d.Values {
			d2.Values[k] = v
		}
	}
	d2.Outbound = d.Outbound.Append()
	d2.Inbound = d.Inbound.Append()
	return &d2
}

// Headers returns the Header, initializing it if necessary.  Never returns nil.
func (d *Defaults) Headers() *Headers {
	if d.Header == nil {
		d.Header = &Headers{}
	}
	return d.Header
}

// Option applies some setting to a client's Defaults.
type Option interface {

	// Apply modifies the Defaults argument.  The pointer will never be nil.
	// Returning an error will stop applying the rest of the Options, and the
	// error will float up to the original caller.
	Apply(*Defaults) error
}

// OptionFunc adapts a function to the Option interface.
type OptionFunc func(*Defaults) error

// Apply implements Option.
func (f OptionFunc) Apply(d *Defaults) error {
	return f(d)
}

// Apply applies the options to the receiver.
func (d *Defaults) Apply(opts ...Option) error {
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o.Apply(d); err != nil {
			return merry.Prepend(err, "applying options")
		}
	}
	return nil
}

// defaultsFile is the YAML form of Defaults.
type defaultsFile struct {
	BaseURL string                 `yaml:"base_url"`
	Adapter string                 `yaml:"adapter"`
	Layout  string                 `yaml:"layout"`
	Headers map[string]string      `yaml:"headers"`
	Values  map[string]interface{} `yaml:"values"`
	HTTP    *httpclient.Config     `yaml:"http"`
}

// LoadDefaults reads client defaults from YAML, and returns them as an
// Option:
//
//     base_url: https://api.example.com/v1
//     adapter: http
//     layout: envelope
//     headers:
//       Accept: application/json
//     values:
//       api_version: 2
//     http:
//       timeout: 10s
//
// Settings absent from the document are left unchanged when the Option is
// applied.  Headers are merged over existing default headers.  An http
// section builds an *http.Client (see httpclient.Config) and installs it
// with Transport, replacing the named adapter.
func LoadDefaults(r io.Reader) (Option, error) {
	var f defaultsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, merry.Prepend(err, "reading defaults")
	}

	opts := []Option{}
	if f.BaseURL != "" {
		opts = append(opts, BaseURL(f.BaseURL))
	}
	if f.Adapter != "" {
		opts = append(opts, Adapter(f.Adapter))
	}
	if f.Layout != "" {
		opts = append(opts, DefaultLayout(f.Layout))
	}
	if len(f.Headers) > 0 {
		opts = append(opts, MergeHeaders(HeadersFromMap(f.Headers)))
	}
	for _, k := range sortedKeys(f.Values) {
		opts = append(opts, Default(k, f.Values[k]))
	}
	if f.HTTP != nil {
		c, err := f.HTTP.Build()
		if err != nil {
			return nil, merry.Prepend(err, "reading defaults")
		}
		opts = append(opts, Transport(HTTP(c)))
	}
	return joinOpts(opts...), nil
}

func joinOpts(opts ...Option) Option {
	return OptionFunc(func(d *Defaults) error {
		for _, opt := range opts {
			if err := opt.Apply(d); err != nil {
				return err
			}
		}
		return nil
	})
}
