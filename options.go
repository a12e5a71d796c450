package actionclient

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/ansel1/merry"
	goquery "github.com/google/go-querystring/query"
)

// Call holds the arguments of a single action call.  It's assembled by
// CallOptions.
type Call struct {
	// Path is joined with the client's BaseURL.  Mutually exclusive with
	// URL.
	Path string

	// URL replaces the client's BaseURL and Path entirely.  Must be
	// absolute.
	URL *url.URL

	// Header holds call-level headers.  They take precedence over the
	// client's default headers.
	Header *Headers

	// Locals are passed to the body template.
	Locals map[string]interface{}

	// Layout overrides the client's default layout.
	Layout string

	// Format overrides the format of the body template.
	Format string

	// Query params are added to the request URL.
	Query url.Values

	pathSet bool
	deleted []string
}

// CallOption applies some setting to a single action call.
type CallOption interface {
	ApplyCall(*Call) error
}

// CallOptionFunc adapts a function to the CallOption interface.
type CallOptionFunc func(*Call) error

// ApplyCall implements CallOption.
func (f CallOptionFunc) ApplyCall(c *Call) error {
	return f(c)
}

// Headers returns the Header, initializing it if necessary.  Never returns nil.
func (c *Call) Headers() *Headers {
	if c.Header == nil {
		c.Header = &Headers{}
	}
	return c.Header
}

// Path sets the path of the request, relative to the client's BaseURL.
// Combining Path and URL in one call is a configuration error.
func Path(p string) CallOption {
	return CallOptionFunc(func(c *Call) error {
		c.Path = p
		c.pathSet = true
		return nil
	})
}

// URL sets the absolute URL of the request, ignoring the client's BaseURL.
// Combining Path and URL in one call is a configuration error.
func URL(u string) CallOption {
	return CallOptionFunc(func(c *Call) error {
		parsed, err := url.Parse(u)
		if err != nil {
			return merry.Prepend(err, "invalid url")
		}
		c.URL = parsed
		return nil
	})
}

// Locals merges values into the locals passed to the body template.
func Locals(locals map[string]interface{}) CallOption {
	return CallOptionFunc(func(c *Call) error {
		if c.Locals == nil {
			c.Locals = make(map[string]interface{}, len(locals))
		}
		for k, v := range locals {
			c.Locals[k] = v
		}
		return nil
	})
}

// Local sets a single template local.
func Local(name string, value interface{}) CallOption {
	return Locals(map[string]interface{}{name: value})
}

// Layout renders the body template inside the named layout.
func Layout(name string) CallOption {
	return CallOptionFunc(func(c *Call) error {
		c.Layout = name
		return nil
	})
}

// Format overrides the body format, which otherwise comes from the
// template.  The format determines the Content-Type of the body.
func Format(format string) CallOption {
	return CallOptionFunc(func(c *Call) error {
		c.Format = format
		return nil
	})
}

// Query adds query params to the request URL.
// The arguments may be either map[string][]string, map[string]string,
// url.Values, or a struct.
//
// If the arg is a struct, the struct is marshaled into a url.Values object using
// the github.com/google/go-querystring/query package.  Structs should tag
// their members with the "url" tag, e.g.:
//
//     type ReqParams struct {
//         Color string `url:"color"`
//     }
//
// An error will be returned if marshaling the struct fails.
func Query(queryStructs ...interface{}) CallOption {
	return CallOptionFunc(func(c *Call) error {
		if c.Query == nil {
			c.Query = url.Values{}
		}
		for _, queryStruct := range queryStructs {
			var values url.Values
			switch t := queryStruct.(type) {
			case nil:
			case map[string][]string:
				values = url.Values(t)
			case url.Values:
				values = t
			case map[string]string:
				values = url.Values{}
				for k, v := range t {
					values.Set(k, v)
				}
			default:
				var err error
				values, err = goquery.Values(queryStruct)
				if err != nil {
					return merry.Prepend(err, "invalid query struct")
				}
			}

			for key, vs := range values {
				for _, v := range vs {
					c.Query.Add(key, v)
				}
			}
		}
		return nil
	})
}

// HeaderOption sets or deletes a header.  It can be applied to a client's
// Defaults, or to a single call.
type HeaderOption struct {
	headers *Headers
	deleted []string
}

// Apply implements Option.
func (o HeaderOption) Apply(d *Defaults) error {
	d.Headers().MergeOverride(o.headers)
	for _, name := range o.deleted {
		d.Header.Del(name)
	}
	return nil
}

// ApplyCall implements CallOption.  Deleting a header in a call removes it
// from the final request, even if the client has a default for it.
func (o HeaderOption) ApplyCall(c *Call) error {
	c.Headers().MergeOverride(o.headers)
	// a header set after being deleted is no longer deleted
	kept := c.deleted[:0]
	for _, name := range c.deleted {
		if !o.headers.Has(name) {
			kept = append(kept, name)
		}
	}
	c.deleted = kept
	for _, name := range o.deleted {
		c.Header.Del(name)
		c.deleted = append(c.deleted, name)
	}
	return nil
}

// Header sets a header value.
func Header(name, value string) HeaderOption {
	return HeaderOption{headers: NewHeaders(name, value)}
}

// MergeHeaders sets all the headers in h.
func MergeHeaders(h *Headers) HeaderOption {
	return HeaderOption{headers: h.Clone()}
}

// DeleteHeader deletes a header.
func DeleteHeader(name string) HeaderOption {
	return HeaderOption{deleted: []string{name}}
}

// Accept sets the Accept header.
func Accept(accept string) HeaderOption {
	return Header(HeaderAccept, accept)
}

// ContentType sets the Content-Type header.  This overrides the content
// type derived from the body template.
func ContentType(contentType string) HeaderOption {
	return Header(HeaderContentType, contentType)
}

// BasicAuth sets the Authorization header to "Basic <encoded username and password>".
// If username and password are empty, it deletes the Authorization header.
func BasicAuth(username, password string) HeaderOption {
	if username == "" && password == "" {
		return DeleteHeader(HeaderAuthorization)
	}
	auth := username + ":" + password
	return Header(HeaderAuthorization, "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
}

// BearerAuth sets the Authorization header to "Bearer <token>".
// If the token is empty, it deletes the Authorization header.
func BearerAuth(token string) HeaderOption {
	if token == "" {
		return DeleteHeader(HeaderAuthorization)
	}
	return Header(HeaderAuthorization, "Bearer "+token)
}

// BaseURL sets the client's base URL.  Returns an error if arg is not
// a valid, absolute URL.
func BaseURL(u string) Option {
	return OptionFunc(func(d *Defaults) error {
		parsed, err := url.Parse(u)
		if err != nil {
			return merry.Prepend(err, "invalid base url")
		}
		if !parsed.IsAbs() || parsed.Host == "" {
			return configErrorf("base url %q is not absolute", u)
		}
		d.BaseURL = parsed
		return nil
	})
}

// Adapter sets the name of the registered adapter which sends the
// client's requests.  Clears any Transport set earlier.
func Adapter(name string) Option {
	return OptionFunc(func(d *Defaults) error {
		d.Adapter = strings.TrimSpace(name)
		d.Transport = nil
		return nil
	})
}

// Transport sets a handler which sends the client's requests, bypassing
// the adapter registry.  Useful for stubs in tests:
//
//     c, _ := actionclient.New("articles", actionclient.Transport(actionclient.StubJSON(201, body)))
//
func Transport(h Handler) Option {
	return OptionFunc(func(d *Defaults) error {
		d.Transport = h
		return nil
	})
}

// Default sets a value in the client's Values, which are passed to body
// templates.
func Default(key string, value interface{}) Option {
	return OptionFunc(func(d *Defaults) error {
		if d.Values == nil {
			d.Values = map[string]interface{}{}
		}
		d.Values[key] = value
		return nil
	})
}

// Resolver sets the client's TemplateResolver.
func Resolver(r TemplateResolver) Option {
	return OptionFunc(func(d *Defaults) error {
		d.Resolver = r
		return nil
	})
}

// WithDecoder sets the client's Decoder.  If nil, clients revert to the
// DefaultDecoder.
func WithDecoder(dec Decoder) Option {
	return OptionFunc(func(d *Defaults) error {
		d.Decoder = dec
		return nil
	})
}

// DefaultLayout sets the layout for the client's body templates.
func DefaultLayout(name string) Option {
	return OptionFunc(func(d *Defaults) error {
		d.Layout = name
		return nil
	})
}

// Use appends stages to the client's outbound chain.  Stages are invoked
// in the order added.
func Use(stages ...Stage) Option {
	return OptionFunc(func(d *Defaults) error {
		d.Outbound = d.Outbound.Append(stages...)
		return nil
	})
}

// UseInbound appends stages to the client's inbound chain, which runs when
// requests are submitted.  Stages are invoked in the order added, the last
// one calling the adapter.
func UseInbound(stages ...Stage) Option {
	return OptionFunc(func(d *Defaults) error {
		d.Inbound = d.Inbound.Append(stages...)
		return nil
	})
}
