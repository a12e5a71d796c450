package actionclient

import (
	"context"
	"net/url"
	"strings"

	"github.com/ansel1/merry"
)

// HTTP methods accepted by Build.
const (
	MethodConnect = "CONNECT"
	MethodDelete  = "DELETE"
	MethodGet     = "GET"
	MethodHead    = "HEAD"
	MethodOptions = "OPTIONS"
	MethodPatch   = "PATCH"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodTrace   = "TRACE"
)

var methods = map[string]bool{
	MethodConnect: true,
	MethodDelete:  true,
	MethodGet:     true,
	MethodHead:    true,
	MethodOptions: true,
	MethodPatch:   true,
	MethodPost:    true,
	MethodPut:     true,
	MethodTrace:   true,
}

// Client builds requests for a group of related actions which share a base
// URL, default headers, middleware, and an adapter.
//
// Application code declares a type per remote API, embedding a *Client,
// and one method per action:
//
//     type ArticlesClient struct {
//         *actionclient.Client
//     }
//
//     func (c ArticlesClient) Create(ctx context.Context, a Article) (*actionclient.Request, error) {
//         return c.Post(ctx, "create",
//             actionclient.Path("/articles"),
//             actionclient.Local("article", a),
//         )
//     }
//
//     articles := ArticlesClient{actionclient.MustNew("articles",
//         actionclient.BaseURL("https://example.com"),
//         actionclient.Resolver(templates.New(os.DirFS("templates"))),
//     )}
//
//     req, err := articles.Create(ctx, Article{Title: "Article Title"})
//     resp, err := req.Submit(ctx)
//
// The body of the "create" action is rendered from the resolver's template
// for ("articles", "create"), e.g. templates/articles/create.json.tmpl.
//
// A Client is configured once, by the Options passed to New or Extend, and
// is safe for concurrent use afterwards.
type Client struct {
	name     string
	prefixes []string
	defaults *Defaults
}

// New returns a new Client, applying all options.  name identifies the
// client when looking up templates.
func New(name string, opts ...Option) (*Client, error) {
	c := &Client{
		name:     name,
		prefixes: []string{name},
		defaults: &Defaults{},
	}
	if err := c.defaults.Apply(opts...); err != nil {
		return nil, merry.Wrap(err)
	}
	return c, nil
}

// MustNew creates a new Client, applying all options.  If
// an error occurs applying options, this will panic.
func MustNew(name string, opts ...Option) *Client {
	c, err := New(name, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Extend creates a child client.  The child starts with a copy of the
// receiver's Defaults, then applies opts; the receiver is not modified.
//
// Templates are looked up under the child's name first, then under the
// names of its ancestors.
func (c *Client) Extend(name string, opts ...Option) (*Client, error) {
	child := &Client{
		name:     name,
		prefixes: append([]string{name}, c.prefixes...),
		defaults: c.defaults.Clone(),
	}
	if err := child.defaults.Apply(opts...); err != nil {
		return nil, merry.Wrap(err)
	}
	return child, nil
}

// MustExtend is like Extend, but panics on errors.
func (c *Client) MustExtend(name string, opts ...Option) *Client {
	child, err := c.Extend(name, opts...)
	if err != nil {
		panic(err)
	}
	return child
}

// Name returns the client's name.
func (c *Client) Name() string {
	return c.name
}

// Prefixes returns the template lookup prefixes: the client's name,
// followed by the names of the clients it extends.
func (c *Client) Prefixes() []string {
	return append([]string(nil), c.prefixes...)
}

// Defaults returns a copy of the client's Defaults.
func (c *Client) Defaults() *Defaults {
	return c.defaults.Clone()
}

// Build builds the request for an action.
//
// The steps are:
//
//  1. apply the call options; Path and URL together are a configuration error
//  2. render the body from the action's template, if any
//  3. merge headers: call headers, then client defaults, then the
//     Content-Type of the template's format
//  4. join the base URL and path
//  5. run the client's outbound chain
//
// The returned request is bound to the client's inbound chain and adapter,
// which are used by Request.Submit.
func (c *Client) Build(ctx context.Context, method, action string, opts ...CallOption) (*Request, error) {
	call := &Call{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o.ApplyCall(call); err != nil {
			return nil, merry.Prepend(err, "applying options")
		}
	}
	if call.pathSet && call.URL != nil {
		return nil, configError("path and url are mutually exclusive")
	}

	method = strings.ToUpper(strings.TrimSpace(method))
	if !methods[method] {
		return nil, configErrorf("unsupported method %q", method)
	}

	d := c.defaults

	u, err := resolveURL(d.BaseURL, call)
	if err != nil {
		return nil, err
	}

	layout := call.Layout
	if layout == "" {
		layout = d.Layout
	}

	body, tmpl, err := RenderBody(ctx, d.Resolver, c.prefixes, action, c.locals(call), layout, call.Format)
	if err != nil {
		return nil, err
	}

	h := call.Header.Clone()
	h.MergeDefaults(d.Header)
	if ct := tmpl.ContentType(); ct != "" {
		h.MergeDefaults(NewHeaders(HeaderContentType, ct))
	}
	for _, name := range call.deleted {
		h.Del(name)
	}

	req := &Request{
		Client: c.name,
		Action: action,
		Method: method,
		URL:    u,
		Header: h,
		Body:   body,
	}

	resp, err := d.Outbound.Then(Passthrough).Handle(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp != nil && resp.Request != nil {
		req = resp.Request
	}

	req.submitter = &submitter{
		inbound:   d.Inbound,
		transport: d.Transport,
		adapter:   d.Adapter,
		decoder:   d.Decoder,
	}
	return req, nil
}

func (c *Client) locals(call *Call) map[string]interface{} {
	locals := make(map[string]interface{}, len(c.defaults.Values)+len(call.Locals))
	for k, v := range c.defaults.Values {
		locals[k] = v
	}
	for k, v := range call.Locals {
		locals[k] = v
	}
	return locals
}

// Get builds a GET request for the action.
func (c *Client) Get(ctx context.Context, action string, opts ...CallOption) (*Request, error) {
	return c.Build(ctx, MethodGet, action, opts...)
}

// Post builds a POST request for the action.
func (c *Client) Post(ctx context.Context, action string, opts ...CallOption) (*Request, error) {
	return c.Build(ctx, MethodPost, action, opts...)
}

// Put builds a PUT request for the action.
func (c *Client) Put(ctx context.Context, action string, opts ...CallOption) (*Request, error) {
	return c.Build(ctx, MethodPut, action, opts...)
}

// Patch builds a PATCH request for the action.
func (c *Client) Patch(ctx context.Context, action string, opts ...CallOption) (*Request, error) {
	return c.Build(ctx, MethodPatch, action, opts...)
}

// Delete builds a DELETE request for the action.
func (c *Client) Delete(ctx context.Context, action string, opts ...CallOption) (*Request, error) {
	return c.Build(ctx, MethodDelete, action, opts...)
}

// Head builds a HEAD request for the action.
func (c *Client) Head(ctx context.Context, action string, opts ...CallOption) (*Request, error) {
	return c.Build(ctx, MethodHead, action, opts...)
}

// Options builds an OPTIONS request for the action.
func (c *Client) Options(ctx context.Context, action string, opts ...CallOption) (*Request, error) {
	return c.Build(ctx, MethodOptions, action, opts...)
}

// Trace builds a TRACE request for the action.
func (c *Client) Trace(ctx context.Context, action string, opts ...CallOption) (*Request, error) {
	return c.Build(ctx, MethodTrace, action, opts...)
}

// Connect builds a CONNECT request for the action.
func (c *Client) Connect(ctx context.Context, action string, opts ...CallOption) (*Request, error) {
	return c.Build(ctx, MethodConnect, action, opts...)
}

func cloneURL(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	urlCopy := *u
	if u.User != nil {
		user := *u.User
		urlCopy.User = &user
	}
	return &urlCopy
}

// resolveURL computes the absolute URL of a call.
func resolveURL(base *url.URL, call *Call) (*url.URL, error) {
	var u *url.URL
	switch {
	case call.URL != nil:
		u = cloneURL(call.URL)
	case base == nil:
		return nil, configError("no base url configured, and no url given")
	case call.pathSet:
		rel, err := url.Parse(call.Path)
		if err != nil {
			return nil, merry.Prepend(err, "invalid path")
		}
		if rel.IsAbs() || rel.Host != "" {
			return nil, configErrorf("path %q is not relative; use URL for absolute urls", call.Path)
		}
		u = joinURL(base, rel)
	default:
		u = cloneURL(base)
	}

	if !u.IsAbs() || u.Host == "" {
		return nil, configErrorf("url %q is not absolute", u.String())
	}

	if len(call.Query) > 0 {
		values := u.Query()
		for key, vs := range call.Query {
			for _, v := range vs {
				values.Add(key, v)
			}
		}
		u.RawQuery = values.Encode()
	}
	return u, nil
}

// joinURL appends rel's path to base's path, with exactly one "/" between
// them.  Query strings are merged.
func joinURL(base, rel *url.URL) *url.URL {
	u := cloneURL(base)
	if rel.Path != "" {
		p := strings.TrimSuffix(base.EscapedPath(), "/") + "/" + strings.TrimPrefix(rel.EscapedPath(), "/")
		if unescaped, err := url.PathUnescape(p); err == nil {
			u.Path = unescaped
			u.RawPath = p
		} else {
			u.Path = p
			u.RawPath = ""
		}
	}
	if rel.RawQuery != "" {
		if u.RawQuery == "" {
			u.RawQuery = rel.RawQuery
		} else {
			u.RawQuery += "&" + rel.RawQuery
		}
	}
	if rel.Fragment != "" {
		u.Fragment = rel.Fragment
	}
	return u
}
