package actionclient_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/fstest"

	. "github.com/ThalesGroup/actionclient"
	"github.com/ThalesGroup/actionclient/httptestutil"
	"github.com/ThalesGroup/actionclient/templates"
	"github.com/ansel1/merry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Article struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// nolint:gochecknoglobals
var testTemplates = fstest.MapFS{
	"articles/create.json.tmpl":  {Data: []byte(`{"title": {{ json .article.Title }}}`)},
	"articles/update.xml.tmpl":   {Data: []byte(`<article><title>{{ xml .article.Title }}</title></article>`)},
	"base/ping.json.tmpl":        {Data: []byte(`{"ping": {{ json .api_version }}}`)},
	"layouts/envelope.json.tmpl": {Data: []byte(`{"data": {{ yield }}}`)},
}

func articlesClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New("articles", append([]Option{
		BaseURL("https://example.com"),
		Resolver(templates.New(testTemplates)),
	}, opts...)...)
	require.NoError(t, err)
	return c
}

func TestClient_Post_endToEnd(t *testing.T) {
	ts := httptest.NewServer(MockHandler(201, "application/json; charset=utf-8", `{"responded":true}`))
	defer ts.Close()

	rec := httptestutil.Record(ts)

	c := httptestutil.Client(ts, "articles", Resolver(templates.New(testTemplates)))

	ctx := context.Background()
	req, err := c.Post(ctx, "create",
		Path("/articles"),
		Local("article", Article{Title: "Article Title"}),
	)
	require.NoError(t, err)

	assert.Equal(t, MethodPost, req.Method)
	assert.Equal(t, ts.URL+"/articles", req.URL.String())
	assert.JSONEq(t, `{"title":"Article Title"}`, string(req.Body))
	assert.Equal(t, MediaTypeJSON, req.Header.Get(HeaderContentType))
	assert.Equal(t, "articles", req.Client)
	assert.Equal(t, "create", req.Action)

	resp, err := req.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"responded": true}, resp.Value)
	assert.True(t, resp.Get("responded").Bool())
	require.NotNil(t, resp.Request)
	assert.Equal(t, "create", resp.Request.Action)

	ex := rec.Last()
	require.NotNil(t, ex)
	assert.Equal(t, "/articles", ex.Request.URL.Path)
	assert.Equal(t, http.MethodPost, ex.Request.Method)
	assert.JSONEq(t, `{"title":"Article Title"}`, string(ex.RequestBody))
	assert.Equal(t, MediaTypeJSON, ex.Request.Header.Get(HeaderContentType))
}

func TestClient_Delete_noTemplate(t *testing.T) {
	c := articlesClient(t)

	req, err := c.Delete(context.Background(), "delete", Path("/articles/1"))
	require.NoError(t, err)

	assert.Equal(t, MethodDelete, req.Method)
	assert.Equal(t, "https://example.com/articles/1", req.URL.String())
	assert.Empty(t, req.Body)
	assert.False(t, req.Header.Has(HeaderContentType))
}

func TestClient_Delete_defaultContentType(t *testing.T) {
	c := articlesClient(t, ContentType(MediaTypeJSON))

	req, err := c.Delete(context.Background(), "delete", Path("/articles/1"))
	require.NoError(t, err)

	assert.Equal(t, MethodDelete, req.Method)
	assert.Equal(t, "https://example.com/articles/1", req.URL.String())
	assert.Empty(t, req.Body)
	assert.Equal(t, MediaTypeJSON, req.Header.Get(HeaderContentType))
}

func TestClient_Build_pathAndURL(t *testing.T) {
	var calls int
	counting := func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			calls++
			return next.Handle(ctx, req)
		})
	}
	c := articlesClient(t, Use(counting))

	req, err := c.Post(context.Background(), "create",
		Path("/articles"),
		URL("https://other.example.com/articles"),
		Local("article", Article{}),
	)
	require.Error(t, err)
	assert.Nil(t, req)
	assert.True(t, merry.Is(err, ErrConfiguration))
	assert.Zero(t, calls, "no middleware should run")

	// order doesn't matter
	_, err = c.Get(context.Background(), "show", URL("https://other.example.com/x"), Path("/y"))
	assert.True(t, merry.Is(err, ErrConfiguration))
}

func TestClient_Build_configErrors(t *testing.T) {
	defaultClient := func(t *testing.T) *Client { return articlesClient(t) }
	tests := []struct {
		name   string
		client func(t *testing.T) *Client
		method string
		opts   []CallOption
	}{
		{"no base url", func(t *testing.T) *Client { return MustNew("articles") }, MethodGet, []CallOption{Path("/a")}},
		{"relative url", defaultClient, MethodGet, []CallOption{URL("/a")}},
		{"absolute path", defaultClient, MethodGet, []CallOption{Path("https://evil.example.com/a")}},
		{"bad method", defaultClient, "FETCH", nil},
		{"empty method", defaultClient, "", nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := test.client(t).Build(context.Background(), test.method, "show", test.opts...)
			require.Error(t, err)
			assert.True(t, merry.Is(err, ErrConfiguration), "expected a configuration error, got %v", err)
		})
	}
}

func TestClient_Build_lowercaseMethod(t *testing.T) {
	req, err := articlesClient(t).Build(context.Background(), "patch", "show")
	require.NoError(t, err)
	assert.Equal(t, MethodPatch, req.Method)
}

func TestClient_Build_idempotent(t *testing.T) {
	c := articlesClient(t, Header("X-Api-Key", "k"))

	build := func() *Request {
		req, err := c.Post(context.Background(), "create",
			Path("/articles"),
			Local("article", Article{Title: "Same"}),
			Query(map[string]string{"draft": "true"}),
		)
		require.NoError(t, err)
		return req
	}

	r1, r2 := build(), build()
	assert.Equal(t, r1.Method, r2.Method)
	assert.Equal(t, r1.URL.String(), r2.URL.String())
	assert.Equal(t, r1.Header.Map(), r2.Header.Map())
	assert.Equal(t, r1.Body, r2.Body)
	assert.Equal(t, r1.String(), r2.String())
}

func TestClient_Build_headerPrecedence(t *testing.T) {
	c := articlesClient(t,
		Header("Accept", "application/xml"),
		Header("X-Default", "d"),
		ContentType("application/vnd.default+json"),
	)

	req, err := c.Post(context.Background(), "create",
		Path("/articles"),
		Local("article", Article{}),
		Header("accept", "application/json"),
	)
	require.NoError(t, err)

	// call beats client default
	assert.Equal(t, "application/json", req.Header.Get("Accept"))
	// client default kept
	assert.Equal(t, "d", req.Header.Get("x-default"))
	// client default beats template content type
	assert.Equal(t, "application/vnd.default+json", req.Header.Get(HeaderContentType))

	// call beats template content type
	req, err = articlesClient(t).Post(context.Background(), "create",
		Local("article", Article{}),
		ContentType("text/x-custom"),
	)
	require.NoError(t, err)
	assert.Equal(t, "text/x-custom", req.Header.Get(HeaderContentType))

	// no headers anywhere but the template
	req, err = articlesClient(t).Put(context.Background(), "update", Local("article", Article{Title: "a<b"}))
	require.NoError(t, err)
	assert.Equal(t, MediaTypeXML, req.Header.Get(HeaderContentType))
	assert.Equal(t, `<article><title>a&lt;b</title></article>`, string(req.Body))
}

func TestClient_Build_deleteHeader(t *testing.T) {
	c := articlesClient(t, BearerAuth("secret"), Header("X-Default", "d"))

	req, err := c.Get(context.Background(), "show", DeleteHeader(HeaderAuthorization))
	require.NoError(t, err)
	assert.False(t, req.Header.Has(HeaderAuthorization))
	assert.Equal(t, "d", req.Header.Get("X-Default"))

	// set after delete wins
	req, err = c.Get(context.Background(), "show", DeleteHeader("x-default"), Header("X-Default", "e"))
	require.NoError(t, err)
	assert.Equal(t, "e", req.Header.Get("X-Default"))
}

func TestClient_Build_urlJoin(t *testing.T) {
	tests := []struct {
		base, path, expected string
	}{
		{"https://example.com", "/articles", "https://example.com/articles"},
		{"https://example.com/", "/articles", "https://example.com/articles"},
		{"https://example.com/", "articles", "https://example.com/articles"},
		{"https://example.com/api", "articles", "https://example.com/api/articles"},
		{"https://example.com/api/", "/articles/1", "https://example.com/api/articles/1"},
		{"https://example.com/api?key=1", "/articles?page=2", "https://example.com/api/articles?key=1&page=2"},
		{"https://example.com/api", "", "https://example.com/api"},
		{"https://example.com/a%2Fb", "c", "https://example.com/a%2Fb/c"},
	}

	for _, test := range tests {
		t.Run(test.base+" + "+test.path, func(t *testing.T) {
			c := MustNew("articles", BaseURL(test.base))
			req, err := c.Get(context.Background(), "show", Path(test.path))
			require.NoError(t, err)
			assert.Equal(t, test.expected, req.URL.String())
		})
	}
}

func TestClient_Build_url(t *testing.T) {
	req, err := articlesClient(t).Get(context.Background(), "show", URL("https://other.example.com/x?y=1"))
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/x?y=1", req.URL.String())
}

func TestClient_Build_query(t *testing.T) {
	type params struct {
		Color string `url:"color"`
		Page  int    `url:"page,omitempty"`
	}

	req, err := articlesClient(t).Get(context.Background(), "index",
		Path("/articles?sort=desc"),
		Query(params{Color: "red"}, map[string][]string{"tag": {"a", "b"}}),
	)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/articles?color=red&sort=desc&tag=a&tag=b", req.URL.String())
}

func TestClient_Build_locals(t *testing.T) {
	c := MustNew("base",
		BaseURL("https://example.com"),
		Resolver(templates.New(testTemplates)),
		Default("api_version", 2),
	)

	req, err := c.Post(context.Background(), "ping")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ping":2}`, string(req.Body))

	// call locals shadow client values
	req, err = c.Post(context.Background(), "ping", Local("api_version", 3))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ping":3}`, string(req.Body))
}

func TestClient_Build_layout(t *testing.T) {
	c := articlesClient(t, DefaultLayout("envelope"))

	req, err := c.Post(context.Background(), "create", Local("article", Article{Title: "T"}))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"title":"T"}}`, string(req.Body))

	// Layout("") doesn't override the default, a named layout does
	_, err = c.Post(context.Background(), "create", Local("article", Article{}), Layout("missing"))
	require.Error(t, err)
}

func TestClient_Build_renderError(t *testing.T) {
	// the template references .article.Title, which is missing
	_, err := articlesClient(t).Post(context.Background(), "create")
	require.Error(t, err)
	assert.False(t, merry.Is(err, ErrConfiguration))
}

func TestClient_Build_outboundChain(t *testing.T) {
	var seen *Request
	sign := func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			seen = req.Clone()
			req.Header.Set("X-Signature", "sig:"+string(req.Body))
			return next.Handle(ctx, req)
		})
	}
	c := articlesClient(t, Use(sign))

	req, err := c.Post(context.Background(), "create", Local("article", Article{Title: "T"}))
	require.NoError(t, err)
	require.NotNil(t, seen)
	assert.False(t, seen.Header.Has("X-Signature"))
	assert.Equal(t, `sig:{"title": "T"}`, req.Header.Get("x-signature"))

	// outbound errors abort the build
	boom := merry.New("boom")
	c = articlesClient(t, Use(func(Handler) Handler {
		return HandlerFunc(func(context.Context, *Request) (*Response, error) {
			return nil, boom
		})
	}))
	req, err = c.Get(context.Background(), "show")
	assert.Nil(t, req)
	assert.True(t, merry.Is(err, boom))
}

func TestClient_Build_format(t *testing.T) {
	req, err := articlesClient(t).Post(context.Background(), "create",
		Local("article", Article{Title: "T"}),
		Format("xml"),
	)
	require.NoError(t, err)
	// no sibling xml template, so the json template is rendered, but the
	// content type follows the requested format
	assert.Equal(t, MediaTypeXML, req.Header.Get(HeaderContentType))
}

func TestClient_Extend(t *testing.T) {
	parent := MustNew("base",
		BaseURL("https://example.com/api"),
		Header("X-Parent", "p"),
		Resolver(templates.New(testTemplates)),
		Default("api_version", 1),
	)
	child := parent.MustExtend("articles", Header("X-Child", "c"), Default("api_version", 2))

	assert.Equal(t, []string{"base"}, parent.Prefixes())
	assert.Equal(t, []string{"articles", "base"}, child.Prefixes())
	assert.Equal(t, "articles", child.Name())

	// the child inherits the parent's templates
	req, err := child.Post(context.Background(), "ping", Path("ping"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"ping":2}`, string(req.Body))
	assert.Equal(t, "https://example.com/api/ping", req.URL.String())
	assert.Equal(t, "p", req.Header.Get("X-Parent"))
	assert.Equal(t, "c", req.Header.Get("X-Child"))
	assert.Equal(t, "articles", req.Client)

	// the parent is unchanged
	req, err = parent.Post(context.Background(), "ping")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ping":1}`, string(req.Body))
	assert.False(t, req.Header.Has("X-Child"))

	_, err = parent.Extend("bad", BaseURL("not absolute"))
	assert.True(t, merry.Is(err, ErrConfiguration))
	assert.Panics(t, func() {
		parent.MustExtend("bad", BaseURL("not absolute"))
	})
}

func TestClient_Defaults(t *testing.T) {
	c := articlesClient(t, Header("X-A", "1"))

	d := c.Defaults()
	d.Header.Set("X-A", "2")
	d.BaseURL.Host = "evil.example.com"

	req, err := c.Get(context.Background(), "show")
	require.NoError(t, err)
	assert.Equal(t, "1", req.Header.Get("X-A"))
	assert.Equal(t, "example.com", req.URL.Host)
}

func TestNew_errors(t *testing.T) {
	_, err := New("articles", BaseURL("example.com"))
	require.Error(t, err)
	assert.True(t, merry.Is(err, ErrConfiguration))

	assert.Panics(t, func() {
		MustNew("articles", BaseURL("::"))
	})
}

func TestClient_verbs(t *testing.T) {
	c := articlesClient(t)
	ctx := context.Background()

	verbs := map[string]func(context.Context, string, ...CallOption) (*Request, error){
		MethodGet:     c.Get,
		MethodPost:    c.Post,
		MethodPut:     c.Put,
		MethodPatch:   c.Patch,
		MethodDelete:  c.Delete,
		MethodHead:    c.Head,
		MethodOptions: c.Options,
		MethodTrace:   c.Trace,
		MethodConnect: c.Connect,
	}
	for method, verb := range verbs {
		req, err := verb(ctx, "show")
		require.NoError(t, err, method)
		assert.Equal(t, method, req.Method)
	}
}

func TestClient_concurrent(t *testing.T) {
	c := articlesClient(t, Transport(StubJSON(200, map[string]bool{"ok": true})))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, err := c.Post(context.Background(), "create", Local("article", Article{Title: "T"}))
			if !assert.NoError(t, err) {
				return
			}
			resp, err := req.Submit(context.Background())
			if assert.NoError(t, err) {
				assert.Equal(t, map[string]interface{}{"ok": true}, resp.Value)
			}
		}()
	}
	wg.Wait()
}
