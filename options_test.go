package actionclient

import (
	"encoding/base64"
	"net/url"
	"testing"

	"github.com/ansel1/merry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func applyCall(t *testing.T, opts ...CallOption) *Call {
	t.Helper()
	c := &Call{}
	for _, o := range opts {
		require.NoError(t, o.ApplyCall(c))
	}
	return c
}

func TestPath(t *testing.T) {
	c := applyCall(t, Path("/articles"))
	assert.Equal(t, "/articles", c.Path)
	assert.True(t, c.pathSet)

	c = applyCall(t, Path(""))
	assert.True(t, c.pathSet)
}

func TestURL(t *testing.T) {
	c := applyCall(t, URL("https://example.com/a"))
	assert.Equal(t, "https://example.com/a", c.URL.String())

	err := URL("://bad").ApplyCall(&Call{})
	assert.Error(t, err)
}

func TestLocals(t *testing.T) {
	c := applyCall(t,
		Locals(map[string]interface{}{"a": 1, "b": 2}),
		Local("b", 3),
	)
	assert.Equal(t, map[string]interface{}{"a": 1, "b": 3}, c.Locals)
}

func TestLayoutAndFormat(t *testing.T) {
	c := applyCall(t, Layout("envelope"), Format("xml"))
	assert.Equal(t, "envelope", c.Layout)
	assert.Equal(t, "xml", c.Format)
}

func TestQuery(t *testing.T) {
	type params struct {
		Color string `url:"color"`
		Size  int    `url:"size,omitempty"`
	}

	tests := []struct {
		name     string
		args     []interface{}
		expected url.Values
	}{
		{"struct", []interface{}{params{Color: "red"}}, url.Values{"color": {"red"}}},
		{"map", []interface{}{map[string]string{"color": "red"}}, url.Values{"color": {"red"}}},
		{"multimap", []interface{}{map[string][]string{"color": {"red", "blue"}}}, url.Values{"color": {"red", "blue"}}},
		{"url values", []interface{}{url.Values{"color": {"red"}}}, url.Values{"color": {"red"}}},
		{"nil", []interface{}{nil}, url.Values{}},
		{"merged", []interface{}{params{Color: "red", Size: 2}, map[string]string{"color": "blue"}}, url.Values{"color": {"red", "blue"}, "size": {"2"}}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			c := applyCall(t, Query(test.args...))
			assert.Equal(t, test.expected, c.Query)
		})
	}

	err := Query(42).ApplyCall(&Call{})
	assert.Error(t, err)
}

func TestHeaderOptions(t *testing.T) {
	var d Defaults
	require.NoError(t, d.Apply(
		Header("X-A", "1"),
		Accept(MediaTypeJSON),
		ContentType(MediaTypeXML),
		BasicAuth("user", "pass"),
		MergeHeaders(NewHeaders("X-B", "2", "X-A", "3")),
		DeleteHeader("x-b"),
	))

	assert.Equal(t, "3", d.Header.Get("X-A"))
	assert.Equal(t, MediaTypeJSON, d.Header.Get(HeaderAccept))
	assert.Equal(t, MediaTypeXML, d.Header.Get(HeaderContentType))
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("user:pass")), d.Header.Get(HeaderAuthorization))
	assert.False(t, d.Header.Has("X-B"))

	require.NoError(t, d.Apply(BearerAuth("token")))
	assert.Equal(t, "Bearer token", d.Header.Get(HeaderAuthorization))

	require.NoError(t, d.Apply(BearerAuth("")))
	assert.False(t, d.Header.Has(HeaderAuthorization))

	require.NoError(t, d.Apply(BasicAuth("", "")))
	assert.False(t, d.Header.Has(HeaderAuthorization))
}

func TestHeaderOption_call(t *testing.T) {
	c := applyCall(t, Header("X-A", "1"), DeleteHeader("X-B"))
	assert.Equal(t, "1", c.Header.Get("x-a"))
	assert.Equal(t, []string{"X-B"}, c.deleted)

	c = applyCall(t, DeleteHeader("X-B"), Header("x-b", "2"))
	assert.Empty(t, c.deleted)
	assert.Equal(t, "2", c.Header.Get("X-B"))
}

func TestClientOptions(t *testing.T) {
	var d Defaults
	stub := Stub(StubResponse(200, "", ""))
	stage := func(next Handler) Handler { return next }

	require.NoError(t, d.Apply(
		BaseURL("https://example.com/api"),
		Transport(stub),
		Default("version", 2),
		DefaultLayout("envelope"),
		Use(stage),
		UseInbound(stage, stage),
		WithDecoder(&ContentDecoder{}),
	))

	assert.Equal(t, "https://example.com/api", d.BaseURL.String())
	assert.NotNil(t, d.Transport)
	assert.Equal(t, map[string]interface{}{"version": 2}, d.Values)
	assert.Equal(t, "envelope", d.Layout)
	assert.Len(t, d.Outbound, 1)
	assert.Len(t, d.Inbound, 2)
	assert.NotNil(t, d.Decoder)

	// Adapter clears the transport
	require.NoError(t, d.Apply(Adapter(" stub ")))
	assert.Equal(t, "stub", d.Adapter)
	assert.Nil(t, d.Transport)

	require.NoError(t, d.Apply(nil, WithDecoder(nil)))
	assert.Nil(t, d.Decoder)
}

func TestBaseURL_errors(t *testing.T) {
	for _, u := range []string{"example.com", "/api", "::"} {
		t.Run(u, func(t *testing.T) {
			var d Defaults
			err := d.Apply(BaseURL(u))
			require.Error(t, err)
			assert.Nil(t, d.BaseURL)
		})
	}

	var d Defaults
	err := d.Apply(BaseURL("/api"))
	assert.True(t, merry.Is(err, ErrConfiguration))
}

func TestDefaults_Clone(t *testing.T) {
	stage := func(next Handler) Handler { return next }
	d := &Defaults{}
	require.NoError(t, d.Apply(
		BaseURL("https://example.com"),
		Header("X-A", "1"),
		Default("a", 1),
		Use(stage),
	))

	c := d.Clone()
	c.BaseURL.Host = "other.example.com"
	c.Header.Set("X-A", "2")
	c.Values["a"] = 2
	require.NoError(t, c.Apply(Use(stage)))

	assert.Equal(t, "example.com", d.BaseURL.Host)
	assert.Equal(t, "1", d.Header.Get("X-A"))
	assert.Equal(t, 1, d.Values["a"])
	assert.Len(t, d.Outbound, 1)
	assert.Len(t, c.Outbound, 2)
}
