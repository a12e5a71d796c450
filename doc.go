/*
Package actionclient is a Go library for declarative HTTP clients.  Each remote
API is a Client, and each call to it is an action: a named operation which
builds a Request from a path, a body template, and headers, without sending it.

	articles := actionclient.MustNew("articles",
	    actionclient.BaseURL("https://example.com"),
	    actionclient.Accept(actionclient.MediaTypeJSON),
	    actionclient.Resolver(templates.New(os.DirFS("templates"))),
	)

	req, err := articles.Post(ctx, "create",
	    actionclient.Path("/articles"),
	    actionclient.Local("article", article),
	)
	if err != nil { return err }

	fmt.Println(req.Method, req.URL, string(req.Body))

	resp, err := req.Submit(ctx)
	if err != nil { return err }

	fmt.Println(resp.StatusCode, resp.Value)

The body of the "create" action is rendered from the template the resolver
finds for the ("articles", "create") pair, e.g. templates/articles/create.json.tmpl.
The template's format also sets the request's Content-Type, unless the
client or the call sets one.  Actions without a template have empty bodies.

Building a request is pure: the same client and arguments produce the
same request, and nothing is sent until Submit is called.  That makes
requests easy to preview, log, or assert on in tests.

Configuration

Clients are configured with Options when they're created, and are
read-only afterwards.  Extend creates a child client which starts from a
copy of its parent's configuration, and looks up templates under its own
name first, then under its parent's.

Options can also be loaded from YAML with LoadDefaults.

Headers

Header names are case-insensitive.  When the same header is set in more
than one place, the call's value wins over the client's default, which wins
over the Content-Type derived from the template.

Middleware

Stages wrap a Handler, and are composed into Chains.  A client has two
chains.  The outbound chain (Use) runs while a request is built, and can
modify it, e.g. to sign it or add a request ID.  The inbound chain
(UseInbound) runs when the request is submitted, and ends in the adapter
which sends it.  Retry, Dump, Log, RateLimit, CacheResponses, and
MetricsCollector are inbound stages.

Adapters

An adapter is the Handler at the end of the inbound chain.  Adapters are
registered by name with RegisterAdapter.  The "http" adapter is registered
by default and sends requests with net/http.  In tests, Transport(Stub(...))
replaces the adapter entirely.

Responses

Submit decodes the response body into Response.Value, according to the
response's Content-Type: JSON bodies decode into interface{} values, XML
bodies into *etree.Document trees, and other bodies are left as raw bytes.
*/
package actionclient
