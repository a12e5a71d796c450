package actionclient

import (
	"context"
	"html"

	"github.com/ansel1/merry"
)

// RenderBody renders the request body for an action.
//
// If resolver is nil, or resolver has no template for the action, the body
// is empty and the returned template is nil.  That's a normal outcome:
// many requests (GET, DELETE, etc) have no body.
//
// The format passed to the resolver is, in order of preference: the format
// argument, the template's declared format, or "json".
//
// Errors from the resolver, other than ErrTemplateNotFound, are returned
// unmodified.
func RenderBody(ctx context.Context, resolver TemplateResolver, prefixes []string, action string, locals map[string]interface{}, layout, format string) ([]byte, *Template, error) {
	if resolver == nil {
		return nil, nil, nil
	}

	tmpl, err := resolver.Find(action, prefixes)
	switch {
	case merry.Is(err, ErrTemplateNotFound):
		return nil, nil, nil
	case err != nil:
		return nil, nil, err
	case tmpl == nil:
		return nil, nil, nil
	}

	if format == "" {
		format = tmpl.Format
	}
	if format == "" {
		format = FormatJSON
	}

	body, err := resolver.Render(ctx, tmpl, format, locals, layout)
	if err != nil {
		return nil, nil, err
	}

	if tmpl.Escaped {
		body = []byte(html.UnescapeString(string(body)))
	}

	// report the format actually used, so the dispatcher derives the
	// content type from it
	rendered := *tmpl
	rendered.Format = format
	return body, &rendered, nil
}
