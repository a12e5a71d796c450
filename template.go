package actionclient

import (
	"context"
	"mime"
	"strings"
)

// Template formats with a built-in content type.
const (
	FormatJSON = "json"
	FormatXML  = "xml"
)

// Template describes a template found by a TemplateResolver.
type Template struct {
	// Path is the resolver's virtual path for the template, e.g.
	// "articles_client/create.json.tmpl".
	Path string

	// Format is the declared format of the template, usually taken from
	// its file extension.  May be empty.
	Format string

	// Escaped is true if the resolver HTML-escapes rendered output.  The
	// renderer unescapes the output of such templates.
	Escaped bool
}

// ContentType returns the content type for the template's format.  See
// ContentTypeFor.
func (t *Template) ContentType() string {
	if t == nil {
		return ""
	}
	return ContentTypeFor(t.Format)
}

// ContentTypeFor maps a template format to a content type.  "json" and "xml"
// map to application/json and application/xml.  Other formats are looked up
// with mime.TypeByExtension, and return "" if unknown.
func ContentTypeFor(format string) string {
	format = strings.ToLower(strings.TrimPrefix(format, "."))
	switch format {
	case "":
		return ""
	case FormatJSON:
		return MediaTypeJSON
	case FormatXML:
		return MediaTypeXML
	}
	return mime.TypeByExtension("." + format)
}

// TemplateResolver finds and renders request body templates.  It's the
// boundary to whatever view layer the application uses.  The templates
// package has an implementation backed by an fs.FS.
type TemplateResolver interface {

	// Find looks up the template for an action.  prefixes are the
	// candidate directories, most specific first: the client's name,
	// followed by the names of the clients it extends.
	//
	// If no template exists, Find must return an error for which
	// merry.Is(err, ErrTemplateNotFound) is true.
	Find(action string, prefixes []string) (*Template, error)

	// Render renders the template with locals.  format is the final
	// format chosen for the body, which may differ from tmpl.Format.
	// If layout is not empty, the rendered template should be wrapped
	// in that layout.
	Render(ctx context.Context, tmpl *Template, format string, locals map[string]interface{}, layout string) ([]byte, error)
}
