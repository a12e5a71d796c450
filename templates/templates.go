// Package templates is an actionclient.TemplateResolver which renders
// request bodies from Go templates in an fs.FS.
//
// Templates are found by client name and action name.  The body of the
// "create" action of the "articles" client is the first of these which
// exists:
//
//     articles/create.json.tmpl
//     articles/create.xml.tmpl
//     ...
//
// The middle extension is the template's format, which determines the
// request's Content-Type.  If the client extends another client, the
// parent's directory is searched next.
//
// Templates are executed with the action's locals as data:
//
//     {"title": {{ json .article.Title }}}
//
// Layouts live in the "layouts" directory, are chosen by name and format
// (layouts/envelope.json.tmpl), and include the rendered body with yield:
//
//     {"data": {{ yield }}}
//
// By default templates are text/template templates, and their output is
// used as is.  With the HTML option they're html/template templates: output
// is HTML-escaped, and the descriptors returned by Find are marked Escaped,
// so actionclient unescapes the body after rendering.
package templates

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	htmltemplate "html/template"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/ThalesGroup/actionclient"
	"github.com/ansel1/merry"
)

// Extension is the file extension of template files.
const Extension = ".tmpl"

// DefaultLayoutDir is the directory searched for layouts.
const DefaultLayoutDir = "layouts"

// Resolver implements actionclient.TemplateResolver.  Parsed templates
// are cached, so a Resolver should not be used on an fs.FS whose contents
// change.  It's safe for concurrent use.
type Resolver struct {
	fsys      fs.FS
	html      bool
	layoutDir string
	funcs     map[string]interface{}

	mu    sync.Mutex
	texts map[string]*texttemplate.Template
	htmls map[string]*htmltemplate.Template
}

// Option configures a Resolver.
type Option func(*Resolver)

// HTML renders with html/template instead of text/template.
func HTML() Option {
	return func(r *Resolver) {
		r.html = true
	}
}

// LayoutDir sets the directory searched for layouts.  Defaults to
// DefaultLayoutDir.
func LayoutDir(dir string) Option {
	return func(r *Resolver) {
		r.layoutDir = dir
	}
}

// Funcs adds functions to the templates' function map.  They override the
// built-in json and xml functions.  "yield" is reserved.
func Funcs(funcs map[string]interface{}) Option {
	return func(r *Resolver) {
		for name, f := range funcs {
			if name == "yield" {
				continue
			}
			r.funcs[name] = f
		}
	}
}

// New creates a Resolver reading templates from fsys.
func New(fsys fs.FS, opts ...Option) *Resolver {
	r := &Resolver{
		fsys:      fsys,
		layoutDir: DefaultLayoutDir,
		funcs: map[string]interface{}{
			"json":  jsonFunc,
			"xml":   xmlFunc,
			"yield": func() string { return "" },
		},
		texts: map[string]*texttemplate.Template{},
		htmls: map[string]*htmltemplate.Template{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// jsonFunc renders v as JSON.
func jsonFunc(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// xmlFunc escapes v for use as XML character data.
func xmlFunc(v interface{}) (string, error) {
	var buf bytes.Buffer
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case []byte:
		s = string(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		s = strings.Trim(string(b), `"`)
	}
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// find returns the first template file named <name>.<format>.tmpl or
// <name>.tmpl in dir.  If format is not empty, only that format matches.
func (r *Resolver) find(dir, name, format string) (file, fileFormat string, ok bool) {
	matches, err := fs.Glob(r.fsys, path.Join(dir, name)+".*")
	if err != nil {
		return "", "", false
	}
	sort.Strings(matches)
	for _, m := range matches {
		rest := strings.TrimPrefix(path.Base(m), name)
		if !strings.HasSuffix(rest, Extension) {
			continue
		}
		f := strings.TrimPrefix(strings.TrimSuffix(rest, Extension), ".")
		if strings.Contains(f, ".") {
			continue
		}
		if format != "" && f != format {
			continue
		}
		return m, f, true
	}
	return "", "", false
}

// Find implements actionclient.TemplateResolver.
func (r *Resolver) Find(action string, prefixes []string) (*actionclient.Template, error) {
	for _, prefix := range prefixes {
		if file, format, ok := r.find(prefix, action, ""); ok {
			return &actionclient.Template{
				Path:    file,
				Format:  format,
				Escaped: r.html,
			}, nil
		}
	}
	return nil, merry.Here(merry.Appendf(actionclient.ErrTemplateNotFound, "%s in %v", action, prefixes))
}

// Render implements actionclient.TemplateResolver.  If format differs from
// the template's format, and a sibling template with that format exists,
// the sibling is rendered instead.
func (r *Resolver) Render(ctx context.Context, tmpl *actionclient.Template, format string, locals map[string]interface{}, layout string) ([]byte, error) {
	file := tmpl.Path
	if format != "" && format != tmpl.Format {
		name := strings.TrimSuffix(path.Base(file), Extension)
		if tmpl.Format != "" {
			name = strings.TrimSuffix(name, "."+tmpl.Format)
		}
		if sibling, _, ok := r.find(path.Dir(file), name, format); ok {
			file = sibling
		}
	}

	body, err := r.execute(file, locals, nil)
	if err != nil {
		return nil, err
	}
	if layout == "" {
		return body, nil
	}

	layoutFile, _, ok := r.find(r.layoutDir, layout, format)
	if !ok {
		// a layout without a format applies to every format
		layoutFile = path.Join(r.layoutDir, layout+Extension)
		if _, err := fs.Stat(r.fsys, layoutFile); err != nil {
			return nil, merry.Errorf("layout %q not found in %s", layout, r.layoutDir)
		}
	}
	return r.execute(layoutFile, locals, body)
}

// execute renders the file.  yield is the output of the yield function.
func (r *Resolver) execute(file string, data interface{}, yield []byte) ([]byte, error) {
	var buf bytes.Buffer
	if r.html {
		t, err := r.htmlTemplate(file)
		if err != nil {
			return nil, err
		}
		// html templates can't be cloned once executed, so the cached
		// template is only ever cloned
		t, err = t.Clone()
		if err != nil {
			return nil, merry.Wrap(err)
		}
		t.Funcs(htmltemplate.FuncMap{"yield": func() htmltemplate.HTML {
			// nolint:gosec
			return htmltemplate.HTML(yield)
		}})
		if err := t.Execute(&buf, data); err != nil {
			return nil, merry.Prependf(err, "rendering %s", file)
		}
		return buf.Bytes(), nil
	}

	t, err := r.textTemplate(file)
	if err != nil {
		return nil, err
	}
	t, err = t.Clone()
	if err != nil {
		return nil, merry.Wrap(err)
	}
	t.Funcs(texttemplate.FuncMap{"yield": func() string { return string(yield) }})
	if err := t.Execute(&buf, data); err != nil {
		return nil, merry.Prependf(err, "rendering %s", file)
	}
	return buf.Bytes(), nil
}

func (r *Resolver) read(file string) (string, error) {
	b, err := fs.ReadFile(r.fsys, file)
	if err != nil {
		return "", merry.Prependf(err, "reading %s", file)
	}
	return string(b), nil
}

func (r *Resolver) textTemplate(file string) (*texttemplate.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.texts[file]; ok {
		return t, nil
	}
	src, err := r.read(file)
	if err != nil {
		return nil, err
	}
	t, err := texttemplate.New(file).Option("missingkey=error").Funcs(r.funcs).Parse(src)
	if err != nil {
		return nil, merry.Prependf(err, "parsing %s", file)
	}
	r.texts[file] = t
	return t, nil
}

func (r *Resolver) htmlTemplate(file string) (*htmltemplate.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.htmls[file]; ok {
		return t, nil
	}
	src, err := r.read(file)
	if err != nil {
		return nil, err
	}
	t, err := htmltemplate.New(file).Option("missingkey=error").Funcs(r.funcs).Parse(src)
	if err != nil {
		return nil, merry.Prependf(err, "parsing %s", file)
	}
	r.htmls[file] = t
	return t, nil
}
