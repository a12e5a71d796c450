package actionclient

import (
	"net/http"
	"sort"
	"strings"
)

// HTTP constants.
const (
	HeaderAccept        = "Accept"
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"

	MediaTypeJSON = "application/json"
	MediaTypeXML  = "application/xml"
	MediaTypeText = "text/plain"
)

type headerEntry struct {
	name  string
	value string
}

// Headers is an ordered, case-insensitive set of header names and values.
//
// The casing of the first write of a name is kept for display, and entries
// are kept in insertion order:
//
//     h := actionclient.NewHeaders("content-type", "application/json")
//     h.Set("Content-Type", "application/xml")
//     h.Names()                // [content-type]
//     h.Get("CONTENT-TYPE")    // application/xml
//
// The zero value is an empty set ready to use.  A nil *Headers can be
// read from, but not written to.
type Headers struct {
	entries []headerEntry
	index   map[string]int
}

// NewHeaders builds a Headers from name/value pairs.  A trailing name
// without a value is ignored.
func NewHeaders(pairs ...string) *Headers {
	h := &Headers{}
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Set(pairs[i], pairs[i+1])
	}
	return h
}

// HeadersFromMap copies a map into a new Headers.  Map iteration order is
// random, so the resulting order is sorted by name.
func HeadersFromMap(m map[string]string) *Headers {
	h := &Headers{}
	for _, name := range sortedKeys(m) {
		h.Set(name, m[name])
	}
	return h
}

// HeadersFromHTTP copies an http.Header.  Multi-valued headers are joined
// with ", ".  That can't be split again for headers whose values contain
// commas, like Set-Cookie.
func HeadersFromHTTP(hdr http.Header) *Headers {
	h := &Headers{}
	for _, name := range sortedKeys(hdr) {
		h.Set(name, strings.Join(hdr[name], ", "))
	}
	return h
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Get returns the value for name, or "" if absent.
func (h *Headers) Get(name string) string {
	v, _ := h.Lookup(name)
	return v
}

// Lookup returns the value for name, and whether it was present.
func (h *Headers) Lookup(name string) (string, bool) {
	if h == nil || h.index == nil {
		return "", false
	}
	i, ok := h.index[key(name)]
	if !ok {
		return "", false
	}
	return h.entries[i].value, true
}

// Has reports whether name is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.Lookup(name)
	return ok
}

// Set sets the value for name, replacing any existing value.  An existing
// entry keeps its original casing and position.
func (h *Headers) Set(name, value string) {
	k := key(name)
	if h.index == nil {
		h.index = map[string]int{}
	}
	if i, ok := h.index[k]; ok {
		h.entries[i].value = value
		return
	}
	h.index[k] = len(h.entries)
	h.entries = append(h.entries, headerEntry{name: strings.TrimSpace(name), value: value})
}

// Del removes name.
func (h *Headers) Del(name string) {
	if h == nil || h.index == nil {
		return
	}
	k := key(name)
	i, ok := h.index[k]
	if !ok {
		return
	}
	h.entries = append(h.entries[:i], h.entries[i+1:]...)
	delete(h.index, k)
	for j := i; j < len(h.entries); j++ {
		h.index[key(h.entries[j].name)] = j
	}
}

// Len returns the number of entries.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Names returns the header names in insertion order, with their original
// casing.
func (h *Headers) Names() []string {
	if h == nil {
		return nil
	}
	names := make([]string, len(h.entries))
	for i, e := range h.entries {
		names[i] = e.name
	}
	return names
}

// MergeDefaults adds the entries of defaults which are not already present.
// Existing entries are never overwritten.
func (h *Headers) MergeDefaults(defaults *Headers) {
	if defaults == nil {
		return
	}
	for _, e := range defaults.entries {
		if !h.Has(e.name) {
			h.Set(e.name, e.value)
		}
	}
}

// MergeOverride copies all entries of overrides, replacing existing values.
func (h *Headers) MergeOverride(overrides *Headers) {
	if overrides == nil {
		return
	}
	for _, e := range overrides.entries {
		h.Set(e.name, e.value)
	}
}

// Clone returns a deep copy.  Cloning nil returns an empty set.
func (h *Headers) Clone() *Headers {
	h2 := &Headers{}
	if h == nil {
		return h2
	}
	h2.entries = make([]headerEntry, len(h.entries))
	copy(h2.entries, h.entries)
	h2.index = make(map[string]int, len(h.index))
	for k, v := range h.index {
		h2.index[k] = v
	}
	return h2
}

// Map returns the entries as a map keyed by display name.
func (h *Headers) Map() map[string]string {
	m := make(map[string]string, h.Len())
	if h == nil {
		return m
	}
	for _, e := range h.entries {
		m[e.name] = e.value
	}
	return m
}

// HTTP converts to an http.Header.  Names are canonicalized by net/http.
func (h *Headers) HTTP() http.Header {
	hdr := make(http.Header, h.Len())
	if h == nil {
		return hdr
	}
	for _, e := range h.entries {
		hdr.Set(e.name, e.value)
	}
	return hdr
}

// String renders the headers in wire format, one per line.
func (h *Headers) String() string {
	var sb strings.Builder
	if h == nil {
		return ""
	}
	for _, e := range h.entries {
		sb.WriteString(e.name)
		sb.WriteString(": ")
		sb.WriteString(e.value)
		sb.WriteString("\r\n")
	}
	return sb.String()
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
