package actionclient

import (
	"sort"
	"sync"
)

// DefaultAdapter is the name of the adapter used by clients which don't
// set one.  It's registered at init as HTTP(nil).
const DefaultAdapter = "http"

// nolint:gochecknoglobals
var registry = struct {
	sync.RWMutex
	adapters map[string]Handler
}{
	adapters: map[string]Handler{},
}

func init() {
	RegisterAdapter(DefaultAdapter, HTTP(nil))
}

// RegisterAdapter registers an adapter under a name, for clients configured
// with Adapter(name).  Registering a name again replaces the earlier
// adapter.  Registering a nil handler removes the name.
//
// Adapters are process-wide.  They're usually registered at init, but the
// registry is safe for concurrent use.
func RegisterAdapter(name string, h Handler) {
	registry.Lock()
	defer registry.Unlock()
	if h == nil {
		delete(registry.adapters, name)
		return
	}
	registry.adapters[name] = h
}

// LookupAdapter returns the adapter registered under name.
func LookupAdapter(name string) (Handler, bool) {
	registry.RLock()
	defer registry.RUnlock()
	h, ok := registry.adapters[name]
	return h, ok
}

// Adapters returns the registered adapter names, sorted.
func Adapters() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.adapters))
	for name := range registry.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
