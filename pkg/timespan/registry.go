package timespan

import "sync"

// ParseFunc is a parsing backend: it consumes normalized input under a
// compiled grammar and fills in the result entries. Backends are
// registered by name and grammars select one by that name.
type ParseFunc func(g *Grammar, input string, settings Settings) ([]ValidEntry, []InvalidEntry)

// DefaultBackend is the backend used when a grammar names none.
const DefaultBackend = "segment"

var (
	backendMu sync.RWMutex
	backends  = map[string]ParseFunc{}
)

// RegisterBackend makes a parsing backend available to grammars under
// the given name. Registering a duplicate name panics; this is a
// programming error, caught at init.
func RegisterBackend(name string, fn ParseFunc) {
	if name == "" || fn == nil {
		panic("timespan: RegisterBackend with empty name or nil func")
	}
	backendMu.Lock()
	defer backendMu.Unlock()
	if _, dup := backends[name]; dup {
		panic("timespan: RegisterBackend called twice for " + name)
	}
	backends[name] = fn
}

func lookupBackend(name string) (ParseFunc, bool) {
	backendMu.RLock()
	defer backendMu.RUnlock()
	fn, ok := backends[name]
	return fn, ok
}

func init() {
	RegisterBackend(DefaultBackend, parseSegments)
}
