package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// resettable is what the registry needs from a Store[T] of any T.
type resettable interface {
	Name() string
	Reset()
	snapshotAny() any
	size() int
}

// Registry tracks every store of one workspace.
type Registry struct {
	mu     sync.Mutex
	stores map[string]resettable
}

func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]resettable)}
}

// register panics on a duplicate name: two stores answering to one name is a
// wiring bug, not a runtime condition.
func (r *Registry) register(s resettable) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.stores[s.Name()]; dup {
		panic(fmt.Sprintf("store: duplicate store name %q", s.Name()))
	}
	r.stores[s.Name()] = s
}

// ResetAll resets every registered store.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.stores {
		s.Reset()
	}
}

// Names lists registered stores in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.stores))
	for n := range r.stores {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns every store's entries keyed by store name. Each value is
// a map[string]Entry[T] for that store's T.
func (r *Registry) Snapshot() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]any, len(r.stores))
	for n, s := range r.stores {
		out[n] = s.snapshotAny()
	}
	return out
}

// Size is the total number of entries across stores.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.stores {
		n += s.size()
	}
	return n
}

// RouteWatcher resets all stores whenever the observed route changes. Only
// the path matters: a changed query string or fragment is the same route.
type RouteWatcher struct {
	reg     *Registry
	onReset func()

	mu   sync.Mutex
	last string
}

// NewRouteWatcher returns a watcher over reg. onReset, if non-nil, runs after
// every reset.
func NewRouteWatcher(reg *Registry, onReset func()) *RouteWatcher {
	return &RouteWatcher{reg: reg, onReset: onReset}
}

// Navigate records a route change and reports whether stores were reset.
func (w *RouteWatcher) Navigate(route string) bool {
	path := normalizeRoute(route)

	w.mu.Lock()
	if path == w.last {
		w.mu.Unlock()
		return false
	}
	w.last = path
	w.mu.Unlock()

	w.reg.ResetAll()
	if w.onReset != nil {
		w.onReset()
	}
	return true
}

func (w *RouteWatcher) Current() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}

func normalizeRoute(route string) string {
	if i := strings.IndexAny(route, "?#"); i >= 0 {
		route = route[:i]
	}
	if len(route) > 1 {
		route = strings.TrimRight(route, "/")
	}
	if route == "" {
		route = "/"
	}
	return route
}
