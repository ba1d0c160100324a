// Package store holds per-query asynchronous data state.
//
// A Store[T] maps a query key (a username, "owner/repo", ...) to an Entry:
// the last loaded data, whether a load is in flight, and the last error. It
// has exactly one fetch action, backed by its Loader, and a Reset action that
// drops every entry.
//
// Stores register themselves with a Registry when they are built, so
// Registry.ResetAll (and the RouteWatcher built on it) always reaches every
// store in a workspace.
package store

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Entry is the state of one query. The zero value is the initial state: no
// data, not loading, no error.
type Entry[T any] struct {
	Data    *T      `json:"data"`
	Loading bool    `json:"loading"`
	Error   *string `json:"error"`
}

// Loader fetches the data for one key.
type Loader[T any] func(ctx context.Context, key string) (T, error)

type Store[T any] struct {
	name   string
	loader Loader[T]

	mu      sync.RWMutex
	entries map[string]Entry[T]
	// gen increments on Reset; loads that started under an older generation
	// do not publish their result.
	gen uint64

	flight singleflight.Group
}

// New builds a store and registers it with reg.
func New[T any](reg *Registry, name string, loader Loader[T]) *Store[T] {
	s := &Store[T]{
		name:    name,
		loader:  loader,
		entries: make(map[string]Entry[T]),
	}
	reg.register(s)
	return s
}

func (s *Store[T]) Name() string { return s.name }

// Get returns the entry for key; an unknown key reads as the initial state.
func (s *Store[T]) Get(key string) Entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key]
}

// Fetch loads key and returns the resulting entry.
//
// While the load runs the entry has Loading set and Error cleared; any
// previous Data stays visible. Concurrent fetches of the same key share one
// loader call. The loader runs detached from ctx's cancellation so one
// impatient caller cannot fail the shared call for the others; a caller whose
// ctx ends gets ctx.Err() and the load still completes in the background.
func (s *Store[T]) Fetch(ctx context.Context, key string) (Entry[T], error) {
	s.mu.Lock()
	gen := s.gen
	e := s.entries[key]
	e.Loading = true
	e.Error = nil
	s.entries[key] = e
	s.mu.Unlock()

	loadCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(strconv.FormatUint(gen, 10)+"/"+key, func() (any, error) {
		return s.loader(loadCtx, key)
	})

	select {
	case <-ctx.Done():
		go func() { s.publish(gen, key, <-ch) }()
		return s.Get(key), ctx.Err()
	case res := <-ch:
		return s.publish(gen, key, res), nil
	}
}

func (s *Store[T]) publish(gen uint64, key string, res singleflight.Result) Entry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		// Reset happened meanwhile: report the outcome, keep the store clean.
		return entryFrom[T](Entry[T]{}, res)
	}
	e := entryFrom[T](s.entries[key], res)
	s.entries[key] = e
	return e
}

func entryFrom[T any](prev Entry[T], res singleflight.Result) Entry[T] {
	prev.Loading = false
	if res.Err != nil {
		msg := res.Err.Error()
		prev.Error = &msg
		return prev
	}
	v := res.Val.(T)
	prev.Data = &v
	prev.Error = nil
	return prev
}

// Reset releases every entry. In-flight loads finish but are not published.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]Entry[T])
	s.gen++
}

// Snapshot copies all entries, keyed by query.
func (s *Store[T]) Snapshot() map[string]Entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Entry[T], len(s.entries))
	for k, v := range s.entries {
		out[k] = v
	}
	return out
}

func (s *Store[T]) snapshotAny() any {
	return s.Snapshot()
}

func (s *Store[T]) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
