// Package registry provides the process-wide instance map that lets
// repeated construction calls with the same identifier reuse a live
// instance instead of resetting its state. It exists to survive hot-reload
// style re-execution of initialization code; it is not a persistence layer.
package registry

import (
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/memo"
)

// Registry is a create-if-absent instance map keyed by identifier. Entries
// never expire; lifetime is bound to the process.
type Registry[T any] struct {
	mu    sync.Mutex
	cache *gocache.Cache
}

// New creates an empty registry.
func New[T any]() *Registry[T] {
	return &Registry[T]{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

// GetOrCreate returns the instance stored under id, creating it with the
// create function if absent. The second return reports whether an existing
// instance was reused.
func (r *Registry[T]) GetOrCreate(id string, create func() T) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if stored, ok := r.cache.Get(id); ok {
		if v, ok := stored.(T); ok {
			log.Debug(log.CatRegistry, "reusing instance", "id", id)
			return v, true
		}
		log.Error(log.CatRegistry, "wrong type stored under id, replacing", "id", id)
	}

	v := create()
	r.cache.Set(id, v, gocache.NoExpiration)
	log.Debug(log.CatRegistry, "created instance", "id", id)
	return v, false
}

// Get returns the instance stored under id, if any.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var zero T
	stored, ok := r.cache.Get(id)
	if !ok {
		return zero, false
	}
	v, ok := stored.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// Delete removes the instance stored under id. Deleting an absent id is a
// no-op.
func (r *Registry[T]) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache.Delete(id)
}

// Keys returns the identifiers of all stored instances.
func (r *Registry[T]) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := r.cache.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	return keys
}

// Token generates an identifier for callers that did not supply one.
func Token() string {
	return memo.UID()
}
