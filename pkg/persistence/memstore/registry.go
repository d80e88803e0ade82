package memstore

import "sync"

// Registry hands out one Store per project id. Used by the reference
// server to scope collections per project.
type Registry struct {
	mu     sync.Mutex
	stores map[string]*Store
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{stores: make(map[string]*Store)}
}

// Project returns the store for the given project id, creating it on
// first use.
func (r *Registry) Project(projectID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	store, ok := r.stores[projectID]
	if !ok {
		store = New()
		r.stores[projectID] = store
	}
	return store
}
