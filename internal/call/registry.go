package call

import (
	"errors"
	"sync"
)

// ErrCallExists is returned when a call id is started twice.
var ErrCallExists = errors.New("call already in progress")

// Registry maps live call ids to their state.  Entries are created when
// a call starts and removed exactly once when it ends.
type Registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{items: make(map[string]T)}
}

// Start registers v under id.
func (r *Registry[T]) Start(id string, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; ok {
		return ErrCallExists
	}
	r.items[id] = v
	return nil
}

// Get returns the state registered under id.
func (r *Registry[T]) Get(id string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[id]
	return v, ok
}

// Remove deletes id and returns what was registered.  Only the first of
// several concurrent removals gets ok == true.
func (r *Registry[T]) Remove(id string) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.items[id]
	if ok {
		delete(r.items, id)
	}
	return v, ok
}

// Len returns the number of live calls.
func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
