// Package registry holds the in-memory phone registry that guards against duplicate sign-ups.
package registry

import "sync"

// Registry is the process-wide set of accepted phone numbers.
// It lives for the lifetime of the process and is never persisted.
type Registry struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func New() *Registry {
	return &Registry{seen: make(map[string]struct{})}
}

// TryRegister checks membership and inserts in one critical section.
// It returns true only for the call that performed the insert.
func (r *Registry) TryRegister(phone string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.seen[phone]; exists {
		return false
	}
	r.seen[phone] = struct{}{}
	return true
}

// Len returns the number of registered phones.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}
