package apiclient

import (
	"sort"
	"strings"
	"sync"
)

// MissingEndpoints remembers API paths that answered 404 so callers can skip
// them for the rest of the session. Each Client owns one; tests and separate
// clients never share state unless the same instance is injected.
type MissingEndpoints struct {
	mu    sync.RWMutex
	paths map[string]struct{}
}

// NewMissingEndpoints returns an empty cache.
func NewMissingEndpoints() *MissingEndpoints {
	return &MissingEndpoints{paths: make(map[string]struct{})}
}

// Mark records path as missing.
func (m *MissingEndpoints) Mark(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[endpointKey(path)] = struct{}{}
}

// Known reports whether path was recorded as missing.
func (m *MissingEndpoints) Known(path string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.paths[endpointKey(path)]
	return ok
}

// Forget removes a single path.
func (m *MissingEndpoints) Forget(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.paths, endpointKey(path))
}

// Reset clears the cache.
func (m *MissingEndpoints) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = make(map[string]struct{})
}

// List returns the recorded paths in sorted order.
func (m *MissingEndpoints) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.paths))
	for p := range m.paths {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// endpointKey drops the query string and surrounding slashes.
func endpointKey(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return strings.Trim(path, "/")
}
