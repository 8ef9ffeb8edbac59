package gate

import (
	"context"
	"errors"
	"sync"
)

// Listener is notified of every path change.
type Listener func(ctx context.Context, path string) error

// Navigator holds the current navigation path and notifies listeners when
// it changes.
type Navigator struct {
	mu        sync.RWMutex
	path      string
	next      int
	listeners map[int]Listener
}

// NewNavigator returns a Navigator positioned at path.
func NewNavigator(path string) *Navigator {
	return &Navigator{path: clean(path), listeners: make(map[int]Listener)}
}

// Path returns the current path.
func (n *Navigator) Path() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.path
}

// Subscribe registers fn and returns a function that removes it.
func (n *Navigator) Subscribe(fn Listener) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	n.listeners[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

// Navigate moves to path and notifies every listener, even when the path is
// unchanged. Listener errors are joined.
func (n *Navigator) Navigate(ctx context.Context, path string) error {
	n.mu.Lock()
	n.path = clean(path)
	current := n.path
	listeners := make([]Listener, 0, len(n.listeners))
	for _, fn := range n.listeners {
		listeners = append(listeners, fn)
	}
	n.mu.Unlock()

	var errs []error
	for _, fn := range listeners {
		if err := fn(ctx, current); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
