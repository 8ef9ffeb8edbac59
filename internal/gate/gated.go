package gate

import (
	"context"
	"net/url"
	"sync"

	"github.com/hyperengineering/kennel/internal/store"
)

// Gated is a Collection that forwards to a live store while mounted and to
// store.Noop otherwise. Each Mount builds a fresh store; Unmount disposes it
// so late responses from the old one are dropped.
type Gated[T store.Entity] struct {
	build func() *store.Store[T]

	mu   sync.RWMutex
	live *store.Store[T]
}

// NewGated returns an unmounted Gated that will use build to create its store.
func NewGated[T store.Entity](build func() *store.Store[T]) *Gated[T] {
	return &Gated[T]{build: build}
}

// Mount creates the live store if needed and performs the initial fetch.
// Mounting an already mounted collection does nothing.
func (g *Gated[T]) Mount(ctx context.Context) {
	if live := g.open(); live != nil {
		live.FetchAll(ctx, nil)
	}
}

// Open creates the live store without loading it, for callers that issue
// their own filtered fetch. Opening a mounted collection does nothing.
func (g *Gated[T]) Open() {
	g.open()
}

// open returns the newly built store, or nil when one was already live.
func (g *Gated[T]) open() *store.Store[T] {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.live != nil {
		return nil
	}
	g.live = g.build()
	return g.live
}

// Unmount disposes the live store and reverts to Noop.
func (g *Gated[T]) Unmount() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.live == nil {
		return
	}
	g.live.Dispose()
	g.live = nil
}

// Live returns the live store, or nil when unmounted.
func (g *Gated[T]) Live() *store.Store[T] {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.live
}

// Mounted reports whether a live store is in place.
func (g *Gated[T]) Mounted() bool {
	return g.Live() != nil
}

func (g *Gated[T]) current() store.Collection[T] {
	if live := g.Live(); live != nil {
		return live
	}
	return store.Noop[T]{}
}

func (g *Gated[T]) Items() []T        { return g.current().Items() }
func (g *Gated[T]) Active() (T, bool) { return g.current().Active() }
func (g *Gated[T]) Loading() bool     { return g.current().Loading() }
func (g *Gated[T]) Err() error        { return g.current().Err() }
func (g *Gated[T]) ClearError()       { g.current().ClearError() }

func (g *Gated[T]) FetchAll(ctx context.Context, filter url.Values) {
	g.current().FetchAll(ctx, filter)
}

func (g *Gated[T]) FetchOne(ctx context.Context, id int64) (T, bool) {
	return g.current().FetchOne(ctx, id)
}

func (g *Gated[T]) Create(ctx context.Context, payload T) (T, bool) {
	return g.current().Create(ctx, payload)
}

func (g *Gated[T]) Update(ctx context.Context, payload T) (T, bool) {
	return g.current().Update(ctx, payload)
}

func (g *Gated[T]) Delete(ctx context.Context, id int64) bool {
	return g.current().Delete(ctx, id)
}
