package store

import (
	"context"
	"net/url"
)

// Noop is the inert Collection handed to consumers while a provider is
// inactive. Reads report an empty, idle collection and mutations fail
// without touching the network.
type Noop[T Entity] struct{}

// Items returns an empty, non-nil slice.
func (Noop[T]) Items() []T { return []T{} }

func (Noop[T]) Active() (T, bool) {
	var zero T
	return zero, false
}

func (Noop[T]) Loading() bool { return false }
func (Noop[T]) Err() error    { return nil }
func (Noop[T]) ClearError()   {}

func (Noop[T]) FetchAll(context.Context, url.Values) {}

func (Noop[T]) FetchOne(context.Context, int64) (T, bool) {
	var zero T
	return zero, false
}

func (Noop[T]) Create(context.Context, T) (T, bool) {
	var zero T
	return zero, false
}

func (Noop[T]) Update(context.Context, T) (T, bool) {
	var zero T
	return zero, false
}

func (Noop[T]) Delete(context.Context, int64) bool { return false }
