// Package store holds the generic entity cache behind every kennel provider.
//
// A Store[T] owns one resource collection (dogs, heats, litters, ...): it
// fetches it, keeps the last good copy in memory, and applies the server's
// answer to create, update and delete calls directly to the cache instead of
// refetching. Failures never escape as errors; they become the store's error
// state and a false return, so callers only branch on data shape.
package store

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"github.com/hyperengineering/kennel/internal/apiclient"
	"github.com/hyperengineering/kennel/internal/sanitize"
)

// Entity is any server resource identified by a server-assigned ID.
type Entity interface {
	EntityID() int64
}

// Op names a store operation. It is reported in OpError and passed to validators.
type Op string

const (
	OpFetch    Op = "fetch"
	OpFetchOne Op = "fetch_one"
	OpCreate   Op = "create"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
)

// Collection is the capability set shared by live stores and their inert
// stand-ins. Consumers program against it and never need to know which one
// they hold.
type Collection[T Entity] interface {
	Items() []T
	Active() (T, bool)
	Loading() bool
	Err() error
	ClearError()

	FetchAll(ctx context.Context, filter url.Values)
	FetchOne(ctx context.Context, id int64) (T, bool)
	Create(ctx context.Context, payload T) (T, bool)
	Update(ctx context.Context, payload T) (T, bool)
	Delete(ctx context.Context, id int64) bool
}

// API is the subset of apiclient.Client a Store needs.
type API interface {
	Get(ctx context.Context, path string, query url.Values) (*apiclient.Response, error)
	Post(ctx context.Context, path string, body any) (*apiclient.Response, error)
	Put(ctx context.Context, path string, body any) (*apiclient.Response, error)
	Delete(ctx context.Context, path string) (*apiclient.Response, error)
}

// Validator checks a payload before it is sent. current is the cached copy of
// the entity being updated, or nil on create or when it is not cached.
type Validator[T Entity] func(op Op, payload T, current *T) error

// Options configures a Store.
type Options[T Entity] struct {
	Resource string       // resource path relative to the API root, e.g. "dogs"
	Strip    []string     // extra fields removed from outgoing payloads
	Validate Validator[T] // optional client-side checks
	Prepend  bool         // insert created entities at the front of Items
	Logger   *slog.Logger
}

// Store is the live Collection implementation.
type Store[T Entity] struct {
	api      API
	resource string
	strip    []string
	validate Validator[T]
	prepend  bool
	logger   *slog.Logger

	mu         sync.RWMutex
	items      []T
	active     *T
	inflight   int
	err        error
	generation uint64
	lastFilter url.Values
	disposed   bool
}

// New creates a Store for opts.Resource.
func New[T Entity](api API, opts Options[T]) *Store[T] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store[T]{
		api:      api,
		resource: opts.Resource,
		strip:    opts.Strip,
		validate: opts.Validate,
		prepend:  opts.Prepend,
		logger:   logger.With("resource", opts.Resource),
		items:    []T{},
	}
}

// Resource returns the resource path the store manages.
func (s *Store[T]) Resource() string {
	return s.resource
}

// Items returns a copy of the cached collection.
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.items)
}

// Find returns the cached entity with the given ID.
func (s *Store[T]) Find(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.items[i], true
	}
	var zero T
	return zero, false
}

// Active returns the entity last loaded by FetchOne.
func (s *Store[T]) Active() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		var zero T
		return zero, false
	}
	return *s.active, true
}

// Loading reports whether any operation is in flight.
func (s *Store[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inflight > 0
}

// Err returns the error left by the most recent failed operation, or nil.
// Non-nil values are *OpError.
func (s *Store[T]) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// ClearError resets the error state.
func (s *Store[T]) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = nil
}

// Dispose detaches the store from its consumers. Responses that arrive after
// Dispose are dropped and later operations do nothing.
func (s *Store[T]) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
}

// Disposed reports whether Dispose was called.
func (s *Store[T]) Disposed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disposed
}

// FetchAll replaces the cache with the server's collection. On failure the
// previous items are kept and the error state is set. Only the most recently
// issued FetchAll may commit its items or its error; an older response that
// arrives late is dropped.
func (s *Store[T]) FetchAll(ctx context.Context, filter url.Values) {
	gen, ok := s.begin(true, filter)
	if !ok {
		return
	}
	defer s.end()

	resp, err := s.api.Get(ctx, s.resource, filter)
	if opErr := s.classify(OpFetch, resp, err); opErr != nil {
		s.failFetch(gen, opErr)
		return
	}

	items, err := apiclient.Decode[[]T](resp)
	if err != nil {
		s.failFetch(gen, s.malformed(OpFetch, err))
		return
	}
	if items == nil {
		items = []T{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	if gen != s.generation {
		s.logger.Debug("stale fetch discarded", "generation", gen, "current", s.generation)
		return
	}
	s.items = items
}

// FetchOne loads a single entity and makes it the active one.
func (s *Store[T]) FetchOne(ctx context.Context, id int64) (T, bool) {
	var zero T
	if id <= 0 {
		s.fail(s.invalid(OpFetchOne, errors.New("id is required")))
		return zero, false
	}
	if _, ok := s.begin(false, nil); !ok {
		return zero, false
	}
	defer s.end()

	resp, err := s.api.Get(ctx, s.itemPath(id), nil)
	if opErr := s.classify(OpFetchOne, resp, err); opErr != nil {
		s.fail(opErr)
		return zero, false
	}

	item, err := apiclient.Decode[T](resp)
	if err != nil {
		s.fail(s.malformed(OpFetchOne, err))
		return zero, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return zero, false
	}
	s.active = &item
	return item, true
}

// Create sanitizes and POSTs payload, then inserts the entity the server
// returned. If the server does not echo the entity the collection is refetched.
func (s *Store[T]) Create(ctx context.Context, payload T) (T, bool) {
	var zero T
	if err := s.check(OpCreate, payload, nil); err != nil {
		s.fail(err)
		return zero, false
	}
	body, err := sanitize.Payload(payload, s.strip...)
	if err != nil {
		s.fail(s.invalid(OpCreate, err))
		return zero, false
	}
	if _, ok := s.begin(false, nil); !ok {
		return zero, false
	}
	defer s.end()

	resp, err := s.api.Post(ctx, s.resource, body)
	if opErr := s.classify(OpCreate, resp, err); opErr != nil {
		s.fail(opErr)
		return zero, false
	}

	created, err := apiclient.Decode[T](resp)
	if err != nil {
		s.fail(s.malformed(OpCreate, err))
		return zero, false
	}
	if created.EntityID() == 0 {
		s.logger.Warn("create response carried no entity, refetching")
		s.FetchAll(ctx, s.filter())
		return zero, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return created, true
	}
	switch i := s.indexOf(created.EntityID()); {
	case i >= 0:
		s.items[i] = created
	case s.prepend:
		s.items = append([]T{created}, s.items...)
	default:
		s.items = append(s.items, created)
	}
	return created, true
}

// Update sanitizes and PUTs payload to {resource}/{id}, then replaces the
// cached entry with the entity the server returned. payload must carry an ID.
func (s *Store[T]) Update(ctx context.Context, payload T) (T, bool) {
	var zero T
	id := payload.EntityID()
	if id <= 0 {
		s.fail(s.invalid(OpUpdate, errors.New("id is required to update")))
		return zero, false
	}

	var current *T
	if cached, ok := s.Find(id); ok {
		current = &cached
	}
	if err := s.check(OpUpdate, payload, current); err != nil {
		s.fail(err)
		return zero, false
	}
	body, err := sanitize.Payload(payload, s.strip...)
	if err != nil {
		s.fail(s.invalid(OpUpdate, err))
		return zero, false
	}
	if _, ok := s.begin(false, nil); !ok {
		return zero, false
	}
	defer s.end()

	resp, err := s.api.Put(ctx, s.itemPath(id), body)
	if opErr := s.classify(OpUpdate, resp, err); opErr != nil {
		s.fail(opErr)
		return zero, false
	}

	updated, err := apiclient.Decode[T](resp)
	if err != nil {
		s.fail(s.malformed(OpUpdate, err))
		return zero, false
	}
	if updated.EntityID() == 0 {
		// No echo: reload the entity so the cache reflects server-side defaults.
		reloaded, ok := s.reload(ctx, id)
		if !ok {
			return zero, true
		}
		updated = reloaded
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return updated, true
	}
	s.replace(updated)
	return updated, true
}

// Delete removes {resource}/{id} on the server and then from the cache.
func (s *Store[T]) Delete(ctx context.Context, id int64) bool {
	if id <= 0 {
		s.fail(s.invalid(OpDelete, errors.New("id is required to delete")))
		return false
	}
	if _, ok := s.begin(false, nil); !ok {
		return false
	}
	defer s.end()

	resp, err := s.api.Delete(ctx, s.itemPath(id))
	if opErr := s.classify(OpDelete, resp, err); opErr != nil {
		s.fail(opErr)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return true
	}
	if i := s.indexOf(id); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
	}
	if s.active != nil && (*s.active).EntityID() == id {
		s.active = nil
	}
	return true
}

// reload GETs a single entity without touching the active entity. Failures
// are logged only; the mutation itself already succeeded.
func (s *Store[T]) reload(ctx context.Context, id int64) (T, bool) {
	var zero T
	resp, err := s.api.Get(ctx, s.itemPath(id), nil)
	if err != nil || !resp.OK {
		s.logger.Warn("reload after update failed", "id", id, "error", err)
		return zero, false
	}
	item, err := apiclient.Decode[T](resp)
	if err != nil || item.EntityID() == 0 {
		s.logger.Warn("reload after update returned no entity", "id", id, "error", err)
		return zero, false
	}
	return item, true
}

// begin marks an operation in flight and clears the error state. For
// FetchAll it also bumps the generation and remembers the filter.
func (s *Store[T]) begin(fetchAll bool, filter url.Values) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return 0, false
	}
	s.inflight++
	s.err = nil
	if fetchAll {
		s.generation++
		s.lastFilter = filter
	}
	return s.generation, true
}

func (s *Store[T]) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
}

func (s *Store[T]) filter() url.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFilter
}

func (s *Store[T]) fail(err *OpError) {
	s.report(err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.err = err
}

// failFetch records a FetchAll failure unless a newer FetchAll was issued
// after generation gen.
func (s *Store[T]) failFetch(gen uint64, err *OpError) {
	s.report(err)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	if gen != s.generation {
		s.logger.Debug("stale fetch failure discarded", "generation", gen, "current", s.generation)
		return
	}
	s.err = err
}

func (s *Store[T]) report(err *OpError) {
	switch err.Kind {
	case KindNetwork:
		s.logger.Error("request failed", "op", err.Op, "error", err.Err)
	case KindAPI:
		s.logger.Warn("api error", "op", err.Op, "status", err.Status, "message", err.Message)
	default:
		s.logger.Debug("validation failed", "op", err.Op, "message", err.Message)
	}
}

func (s *Store[T]) check(op Op, payload T, current *T) *OpError {
	if s.validate == nil {
		return nil
	}
	if err := s.validate(op, payload, current); err != nil {
		return s.invalid(op, err)
	}
	return nil
}

func (s *Store[T]) classify(op Op, resp *apiclient.Response, err error) *OpError {
	return Classify(string(op), s.resource, resp, err)
}

// malformed classifies a decode failure; apiclient.Decode wraps ErrMalformedResponse.
func (s *Store[T]) malformed(op Op, err error) *OpError {
	return Classify(string(op), s.resource, nil, err)
}

func (s *Store[T]) invalid(op Op, err error) *OpError {
	return &OpError{Kind: KindValidation, Op: string(op), Resource: s.resource, Message: err.Error(), Err: err}
}

func (s *Store[T]) itemPath(id int64) string {
	return s.resource + "/" + strconv.FormatInt(id, 10)
}

// indexOf must be called with s.mu held.
func (s *Store[T]) indexOf(id int64) int {
	return slices.IndexFunc(s.items, func(item T) bool { return item.EntityID() == id })
}

// replace must be called with s.mu held.
func (s *Store[T]) replace(item T) {
	if i := s.indexOf(item.EntityID()); i >= 0 {
		s.items[i] = item
	}
	if s.active != nil && (*s.active).EntityID() == item.EntityID() {
		s.active = &item
	}
}
