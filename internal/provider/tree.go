package provider

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hyperengineering/kennel/internal/apiclient"
	"github.com/hyperengineering/kennel/internal/fallback"
	"github.com/hyperengineering/kennel/internal/gate"
)

// Provider names used in Routes.
const (
	NameDogs    = "dogs"
	NameHeats   = "heats"
	NameLitters = "litters"
	NameHealth  = "health"
)

// Routes maps a provider name to the path patterns that activate it.
type Routes map[string][]string

// DefaultRoutes returns the activation table used when configuration does
// not override a provider.
func DefaultRoutes() Routes {
	return Routes{
		NameDogs:    {"/dogs", "/dogs/*", "/heats", "/heats/*", "/litters", "/litters/*", "/dashboard"},
		NameHeats:   {"/heats", "/heats/*", "/dashboard", "/calendar"},
		NameLitters: {"/litters", "/litters/*", "/puppies/*", "/dashboard"},
		NameHealth:  {"/dogs/*", "/puppies/*", "/health", "/health/*"},
	}
}

// Merge returns a copy of r with entries from override replacing whole
// provider lists.
func (r Routes) Merge(override Routes) Routes {
	out := make(Routes, len(r))
	for name, patterns := range r {
		out[name] = slices.Clone(patterns)
	}
	for name, patterns := range override {
		out[name] = slices.Clone(patterns)
	}
	return out
}

// Tree is the composition root: it owns every provider and mounts the ones
// the current path needs.
type Tree struct {
	Dogs    *Dogs
	Heats   *Heats
	Litters *Litters
	Health  *Health

	routes Routes
	logger *slog.Logger

	mu    sync.RWMutex
	gates map[string]*gate.Gate
	order []string
}

// NewTree builds all providers on top of c. Nothing is fetched until the
// first Navigate.
func NewTree(c *apiclient.Client, routes Routes, logger *slog.Logger) *Tree {
	if logger == nil {
		logger = slog.Default()
	}
	routes = DefaultRoutes().Merge(routes)

	dogs := NewDogs(c, logger)
	t := &Tree{
		Dogs:    dogs,
		Heats:   NewHeats(c, dogs, logger),
		Litters: NewLitters(c, fallback.ForClient(c, logger), dogs, logger),
		Health:  NewHealth(c, logger),
		routes:  routes,
		logger:  logger,
		gates:   make(map[string]*gate.Gate),
	}
	t.Register(NameDogs, t.Dogs)
	t.Register(NameHeats, t.Heats)
	t.Register(NameLitters, t.Litters)
	t.Register(NameHealth, t.Health)
	return t
}

// Register adds a unit under name, activated by the routes configured for
// that name. Panics if name is already registered.
func (t *Tree) Register(name string, unit gate.Unit) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.gates[name]; exists {
		panic("provider already registered: " + name)
	}
	t.gates[name] = gate.New(name, t.routes[name], unit, t.logger)
	t.order = append(t.order, name)
}

// Navigate syncs every provider with path. Providers that become active
// mount and perform their initial fetch concurrently.
func (t *Tree) Navigate(ctx context.Context, path string) error {
	t.mu.RLock()
	gates := make([]*gate.Gate, 0, len(t.order))
	for _, name := range t.order {
		gates = append(gates, t.gates[name])
	}
	t.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, gt := range gates {
		gt := gt
		g.Go(func() error {
			return gt.Sync(ctx, path)
		})
	}
	return g.Wait()
}

// Open activates one provider regardless of the current path. Providers
// that support it go live without their initial fetch, for callers that
// load a filtered view themselves.
func (t *Tree) Open(ctx context.Context, name string) error {
	t.mu.RLock()
	gt, ok := t.gates[name]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown provider %q", name)
	}
	return gt.Open(ctx)
}

// Attach subscribes the tree to nav and syncs it with nav's current path.
// The returned function detaches it.
func (t *Tree) Attach(ctx context.Context, nav *gate.Navigator) (func(), error) {
	detach := nav.Subscribe(t.Navigate)
	return detach, t.Navigate(ctx, nav.Path())
}

// Active returns the names of the mounted providers, sorted.
func (t *Tree) Active() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []string
	for name, g := range t.gates {
		if g.Mounted() {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Routes returns the effective activation table.
func (t *Tree) Routes() Routes {
	return Routes{}.Merge(t.routes)
}

// Close unmounts every provider.
func (t *Tree) Close() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, name := range t.order {
		t.gates[name].Deactivate()
	}
}
