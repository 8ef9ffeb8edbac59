package gate

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Unit is something a Gate mounts and unmounts: typically a provider that
// owns one or more Gated collections.
type Unit interface {
	Mount(ctx context.Context) error
	Unmount()
}

// Opener is a Unit that can also go live without its initial load.
type Opener interface {
	Unit
	Open()
}

// Gate mounts its Unit while the navigation path matches one of its patterns.
type Gate struct {
	name     string
	patterns []string
	unit     Unit
	logger   *slog.Logger

	mu      sync.Mutex
	mounted bool
}

// New creates a Gate for unit.
func New(name string, patterns []string, unit Unit, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		name:     name,
		patterns: slices.Clone(patterns),
		unit:     unit,
		logger:   logger.With("provider", name),
	}
}

// Name returns the provider name the gate was created with.
func (g *Gate) Name() string { return g.name }

// Patterns returns a copy of the activation patterns.
func (g *Gate) Patterns() []string { return slices.Clone(g.patterns) }

// Mounted reports whether the unit is currently mounted.
func (g *Gate) Mounted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.mounted
}

// Sync mounts or unmounts the unit for path. Staying active on a new path
// does not remount, so cached data survives navigation between pages that
// share a provider.
func (g *Gate) Sync(ctx context.Context, path string) error {
	want := Active(path, g.patterns)

	g.mu.Lock()
	if want == g.mounted {
		g.mu.Unlock()
		return nil
	}
	g.mounted = want
	g.mu.Unlock()

	if !want {
		g.logger.Debug("provider deactivated", "path", path)
		g.unit.Unmount()
		return nil
	}
	g.logger.Debug("provider activated", "path", path)
	return g.unit.Mount(ctx)
}

// Open activates the unit regardless of path. An Opener is opened without
// its initial load; any other unit is mounted normally. Opening an active
// gate does nothing.
func (g *Gate) Open(ctx context.Context) error {
	g.mu.Lock()
	if g.mounted {
		g.mu.Unlock()
		return nil
	}
	g.mounted = true
	g.mu.Unlock()

	g.logger.Debug("provider opened")
	if o, ok := g.unit.(Opener); ok {
		o.Open()
		return nil
	}
	return g.unit.Mount(ctx)
}

// Deactivate unmounts the unit regardless of path.
func (g *Gate) Deactivate() {
	g.mu.Lock()
	was := g.mounted
	g.mounted = false
	g.mu.Unlock()

	if was {
		g.unit.Unmount()
	}
}
