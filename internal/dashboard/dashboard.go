// Package dashboard loads the landing-page widgets. Every widget is optional:
// a missing endpoint renders as its zero value rather than an error.
package dashboard

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/hyperengineering/kennel/internal/fallback"
	"github.com/hyperengineering/kennel/internal/types"
)

// Endpoint paths.
const (
	PathSummary  = "dashboard/summary"
	PathUpcoming = "events/upcoming"
	PathActivity = "dashboard/activity"
)

// Service fetches dashboard widgets through the fallback layer.
type Service struct {
	loader *fallback.Loader
}

// New creates a Service.
func New(loader *fallback.Loader) *Service {
	return &Service{loader: loader}
}

// Summary returns the headline counters, or all zeros.
func (s *Service) Summary(ctx context.Context) (types.DashboardSummary, error) {
	return fallback.Get(ctx, s.loader, PathSummary, nil, types.DashboardSummary{})
}

// UpcomingEvents returns calendar events for the next days days. days <= 0
// leaves the window to the server.
func (s *Service) UpcomingEvents(ctx context.Context, days int) ([]types.Event, error) {
	var q url.Values
	if days > 0 {
		q = url.Values{"days": {strconv.Itoa(days)}}
	}
	return fallback.Get(ctx, s.loader, PathUpcoming, q, []types.Event{})
}

// RecentActivity returns up to limit activity entries. limit <= 0 leaves the
// page size to the server.
func (s *Service) RecentActivity(ctx context.Context, limit int) ([]types.Activity, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	return fallback.Get(ctx, s.loader, PathActivity, q, []types.Activity{})
}

// Snapshot is every widget at once.
type Snapshot struct {
	Summary  types.DashboardSummary `json:"summary"`
	Upcoming []types.Event          `json:"upcoming"`
	Activity []types.Activity       `json:"activity"`
}

// Load fetches all widgets concurrently. The snapshot is always complete;
// the error joins any user-visible widget failures.
func (s *Service) Load(ctx context.Context, days, limit int) (Snapshot, error) {
	var (
		snap                Snapshot
		errSum, errUp, errA error
		g                   errgroup.Group
	)
	g.Go(func() error {
		snap.Summary, errSum = s.Summary(ctx)
		return nil
	})
	g.Go(func() error {
		snap.Upcoming, errUp = s.UpcomingEvents(ctx, days)
		return nil
	})
	g.Go(func() error {
		snap.Activity, errA = s.RecentActivity(ctx, limit)
		return nil
	})
	_ = g.Wait()
	return snap, errors.Join(errSum, errUp, errA)
}
