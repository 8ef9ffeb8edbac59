package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/hyperengineering/kennel/internal/fallback"
	"github.com/hyperengineering/kennel/internal/gate"
	"github.com/hyperengineering/kennel/internal/store"
	"github.com/hyperengineering/kennel/internal/types"
	"github.com/hyperengineering/kennel/internal/validation"
)

var litterStatuses = []string{
	string(types.LitterPlanned),
	string(types.LitterExpected),
	string(types.LitterBorn),
}

// Litters is the litter provider. Puppies are loaded per litter on demand
// and are not cached.
type Litters struct {
	*gate.Gated[types.Litter]
	loader *fallback.Loader
}

// NewLitters creates an unmounted Litters provider. dogs may be nil.
func NewLitters(api store.API, loader *fallback.Loader, dogs GenderLookup, logger *slog.Logger) *Litters {
	return &Litters{
		Gated: gate.NewGated(func() *store.Store[types.Litter] {
			return store.New(api, store.Options[types.Litter]{
				Resource: "litters",
				Validate: litterValidator(dogs),
				Prepend:  true,
				Logger:   logger,
			})
		}),
		loader: loader,
	}
}

// Mount builds the live store and loads the litter list.
func (l *Litters) Mount(ctx context.Context) error {
	l.Gated.Mount(ctx)
	return ctx.Err()
}

// Create adds a litter. An empty status defaults to Planned.
func (l *Litters) Create(ctx context.Context, litter types.Litter) (types.Litter, bool) {
	if litter.Status == "" {
		litter.Status = types.LitterPlanned
	}
	return l.Gated.Create(ctx, litter)
}

// Puppies returns the puppies of a litter. An unmounted provider returns an
// empty list without touching the network.
func (l *Litters) Puppies(ctx context.Context, litterID int64) ([]types.Puppy, error) {
	if !l.Mounted() || litterID <= 0 {
		return []types.Puppy{}, nil
	}
	path := "litters/" + strconv.FormatInt(litterID, 10) + "/puppies"
	return fallback.Get(ctx, l.loader, path, nil, []types.Puppy{})
}

// ValidateLitter checks a litter without gender information.
func ValidateLitter(op store.Op, l types.Litter, current *types.Litter) error {
	return litterValidator(nil)(op, l, current)
}

// litterValidator enforces the Planned → Expected → Born progression: a
// litter may skip ahead but never move back.
func litterValidator(dogs GenderLookup) store.Validator[types.Litter] {
	return func(_ store.Op, l types.Litter, current *types.Litter) error {
		var c validation.Collector
		c.Add(validation.ValidateRequired("litter_name", l.LitterName))
		c.Add(validation.ValidateEnum("status", string(l.Status), litterStatuses))
		if current != nil && current.Status.Rank() > l.Status.Rank() && l.Status.Rank() >= 0 {
			c.Add(&validation.ValidationError{
				Field:   "status",
				Message: fmt.Sprintf("cannot move from %s back to %s", current.Status, l.Status),
			})
		}
		if l.Price.IsNegative() {
			c.Add(&validation.ValidationError{Field: "price", Message: "must not be negative"})
		}
		if l.Deposit.IsNegative() {
			c.Add(&validation.ValidationError{Field: "deposit", Message: "must not be negative"})
		}
		if !l.Price.IsZero() && l.Deposit.GreaterThan(l.Price) {
			c.Add(&validation.ValidationError{Field: "deposit", Message: "must not exceed price"})
		}
		if dogs != nil && l.DamID > 0 {
			c.Add(requireGender(dogs, "dam_id", l.DamID, types.GenderFemale))
		}
		if dogs != nil && l.SireID > 0 {
			c.Add(requireGender(dogs, "sire_id", l.SireID, types.GenderMale))
		}
		return c.Err()
	}
}
