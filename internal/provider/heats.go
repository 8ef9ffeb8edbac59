package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hyperengineering/kennel/internal/gate"
	"github.com/hyperengineering/kennel/internal/store"
	"github.com/hyperengineering/kennel/internal/types"
	"github.com/hyperengineering/kennel/internal/validation"
)

// GestationDays is the canine gestation period used for whelp estimates.
const GestationDays = 63

// GenderLookup resolves a dog's gender from a cache. ok is false when the
// dog is not known, in which case eligibility checks are skipped.
type GenderLookup interface {
	Gender(id int64) (g types.Gender, ok bool)
}

// Heats is the heat-cycle provider.
type Heats struct {
	*gate.Gated[types.Heat]
}

// NewHeats creates an unmounted Heats provider. dogs may be nil.
func NewHeats(api store.API, dogs GenderLookup, logger *slog.Logger) *Heats {
	return &Heats{
		Gated: gate.NewGated(func() *store.Store[types.Heat] {
			return store.New(api, store.Options[types.Heat]{
				Resource: "heats",
				Validate: heatValidator(dogs),
				Logger:   logger,
			})
		}),
	}
}

// Mount builds the live store and loads the heat list.
func (h *Heats) Mount(ctx context.Context) error {
	h.Gated.Mount(ctx)
	return ctx.Err()
}

// Create logs a new heat cycle, filling in the expected whelp date when a
// mating date is known.
func (h *Heats) Create(ctx context.Context, heat types.Heat) (types.Heat, bool) {
	return h.Gated.Create(ctx, withWhelpDate(heat))
}

// Update records newly known dates on a heat cycle.
func (h *Heats) Update(ctx context.Context, heat types.Heat) (types.Heat, bool) {
	return h.Gated.Update(ctx, withWhelpDate(heat))
}

// ExpectedWhelpDate returns the estimated whelping date for a mating date.
func ExpectedWhelpDate(mating types.Date) types.Date {
	return mating.AddDays(GestationDays)
}

func withWhelpDate(h types.Heat) types.Heat {
	if h.MatingDate != nil && !h.MatingDate.IsZero() && (h.ExpectedWhelpDate == nil || h.ExpectedWhelpDate.IsZero()) {
		due := ExpectedWhelpDate(*h.MatingDate)
		h.ExpectedWhelpDate = &due
	}
	return h
}

// ValidateHeat checks a heat cycle without gender information.
func ValidateHeat(op store.Op, h types.Heat, current *types.Heat) error {
	return heatValidator(nil)(op, h, current)
}

func heatValidator(dogs GenderLookup) store.Validator[types.Heat] {
	return func(_ store.Op, h types.Heat, _ *types.Heat) error {
		var c validation.Collector
		c.Add(validation.ValidateID("dog_id", h.DogID))
		c.Add(validation.ValidateDateSet("start_date", h.StartDate.Time))
		if h.EndDate != nil {
			c.Add(validation.ValidateNotBefore("end_date", h.StartDate.Time, h.EndDate.Time))
		}
		if h.MatingDate != nil {
			c.Add(validation.ValidateNotBefore("mating_date", h.StartDate.Time, h.MatingDate.Time))
		}
		if h.SireID != nil && (h.MatingDate == nil || h.MatingDate.IsZero()) {
			c.Add(&validation.ValidationError{Field: "sire_id", Message: "requires mating_date"})
		}
		if dogs != nil && h.DogID > 0 {
			c.Add(requireGender(dogs, "dog_id", h.DogID, types.GenderFemale))
		}
		if dogs != nil && h.SireID != nil {
			c.Add(requireGender(dogs, "sire_id", *h.SireID, types.GenderMale))
		}
		return c.Err()
	}
}

func requireGender(dogs GenderLookup, field string, id int64, want types.Gender) *validation.ValidationError {
	got, ok := dogs.Gender(id)
	if !ok || got == want {
		return nil
	}
	return &validation.ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must reference a %s dog", want),
	}
}
