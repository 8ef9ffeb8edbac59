// Package provider wires one gated store per kennel entity family and the
// Tree that mounts them for the current navigation path.
package provider

import (
	"context"
	"log/slog"

	"github.com/hyperengineering/kennel/internal/gate"
	"github.com/hyperengineering/kennel/internal/store"
	"github.com/hyperengineering/kennel/internal/types"
	"github.com/hyperengineering/kennel/internal/validation"
)

// Dogs is the dog provider. It is also the source of truth for gender
// eligibility used by the heat and litter providers.
type Dogs struct {
	*gate.Gated[types.Dog]
}

// NewDogs creates an unmounted Dogs provider.
func NewDogs(api store.API, logger *slog.Logger) *Dogs {
	return &Dogs{
		Gated: gate.NewGated(func() *store.Store[types.Dog] {
			return store.New(api, store.Options[types.Dog]{
				Resource: "dogs",
				Validate: ValidateDog,
				Logger:   logger,
			})
		}),
	}
}

// Mount builds the live store and loads the dog list.
func (d *Dogs) Mount(ctx context.Context) error {
	d.Gated.Mount(ctx)
	return ctx.Err()
}

// Females returns the cached dogs eligible as dams or for heat tracking.
func (d *Dogs) Females() []types.Dog {
	return d.byGender(types.GenderFemale)
}

// Males returns the cached dogs eligible as sires.
func (d *Dogs) Males() []types.Dog {
	return d.byGender(types.GenderMale)
}

// Gender returns the gender of a cached dog.
func (d *Dogs) Gender(id int64) (types.Gender, bool) {
	for _, dog := range d.Items() {
		if dog.ID == id {
			return dog.Gender, true
		}
	}
	return "", false
}

func (d *Dogs) byGender(g types.Gender) []types.Dog {
	out := []types.Dog{}
	for _, dog := range d.Items() {
		if dog.Gender == g {
			out = append(out, dog)
		}
	}
	return out
}

// ValidateDog checks a dog before create or update.
func ValidateDog(_ store.Op, d types.Dog, _ *types.Dog) error {
	var c validation.Collector
	c.Add(validation.ValidateRequired("registered_name", d.RegisteredName))
	c.Add(validation.ValidateMaxLength("registered_name", d.RegisteredName, 200))
	c.Add(validation.ValidateEnum("gender", string(d.Gender), genders))
	return c.Err()
}

var genders = []string{string(types.GenderMale), string(types.GenderFemale)}
