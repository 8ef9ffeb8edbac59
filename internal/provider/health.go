package provider

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/hyperengineering/kennel/internal/gate"
	"github.com/hyperengineering/kennel/internal/store"
	"github.com/hyperengineering/kennel/internal/types"
	"github.com/hyperengineering/kennel/internal/validation"
)

// Health resource paths.
const (
	ResourceHealthRecords = "health/records"
	ResourceVaccinations  = "health/vaccinations"
	ResourceMedications   = "health/medications"
	ResourceConditions    = "health/conditions"
)

// Health groups the four health collections. They mount and unmount together.
type Health struct {
	Records      *gate.Gated[types.HealthRecord]
	Vaccinations *gate.Gated[types.Vaccination]
	Medications  *gate.Gated[types.MedicationRecord]
	Conditions   *gate.Gated[types.HealthCondition]
}

// History is a snapshot of one animal's health entries.
type History struct {
	Records      []types.HealthRecord     `json:"records"`
	Vaccinations []types.Vaccination      `json:"vaccinations"`
	Medications  []types.MedicationRecord `json:"medications"`
	Conditions   []types.HealthCondition  `json:"conditions"`
}

// NewHealth creates an unmounted Health provider.
func NewHealth(api store.API, logger *slog.Logger) *Health {
	return &Health{
		Records: gate.NewGated(func() *store.Store[types.HealthRecord] {
			return store.New(api, store.Options[types.HealthRecord]{
				Resource: ResourceHealthRecords,
				Prepend:  true,
				Logger:   logger,
				Validate: func(_ store.Op, r types.HealthRecord, _ *types.HealthRecord) error {
					return validateEntry(r.Subject,
						validation.ValidateRequired("record_type", r.RecordType),
						validation.ValidateDateSet("record_date", r.RecordDate.Time))
				},
			})
		}),
		Vaccinations: gate.NewGated(func() *store.Store[types.Vaccination] {
			return store.New(api, store.Options[types.Vaccination]{
				Resource: ResourceVaccinations,
				Prepend:  true,
				Logger:   logger,
				Validate: func(_ store.Op, v types.Vaccination, _ *types.Vaccination) error {
					var due *validation.ValidationError
					if v.NextDueDate != nil {
						due = validation.ValidateNotBefore("next_due_date", v.AdministeredOn.Time, v.NextDueDate.Time)
					}
					return validateEntry(v.Subject,
						validation.ValidateRequired("vaccine_name", v.VaccineName),
						validation.ValidateDateSet("administration_date", v.AdministeredOn.Time),
						due)
				},
			})
		}),
		Medications: gate.NewGated(func() *store.Store[types.MedicationRecord] {
			return store.New(api, store.Options[types.MedicationRecord]{
				Resource: ResourceMedications,
				Prepend:  true,
				Logger:   logger,
				Validate: func(_ store.Op, m types.MedicationRecord, _ *types.MedicationRecord) error {
					var end *validation.ValidationError
					if m.EndDate != nil {
						end = validation.ValidateNotBefore("end_date", m.StartDate.Time, m.EndDate.Time)
					}
					return validateEntry(m.Subject,
						validation.ValidateRequired("medication_name", m.MedicationName),
						validation.ValidateDateSet("start_date", m.StartDate.Time),
						end)
				},
			})
		}),
		Conditions: gate.NewGated(func() *store.Store[types.HealthCondition] {
			return store.New(api, store.Options[types.HealthCondition]{
				Resource: ResourceConditions,
				Prepend:  true,
				Logger:   logger,
				Validate: func(_ store.Op, c types.HealthCondition, _ *types.HealthCondition) error {
					return validateEntry(c.Subject,
						validation.ValidateRequired("condition_name", c.ConditionName),
						validation.ValidateDateSet("diagnosis_date", c.DiagnosisDate.Time))
				},
			})
		}),
	}
}

// Mount builds the four live stores and loads them concurrently.
func (h *Health) Mount(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { h.Records.Mount(ctx); return nil })
	g.Go(func() error { h.Vaccinations.Mount(ctx); return nil })
	g.Go(func() error { h.Medications.Mount(ctx); return nil })
	g.Go(func() error { h.Conditions.Mount(ctx); return nil })
	_ = g.Wait()
	return ctx.Err()
}

// Open builds the four live stores without loading them. ForSubject then
// loads only one animal's entries.
func (h *Health) Open() {
	h.Records.Open()
	h.Vaccinations.Open()
	h.Medications.Open()
	h.Conditions.Open()
}

// Unmount disposes all four stores.
func (h *Health) Unmount() {
	h.Records.Unmount()
	h.Vaccinations.Unmount()
	h.Medications.Unmount()
	h.Conditions.Unmount()
}

// Mounted reports whether the provider is live.
func (h *Health) Mounted() bool {
	return h.Records.Mounted()
}

// Loading reports whether any of the collections has a request in flight.
func (h *Health) Loading() bool {
	return h.Records.Loading() || h.Vaccinations.Loading() || h.Medications.Loading() || h.Conditions.Loading()
}

// Err returns the first error among the four collections.
func (h *Health) Err() error {
	for _, err := range []error{h.Records.Err(), h.Vaccinations.Err(), h.Medications.Err(), h.Conditions.Err()} {
		if err != nil {
			return err
		}
	}
	return nil
}

// ForSubject reloads all four collections filtered to one dog or puppy and
// returns the result. A collection whose fetch fails contributes no entries,
// since its cached items may belong to another animal; the failure is
// reported through the returned error and Err.
func (h *Health) ForSubject(ctx context.Context, subject types.Subject) (History, error) {
	filter, err := subjectFilter(subject)
	if err != nil {
		return History{}, err
	}

	var g errgroup.Group
	g.Go(func() error { h.Records.FetchAll(ctx, filter); return nil })
	g.Go(func() error { h.Vaccinations.FetchAll(ctx, filter); return nil })
	g.Go(func() error { h.Medications.FetchAll(ctx, filter); return nil })
	g.Go(func() error { h.Conditions.FetchAll(ctx, filter); return nil })
	_ = g.Wait()

	return History{
		Records:      fetched(h.Records),
		Vaccinations: fetched(h.Vaccinations),
		Medications:  fetched(h.Medications),
		Conditions:   fetched(h.Conditions),
	}, h.Err()
}

// fetched returns c's items, or an empty slice when its last load failed.
func fetched[T store.Entity](c store.Collection[T]) []T {
	if c.Err() != nil {
		return []T{}
	}
	return c.Items()
}

func subjectFilter(s types.Subject) (url.Values, error) {
	if err := validateSubject(s); err != nil {
		return nil, err
	}
	if s.DogID != nil {
		return url.Values{"dog_id": {strconv.FormatInt(*s.DogID, 10)}}, nil
	}
	return url.Values{"puppy_id": {strconv.FormatInt(*s.PuppyID, 10)}}, nil
}

func validateSubject(s types.Subject) error {
	var c validation.Collector
	c.Add(validation.ValidateExactlyOne("dog_id", s.DogID != nil, "puppy_id", s.PuppyID != nil))
	if s.DogID != nil {
		c.Add(validation.ValidateID("dog_id", *s.DogID))
	}
	if s.PuppyID != nil {
		c.Add(validation.ValidateID("puppy_id", *s.PuppyID))
	}
	return c.Err()
}

func validateEntry(s types.Subject, checks ...*validation.ValidationError) error {
	var c validation.Collector
	c.Add(validation.ValidateExactlyOne("dog_id", s.DogID != nil, "puppy_id", s.PuppyID != nil))
	for _, check := range checks {
		c.Add(check)
	}
	return c.Err()
}
