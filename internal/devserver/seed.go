package devserver

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/hyperengineering/kennel/internal/types"
)

// Seed loads a small sample kennel: two dams, a sire, a heat, a litter with
// puppies, and a vaccination.
func (s *Server) Seed() error {
	luna, err := s.Insert("dogs", types.Dog{RegisteredName: "Goldhaven Luna", CallName: "Luna", Gender: types.GenderFemale, Status: "Active"})
	if err != nil {
		return err
	}
	bella, err := s.Insert("dogs", types.Dog{RegisteredName: "Goldhaven Bella", CallName: "Bella", Gender: types.GenderFemale, Status: "Active"})
	if err != nil {
		return err
	}
	rex, err := s.Insert("dogs", types.Dog{RegisteredName: "Riverside Max", CallName: "Max", Gender: types.GenderMale, Status: "Active"})
	if err != nil {
		return err
	}

	mating := types.NewDate(2025, time.February, 14)
	due := mating.AddDays(63)
	if _, err := s.Insert("heats", types.Heat{
		DogID:             bella,
		StartDate:         types.NewDate(2025, time.February, 3),
		MatingDate:        &mating,
		SireID:            &rex,
		ExpectedWhelpDate: &due,
	}); err != nil {
		return err
	}

	born := types.NewDate(2024, time.November, 2)
	litter, err := s.Insert("litters", types.Litter{
		LitterName: "Luna x Max 2024",
		DamID:      luna,
		SireID:     rex,
		Status:     types.LitterBorn,
		BirthDate:  &born,
		Price:      decimal.NewFromInt(2500),
		Deposit:    decimal.NewFromInt(500),
	})
	if err != nil {
		return err
	}
	for _, p := range []types.Puppy{
		{LitterID: litter, Name: "Sunny", Gender: types.GenderFemale, Status: "Available", Price: decimal.NewFromInt(2500)},
		{LitterID: litter, Name: "Copper", Gender: types.GenderMale, Status: "Reserved", Price: decimal.NewFromInt(2500)},
	} {
		if _, err := s.Insert("puppies", p); err != nil {
			return err
		}
	}

	_, err = s.Insert("health/vaccinations", types.Vaccination{
		Subject:        types.ForDog(luna),
		VaccineName:    "Rabies",
		AdministeredOn: types.NewDate(2024, time.June, 1),
	})
	return err
}
