package types

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Gender of a dog. Only Female dogs are eligible as dams or for heat tracking,
// only Male dogs as sires.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
)

// LitterStatus represents where a litter is in its lifecycle
type LitterStatus string

const (
	LitterPlanned  LitterStatus = "Planned"
	LitterExpected LitterStatus = "Expected"
	LitterBorn     LitterStatus = "Born"
)

// Rank returns the position of the status in the Planned → Expected → Born
// progression, or -1 for an unknown status.
func (s LitterStatus) Rank() int {
	switch s {
	case LitterPlanned:
		return 0
	case LitterExpected:
		return 1
	case LitterBorn:
		return 2
	default:
		return -1
	}
}

// Dog is a dog owned or tracked by the kennel.
type Dog struct {
	ID             int64   `json:"id,omitempty"`
	RegisteredName string  `json:"registered_name"`
	CallName       string  `json:"call_name,omitempty"`
	Gender         Gender  `json:"gender"`
	BreedID        int64   `json:"breed_id,omitempty"`
	Status         string  `json:"status,omitempty"`
	CoverPhoto     *string `json:"cover_photo"`
	DateOfBirth    *Date   `json:"date_of_birth,omitempty"`
	Color          string  `json:"color,omitempty"`
	Microchip      string  `json:"microchip,omitempty"`
	DamID          *int64  `json:"dam_id,omitempty"`
	SireID         *int64  `json:"sire_id,omitempty"`
	Notes          string  `json:"notes,omitempty"`

	// Joined display fields, populated on read only.
	BreedName string          `json:"breed_name,omitempty"`
	BreedInfo json.RawMessage `json:"breed_info,omitempty"`
	DamName   string          `json:"dam_name,omitempty"`
	SireName  string          `json:"sire_name,omitempty"`
}

// EntityID returns the server-assigned ID.
func (d Dog) EntityID() int64 { return d.ID }

// Heat is a logged heat cycle of a Female dog.
type Heat struct {
	ID                int64  `json:"id,omitempty"`
	DogID             int64  `json:"dog_id"`
	StartDate         Date   `json:"start_date"`
	EndDate           *Date  `json:"end_date,omitempty"`
	MatingDate        *Date  `json:"mating_date,omitempty"`
	SireID            *int64 `json:"sire_id,omitempty"`
	ExpectedWhelpDate *Date  `json:"expected_whelp_date,omitempty"`
	Notes             string `json:"notes,omitempty"`

	DogName  string          `json:"dog_name,omitempty"`
	SireName string          `json:"sire_name,omitempty"`
	DogInfo  json.RawMessage `json:"dog_info,omitempty"`
}

// EntityID returns the server-assigned ID.
func (h Heat) EntityID() int64 { return h.ID }

// Litter is a planned, expected or born litter.
type Litter struct {
	ID         int64           `json:"id,omitempty"`
	LitterName string          `json:"litter_name"`
	DamID      int64           `json:"dam_id,omitempty"`
	SireID     int64           `json:"sire_id,omitempty"`
	BreedID    int64           `json:"breed_id,omitempty"`
	Status     LitterStatus    `json:"status"`
	BirthDate  *Date           `json:"birth_date,omitempty"`
	WhelpDate  *Date           `json:"whelp_date,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Deposit    decimal.Decimal `json:"deposit"`
	NumPuppies int             `json:"num_puppies"`
	CoverPhoto *string         `json:"cover_photo"`

	DamName   string          `json:"dam_name,omitempty"`
	SireName  string          `json:"sire_name,omitempty"`
	BreedName string          `json:"breed_name,omitempty"`
	DamInfo   json.RawMessage `json:"dam_info,omitempty"`
	SireInfo  json.RawMessage `json:"sire_info,omitempty"`
	BreedInfo json.RawMessage `json:"breed_info,omitempty"`
}

// EntityID returns the server-assigned ID.
func (l Litter) EntityID() int64 { return l.ID }

// Puppy belongs to a litter. Puppies are fetched per litter and never cached.
type Puppy struct {
	ID         int64           `json:"id"`
	LitterID   int64           `json:"litter_id"`
	Name       string          `json:"name"`
	Gender     Gender          `json:"gender"`
	Color      string          `json:"color,omitempty"`
	Status     string          `json:"status,omitempty"`
	Price      decimal.Decimal `json:"price"`
	CustomerID *int64          `json:"customer_id,omitempty"`
	OwnerName  string          `json:"owner_name,omitempty"`
}

// Subject identifies the animal a health entry belongs to. Exactly one of
// DogID or PuppyID is set in valid data.
type Subject struct {
	DogID   *int64 `json:"dog_id,omitempty"`
	PuppyID *int64 `json:"puppy_id,omitempty"`
}

// ForDog returns a Subject for a dog.
func ForDog(id int64) Subject { return Subject{DogID: &id} }

// ForPuppy returns a Subject for a puppy.
func ForPuppy(id int64) Subject { return Subject{PuppyID: &id} }

// HealthRecord is a general health entry (exam, surgery, test result).
type HealthRecord struct {
	ID int64 `json:"id,omitempty"`
	Subject
	RecordType string `json:"record_type"`
	RecordDate Date   `json:"record_date"`
	Title      string `json:"title,omitempty"`
	VetName    string `json:"vet_name,omitempty"`
	Notes      string `json:"notes,omitempty"`

	DogName   string          `json:"dog_name,omitempty"`
	PuppyName string          `json:"puppy_name,omitempty"`
	DogInfo   json.RawMessage `json:"dog_info,omitempty"`
	PuppyInfo json.RawMessage `json:"puppy_info,omitempty"`
}

// EntityID returns the server-assigned ID.
func (r HealthRecord) EntityID() int64 { return r.ID }

// Vaccination is an administered vaccine.
type Vaccination struct {
	ID int64 `json:"id,omitempty"`
	Subject
	VaccineName    string `json:"vaccine_name"`
	AdministeredOn Date   `json:"administration_date"`
	NextDueDate    *Date  `json:"next_due_date,omitempty"`
	LotNumber      string `json:"lot_number,omitempty"`
	Notes          string `json:"notes,omitempty"`

	DogName   string `json:"dog_name,omitempty"`
	PuppyName string `json:"puppy_name,omitempty"`
}

// EntityID returns the server-assigned ID.
func (v Vaccination) EntityID() int64 { return v.ID }

// MedicationRecord is a course of medication.
type MedicationRecord struct {
	ID int64 `json:"id,omitempty"`
	Subject
	MedicationName string `json:"medication_name"`
	Dosage         string `json:"dosage,omitempty"`
	StartDate      Date   `json:"start_date"`
	EndDate        *Date  `json:"end_date,omitempty"`
	Notes          string `json:"notes,omitempty"`

	DogName   string `json:"dog_name,omitempty"`
	PuppyName string `json:"puppy_name,omitempty"`
}

// EntityID returns the server-assigned ID.
func (m MedicationRecord) EntityID() int64 { return m.ID }

// HealthCondition is a diagnosed, ongoing condition.
type HealthCondition struct {
	ID int64 `json:"id,omitempty"`
	Subject
	ConditionName string `json:"condition_name"`
	DiagnosisDate Date   `json:"diagnosis_date"`
	Resolved      bool   `json:"resolved"`
	Notes         string `json:"notes,omitempty"`

	DogName   string `json:"dog_name,omitempty"`
	PuppyName string `json:"puppy_name,omitempty"`
}

// EntityID returns the server-assigned ID.
func (c HealthCondition) EntityID() int64 { return c.ID }

// DashboardSummary holds the counters shown on the dashboard landing page.
// The zero value is the documented fallback.
type DashboardSummary struct {
	TotalDogs        int             `json:"total_dogs"`
	ActiveLitters    int             `json:"active_litters"`
	UpcomingHeats    int             `json:"upcoming_heats"`
	AvailablePuppies int             `json:"available_puppies"`
	ReservedPuppies  int             `json:"reserved_puppies"`
	Revenue          decimal.Decimal `json:"revenue"`
}

// Event is a calendar entry (whelping, vet visit, heat start).
type Event struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	EventType string    `json:"event_type"`
	StartsAt  time.Time `json:"starts_at"`
	DogID     *int64    `json:"dog_id,omitempty"`
	LitterID  *int64    `json:"litter_id,omitempty"`
}

// Activity is an entry in the dashboard's recent-activity feed.
type Activity struct {
	ID          int64     `json:"id"`
	Action      string    `json:"action"`
	EntityType  string    `json:"entity_type"`
	EntityID    int64     `json:"entity_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
