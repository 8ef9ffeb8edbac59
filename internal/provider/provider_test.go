package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hyperengineering/kennel/internal/apiclient"
	"github.com/hyperengineering/kennel/internal/devserver"
	"github.com/hyperengineering/kennel/internal/gate"
	"github.com/hyperengineering/kennel/internal/store"
	"github.com/hyperengineering/kennel/internal/types"
	"github.com/hyperengineering/kennel/internal/validation"
)

const testToken = "provider-test-token"

func newSeededClient(t *testing.T) (*apiclient.Client, *devserver.Server) {
	t.Helper()
	srv := devserver.New(devserver.Config{Token: testToken})
	if err := srv.Seed(); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c, err := apiclient.New(apiclient.Config{BaseURL: ts.URL + "/api", Token: testToken})
	if err != nil {
		t.Fatalf("apiclient.New() error = %v", err)
	}
	return c, srv
}

// newWrappedClient is newSeededClient with wrap placed in front of the
// server's handler.
func newWrappedClient(t *testing.T, wrap func(http.Handler) http.Handler) *apiclient.Client {
	t.Helper()
	srv := devserver.New(devserver.Config{Token: testToken})
	if err := srv.Seed(); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	ts := httptest.NewServer(wrap(srv.Handler()))
	t.Cleanup(ts.Close)

	c, err := apiclient.New(apiclient.Config{BaseURL: ts.URL + "/api", Token: testToken})
	if err != nil {
		t.Fatalf("apiclient.New() error = %v", err)
	}
	return c
}

func TestTree_NavigateMountsByRoute(t *testing.T) {
	c, _ := newSeededClient(t)
	tree := NewTree(c, nil, nil)
	ctx := context.Background()

	tests := []struct {
		path string
		want []string
	}{
		{"/customers", nil},
		{"/dogs", []string{NameDogs}},
		{"/dogs/1", []string{NameDogs, NameHealth}},
		{"/dashboard", []string{NameDogs, NameHeats, NameLitters}},
		{"/calendar", []string{NameHeats}},
		{"/puppies/4", []string{NameHealth, NameLitters}},
	}

	for _, tt := range tests {
		if err := tree.Navigate(ctx, tt.path); err != nil {
			t.Fatalf("Navigate(%q) error = %v", tt.path, err)
		}
		if got := tree.Active(); !slices.Equal(got, tt.want) {
			t.Errorf("Navigate(%q): Active() = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestTree_InactiveProvidersAreInert(t *testing.T) {
	c, srv := newSeededClient(t)
	tree := NewTree(c, nil, nil)
	ctx := context.Background()

	tree.Navigate(ctx, "/calendar")

	if len(tree.Dogs.Items()) != 0 {
		t.Error("inactive dogs provider exposes items")
	}
	if _, ok := tree.Dogs.Create(ctx, types.Dog{RegisteredName: "Ghost", Gender: types.GenderMale}); ok {
		t.Error("inactive dogs provider accepted Create")
	}
	if srv.Count("dogs") != 3 {
		t.Errorf("server dogs = %d, want 3 (no write)", srv.Count("dogs"))
	}
	if len(tree.Heats.Items()) != 1 {
		t.Errorf("heats items = %d, want 1", len(tree.Heats.Items()))
	}
}

func TestTree_RoutesOverride(t *testing.T) {
	c, _ := newSeededClient(t)
	tree := NewTree(c, Routes{NameHealth: {"*"}}, nil)

	tree.Navigate(context.Background(), "/customers")

	if got := tree.Active(); !slices.Equal(got, []string{NameHealth}) {
		t.Errorf("Active() = %v, want [health]", got)
	}
	if got := tree.Routes()[NameDogs]; len(got) != len(DefaultRoutes()[NameDogs]) {
		t.Errorf("dogs routes = %v, want defaults kept", got)
	}
}

func TestTree_DeactivateDisposes(t *testing.T) {
	c, _ := newSeededClient(t)
	tree := NewTree(c, nil, nil)
	ctx := context.Background()

	tree.Navigate(ctx, "/dogs")
	live := tree.Dogs.Live()
	tree.Navigate(ctx, "/customers")

	if !live.Disposed() {
		t.Error("dogs store not disposed after navigating away")
	}
	tree.Navigate(ctx, "/dogs")
	tree.Close()
	if len(tree.Active()) != 0 {
		t.Errorf("Active() = %v after Close", tree.Active())
	}
}

func TestTree_AttachFollowsNavigator(t *testing.T) {
	c, _ := newSeededClient(t)
	tree := NewTree(c, nil, nil)
	ctx := context.Background()

	nav := gate.NewNavigator("/litters")
	detach, err := tree.Attach(ctx, nav)
	if err != nil {
		t.Fatalf("Attach() error = %v", err)
	}
	if !slices.Contains(tree.Active(), NameLitters) {
		t.Errorf("Active() = %v, want litters after Attach", tree.Active())
	}

	nav.Navigate(ctx, "/health")
	if got := tree.Active(); !slices.Equal(got, []string{NameHealth}) {
		t.Errorf("Active() = %v, want [health]", got)
	}

	detach()
	nav.Navigate(ctx, "/dogs")
	if slices.Contains(tree.Active(), NameDogs) {
		t.Error("detached tree still follows navigator")
	}
}

func TestTree_RegisterDuplicatePanics(t *testing.T) {
	c, _ := newSeededClient(t)
	tree := NewTree(c, nil, nil)

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate registration")
		}
	}()
	tree.Register(NameDogs, tree.Dogs)
}

func TestDogs_GenderFilters(t *testing.T) {
	c, _ := newSeededClient(t)
	dogs := NewDogs(c, nil)
	dogs.Mount(context.Background())

	if got := len(dogs.Females()); got != 2 {
		t.Errorf("len(Females) = %d, want 2", got)
	}
	males := dogs.Males()
	if len(males) != 1 || males[0].CallName != "Max" {
		t.Errorf("Males() = %+v", males)
	}
	if g, ok := dogs.Gender(1); !ok || g != types.GenderFemale {
		t.Errorf("Gender(1) = %q, %v", g, ok)
	}
	if _, ok := dogs.Gender(99); ok {
		t.Error("Gender(99) ok = true")
	}
}

func TestDogs_CreateAndUpdateAgainstServer(t *testing.T) {
	c, srv := newSeededClient(t)
	dogs := NewDogs(c, nil)
	ctx := context.Background()
	dogs.Mount(ctx)

	// Round-trip a decorated entity: the server would reject dam_name.
	luna := dogs.Items()[0]
	child, ok := dogs.Create(ctx, types.Dog{
		RegisteredName: "Goldhaven Sol",
		Gender:         types.GenderMale,
		DamID:          &luna.ID,
		DamName:        "Goldhaven Luna",
	})
	if !ok {
		t.Fatalf("Create() ok = false, Err = %v", dogs.Err())
	}
	if child.DamName != "Goldhaven Luna" {
		t.Errorf("DamName = %q, want server decoration", child.DamName)
	}
	if srv.Count("dogs") != 4 {
		t.Errorf("server dogs = %d, want 4", srv.Count("dogs"))
	}

	child.CallName = "Sol"
	updated, ok := dogs.Update(ctx, child)
	if !ok {
		t.Fatalf("Update() ok = false, Err = %v", dogs.Err())
	}
	if updated.CallName != "Sol" {
		t.Errorf("CallName = %q", updated.CallName)
	}
}

func TestValidateDog(t *testing.T) {
	tests := []struct {
		name    string
		dog     types.Dog
		wantErr bool
	}{
		{name: "valid", dog: types.Dog{RegisteredName: "Max", Gender: types.GenderMale}},
		{name: "missing name", dog: types.Dog{Gender: types.GenderMale}, wantErr: true},
		{name: "bad gender", dog: types.Dog{RegisteredName: "Max", Gender: "male"}, wantErr: true},
		{name: "missing gender", dog: types.Dog{RegisteredName: "Max"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDog(store.OpCreate, tt.dog, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDog() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, validation.ErrInvalid) {
				t.Errorf("error %v does not wrap ErrInvalid", err)
			}
		})
	}
}

func TestHeats_ExpectedWhelpDate(t *testing.T) {
	c, _ := newSeededClient(t)
	dogs := NewDogs(c, nil)
	heats := NewHeats(c, dogs, nil)
	ctx := context.Background()
	dogs.Mount(ctx)
	heats.Mount(ctx)

	mating := types.NewDate(2025, time.March, 1)
	created, ok := heats.Create(ctx, types.Heat{
		DogID:      1,
		StartDate:  types.NewDate(2025, time.February, 20),
		MatingDate: &mating,
	})
	if !ok {
		t.Fatalf("Create() ok = false, Err = %v", heats.Err())
	}
	if created.ExpectedWhelpDate == nil || created.ExpectedWhelpDate.String() != "2025-05-03" {
		t.Errorf("ExpectedWhelpDate = %v, want 2025-05-03", created.ExpectedWhelpDate)
	}
	if created.DogName != "Goldhaven Luna" {
		t.Errorf("DogName = %q", created.DogName)
	}
}

func TestHeats_ExplicitWhelpDateKept(t *testing.T) {
	mating := types.NewDate(2025, time.March, 1)
	due := types.NewDate(2025, time.May, 10)
	h := withWhelpDate(types.Heat{MatingDate: &mating, ExpectedWhelpDate: &due})
	if h.ExpectedWhelpDate.String() != "2025-05-10" {
		t.Errorf("ExpectedWhelpDate = %s, want caller value", h.ExpectedWhelpDate)
	}
	if withWhelpDate(types.Heat{}).ExpectedWhelpDate != nil {
		t.Error("whelp date set without mating date")
	}
}

func TestHeats_RejectsMaleDog(t *testing.T) {
	c, srv := newSeededClient(t)
	dogs := NewDogs(c, nil)
	heats := NewHeats(c, dogs, nil)
	ctx := context.Background()
	dogs.Mount(ctx)
	heats.Mount(ctx)

	_, ok := heats.Create(ctx, types.Heat{DogID: 3, StartDate: types.NewDate(2025, time.January, 1)})
	if ok {
		t.Fatal("Create() ok = true for a male dog")
	}
	if store.KindOf(heats.Err()) != store.KindValidation {
		t.Errorf("KindOf(Err) = %q, want validation", store.KindOf(heats.Err()))
	}
	if !strings.Contains(heats.Err().Error(), "Female") {
		t.Errorf("Err() = %q", heats.Err())
	}
	if srv.Count("heats") != 1 {
		t.Error("invalid heat reached the server")
	}
}

func TestValidateHeat(t *testing.T) {
	start := types.NewDate(2025, time.January, 10)
	before := types.NewDate(2025, time.January, 1)
	sire := int64(3)

	tests := []struct {
		name    string
		heat    types.Heat
		wantErr string
	}{
		{name: "valid", heat: types.Heat{DogID: 1, StartDate: start}},
		{name: "no dog", heat: types.Heat{StartDate: start}, wantErr: "dog_id"},
		{name: "no start", heat: types.Heat{DogID: 1}, wantErr: "start_date"},
		{name: "end before start", heat: types.Heat{DogID: 1, StartDate: start, EndDate: &before}, wantErr: "end_date"},
		{name: "sire without mating", heat: types.Heat{DogID: 1, StartDate: start, SireID: &sire}, wantErr: "sire_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHeat(store.OpCreate, tt.heat, nil)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateHeat() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateHeat() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestValidateLitter_ForwardOnly(t *testing.T) {
	tests := []struct {
		from, to types.LitterStatus
		wantErr  bool
	}{
		{types.LitterPlanned, types.LitterExpected, false},
		{types.LitterPlanned, types.LitterBorn, false},
		{types.LitterExpected, types.LitterExpected, false},
		{types.LitterExpected, types.LitterPlanned, true},
		{types.LitterBorn, types.LitterExpected, true},
		{types.LitterBorn, "Sold", true},
	}

	for _, tt := range tests {
		current := types.Litter{ID: 1, LitterName: "A", Status: tt.from}
		next := types.Litter{ID: 1, LitterName: "A", Status: tt.to}
		err := ValidateLitter(store.OpUpdate, next, &current)
		if (err != nil) != tt.wantErr {
			t.Errorf("%s -> %s: error = %v, wantErr %v", tt.from, tt.to, err, tt.wantErr)
		}
	}
}

func TestValidateLitter_Money(t *testing.T) {
	l := types.Litter{
		LitterName: "A",
		Status:     types.LitterPlanned,
		Price:      decimal.NewFromInt(1000),
		Deposit:    decimal.NewFromInt(1500),
	}
	if err := ValidateLitter(store.OpCreate, l, nil); err == nil || !strings.Contains(err.Error(), "deposit") {
		t.Errorf("ValidateLitter() error = %v, want deposit error", err)
	}
	l.Deposit = decimal.RequireFromString("250.50")
	if err := ValidateLitter(store.OpCreate, l, nil); err != nil {
		t.Errorf("ValidateLitter() error = %v", err)
	}
}

func TestLitters_StatusRegressionBlocked(t *testing.T) {
	c, _ := newSeededClient(t)
	litters := NewLitters(c, nil, nil, nil)
	ctx := context.Background()
	litters.Mount(ctx)

	born := litters.Items()[0]
	born.Status = types.LitterPlanned
	if _, ok := litters.Update(ctx, born); ok {
		t.Error("Update() allowed Born -> Planned")
	}
	if got := litters.Items()[0].Status; got != types.LitterBorn {
		t.Errorf("cached status = %s, want Born", got)
	}
}

func TestLitters_CreateDefaultsToPlanned(t *testing.T) {
	c, _ := newSeededClient(t)
	tree := NewTree(c, nil, nil)
	ctx := context.Background()
	tree.Navigate(ctx, "/litters")

	created, ok := tree.Litters.Create(ctx, types.Litter{LitterName: "Bella x Max 2025", DamID: 2, SireID: 3})
	if !ok {
		t.Fatalf("Create() ok = false, Err = %v", tree.Litters.Err())
	}
	if created.Status != types.LitterPlanned {
		t.Errorf("Status = %q, want Planned", created.Status)
	}
	if tree.Litters.Items()[0].ID != created.ID {
		t.Error("new litter not prepended")
	}
}

func TestLitters_Puppies(t *testing.T) {
	c, _ := newSeededClient(t)
	tree := NewTree(c, nil, nil)
	ctx := context.Background()

	puppies, err := tree.Litters.Puppies(ctx, 1)
	if err != nil || len(puppies) != 0 {
		t.Errorf("unmounted Puppies() = %v, %v; want empty", puppies, err)
	}

	tree.Navigate(ctx, "/litters/1")
	puppies, err = tree.Litters.Puppies(ctx, 1)
	if err != nil {
		t.Fatalf("Puppies() error = %v", err)
	}
	if len(puppies) != 2 || puppies[0].Name != "Sunny" {
		t.Errorf("Puppies() = %+v", puppies)
	}

	puppies, err = tree.Litters.Puppies(ctx, 99)
	if err != nil || len(puppies) != 0 {
		t.Errorf("Puppies(99) = %v, %v; want silent empty default", puppies, err)
	}
	if !c.Missing().Known("litters/99/puppies") {
		t.Error("404 not recorded")
	}
}

func TestHealth_ForSubject(t *testing.T) {
	c, _ := newSeededClient(t)
	tree := NewTree(c, nil, nil)
	ctx := context.Background()
	tree.Navigate(ctx, "/dogs/1")

	history, err := tree.Health.ForSubject(ctx, types.ForDog(1))
	if err != nil {
		t.Fatalf("ForSubject() error = %v", err)
	}
	if len(history.Vaccinations) != 1 || history.Vaccinations[0].DogName != "Goldhaven Luna" {
		t.Errorf("Vaccinations = %+v", history.Vaccinations)
	}
	if len(history.Records) != 0 || history.Records == nil {
		t.Errorf("Records = %#v, want empty slice", history.Records)
	}

	history, _ = tree.Health.ForSubject(ctx, types.ForDog(2))
	if len(history.Vaccinations) != 0 {
		t.Errorf("dog 2 vaccinations = %d, want 0", len(history.Vaccinations))
	}
}

func TestHealth_ForSubjectDropsFailedCollection(t *testing.T) {
	c := newWrappedClient(t, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/health/vaccinations" && r.URL.Query().Get("dog_id") == "2" {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"vaccinations unavailable"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	tree := NewTree(c, nil, nil)
	ctx := context.Background()
	tree.Navigate(ctx, "/health")

	if len(tree.Health.Vaccinations.Items()) != 1 {
		t.Fatalf("initial vaccinations = %d, want 1", len(tree.Health.Vaccinations.Items()))
	}

	history, err := tree.Health.ForSubject(ctx, types.ForDog(2))
	var opErr *store.OpError
	if !errors.As(err, &opErr) || opErr.Status != http.StatusInternalServerError {
		t.Errorf("ForSubject() error = %v, want 500 OpError", err)
	}
	if history.Vaccinations == nil || len(history.Vaccinations) != 0 {
		t.Errorf("Vaccinations = %+v, want empty after failed fetch", history.Vaccinations)
	}
	if history.Records == nil || history.Conditions == nil || history.Medications == nil {
		t.Errorf("History = %#v, want empty slices for collections that loaded", history)
	}
}

func TestHealth_OpenSkipsUnfilteredLoad(t *testing.T) {
	var mu sync.Mutex
	var unfiltered []string
	c := newWrappedClient(t, func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/health/") && r.URL.RawQuery == "" {
				mu.Lock()
				unfiltered = append(unfiltered, r.URL.Path)
				mu.Unlock()
			}
			next.ServeHTTP(w, r)
		})
	})
	tree := NewTree(c, nil, nil)
	ctx := context.Background()

	if err := tree.Open(ctx, NameHealth); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got := tree.Active(); !slices.Equal(got, []string{NameHealth}) {
		t.Errorf("Active() = %v, want [health]", got)
	}

	history, err := tree.Health.ForSubject(ctx, types.ForDog(1))
	if err != nil {
		t.Fatalf("ForSubject() error = %v", err)
	}
	if len(history.Vaccinations) != 1 {
		t.Errorf("Vaccinations = %+v, want 1", history.Vaccinations)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(unfiltered) != 0 {
		t.Errorf("unfiltered requests = %v, want none", unfiltered)
	}

	if err := tree.Open(ctx, "kennels"); err == nil {
		t.Error("Open(unknown) error = nil")
	}
}

func TestHealth_ForSubjectRequiresExactlyOne(t *testing.T) {
	h := NewHealth(nil, nil)
	dog, puppy := int64(1), int64(2)

	if _, err := h.ForSubject(context.Background(), types.Subject{}); !errors.Is(err, validation.ErrInvalid) {
		t.Errorf("neither: err = %v, want ErrInvalid", err)
	}
	if _, err := h.ForSubject(context.Background(), types.Subject{DogID: &dog, PuppyID: &puppy}); err == nil {
		t.Error("both: expected error")
	}
}

func TestHealth_CreateVaccination(t *testing.T) {
	c, srv := newSeededClient(t)
	h := NewHealth(c, nil)
	ctx := context.Background()
	h.Mount(ctx)

	if len(h.Vaccinations.Items()) != 1 {
		t.Fatalf("initial vaccinations = %d, want 1", len(h.Vaccinations.Items()))
	}

	_, ok := h.Vaccinations.Create(ctx, types.Vaccination{
		VaccineName:    "Distemper",
		AdministeredOn: types.NewDate(2025, time.January, 5),
	})
	if ok {
		t.Error("Create() accepted a vaccination without subject")
	}

	created, ok := h.Vaccinations.Create(ctx, types.Vaccination{
		Subject:        types.ForPuppy(1),
		VaccineName:    "Distemper",
		AdministeredOn: types.NewDate(2025, time.January, 5),
	})
	if !ok {
		t.Fatalf("Create() ok = false, Err = %v", h.Vaccinations.Err())
	}
	if created.PuppyName != "Sunny" {
		t.Errorf("PuppyName = %q, want Sunny", created.PuppyName)
	}
	if srv.Count("health/vaccinations") != 2 {
		t.Errorf("server vaccinations = %d, want 2", srv.Count("health/vaccinations"))
	}

	h.Unmount()
	if h.Mounted() || h.Loading() || h.Err() != nil {
		t.Error("unmounted Health reports state")
	}
}
