package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/hyperengineering/kennel/internal/apiclient"
	"github.com/hyperengineering/kennel/internal/store"
	"github.com/hyperengineering/kennel/internal/types"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/dogs", "/dogs", true},
		{"/dogs", "/dogs/", true},
		{"/dogs", "/dogs?gender=Female", true},
		{"/dogs", "/dogs/3", false},
		{"/dogs", "/dogsitter", false},
		{"/dogs/*", "/dogs/3", true},
		{"/dogs/*", "/dogs/3/health", true},
		{"/dogs/*", "/dogs", false},
		{"/dogs/*", "/dogs/", false},
		{"/dogs/*", "/dogsitter/1", false},
		{"*", "/anything", true},
		{"", "/dogs", false},
		{"/dashboard", "dashboard", true},
	}

	for _, tt := range tests {
		if got := Match(tt.pattern, tt.path); got != tt.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestActive(t *testing.T) {
	patterns := []string{"/heats", "/heats/*", "/calendar"}
	if !Active("/calendar", patterns) {
		t.Error("expected /calendar active")
	}
	if Active("/customers", patterns) {
		t.Error("expected /customers inactive")
	}
	if Active("/heats", nil) {
		t.Error("no patterns should never be active")
	}
}

type countingUnit struct {
	mounts   atomic.Int32
	unmounts atomic.Int32
}

func (u *countingUnit) Mount(context.Context) error {
	u.mounts.Add(1)
	return nil
}

func (u *countingUnit) Unmount() { u.unmounts.Add(1) }

type openingUnit struct {
	countingUnit
	opens atomic.Int32
}

func (u *openingUnit) Open() { u.opens.Add(1) }

func TestGate_Open(t *testing.T) {
	ctx := context.Background()

	o := &openingUnit{}
	g := New("health", []string{"/health"}, o, nil)
	g.Open(ctx)
	g.Open(ctx)
	if !g.Mounted() || o.opens.Load() != 1 || o.mounts.Load() != 0 {
		t.Errorf("Mounted() = %v, opens = %d, mounts = %d; want true, 1, 0",
			g.Mounted(), o.opens.Load(), o.mounts.Load())
	}
	g.Sync(ctx, "/health")
	if o.mounts.Load() != 0 {
		t.Error("Sync remounted an opened unit")
	}
	g.Deactivate()
	if o.unmounts.Load() != 1 {
		t.Errorf("unmounts = %d, want 1", o.unmounts.Load())
	}

	u := &countingUnit{}
	g = New("dogs", nil, u, nil)
	g.Open(ctx)
	if u.mounts.Load() != 1 {
		t.Errorf("plain unit mounts = %d, want 1", u.mounts.Load())
	}
}

func TestGate_Sync(t *testing.T) {
	u := &countingUnit{}
	g := New("heats", []string{"/heats", "/heats/*", "/dashboard"}, u, nil)
	ctx := context.Background()

	steps := []struct {
		path         string
		wantMounted  bool
		wantMounts   int32
		wantUnmounts int32
	}{
		{"/customers", false, 0, 0},
		{"/heats", true, 1, 0},
		{"/heats/4", true, 1, 0},
		{"/dashboard", true, 1, 0},
		{"/contracts", false, 1, 1},
		{"/heats", true, 2, 1},
	}

	for _, s := range steps {
		if err := g.Sync(ctx, s.path); err != nil {
			t.Fatalf("Sync(%q) error = %v", s.path, err)
		}
		if g.Mounted() != s.wantMounted {
			t.Errorf("after %q: Mounted() = %v, want %v", s.path, g.Mounted(), s.wantMounted)
		}
		if u.mounts.Load() != s.wantMounts || u.unmounts.Load() != s.wantUnmounts {
			t.Errorf("after %q: mounts/unmounts = %d/%d, want %d/%d",
				s.path, u.mounts.Load(), u.unmounts.Load(), s.wantMounts, s.wantUnmounts)
		}
	}
}

func TestNavigator(t *testing.T) {
	n := NewNavigator("/")
	var seen []string
	unsubscribe := n.Subscribe(func(_ context.Context, path string) error {
		seen = append(seen, path)
		return nil
	})

	n.Navigate(context.Background(), "/dogs/")
	n.Navigate(context.Background(), "/litters")
	unsubscribe()
	n.Navigate(context.Background(), "/health")

	if n.Path() != "/health" {
		t.Errorf("Path() = %q, want /health", n.Path())
	}
	if len(seen) != 2 || seen[0] != "/dogs" || seen[1] != "/litters" {
		t.Errorf("seen = %v, want [/dogs /litters]", seen)
	}
}

func TestNavigator_JoinsErrors(t *testing.T) {
	n := NewNavigator("/")
	errA := errors.New("a")
	errB := errors.New("b")
	n.Subscribe(func(context.Context, string) error { return errA })
	n.Subscribe(func(context.Context, string) error { return errB })
	n.Subscribe(func(context.Context, string) error { return nil })

	err := n.Navigate(context.Background(), "/dogs")
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("Navigate() error = %v, want both listener errors", err)
	}
}

func newGatedDogs(t *testing.T) (*Gated[types.Dog], *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`[{"id":1,"registered_name":"Max","gender":"Male"}]`))
	}))
	t.Cleanup(srv.Close)

	c, err := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("apiclient.New() error = %v", err)
	}
	g := NewGated(func() *store.Store[types.Dog] {
		return store.New(c, store.Options[types.Dog]{Resource: "dogs"})
	})
	return g, &calls
}

func TestGated_ImplementsCollection(t *testing.T) {
	var _ store.Collection[types.Dog] = (*Gated[types.Dog])(nil)
}

func TestGated_UnmountedIsInert(t *testing.T) {
	g, calls := newGatedDogs(t)
	ctx := context.Background()

	g.FetchAll(ctx, nil)
	if _, ok := g.Create(ctx, types.Dog{RegisteredName: "x", Gender: types.GenderMale}); ok {
		t.Error("Create() ok = true while unmounted")
	}
	if g.Delete(ctx, 1) {
		t.Error("Delete() = true while unmounted")
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want no network activity", calls.Load())
	}
	if items := g.Items(); items == nil || len(items) != 0 {
		t.Errorf("Items() = %#v, want empty slice", items)
	}
}

func TestGated_MountFetchesOnce(t *testing.T) {
	g, calls := newGatedDogs(t)
	ctx := context.Background()

	g.Mount(ctx)
	g.Mount(ctx)

	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1 initial fetch", calls.Load())
	}
	if len(g.Items()) != 1 {
		t.Errorf("len(Items) = %d, want 1", len(g.Items()))
	}
}

func TestGated_OpenSkipsInitialFetch(t *testing.T) {
	g, calls := newGatedDogs(t)
	ctx := context.Background()

	g.Open()
	if !g.Mounted() {
		t.Fatal("Mounted() = false after Open")
	}
	if calls.Load() != 0 {
		t.Errorf("calls = %d, want no fetch on Open", calls.Load())
	}

	g.Mount(ctx)
	if calls.Load() != 0 {
		t.Errorf("calls = %d, Mount after Open should not fetch", calls.Load())
	}

	g.FetchAll(ctx, nil)
	if calls.Load() != 1 || len(g.Items()) != 1 {
		t.Errorf("calls = %d, len(Items) = %d; want 1, 1", calls.Load(), len(g.Items()))
	}
}

func TestGated_UnmountDisposes(t *testing.T) {
	g, _ := newGatedDogs(t)
	ctx := context.Background()

	g.Mount(ctx)
	live := g.Live()
	g.Unmount()

	if g.Mounted() {
		t.Error("Mounted() = true after Unmount")
	}
	if !live.Disposed() {
		t.Error("previous store not disposed")
	}
	if len(g.Items()) != 0 {
		t.Error("unmounted Gated still exposes cached items")
	}

	g.Mount(ctx)
	if g.Live() == live {
		t.Error("remount reused the disposed store")
	}
}

func TestGate_Deactivate(t *testing.T) {
	u := &countingUnit{}
	g := New("any", []string{"*"}, u, nil)

	g.Deactivate()
	if u.unmounts.Load() != 0 {
		t.Error("Deactivate on an unmounted gate called Unmount")
	}

	g.Sync(context.Background(), "/")
	g.Deactivate()
	if g.Mounted() || u.unmounts.Load() != 1 {
		t.Errorf("Mounted() = %v, unmounts = %d; want false, 1", g.Mounted(), u.unmounts.Load())
	}
}
