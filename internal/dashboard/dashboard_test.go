package dashboard

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/hyperengineering/kennel/internal/apiclient"
	"github.com/hyperengineering/kennel/internal/devserver"
	"github.com/hyperengineering/kennel/internal/fallback"
	"github.com/hyperengineering/kennel/internal/store"
)

func newService(t *testing.T, h http.Handler) (*Service, *apiclient.Client) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := apiclient.New(apiclient.Config{BaseURL: srv.URL + "/api"})
	if err != nil {
		t.Fatalf("apiclient.New() error = %v", err)
	}
	return New(fallback.ForClient(c, nil)), c
}

func TestLoad_MissingEndpointsAreSilent(t *testing.T) {
	svc, c := newService(t, devserver.New(devserver.Config{}).Handler())

	snap, err := svc.Load(context.Background(), 14, 10)
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for 404s", err)
	}
	if snap.Summary.TotalDogs != 0 || !snap.Summary.Revenue.IsZero() {
		t.Errorf("Summary = %+v, want zero value", snap.Summary)
	}
	if snap.Upcoming == nil || snap.Activity == nil {
		t.Error("defaults must be empty slices, not nil")
	}
	if len(c.Missing().List()) != 3 {
		t.Errorf("missing = %v, want all three endpoints", c.Missing().List())
	}
}

func TestLoad_Success(t *testing.T) {
	var query atomic.Value
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard/summary", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"total_dogs":7,"active_litters":2,"revenue":"12500.50"}}`))
	})
	mux.HandleFunc("/api/events/upcoming", func(w http.ResponseWriter, r *http.Request) {
		query.Store(r.URL.RawQuery)
		w.Write([]byte(`[{"id":1,"title":"Luna due","event_type":"whelping","starts_at":"2025-05-03T00:00:00Z"}]`))
	})
	mux.HandleFunc("/api/dashboard/activity", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true,"data":[]}`))
	})
	svc, _ := newService(t, mux)

	snap, err := svc.Load(context.Background(), 30, 0)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Summary.TotalDogs != 7 || snap.Summary.Revenue.String() != "12500.5" {
		t.Errorf("Summary = %+v", snap.Summary)
	}
	if len(snap.Upcoming) != 1 || snap.Upcoming[0].Title != "Luna due" {
		t.Errorf("Upcoming = %+v", snap.Upcoming)
	}
	if query.Load() != "days=30" {
		t.Errorf("upcoming query = %v, want days=30", query.Load())
	}
}

func TestLoad_ServerErrorSurfaces(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/dashboard/summary", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"summary unavailable"}`))
	})
	svc, _ := newService(t, mux)

	snap, err := svc.Load(context.Background(), 0, 0)
	if err == nil {
		t.Fatal("Load() error = nil, want summary failure")
	}
	if store.KindOf(err) != store.KindAPI {
		t.Errorf("KindOf(err) = %q, want api", store.KindOf(err))
	}
	if snap.Activity == nil {
		t.Error("Activity default missing")
	}
}
