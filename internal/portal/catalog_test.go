package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func catalogServer(t *testing.T, hits *atomic.Int32, delay time.Duration) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/mobil", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if delay > 0 {
			time.Sleep(delay)
		}
		json.NewEncoder(w).Encode(carListWire{Data: []Car{
			{ID: 1, Slug: "toyota-avanza-1", Name: "Toyota Avanza", Brand: "Toyota", Showroom: "Jakarta Selatan"},
			{ID: 2, Slug: "honda-brio-2", Name: "Honda Brio", Brand: "Honda", Showroom: "Tangerang"},
		}})
	})
	mux.HandleFunc("/mobil/", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		slug := r.URL.Path[len("/mobil/"):]
		if slug != "toyota-avanza-1" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "car not found"})
			return
		}
		json.NewEncoder(w).Encode(carWire{Data: Car{ID: 1, Slug: slug, Name: "Toyota Avanza"}})
	})
	return httptest.NewServer(mux)
}

func TestCatalogCoalescesConcurrentMisses(t *testing.T) {
	var hits atomic.Int32
	srv := catalogServer(t, &hits, 30*time.Millisecond)
	defer srv.Close()

	c := NewCatalog(NewClient(srv.URL))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cars, err := c.List(context.Background(), "")
			if err != nil {
				t.Errorf("List() error = %v", err)
				return
			}
			if len(cars) != 2 {
				t.Errorf("List() returned %d cars, want 2", len(cars))
			}
		}()
	}
	wg.Wait()

	if n := hits.Load(); n != 1 {
		t.Fatalf("server saw %d requests, want 1", n)
	}
}

func TestCatalogServesFreshFromCache(t *testing.T) {
	var hits atomic.Int32
	srv := catalogServer(t, &hits, 0)
	defer srv.Close()

	c := NewCatalog(NewClient(srv.URL))
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	now := base
	c.now = func() time.Time { return now }

	if _, err := c.List(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	now = base.Add(4 * time.Minute)
	if _, err := c.List(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("server saw %d requests within the fresh window, want 1", n)
	}

	// Past the fresh window the entry is refetched.
	now = base.Add(6 * time.Minute)
	if _, err := c.List(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("server saw %d requests after expiry, want 2", n)
	}
}

func TestCatalogDistinctSearchTermsCacheSeparately(t *testing.T) {
	var hits atomic.Int32
	srv := catalogServer(t, &hits, 0)
	defer srv.Close()

	c := NewCatalog(NewClient(srv.URL))
	ctx := context.Background()
	if _, err := c.List(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := c.List(ctx, "toyota"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.List(ctx, "  Toyota "); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("server saw %d requests, want 2 (term normalization)", n)
	}
}

func TestCatalogStaleFallbackOnNetworkError(t *testing.T) {
	var hits atomic.Int32
	srv := catalogServer(t, &hits, 0)

	c := NewCatalog(NewClient(srv.URL))
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	now := base
	c.now = func() time.Time { return now }

	if _, err := c.List(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
	srv.Close()

	// Stale but retained: the cached copy covers the outage.
	now = base.Add(7 * time.Minute)
	cars, err := c.List(context.Background(), "")
	if err != nil {
		t.Fatalf("List() with retained entry = %v, want nil", err)
	}
	if len(cars) != 2 {
		t.Fatalf("List() returned %d cars, want 2", len(cars))
	}

	// Past the retain window the failure surfaces.
	now = base.Add(11 * time.Minute)
	if _, err := c.List(context.Background(), ""); !errors.Is(err, ErrNetwork) {
		t.Fatalf("List() past retain window = %v, want ErrNetwork", err)
	}
}

func TestCatalogBySlug(t *testing.T) {
	var hits atomic.Int32
	srv := catalogServer(t, &hits, 0)
	defer srv.Close()

	c := NewCatalog(NewClient(srv.URL))
	ctx := context.Background()

	car, err := c.BySlug(ctx, "toyota-avanza-1")
	if err != nil {
		t.Fatalf("BySlug() error = %v", err)
	}
	if car.Name != "Toyota Avanza" {
		t.Fatalf("car name = %q", car.Name)
	}
	if _, err := c.BySlug(ctx, "toyota-avanza-1"); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("server saw %d requests, want 1", n)
	}

	if _, err := c.BySlug(ctx, "no-such-car"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("BySlug(missing) = %v, want ErrNotFound", err)
	}
}

// Listing seeds the per-car cache, so detail lookups for listed cars are
// free.
func TestCatalogListSeedsDetailEntries(t *testing.T) {
	var hits atomic.Int32
	srv := catalogServer(t, &hits, 0)
	defer srv.Close()

	c := NewCatalog(NewClient(srv.URL))
	ctx := context.Background()
	if _, err := c.List(ctx, ""); err != nil {
		t.Fatal(err)
	}
	car, err := c.BySlug(ctx, "honda-brio-2")
	if err != nil {
		t.Fatalf("BySlug() error = %v", err)
	}
	if car.Name != "Honda Brio" {
		t.Fatalf("car name = %q", car.Name)
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("server saw %d requests, want 1", n)
	}
}

// Every slug the listing hands out resolves back to a car carrying that
// same slug.
func TestCatalogSlugRoundTrip(t *testing.T) {
	var hits atomic.Int32
	srv := catalogServer(t, &hits, 0)
	defer srv.Close()

	c := NewCatalog(NewClient(srv.URL))
	ctx := context.Background()
	cars, err := c.List(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	for _, car := range cars {
		got, err := c.BySlug(ctx, car.Slug)
		if err != nil {
			t.Fatalf("BySlug(%q) error = %v", car.Slug, err)
		}
		if got.Slug != car.Slug {
			t.Errorf("BySlug(%q) returned slug %q", car.Slug, got.Slug)
		}
	}
}

func TestCatalogInvalidate(t *testing.T) {
	var hits atomic.Int32
	srv := catalogServer(t, &hits, 0)
	defer srv.Close()

	c := NewCatalog(NewClient(srv.URL))
	ctx := context.Background()
	if _, err := c.List(ctx, ""); err != nil {
		t.Fatal(err)
	}
	c.Invalidate()
	if _, err := c.List(ctx, ""); err != nil {
		t.Fatal(err)
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("server saw %d requests, want 2 after Invalidate", n)
	}
}
