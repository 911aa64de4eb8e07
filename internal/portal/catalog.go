package portal

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	catalogFreshFor  = 5 * time.Minute
	catalogRetainFor = 10 * time.Minute
)

// Catalog is the cached read path over the car listing.  Entries younger
// than five minutes are served without touching the network; entries
// between five and ten minutes trigger a refetch but survive as a
// fallback when the network fails; older entries are dropped.  Concurrent
// misses for the same key collapse into a single request.
type Catalog struct {
	api *Client

	mu     sync.Mutex
	list   map[string]*listEntry
	cars   map[string]*carEntry
	flight singleflight.Group
	now    func() time.Time
}

type listEntry struct {
	cars    []Car
	fetched time.Time
}

type carEntry struct {
	car     Car
	fetched time.Time
}

// NewCatalog wraps the client with the caching layer.
func NewCatalog(api *Client) *Catalog {
	return &Catalog{
		api:  api,
		list: make(map[string]*listEntry),
		cars: make(map[string]*carEntry),
		now:  time.Now,
	}
}

// List returns the catalog, optionally filtered by a search term.  Each
// distinct (normalized) term caches independently.
func (c *Catalog) List(ctx context.Context, search string) ([]Car, error) {
	key := strings.ToLower(strings.TrimSpace(search))

	c.mu.Lock()
	entry, ok := c.list[key]
	var stale []Car
	if ok {
		age := c.now().Sub(entry.fetched)
		switch {
		case age < catalogFreshFor:
			cars := entry.cars
			c.mu.Unlock()
			return cars, nil
		case age < catalogRetainFor:
			stale = entry.cars
		default:
			delete(c.list, key)
		}
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do("list\x00"+key, func() (any, error) {
		cars, err := c.api.ListCars(ctx, search)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.list[key] = &listEntry{cars: cars, fetched: c.now()}
		for i := range cars {
			c.cars[cars[i].Slug] = &carEntry{car: cars[i], fetched: c.now()}
		}
		c.mu.Unlock()
		return cars, nil
	})
	if err != nil {
		// A retained copy papers over connectivity trouble only; real
		// answers from the server (404 and friends) pass through.
		if stale != nil && errors.Is(err, ErrNetwork) {
			return stale, nil
		}
		return nil, err
	}
	return v.([]Car), nil
}

// BySlug returns one car.  Detail entries are seeded by List as well, so
// navigating from the listing to a detail page usually skips the network
// entirely.
func (c *Catalog) BySlug(ctx context.Context, slug string) (Car, error) {
	c.mu.Lock()
	entry, ok := c.cars[slug]
	var stale *Car
	if ok {
		age := c.now().Sub(entry.fetched)
		switch {
		case age < catalogFreshFor:
			car := entry.car
			c.mu.Unlock()
			return car, nil
		case age < catalogRetainFor:
			cp := entry.car
			stale = &cp
		default:
			delete(c.cars, slug)
		}
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do("car\x00"+slug, func() (any, error) {
		car, err := c.api.GetCarBySlug(ctx, slug)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cars[slug] = &carEntry{car: car, fetched: c.now()}
		c.mu.Unlock()
		return car, nil
	})
	if err != nil {
		if stale != nil && errors.Is(err, ErrNetwork) {
			return *stale, nil
		}
		return Car{}, err
	}
	return v.(Car), nil
}

// Invalidate drops every cached entry.  Used after writes that change
// what the catalog would show.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	c.list = make(map[string]*listEntry)
	c.cars = make(map[string]*carEntry)
	c.mu.Unlock()
}
