// Package tenantconfig memoizes the tenant's approved locations and sources.
package tenantconfig

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/wolfman30/lead-relay/internal/locations"
	"github.com/wolfman30/lead-relay/pkg/logging"
	"golang.org/x/sync/singleflight"
)

// ErrNoLocations is returned when a fetched config lists no locations.
var ErrNoLocations = errors.New("tenantconfig: config has no locations")

// Snapshot is an immutable copy of the tenant configuration.
type Snapshot struct {
	Locations []locations.Location
	Sources   []string
}

// HasSource reports whether source is in the approved set.
func (s Snapshot) HasSource(source string) bool {
	return slices.Contains(s.Sources, source)
}

// FetchFunc retrieves the tenant configuration from the CRM.
type FetchFunc func(ctx context.Context) (Snapshot, error)

// FetchObserver is notified of every fetch outcome.
type FetchObserver interface {
	ObserveConfigFetch(status string)
}

// Cache lazily loads the tenant configuration once per process. Concurrent
// first callers share a single in-flight fetch; a failed fetch leaves the
// cache empty so the next caller retries.
type Cache struct {
	fetch    FetchFunc
	logger   *logging.Logger
	observer FetchObserver

	group singleflight.Group
	snap  atomic.Pointer[Snapshot]
}

// NewCache builds an empty cache around fetch.
func NewCache(fetch FetchFunc, logger *logging.Logger, observer FetchObserver) *Cache {
	if fetch == nil {
		panic("tenantconfig: fetch func required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{fetch: fetch, logger: logger, observer: observer}
}

// Loaded reports whether a snapshot is cached.
func (c *Cache) Loaded() bool {
	return c.snap.Load() != nil
}

// Snapshot returns the cached snapshot, if any.
func (c *Cache) Snapshot() (Snapshot, bool) {
	if s := c.snap.Load(); s != nil {
		return *s, true
	}
	return Snapshot{}, false
}

// EnsureLoaded returns the cached snapshot, fetching it first if the cache is
// empty. Fetch failures are returned to the caller and nothing is cached.
func (c *Cache) EnsureLoaded(ctx context.Context) (Snapshot, error) {
	if s := c.snap.Load(); s != nil {
		return *s, nil
	}

	ch := c.group.DoChan("config", func() (any, error) {
		if s := c.snap.Load(); s != nil {
			return *s, nil
		}
		// Detached so one caller's cancellation does not fail the others.
		snap, err := c.fetch(context.WithoutCancel(ctx))
		if err == nil && len(snap.Locations) == 0 {
			err = ErrNoLocations
		}
		if err != nil {
			c.observe("error")
			return Snapshot{}, err
		}
		snap = clone(snap)
		c.snap.Store(&snap)
		c.observe("ok")
		c.logger.Info("tenant config loaded",
			"locations", describe(snap.Locations, 20),
			"sources", snap.Sources,
		)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Snapshot{}, fmt.Errorf("tenantconfig: load: %w", res.Err)
		}
		return res.Val.(Snapshot), nil
	}
}

func (c *Cache) observe(status string) {
	if c.observer != nil {
		c.observer.ObserveConfigFetch(status)
	}
}

func clone(s Snapshot) Snapshot {
	return Snapshot{
		Locations: slices.Clone(s.Locations),
		Sources:   slices.Clone(s.Sources),
	}
}

func describe(locs []locations.Location, limit int) []string {
	out := make([]string, 0, min(len(locs), limit))
	for i, loc := range locs {
		if i == limit {
			break
		}
		out = append(out, loc.ID+":"+loc.Name)
	}
	return out
}
