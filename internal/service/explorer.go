// Package service orchestrates the fetch-and-join pipeline: catalog listing
// with memoization, and per-entity detail resolution against the reference
// data store.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/diendue48k/heritage-map-service/internal/domain"
	"github.com/diendue48k/heritage-map-service/internal/observability"
)

// Durable cache keys for the coarse entity lists.
const (
	cacheKeySites   = "heritage:sites"
	cacheKeyPersons = "heritage:persons"
)

// Upstream is the slice of the data API client the explorer needs.
type Upstream interface {
	Locations(ctx context.Context) []json.RawMessage
	Cities(ctx context.Context) []json.RawMessage
	LocationByID(ctx context.Context, id string) []json.RawMessage
	Persons(ctx context.Context) []domain.RawPerson
	PersonByID(ctx context.Context, id string) []domain.RawPerson
	Events(ctx context.Context) []domain.RawFactEvent
	EventsByLocation(ctx context.Context, id string) []domain.RawFactEvent
}

// ReferenceStore provides the lazily loaded join tables.
type ReferenceStore interface {
	EnsureLoaded(ctx context.Context)
	Snapshot() domain.ReferenceSnapshot
}

// ListCache persists coarse entity lists across process restarts. May be
// backed by kvstore or absent entirely.
type ListCache interface {
	Get(key string, dest any) bool
	Set(key string, value any)
}

// Explorer resolves sites, persons, and their details. Listing results are
// memoized in memory for the process lifetime and mirrored into the durable
// cache; details are recomputed per request.
type Explorer struct {
	upstream Upstream
	refs     ReferenceStore
	cache    ListCache // nil when the durable cache is disabled
	metrics  *observability.Metrics
	logger   *slog.Logger

	mu      sync.RWMutex
	sites   []domain.Site
	persons []domain.Person
	warmed  atomic.Bool
}

// NewExplorer wires the explorer. cache may be nil.
func NewExplorer(upstream Upstream, refs ReferenceStore, cache ListCache, metrics *observability.Metrics, logger *slog.Logger) *Explorer {
	return &Explorer{
		upstream: upstream,
		refs:     refs,
		cache:    cache,
		metrics:  metrics,
		logger:   logger,
	}
}

// WarmUp primes the site and person catalogs. Run once at startup; readiness
// reports false until it completes.
func (e *Explorer) WarmUp(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { e.FetchSites(gctx); return nil })
	g.Go(func() error { e.FetchPersons(gctx); return nil })
	_ = g.Wait()

	e.warmed.Store(true)
	e.mu.RLock()
	e.logger.Info("catalog warm-up complete", "sites", len(e.sites), "persons", len(e.persons))
	e.mu.RUnlock()
}

// CheckReadiness returns nil once the initial catalog warm-up has completed.
func (e *Explorer) CheckReadiness(_ context.Context) error {
	if !e.warmed.Load() {
		return errors.New("catalog warm-up has not completed yet")
	}
	return nil
}

// FetchSites returns every displayable site, merging location rows with the
// coarser city rows. A location with the same external id as a city wins the
// merge. Sites without usable coordinates are excluded.
func (e *Explorer) FetchSites(ctx context.Context) []domain.Site {
	e.mu.RLock()
	sites := e.sites
	e.mu.RUnlock()
	if sites != nil {
		return sites
	}

	if e.cache != nil {
		var cached []domain.Site
		if e.cache.Get(cacheKeySites, &cached) && len(cached) > 0 {
			e.storeSites(cached)
			return cached
		}
	}

	var locationRows, cityRows []json.RawMessage
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { locationRows = e.upstream.Locations(gctx); return nil })
	g.Go(func() error { cityRows = e.upstream.Cities(gctx); return nil })
	_ = g.Wait()

	sites = make([]domain.Site, 0, len(locationRows)+len(cityRows))
	seen := make(map[string]struct{}, len(locationRows))
	for _, row := range locationRows {
		site, err := domain.MapSiteRow(row)
		if err != nil {
			e.logger.Warn("skipping malformed location row", "error", err)
			continue
		}
		if !site.HasCoordinates() {
			continue
		}
		sites = append(sites, site)
		seen[site.SiteID] = struct{}{}
	}
	for _, row := range cityRows {
		site, err := domain.MapSiteRow(row)
		if err != nil {
			e.logger.Warn("skipping malformed city row", "error", err)
			continue
		}
		if _, dup := seen[site.SiteID]; dup {
			continue
		}
		if !site.HasCoordinates() {
			continue
		}
		sites = append(sites, site)
	}

	e.storeSites(sites)
	if e.cache != nil && len(sites) > 0 {
		e.cache.Set(cacheKeySites, sites)
	}
	return sites
}

// FetchPersons returns the person catalog, memoized like FetchSites.
func (e *Explorer) FetchPersons(ctx context.Context) []domain.Person {
	e.mu.RLock()
	persons := e.persons
	e.mu.RUnlock()
	if persons != nil {
		return persons
	}

	if e.cache != nil {
		var cached []domain.Person
		if e.cache.Get(cacheKeyPersons, &cached) && len(cached) > 0 {
			e.storePersons(cached)
			return cached
		}
	}

	raws := e.upstream.Persons(ctx)
	persons = make([]domain.Person, 0, len(raws))
	for _, raw := range raws {
		persons = append(persons, domain.MapPerson(raw))
	}

	e.storePersons(persons)
	if e.cache != nil && len(persons) > 0 {
		e.cache.Set(cacheKeyPersons, persons)
	}
	return persons
}

func (e *Explorer) storeSites(sites []domain.Site) {
	e.mu.Lock()
	e.sites = sites
	e.mu.Unlock()
	e.metrics.CatalogSize.WithLabelValues("sites").Set(float64(len(sites)))
}

func (e *Explorer) storePersons(persons []domain.Person) {
	e.mu.Lock()
	e.persons = persons
	e.mu.Unlock()
	e.metrics.CatalogSize.WithLabelValues("persons").Set(float64(len(persons)))
}
