// Package refdata owns the process-lifetime reference data: the media and
// person dimension tables plus the event-media and person-event relation
// lists that every event hydration joins against.
package refdata

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/diendue48k/heritage-map-service/internal/domain"
	"github.com/diendue48k/heritage-map-service/internal/observability"
)

// Source provides the four reference catalogs from the upstream API.
type Source interface {
	Media(ctx context.Context) []domain.RawMedia
	EventMedia(ctx context.Context) []domain.RawEventMedia
	PersonEvents(ctx context.Context) []domain.RawPersonEvent
	Persons(ctx context.Context) []domain.RawPerson
}

// Store lazily loads the reference catalogs exactly once per process.
// Concurrent callers during the load window share a single in-flight load;
// after it completes every caller observes the same snapshot.
type Store struct {
	source  Source
	metrics *observability.Metrics
	logger  *slog.Logger

	group  singleflight.Group
	mu     sync.RWMutex
	loaded bool
	snap   domain.ReferenceSnapshot
}

// New creates an empty, not-yet-loaded Store.
func New(source Source, metrics *observability.Metrics, logger *slog.Logger) *Store {
	return &Store{
		source:  source,
		metrics: metrics,
		logger:  logger,
		snap:    domain.EmptyReference(),
	}
}

// EnsureLoaded loads the catalogs on first call; later calls are no-ops.
// The four fetches run in parallel and a failed portion does not block the
// others. The store is marked loaded after the first attempt regardless of
// partial failure, so detail requests always make forward progress instead
// of re-fetching the catalogs on every call.
func (s *Store) EnsureLoaded(ctx context.Context) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return
	}

	// The load is shared by every waiter, so it must not die with the
	// first caller's context.
	loadCtx := context.WithoutCancel(ctx)
	s.group.Do("load", func() (any, error) { //nolint:errcheck // load never errors
		s.load(loadCtx)
		return nil, nil
	})
}

// Snapshot returns the current join tables. Before the first load completes
// it is empty, which makes hydration behave as if every join were absent.
func (s *Store) Snapshot() domain.ReferenceSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

func (s *Store) load(ctx context.Context) {
	var (
		media        []domain.RawMedia
		eventMedia   []domain.RawEventMedia
		personEvents []domain.RawPersonEvent
		persons      []domain.RawPerson
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { media = s.source.Media(gctx); return nil })
	g.Go(func() error { eventMedia = s.source.EventMedia(gctx); return nil })
	g.Go(func() error { personEvents = s.source.PersonEvents(gctx); return nil })
	g.Go(func() error { persons = s.source.Persons(gctx); return nil })
	_ = g.Wait()

	snap := domain.ReferenceSnapshot{
		Media:        make(map[string]domain.RawMedia, len(media)),
		EventMedia:   eventMedia,
		PersonEvents: personEvents,
		Persons:      make(map[string]domain.RawPerson, len(persons)),
	}
	for _, m := range media {
		snap.Media[m.MediaKey.String()] = m
	}
	for _, p := range persons {
		snap.Persons[p.PersonKey.String()] = p
	}

	s.observePortion("media", len(media))
	s.observePortion("event_media", len(eventMedia))
	s.observePortion("person_events", len(personEvents))
	s.observePortion("persons", len(persons))

	s.mu.Lock()
	s.snap = snap
	s.loaded = true
	s.mu.Unlock()

	s.logger.Info("reference data loaded",
		"media", len(media),
		"event_media", len(eventMedia),
		"person_events", len(personEvents),
		"persons", len(persons),
	)
}

func (s *Store) observePortion(portion string, rows int) {
	outcome := "loaded"
	if rows == 0 {
		outcome = "empty"
	}
	s.metrics.ReferenceLoads.WithLabelValues(portion, outcome).Inc()
}
