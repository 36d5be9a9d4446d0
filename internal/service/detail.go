package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/diendue48k/heritage-map-service/internal/domain"
)

// FetchSiteDetail resolves one site with its hydrated events. The base site
// comes from the in-memory catalog when present, otherwise from the
// single-location endpoint. A nil result means the site does not exist
// anywhere; an unreachable events endpoint still yields the site with an
// empty event list so degradation never hides the base entity.
func (e *Explorer) FetchSiteDetail(ctx context.Context, siteID string) *domain.SiteDetail {
	site := e.lookupSite(siteID)
	if site == nil {
		rows := e.upstream.LocationByID(ctx, siteID)
		if len(rows) > 0 {
			if mapped, err := domain.MapSiteRow(rows[0]); err == nil {
				site = &mapped
			} else {
				e.logger.Warn("malformed single-location row", "site_id", siteID, "error", err)
			}
		}
	}
	if site == nil {
		return nil
	}

	// The events fetch and the reference load are independent; run both at once.
	var rawEvents []domain.RawFactEvent
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { rawEvents = e.upstream.EventsByLocation(gctx, siteID); return nil })
	g.Go(func() error { e.refs.EnsureLoaded(gctx); return nil })
	_ = g.Wait()

	return &domain.SiteDetail{
		Site:   *site,
		Events: domain.HydrateEvents(rawEvents, e.refs.Snapshot()),
	}
}

// FetchPersonDetail resolves one person with biography, linked events, and
// the media aggregated across those events. A nil result means the person is
// unknown. There is no person-scoped events endpoint upstream, so linked
// events are filtered client-side out of the full catalog; when the person
// has no linked events at all the catalog fetch is skipped entirely.
func (e *Explorer) FetchPersonDetail(ctx context.Context, personID string) *domain.PersonDetail {
	rows := e.upstream.PersonByID(ctx, personID)
	if len(rows) == 0 {
		return nil
	}
	raw := rows[0]

	detail := &domain.PersonDetail{
		Person:    domain.MapPerson(raw),
		Biography: raw.Biography,
		Events:    []domain.Event{},
		Media:     []domain.Media{},
	}

	e.refs.EnsureLoaded(ctx)
	snap := e.refs.Snapshot()

	personKey := raw.PersonKey.String()
	linked := make(map[string]struct{})
	for _, rel := range snap.PersonEvents {
		if rel.PersonKey.String() == personKey {
			linked[rel.EventKey.String()] = struct{}{}
		}
	}
	if len(linked) == 0 {
		return detail
	}

	allEvents := e.upstream.Events(ctx)
	ownEvents := make([]domain.RawFactEvent, 0, len(linked))
	for _, evt := range allEvents {
		if _, ok := linked[evt.EventKey.String()]; ok {
			ownEvents = append(ownEvents, evt)
		}
	}

	detail.Events = domain.HydrateEvents(ownEvents, snap)
	// Duplicates across events are kept; the gallery tolerates repeats.
	for _, evt := range detail.Events {
		detail.Media = append(detail.Media, evt.Media...)
	}
	return detail
}

func (e *Explorer) lookupSite(siteID string) *domain.Site {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for i := range e.sites {
		if e.sites[i].SiteID == siteID {
			site := e.sites[i]
			return &site
		}
	}
	return nil
}
