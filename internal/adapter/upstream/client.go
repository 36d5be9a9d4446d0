package upstream

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"

	"github.com/diendue48k/heritage-map-service/internal/domain"
)

// Client exposes the upstream REST resources as typed row lists. All methods
// are total: network failure, missing resources, and malformed rows all
// degrade to empty results (per-row decode failures are skipped).
type Client struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewClient creates a typed client over the multi-strategy fetcher.
func NewClient(fetcher *Fetcher, logger *slog.Logger) *Client {
	return &Client{fetcher: fetcher, logger: logger}
}

// Locations returns the raw dim_location rows. Rows stay undecoded because
// site rows are a tagged union handled by domain.MapSiteRow.
func (c *Client) Locations(ctx context.Context) []json.RawMessage {
	return ExtractRows(c.fetcher.FetchJSON(ctx, "/locations", false))
}

// Cities returns the raw city rows.
func (c *Client) Cities(ctx context.Context) []json.RawMessage {
	return ExtractRows(c.fetcher.FetchJSON(ctx, "/cities", false))
}

// LocationByID returns the row(s) for a single location id.
func (c *Client) LocationByID(ctx context.Context, id string) []json.RawMessage {
	return ExtractRows(c.fetcher.FetchJSON(ctx, "/locations/"+url.PathEscape(id), false))
}

// Persons returns the dim_person catalog.
func (c *Client) Persons(ctx context.Context) []domain.RawPerson {
	return decodeRows[domain.RawPerson](c, ctx, "/persons", false)
}

// PersonByID returns the row(s) for a single person id.
func (c *Client) PersonByID(ctx context.Context, id string) []domain.RawPerson {
	return decodeRows[domain.RawPerson](c, ctx, "/persons/"+url.PathEscape(id), false)
}

// Events returns the full fact_event catalog. Expensive; only fetched when a
// person detail actually has linked events.
func (c *Client) Events(ctx context.Context) []domain.RawFactEvent {
	return decodeRows[domain.RawFactEvent](c, ctx, "/events", false)
}

// EventsByLocation returns the events recorded at one location. Fetched
// silently because locations without events answer 404 routinely.
func (c *Client) EventsByLocation(ctx context.Context, id string) []domain.RawFactEvent {
	return decodeRows[domain.RawFactEvent](c, ctx, "/events/location/"+url.PathEscape(id), true)
}

// Media returns the dim_media catalog.
func (c *Client) Media(ctx context.Context) []domain.RawMedia {
	return decodeRows[domain.RawMedia](c, ctx, "/media", false)
}

// EventMedia returns the event-media relation rows.
func (c *Client) EventMedia(ctx context.Context) []domain.RawEventMedia {
	return decodeRows[domain.RawEventMedia](c, ctx, "/event-media", false)
}

// PersonEvents returns the person-event relation rows.
func (c *Client) PersonEvents(ctx context.Context) []domain.RawPersonEvent {
	return decodeRows[domain.RawPersonEvent](c, ctx, "/person-events", false)
}

func decodeRows[T any](c *Client, ctx context.Context, endpoint string, silent bool) []T {
	rows := ExtractRows(c.fetcher.FetchJSON(ctx, endpoint, silent))
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := json.Unmarshal(row, &v); err != nil {
			c.logger.Warn("skipping malformed row", "endpoint", endpoint, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}
