package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diendue48k/heritage-map-service/internal/domain"
	"github.com/diendue48k/heritage-map-service/internal/observability"
)

// mockUpstream returns canned rows and counts calls per endpoint.
type mockUpstream struct {
	locations    []json.RawMessage
	cities       []json.RawMessage
	locationByID []json.RawMessage
	persons      []domain.RawPerson
	personByID   []domain.RawPerson
	events       []domain.RawFactEvent
	siteEvents   []domain.RawFactEvent

	locationCalls     int
	cityCalls         int
	locationByIDCalls int
	personCalls       int
	eventCalls        int
	siteEventCalls    int
}

func (m *mockUpstream) Locations(context.Context) []json.RawMessage {
	m.locationCalls++
	return m.locations
}

func (m *mockUpstream) Cities(context.Context) []json.RawMessage {
	m.cityCalls++
	return m.cities
}

func (m *mockUpstream) LocationByID(context.Context, string) []json.RawMessage {
	m.locationByIDCalls++
	return m.locationByID
}

func (m *mockUpstream) Persons(context.Context) []domain.RawPerson {
	m.personCalls++
	return m.persons
}

func (m *mockUpstream) PersonByID(context.Context, string) []domain.RawPerson {
	return m.personByID
}

func (m *mockUpstream) Events(context.Context) []domain.RawFactEvent {
	m.eventCalls++
	return m.events
}

func (m *mockUpstream) EventsByLocation(context.Context, string) []domain.RawFactEvent {
	m.siteEventCalls++
	return m.siteEvents
}

// mockRefs serves a fixed snapshot and records whether the load was asked for.
type mockRefs struct {
	snap        domain.ReferenceSnapshot
	ensureCalls int
}

func (m *mockRefs) EnsureLoaded(context.Context) { m.ensureCalls++ }

func (m *mockRefs) Snapshot() domain.ReferenceSnapshot {
	if m.snap.Media == nil {
		return domain.EmptyReference()
	}
	return m.snap
}

// mapCache is an in-memory ListCache.
type mapCache struct {
	entries map[string]json.RawMessage
	sets    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]json.RawMessage{}}
}

func (c *mapCache) Get(key string, dest any) bool {
	raw, ok := c.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

func (c *mapCache) Set(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.entries[key] = raw
	c.sets++
}

func newTestExplorer(upstream Upstream, refs ReferenceStore, cache ListCache) *Explorer {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewExplorer(upstream, refs, cache, observability.NewMetricsForTesting(), logger)
}

func locationRow(key, name string, lat, lon float64) json.RawMessage {
	row := map[string]any{
		"location_key":  key,
		"location_name": name,
		"latitude":      lat,
		"longitude":     lon,
	}
	raw, _ := json.Marshal(row)
	return raw
}

func cityRow(id, name string, lat, lon float64) json.RawMessage {
	row := map[string]any{
		"city_id":   id,
		"city_name": name,
		"lat":       lat,
		"lng":       lon,
	}
	raw, _ := json.Marshal(row)
	return raw
}

func TestFetchSites_MergesLocationsAndCities(t *testing.T) {
	upstream := &mockUpstream{
		locations: []json.RawMessage{
			locationRow("1", "Chùa Một Cột", 21.0358, 105.8334),
			locationRow("2", "Văn Miếu", 21.0293, 105.8356),
		},
		cities: []json.RawMessage{
			cityRow("100", "Huế", 16.4637, 107.5909),
		},
	}
	explorer := newTestExplorer(upstream, &mockRefs{}, nil)

	sites := explorer.FetchSites(context.Background())

	require.Len(t, sites, 3)
	assert.Equal(t, "Chùa Một Cột", sites[0].SiteName)
	assert.Equal(t, "Thành phố", sites[2].SiteType)
}

func TestFetchSites_LocationWinsDuplicateID(t *testing.T) {
	upstream := &mockUpstream{
		locations: []json.RawMessage{locationRow("7", "Thành nhà Hồ", 20.0772, 105.6052)},
		cities:    []json.RawMessage{cityRow("7", "Thanh Hóa", 19.8067, 105.7772)},
	}
	explorer := newTestExplorer(upstream, &mockRefs{}, nil)

	sites := explorer.FetchSites(context.Background())

	require.Len(t, sites, 1)
	assert.Equal(t, "Thành nhà Hồ", sites[0].SiteName)
}

func TestFetchSites_ExcludesMissingCoordinates(t *testing.T) {
	upstream := &mockUpstream{
		locations: []json.RawMessage{
			locationRow("1", "ok", 21, 105),
			locationRow("2", "no lat", 0, 105),
			locationRow("3", "no lon", 21, 0),
		},
		cities: []json.RawMessage{cityRow("4", "no coords", 0, 0)},
	}
	explorer := newTestExplorer(upstream, &mockRefs{}, nil)

	sites := explorer.FetchSites(context.Background())

	require.Len(t, sites, 1)
	assert.Equal(t, "1", sites[0].SiteID)
}

func TestFetchSites_SkipsMalformedRows(t *testing.T) {
	upstream := &mockUpstream{
		locations: []json.RawMessage{
			json.RawMessage(`{"unrelated": true}`),
			locationRow("1", "ok", 21, 105),
		},
	}
	explorer := newTestExplorer(upstream, &mockRefs{}, nil)

	sites := explorer.FetchSites(context.Background())
	require.Len(t, sites, 1)
}

func TestFetchSites_MemoizesAcrossCalls(t *testing.T) {
	upstream := &mockUpstream{
		locations: []json.RawMessage{locationRow("1", "ok", 21, 105)},
	}
	explorer := newTestExplorer(upstream, &mockRefs{}, nil)

	first := explorer.FetchSites(context.Background())
	second := explorer.FetchSites(context.Background())

	assert.Equal(t, first, second)
	assert.Equal(t, 1, upstream.locationCalls)
	assert.Equal(t, 1, upstream.cityCalls)
}

func TestFetchSites_DurableCacheAvoidsUpstream(t *testing.T) {
	cache := newMapCache()
	cache.Set(cacheKeySites, []domain.Site{
		{SiteID: "1", SiteName: "cached", Latitude: 21, Longitude: 105},
	})

	upstream := &mockUpstream{}
	explorer := newTestExplorer(upstream, &mockRefs{}, cache)

	sites := explorer.FetchSites(context.Background())

	require.Len(t, sites, 1)
	assert.Equal(t, "cached", sites[0].SiteName)
	assert.Zero(t, upstream.locationCalls)
	assert.Zero(t, upstream.cityCalls)
}

func TestFetchSites_WritesThroughToCache(t *testing.T) {
	cache := newMapCache()
	upstream := &mockUpstream{
		locations: []json.RawMessage{locationRow("1", "ok", 21, 105)},
	}
	explorer := newTestExplorer(upstream, &mockRefs{}, cache)

	explorer.FetchSites(context.Background())

	var cached []domain.Site
	require.True(t, cache.Get(cacheKeySites, &cached))
	require.Len(t, cached, 1)
}

func TestFetchSites_EmptyResultNotCached(t *testing.T) {
	cache := newMapCache()
	explorer := newTestExplorer(&mockUpstream{}, &mockRefs{}, cache)

	sites := explorer.FetchSites(context.Background())

	assert.Empty(t, sites)
	assert.Zero(t, cache.sets, "an empty catalog must not shadow the upstream for the TTL window")
}

func TestFetchPersons(t *testing.T) {
	upstream := &mockUpstream{
		persons: []domain.RawPerson{
			{PersonKey: "1", PersonName: "Lý Thái Tổ", BirthYear: "974", DeathYear: "1028"},
			{PersonKey: "2", BirthYear: "0"},
		},
	}
	explorer := newTestExplorer(upstream, &mockRefs{}, nil)

	persons := explorer.FetchPersons(context.Background())

	require.Len(t, persons, 2)
	assert.Equal(t, "Lý Thái Tổ", persons[0].FullName)
	require.NotNil(t, persons[0].BirthYear)
	assert.Equal(t, 974, *persons[0].BirthYear)
	assert.Equal(t, "Không tên", persons[1].FullName)
	assert.Nil(t, persons[1].BirthYear)

	explorer.FetchPersons(context.Background())
	assert.Equal(t, 1, upstream.personCalls)
}

func TestWarmUpAndReadiness(t *testing.T) {
	explorer := newTestExplorer(&mockUpstream{}, &mockRefs{}, nil)

	require.Error(t, explorer.CheckReadiness(context.Background()))
	explorer.WarmUp(context.Background())
	assert.NoError(t, explorer.CheckReadiness(context.Background()))
}

func TestFetchSiteDetail_FromCatalog(t *testing.T) {
	refs := &mockRefs{snap: domain.ReferenceSnapshot{
		Media: map[string]domain.RawMedia{
			"10": {MediaKey: "10", Media: "https://img.example/a.jpg", MediaType: "image"},
		},
		EventMedia: []domain.RawEventMedia{{MediaKey: "10", EventKey: "5"}},
		Persons:    map[string]domain.RawPerson{},
	}}
	upstream := &mockUpstream{
		locations: []json.RawMessage{locationRow("1", "Chùa Cầu", 15.8771, 108.3261)},
		siteEvents: []domain.RawFactEvent{
			{EventKey: "5", EventName: "Xây dựng", LocationKey: "1"},
		},
	}
	explorer := newTestExplorer(upstream, refs, nil)
	explorer.FetchSites(context.Background())

	detail := explorer.FetchSiteDetail(context.Background(), "1")

	require.NotNil(t, detail)
	assert.Equal(t, "Chùa Cầu", detail.SiteName)
	assert.Zero(t, upstream.locationByIDCalls, "catalog hit should not touch the single-location endpoint")
	assert.Equal(t, 1, refs.ensureCalls)
	require.Len(t, detail.Events, 1)
	require.Len(t, detail.Events[0].Media, 1)
	assert.Equal(t, "https://img.example/a.jpg", detail.Events[0].Media[0].MediaURL)
}

func TestFetchSiteDetail_FallsBackToEndpoint(t *testing.T) {
	upstream := &mockUpstream{
		locationByID: []json.RawMessage{locationRow("9", "Cố đô Hoa Lư", 20.2844, 105.9040)},
	}
	explorer := newTestExplorer(upstream, &mockRefs{}, nil)

	detail := explorer.FetchSiteDetail(context.Background(), "9")

	require.NotNil(t, detail)
	assert.Equal(t, "Cố đô Hoa Lư", detail.SiteName)
	assert.Equal(t, 1, upstream.locationByIDCalls)
	assert.NotNil(t, detail.Events)
}

func TestFetchSiteDetail_UnknownSite(t *testing.T) {
	explorer := newTestExplorer(&mockUpstream{}, &mockRefs{}, nil)

	assert.Nil(t, explorer.FetchSiteDetail(context.Background(), "404"))
}

func TestFetchPersonDetail_UnknownPerson(t *testing.T) {
	explorer := newTestExplorer(&mockUpstream{}, &mockRefs{}, nil)

	assert.Nil(t, explorer.FetchPersonDetail(context.Background(), "404"))
}

func TestFetchPersonDetail_NoLinkedEventsSkipsCatalog(t *testing.T) {
	upstream := &mockUpstream{
		personByID: []domain.RawPerson{{PersonKey: "1", PersonName: "Nguyễn Trãi", Biography: "Ức Trai"}},
		events:     []domain.RawFactEvent{{EventKey: "5"}},
	}
	explorer := newTestExplorer(upstream, &mockRefs{}, nil)

	detail := explorer.FetchPersonDetail(context.Background(), "1")

	require.NotNil(t, detail)
	assert.Equal(t, "Nguyễn Trãi", detail.FullName)
	assert.Equal(t, "Ức Trai", detail.Biography)
	assert.Empty(t, detail.Events)
	assert.Empty(t, detail.Media)
	assert.Zero(t, upstream.eventCalls, "no links means the full event catalog is never fetched")
}

func TestFetchPersonDetail_FiltersAndAggregatesMedia(t *testing.T) {
	refs := &mockRefs{snap: domain.ReferenceSnapshot{
		Media: map[string]domain.RawMedia{
			"10": {MediaKey: "10", Media: "https://img.example/a.jpg", MediaType: "image"},
			"11": {MediaKey: "11", Media: "https://img.example/b.jpg", MediaType: "image"},
		},
		EventMedia: []domain.RawEventMedia{
			{MediaKey: "10", EventKey: "5"},
			{MediaKey: "11", EventKey: "6"},
		},
		PersonEvents: []domain.RawPersonEvent{
			{PersonKey: "1", EventKey: "5"},
			{PersonKey: "1", EventKey: "6"},
			{PersonKey: "2", EventKey: "7"},
		},
		Persons: map[string]domain.RawPerson{},
	}}
	upstream := &mockUpstream{
		personByID: []domain.RawPerson{{PersonKey: "1", PersonName: "Trần Hưng Đạo"}},
		events: []domain.RawFactEvent{
			{EventKey: "5", EventName: "Bạch Đằng"},
			{EventKey: "6", EventName: "Chương Dương"},
			{EventKey: "7", EventName: "khác"},
		},
	}
	explorer := newTestExplorer(upstream, refs, nil)

	detail := explorer.FetchPersonDetail(context.Background(), "1")

	require.NotNil(t, detail)
	require.Len(t, detail.Events, 2, "only events linked to this person survive the filter")
	assert.Equal(t, 1, upstream.eventCalls)
	require.Len(t, detail.Media, 2)
	assert.Equal(t, "https://img.example/a.jpg", detail.Media[0].MediaURL)
}
