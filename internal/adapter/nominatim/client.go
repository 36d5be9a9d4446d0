// Package nominatim adapts the Nominatim geocoding HTTP API to the domain
// Geocoder port.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/diendue48k/heritage-map-service/internal/domain"
	"github.com/diendue48k/heritage-map-service/internal/observability"
)

// minQueryRunes is the shortest query forwarded to the geocoding service;
// anything shorter returns no suggestions without a network call.
const minQueryRunes = 3

// pickedLocationLabel is shown when reverse geocoding succeeds but the
// service has no display name for the spot.
const pickedLocationLabel = "Vị trí đã chọn"

// Client implements domain.Geocoder against a Nominatim-compatible service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	country    string
	language   string
	limit      int
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a geocoding client restricted to one country and
// localized via the Accept-Language header.
func NewClient(baseURL, country, language string, limit int, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		country:    country,
		language:   language,
		limit:      limit,
		metrics:    metrics,
		logger:     logger,
	}
}

// SearchAddress returns forward-geocoding suggestions for a free-text query.
// It is total: failures yield an empty list, never an error.
func (c *Client) SearchAddress(ctx context.Context, query string) []domain.AddressSearchResult {
	if utf8.RuneCountInString(strings.TrimSpace(query)) < minQueryRunes {
		c.metrics.GeocodeRequests.WithLabelValues("search", "skipped").Inc()
		return []domain.AddressSearchResult{}
	}

	params := url.Values{
		"format":       {"json"},
		"q":            {query},
		"limit":        {strconv.Itoa(c.limit)},
		"countrycodes": {c.country},
	}
	var rows []searchResult
	if err := c.getJSON(ctx, c.baseURL+"/search?"+params.Encode(), &rows); err != nil {
		c.logger.Warn("address search failed", "query", query, "error", err)
		c.metrics.GeocodeRequests.WithLabelValues("search", "error").Inc()
		return []domain.AddressSearchResult{}
	}
	c.metrics.GeocodeRequests.WithLabelValues("search", "success").Inc()

	results := make([]domain.AddressSearchResult, 0, len(rows))
	for _, row := range rows {
		lat, errLat := strconv.ParseFloat(row.Lat, 64)
		lon, errLon := strconv.ParseFloat(row.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		results = append(results, domain.AddressSearchResult{
			Name:        firstSegment(row.DisplayName),
			Address:     row.DisplayName,
			Coordinates: domain.Geo{Lat: lat, Lon: lon},
		})
	}
	return results
}

// ReverseGeocode resolves coordinates to a short display label. It is total:
// on any failure the coordinates themselves, formatted to four decimals,
// become the label.
func (c *Client) ReverseGeocode(ctx context.Context, coords domain.Geo) string {
	params := url.Values{
		"format":         {"json"},
		"lat":            {strconv.FormatFloat(coords.Lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(coords.Lon, 'f', -1, 64)},
		"zoom":           {"18"},
		"addressdetails": {"1"},
	}
	var row reverseResult
	if err := c.getJSON(ctx, c.baseURL+"/reverse?"+params.Encode(), &row); err != nil {
		c.logger.Warn("reverse geocode failed", "lat", coords.Lat, "lon", coords.Lon, "error", err)
		c.metrics.GeocodeRequests.WithLabelValues("reverse", "error").Inc()
		return fmt.Sprintf("%.4f, %.4f", coords.Lat, coords.Lon)
	}
	c.metrics.GeocodeRequests.WithLabelValues("reverse", "success").Inc()

	if row.DisplayName == "" {
		return pickedLocationLabel
	}
	return firstSegment(row.DisplayName)
}

func (c *Client) getJSON(ctx context.Context, fullURL string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept-Language", c.language)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nominatim status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// firstSegment returns the text before the first comma, the short name of a
// full Nominatim display string.
func firstSegment(displayName string) string {
	return strings.SplitN(displayName, ",", 2)[0]
}

// Nominatim API response types.

type searchResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

type reverseResult struct {
	DisplayName string `json:"display_name"`
}
