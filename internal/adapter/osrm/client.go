// Package osrm adapts the OSRM routing HTTP API to the domain Router port.
package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/diendue48k/heritage-map-service/internal/domain"
	"github.com/diendue48k/heritage-map-service/internal/observability"
)

// offlineDurationLabel marks a straight-line estimate ("as the crow flies").
const offlineDurationLabel = "Đường chim bay"

// offlineInstruction is the single step shown when routing is unavailable.
const offlineInstruction = "Chế độ offline: Đi thẳng đến đích"

// Client implements domain.Router against an OSRM-compatible service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OSRM routing client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchDirections returns driving directions from start to end. It never
// fails: any routing-service problem degrades to a straight-line estimate
// between the two points.
func (c *Client) FetchDirections(ctx context.Context, start, end domain.Geo) domain.RouteData {
	route, err := c.requestRoute(ctx, start, end)
	if err != nil {
		c.logger.Warn("routing request failed, using straight-line fallback",
			"start", start, "end", end, "error", err)
		c.metrics.RouteRequests.WithLabelValues("fallback").Inc()
		return straightLineRoute(start, end)
	}
	c.metrics.RouteRequests.WithLabelValues("success").Inc()
	return route
}

func (c *Client) requestRoute(ctx context.Context, start, end domain.Geo) (domain.RouteData, error) {
	// OSRM path segments use lon,lat order.
	u := fmt.Sprintf("%s/route/v1/driving/%f,%f;%f,%f?steps=true&geometries=geojson&overview=full",
		c.baseURL, start.Lon, start.Lat, end.Lon, end.Lat)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.RouteData{}, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.RouteData{}, fmt.Errorf("route request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return domain.RouteData{}, fmt.Errorf("osrm status %d: %s", resp.StatusCode, body)
	}

	var osrmResp response
	if err := json.NewDecoder(resp.Body).Decode(&osrmResp); err != nil {
		return domain.RouteData{}, fmt.Errorf("decode response: %w", err)
	}
	if osrmResp.Code != "Ok" || len(osrmResp.Routes) == 0 {
		return domain.RouteData{}, errors.New("no route found")
	}

	route := osrmResp.Routes[0]
	if len(route.Legs) == 0 {
		return domain.RouteData{}, errors.New("route has no legs")
	}

	steps := make([]domain.RouteStep, 0, len(route.Legs[0].Steps))
	for _, step := range route.Legs[0].Steps {
		steps = append(steps, domain.RouteStep{
			Instruction: instructionText(step.Maneuver, step.Name),
			Distance:    formatDistance(step.Distance),
		})
	}

	// GeoJSON coordinates arrive as (lon,lat); internal order is (lat,lon).
	geometry := make([]domain.Geo, 0, len(route.Geometry.Coordinates))
	for _, coord := range route.Geometry.Coordinates {
		if len(coord) < 2 {
			continue
		}
		geometry = append(geometry, domain.Geo{Lat: coord[1], Lon: coord[0]})
	}

	return domain.RouteData{
		Summary: domain.RouteSummary{
			TotalDistance: formatDistance(route.Distance),
			TotalDuration: formatDuration(route.Duration),
		},
		Steps:         steps,
		RouteGeometry: geometry,
	}, nil
}

// straightLineRoute is the terminal fallback: the great-circle distance, a
// sentinel duration label, one generic step, and a two-point geometry.
func straightLineRoute(start, end domain.Geo) domain.RouteData {
	meters := domain.HaversineKm(start, end) * 1000
	return domain.RouteData{
		Summary: domain.RouteSummary{
			TotalDistance: formatDistance(meters),
			TotalDuration: offlineDurationLabel,
		},
		Steps:         []domain.RouteStep{{Instruction: offlineInstruction, Distance: ""}},
		RouteGeometry: []domain.Geo{start, end},
	}
}

// formatDistance renders meters for display: whole meters below 1 km, one
// decimal of kilometers at or above it, and nothing below one meter.
func formatDistance(meters float64) string {
	if meters < 1 {
		return ""
	}
	if meters >= 1000 {
		return fmt.Sprintf("%.1f km", meters/1000)
	}
	return fmt.Sprintf("%d m", int(math.Round(meters)))
}

func formatDuration(seconds float64) string {
	return fmt.Sprintf("%d phút", int(math.Round(seconds/60)))
}

// OSRM API response types.

type response struct {
	Code   string  `json:"code"`
	Routes []route `json:"routes"`
}

type route struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
	Legs []leg `json:"legs"`
}

type leg struct {
	Steps []step `json:"steps"`
}

type step struct {
	Name     string   `json:"name"`
	Distance float64  `json:"distance"`
	Maneuver maneuver `json:"maneuver"`
}

type maneuver struct {
	Type     string `json:"type"`
	Modifier string `json:"modifier"`
	Exit     int    `json:"exit"`
}
