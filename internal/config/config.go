package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	APIBaseURL      string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Multi-strategy fetch pipeline. Proxied requests get a longer bound
	// because relay latency is much higher than direct latency.
	DirectTimeout time.Duration
	ProxyTimeout  time.Duration
	FetchRetries  int
	FetchBackoff  time.Duration

	// Durable list cache. An empty path disables persistence.
	CachePath string
	CacheTTL  time.Duration

	// Routing service.
	OSRMBaseURL  string
	RouteTimeout time.Duration

	// Geocoding service.
	NominatimBaseURL string
	GeocodeTimeout   time.Duration
	GeocodeCountry   string
	GeocodeLanguage  string
	GeocodeLimit     int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL: envOrDefault("API_BASE_URL", "https://web-production-c3ccb.up.railway.app"),
		HTTPAddr:   envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:   envOrDefault("LOG_LEVEL", "info"),
		LogFormat:  envOrDefault("LOG_FORMAT", "json"),

		CachePath: envOrDefault("CACHE_PATH", "heritage-cache.db"),

		OSRMBaseURL:      envOrDefault("OSRM_BASE_URL", "https://router.project-osrm.org"),
		NominatimBaseURL: envOrDefault("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocodeCountry:   envOrDefault("GEOCODE_COUNTRY", "vn"),
		GeocodeLanguage:  envOrDefault("GEOCODE_LANGUAGE", "vi"),
	}

	var err error
	if cfg.ShutdownTimeout, err = parseDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.DirectTimeout, err = parseDuration("DIRECT_TIMEOUT", "8s"); err != nil {
		return nil, err
	}
	if cfg.ProxyTimeout, err = parseDuration("PROXY_TIMEOUT", "20s"); err != nil {
		return nil, err
	}
	if cfg.FetchBackoff, err = parseDuration("FETCH_BACKOFF", "1s"); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = parseDuration("CACHE_TTL", "24h"); err != nil {
		return nil, err
	}
	if cfg.RouteTimeout, err = parseDuration("ROUTE_TIMEOUT", "8s"); err != nil {
		return nil, err
	}
	if cfg.GeocodeTimeout, err = parseDuration("GEOCODE_TIMEOUT", "4s"); err != nil {
		return nil, err
	}
	if cfg.FetchRetries, err = parseInt("FETCH_RETRIES", 1, 0, 5); err != nil {
		return nil, err
	}
	if cfg.GeocodeLimit, err = parseInt("GEOCODE_LIMIT", 5, 1, 50); err != nil {
		return nil, err
	}

	if cfg.APIBaseURL == "" {
		return nil, errors.New("API_BASE_URL is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return d, nil
}

func parseInt(key string, fallback, minValue, maxValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < minValue || n > maxValue {
		return 0, fmt.Errorf("invalid %s: %q (must be %d-%d)", key, raw, minValue, maxValue)
	}
	return n, nil
}
