package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/diendue48k/heritage-map-service/internal/adapter/httpapi"
	"github.com/diendue48k/heritage-map-service/internal/adapter/kvstore"
	"github.com/diendue48k/heritage-map-service/internal/adapter/nominatim"
	"github.com/diendue48k/heritage-map-service/internal/adapter/osrm"
	"github.com/diendue48k/heritage-map-service/internal/adapter/upstream"
	"github.com/diendue48k/heritage-map-service/internal/config"
	"github.com/diendue48k/heritage-map-service/internal/observability"
	"github.com/diendue48k/heritage-map-service/internal/refdata"
	"github.com/diendue48k/heritage-map-service/internal/service"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	fetcher := upstream.NewFetcher(upstream.Options{
		BaseURL:       cfg.APIBaseURL,
		DirectTimeout: cfg.DirectTimeout,
		ProxyTimeout:  cfg.ProxyTimeout,
		Retries:       cfg.FetchRetries,
		Backoff:       cfg.FetchBackoff,
	}, metrics, logger)
	client := upstream.NewClient(fetcher, logger)

	var listCache service.ListCache
	var store *kvstore.Store
	if cfg.CachePath != "" {
		store, err = kvstore.Open(cfg.CachePath, cfg.CacheTTL, metrics, logger)
		if err != nil {
			logger.Warn("durable cache unavailable, continuing without it", "path", cfg.CachePath, "error", err)
		} else {
			listCache = store
			logger.Info("durable cache open", "path", cfg.CachePath, "ttl", cfg.CacheTTL)
		}
	}

	refs := refdata.New(client, metrics, logger)
	explorer := service.NewExplorer(client, refs, listCache, metrics, logger)

	router := osrm.NewClient(cfg.OSRMBaseURL, cfg.RouteTimeout, metrics, logger)
	geocoder := nominatim.NewClient(cfg.NominatimBaseURL, cfg.GeocodeCountry, cfg.GeocodeLanguage,
		cfg.GeocodeLimit, cfg.GeocodeTimeout, metrics, logger)

	srv := httpapi.NewServer(cfg.HTTPAddr, explorer, router, geocoder, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Prime the catalogs; readiness flips once this finishes.
	go explorer.WarmUp(ctx)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("cache close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
