// Package httpapi serves the explorer's typed outputs as a JSON API along
// with health, readiness, and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/diendue48k/heritage-map-service/internal/domain"
)

// Explorer is the catalog-and-detail surface the API serves.
type Explorer interface {
	FetchSites(ctx context.Context) []domain.Site
	FetchPersons(ctx context.Context) []domain.Person
	FetchSiteDetail(ctx context.Context, id string) *domain.SiteDetail
	FetchPersonDetail(ctx context.Context, id string) *domain.PersonDetail
	CheckReadiness(ctx context.Context) error
}

// Server exposes the JSON API plus /healthz, /readyz, and /metrics.
type Server struct {
	httpServer *http.Server
	explorer   Explorer
	router     domain.Router
	geocoder   domain.Geocoder
	logger     *slog.Logger
}

// NewServer creates the API server with all routes registered.
func NewServer(addr string, explorer Explorer, router domain.Router, geocoder domain.Geocoder, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      requestLog(mux, logger),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		explorer: explorer,
		router:   router,
		geocoder: geocoder,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/sites", s.handleSites)
	mux.HandleFunc("GET /api/sites/{id}", s.handleSiteDetail)
	mux.HandleFunc("GET /api/persons", s.handlePersons)
	mux.HandleFunc("GET /api/persons/{id}", s.handlePersonDetail)
	mux.HandleFunc("GET /api/directions", s.handleDirections)
	mux.HandleFunc("GET /api/geocode/search", s.handleGeocodeSearch)
	mux.HandleFunc("GET /api/geocode/reverse", s.handleGeocodeReverse)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.explorer.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
