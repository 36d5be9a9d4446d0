package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/diendue48k/heritage-map-service/internal/domain"
)

type listResponse[T any] struct {
	Count int `json:"count"`
	Data  []T `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleSites(w http.ResponseWriter, r *http.Request) {
	sites := s.explorer.FetchSites(r.Context())
	writeJSON(w, http.StatusOK, listResponse[domain.Site]{Count: len(sites), Data: sites})
}

func (s *Server) handlePersons(w http.ResponseWriter, r *http.Request) {
	persons := s.explorer.FetchPersons(r.Context())
	writeJSON(w, http.StatusOK, listResponse[domain.Person]{Count: len(persons), Data: persons})
}

func (s *Server) handleSiteDetail(w http.ResponseWriter, r *http.Request) {
	detail := s.explorer.FetchSiteDetail(r.Context(), r.PathValue("id"))
	if detail == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "site not found"})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handlePersonDetail(w http.ResponseWriter, r *http.Request) {
	detail := s.explorer.FetchPersonDetail(r.Context(), r.PathValue("id"))
	if detail == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "person not found"})
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDirections(w http.ResponseWriter, r *http.Request) {
	start, err := parseGeoParam(r.URL.Query().Get("from"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "from: " + err.Error()})
		return
	}
	end, err := parseGeoParam(r.URL.Query().Get("to"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "to: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.router.FetchDirections(r.Context(), start, end))
}

func (s *Server) handleGeocodeSearch(w http.ResponseWriter, r *http.Request) {
	results := s.geocoder.SearchAddress(r.Context(), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, listResponse[domain.AddressSearchResult]{Count: len(results), Data: results})
}

func (s *Server) handleGeocodeReverse(w http.ResponseWriter, r *http.Request) {
	coords, err := parseLatLon(r.URL.Query().Get("lat"), r.URL.Query().Get("lon"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	label := s.geocoder.ReverseGeocode(r.Context(), coords)
	writeJSON(w, http.StatusOK, map[string]string{"label": label})
}

// parseGeoParam parses a "lat,lon" query value.
func parseGeoParam(value string) (domain.Geo, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return domain.Geo{}, fmt.Errorf("expected \"lat,lon\", got %q", value)
	}
	return parseLatLon(parts[0], parts[1])
}

func parseLatLon(latStr, lonStr string) (domain.Geo, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return domain.Geo{}, fmt.Errorf("invalid latitude %q", latStr)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return domain.Geo{}, fmt.Errorf("invalid longitude %q", lonStr)
	}
	return domain.Geo{Lat: lat, Lon: lon}, nil
}
