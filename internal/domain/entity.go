package domain

// MediaType is the closed set of media kinds the UI can render.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Site is a displayable heritage site assembled from either a raw location
// row or a raw city row. Identity is normalized to a string because the
// upstream encodes ids as strings or numbers depending on the source table.
type Site struct {
	SiteID          string            `json:"site_id"`
	SiteName        string            `json:"site_name"`
	SiteType        string            `json:"site_type"`
	Latitude        float64           `json:"latitude"`
	Longitude       float64           `json:"longitude"`
	Address         string            `json:"address,omitempty"`
	EstablishedYear *int              `json:"established_year,omitempty"`
	Status          string            `json:"status,omitempty"`
	Description     string            `json:"description,omitempty"`
	AdditionalInfo  map[string]string `json:"additional_info,omitempty"`
}

// HasCoordinates reports whether the site can be placed on the map.
// Zero is treated as "missing"; coordinates on the equator or prime
// meridian are outside this data set.
func (s Site) HasCoordinates() bool {
	return s.Latitude != 0 && s.Longitude != 0
}

// Person is a historical figure linked to events and media.
type Person struct {
	PersonID  string `json:"person_id"`
	FullName  string `json:"full_name"`
	BirthYear *int   `json:"birth_year,omitempty"`
	DeathYear *int   `json:"death_year,omitempty"`
}

// Media is a single image or video attached to an event.
type Media struct {
	MediaID      string    `json:"media_id"`
	MediaURL     string    `json:"media_url"`
	MediaType    MediaType `json:"media_type"`
	Caption      string    `json:"caption"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
}

// Event is a historical event hydrated with its related persons and media.
// Date fields are free-form strings from the source, not validated dates.
type Event struct {
	EventID         string   `json:"event_id"`
	EventName       string   `json:"event_name"`
	StartDate       string   `json:"start_date,omitempty"`
	EndDate         string   `json:"end_date,omitempty"`
	Description     string   `json:"description"`
	Persons         []Person `json:"persons"`
	Media           []Media  `json:"media"`
	RelatedSiteID   string   `json:"related_site_id,omitempty"`
	RelatedSiteName string   `json:"related_site_name,omitempty"`
}

// SiteDetail is a site with its hydrated events.
type SiteDetail struct {
	Site
	Events []Event `json:"events"`
}

// PersonDetail is a person with biography plus the events they appear in and
// all media aggregated across those events.
type PersonDetail struct {
	Person
	Biography string  `json:"biography"`
	Media     []Media `json:"media"`
	Events    []Event `json:"events"`
}

// RouteStep is one human-readable driving instruction.
type RouteStep struct {
	Instruction string `json:"instruction"`
	Distance    string `json:"distance"`
}

// RouteSummary holds display-formatted route totals.
type RouteSummary struct {
	TotalDistance string `json:"totalDistance"`
	TotalDuration string `json:"totalDuration"`
}

// RouteData is a complete set of directions between two points.
type RouteData struct {
	Summary       RouteSummary `json:"summary"`
	Steps         []RouteStep  `json:"steps"`
	RouteGeometry []Geo        `json:"routeGeometry"`
}

// AddressSearchResult is one forward-geocoding suggestion.
type AddressSearchResult struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Coordinates Geo    `json:"coordinates"`
}
