package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Display fallbacks in the product language.
	unnamedLabel    = "Không tên"
	defaultSiteType = "Di tích"
	citySiteType    = "Thành phố"
)

// MapSiteRow decodes a raw site row and maps it to a Site. Rows are a tagged
// union discriminated by field presence: a city row carries "city_name", a
// location row carries "location_name" or "location_key". Rows that declare
// neither are rejected instead of producing a half-mapped site.
func MapSiteRow(row json.RawMessage) (Site, error) {
	var probe struct {
		CityName     *string `json:"city_name"`
		LocationName *string `json:"location_name"`
		LocationKey  *RawKey `json:"location_key"`
	}
	if err := json.Unmarshal(row, &probe); err != nil {
		return Site{}, fmt.Errorf("decode site row: %w", err)
	}

	if probe.CityName != nil {
		var city RawCity
		if err := json.Unmarshal(row, &city); err != nil {
			return Site{}, fmt.Errorf("decode city row: %w", err)
		}
		return MapCity(city), nil
	}

	if probe.LocationName == nil && probe.LocationKey == nil {
		return Site{}, errors.New("site row is neither a location nor a city")
	}
	var loc RawLocation
	if err := json.Unmarshal(row, &loc); err != nil {
		return Site{}, fmt.Errorf("decode location row: %w", err)
	}
	return MapLocation(loc), nil
}

// MapLocation maps a dim_location row to a Site. The surrogate location_key
// backs the identity when the natural location_id is empty.
func MapLocation(loc RawLocation) Site {
	id := loc.LocationID
	if id == "" {
		id = loc.LocationKey.String()
	}
	name := loc.LocationName
	if name == "" {
		name = unnamedLabel
	}
	siteType := loc.LocationType
	if siteType == "" {
		siteType = defaultSiteType
	}

	return Site{
		SiteID:      id,
		SiteName:    name,
		SiteType:    siteType,
		Latitude:    float64(loc.Latitude),
		Longitude:   float64(loc.Longitude),
		Address:     loc.Address,
		Description: loc.LocationDescription,
		AdditionalInfo: map[string]string{
			"Key":     loc.LocationKey.String(),
			"City ID": loc.CityID.String(),
		},
	}
}

// MapCity maps a city row to a Site with the coarse city site type.
func MapCity(city RawCity) Site {
	return Site{
		SiteID:    city.CityID.String(),
		SiteName:  city.CityName,
		SiteType:  citySiteType,
		Latitude:  float64(city.Lat),
		Longitude: float64(city.Lng),
		AdditionalInfo: map[string]string{
			"City ID": city.CityID.String(),
		},
	}
}

// MapPerson maps a dim_person row to a Person.
func MapPerson(p RawPerson) Person {
	id := p.PersonID
	if id == "" {
		id = p.PersonKey.String()
	}
	name := p.PersonName
	if name == "" {
		name = unnamedLabel
	}

	return Person{
		PersonID:  id,
		FullName:  name,
		BirthYear: parseYear(p.BirthYear.String()),
		DeathYear: parseYear(p.DeathYear.String()),
	}
}

// parseYear converts a raw year value to a year, or nil when absent.
// Non-numeric values and zero are both treated as missing; the source uses
// "0" as an unknown-year marker, so year zero itself cannot be represented.
func parseYear(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year == 0 {
		return nil
	}
	return &year
}

// MapMedia maps a dim_media row to Media. The upstream "youtube" type
// normalizes to video; everything else but "video" is treated as an image.
// The source carries no per-relation caption, so captions are always empty.
func MapMedia(m RawMedia) Media {
	mediaType := MediaImage
	if m.MediaType == "video" || m.MediaType == "youtube" {
		mediaType = MediaVideo
	}
	id := m.MediaID
	if id == "" {
		id = m.MediaKey.String()
	}
	return Media{
		MediaID:   id,
		MediaURL:  m.Media,
		MediaType: mediaType,
		Caption:   "",
	}
}
