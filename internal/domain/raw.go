package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// RawKey holds an upstream scalar (a key or a coded value) that may arrive
// as a JSON string or number. Values are trimmed at decode time so keys from
// different tables compare equal regardless of encoding.
type RawKey string

// UnmarshalJSON accepts strings, numbers, and null.
func (k *RawKey) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*k = RawKey(strings.TrimSpace(t))
	case float64:
		*k = RawKey(strconv.FormatFloat(t, 'f', -1, 64))
	case nil:
		*k = ""
	default:
		return fmt.Errorf("key has unsupported type %T", v)
	}
	return nil
}

// String returns the normalized key value.
func (k RawKey) String() string {
	return strings.TrimSpace(string(k))
}

// RawCoord tolerantly decodes a coordinate that may be a number, a numeric
// string, or absent. Anything non-numeric coerces to 0, which downstream
// means "missing".
type RawCoord float64

// UnmarshalJSON never fails on bad values; it coerces them to zero.
func (c *RawCoord) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*c = 0
		return nil
	}
	switch t := v.(type) {
	case float64:
		*c = RawCoord(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			*c = 0
			return nil
		}
		*c = RawCoord(f)
	default:
		*c = 0
	}
	return nil
}

// RawLocation is the upstream dim_location row shape.
type RawLocation struct {
	LocationKey         RawKey   `json:"location_key"`
	LocationID          string   `json:"location_id"`
	LocationName        string   `json:"location_name"`
	LocationDescription string   `json:"location_description"`
	Address             string   `json:"address"`
	LocationType        string   `json:"location_type"`
	Latitude            RawCoord `json:"latitude"`
	Longitude           RawCoord `json:"longitude"`
	CityID              RawKey   `json:"city_id"`
}

// RawCity is the upstream city row shape, a coarser site source.
type RawCity struct {
	CityID   RawKey   `json:"city_id"`
	CityName string   `json:"city_name"`
	Lat      RawCoord `json:"lat"`
	Lng      RawCoord `json:"lng"`
}

// RawPerson is the upstream dim_person row shape. Year fields usually arrive
// as strings but some rows carry bare numbers, so they decode through RawKey.
type RawPerson struct {
	PersonKey  RawKey `json:"person_key"`
	PersonID   string `json:"person_id"`
	PersonName string `json:"person_name"`
	BirthYear  RawKey `json:"birth_year"`
	DeathYear  RawKey `json:"death_year"`
	Birthplace string `json:"birthplace"`
	Biography  string `json:"biography"`
}

// RawFactEvent is the upstream fact_event row shape.
type RawFactEvent struct {
	EventKey      RawKey `json:"event_key"`
	EventID       string `json:"event_id"`
	EventName     string `json:"event_name"`
	EventDate     string `json:"event_date"`
	Description   string `json:"description"`
	LocationKey   RawKey `json:"location_key"`
	MainPersonKey RawKey `json:"main_person_key"`
}

// RawMedia is the upstream dim_media row shape. The URL lives in the
// oddly named "media" column.
type RawMedia struct {
	MediaKey  RawKey `json:"media_key"`
	MediaID   string `json:"media_id"`
	Media     string `json:"media"`
	MediaType string `json:"media_type"`
}

// RawEventMedia links an event to a media item (many-to-many).
type RawEventMedia struct {
	MediaKey RawKey `json:"media_key"`
	EventKey RawKey `json:"event_key"`
}

// RawPersonEvent links a person to an event (many-to-many).
type RawPersonEvent struct {
	PersonKey RawKey `json:"person_key"`
	EventKey  RawKey `json:"event_key"`
	Role      string `json:"role"`
}
