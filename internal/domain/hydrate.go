package domain

// ReferenceSnapshot is the join-table state event hydration runs against:
// media and person dimension rows indexed by normalized key, plus the two
// many-to-many relation lists. An empty snapshot makes every join come up
// empty, which is the pre-load behavior.
type ReferenceSnapshot struct {
	Media        map[string]RawMedia
	EventMedia   []RawEventMedia
	PersonEvents []RawPersonEvent
	Persons      map[string]RawPerson
}

// EmptyReference returns a snapshot with no rows loaded.
func EmptyReference() ReferenceSnapshot {
	return ReferenceSnapshot{
		Media:   map[string]RawMedia{},
		Persons: map[string]RawPerson{},
	}
}

// HydrateEvents joins raw fact_event rows against the reference snapshot,
// attaching the media and persons each event links to. Relations whose
// dimension row is missing are dropped silently; gaps in the source data
// must degrade the view, not break it.
func HydrateEvents(rawEvents []RawFactEvent, ref ReferenceSnapshot) []Event {
	events := make([]Event, 0, len(rawEvents))
	for _, raw := range rawEvents {
		eventKey := raw.EventKey.String()

		media := make([]Media, 0)
		for _, rel := range ref.EventMedia {
			if rel.EventKey.String() != eventKey {
				continue
			}
			row, ok := ref.Media[rel.MediaKey.String()]
			if !ok {
				continue
			}
			media = append(media, MapMedia(row))
		}

		persons := make([]Person, 0)
		for _, rel := range ref.PersonEvents {
			if rel.EventKey.String() != eventKey {
				continue
			}
			row, ok := ref.Persons[rel.PersonKey.String()]
			if !ok {
				continue
			}
			persons = append(persons, MapPerson(row))
		}

		id := raw.EventID
		if id == "" {
			id = eventKey
		}
		events = append(events, Event{
			EventID:       id,
			EventName:     raw.EventName,
			StartDate:     raw.EventDate,
			Description:   raw.Description,
			Media:         media,
			Persons:       persons,
			RelatedSiteID: raw.LocationKey.String(),
		})
	}
	return events
}
