// Package domain models the heritage-site data set served by the upstream
// data API and the reconciliation rules that turn its normalized rows into
// display-ready entities.
//
// # Upstream schema
//
// The API exposes a small star schema: dimension tables (dim_location,
// dim_person, dim_media, plus a coarser city table) and fact/relation tables
// (fact_event, event_media, person_events). Rows arrive either as a bare
// JSON array or wrapped as {"data": [...]}. Keys are encoded inconsistently
// as strings or numbers and may carry stray whitespace; every join in this
// package therefore compares trimmed string forms (see [RawKey]).
//
// # Site merging
//
// Sites come from two sources: location rows and city rows. A city is a
// coarser site (type "Thành phố"). When a location and a city declare the
// same external id, the location wins and the city row is dropped. Sites
// without non-zero coordinates are not displayable and are excluded from
// listings; zero doubles as the missing-value marker because the data set
// contains nothing on the equator or prime meridian.
//
// # Hydration
//
// Events are stored normalized. [HydrateEvents] reconstructs the
// denormalized view by joining each event's relation rows against the
// media and person dimensions. Relations pointing at missing dimension
// rows are dropped rather than surfaced as errors; the source data has
// known completeness gaps.
//
// # Year parsing
//
// Person birth/death years are free-form upstream values. Empty,
// non-numeric, and zero values all map to an absent year. The upstream
// uses "0" as its unknown-year marker, which makes year zero itself
// unrepresentable; see the mapper tests.
package domain
