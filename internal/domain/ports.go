package domain

import "context"

// Router computes driving directions between two points. Implementations are
// total: any routing failure degrades to a straight-line estimate instead of
// an error.
type Router interface {
	FetchDirections(ctx context.Context, start, end Geo) RouteData
}

// Geocoder resolves free-text addresses and coordinates. Implementations are
// total: search failures yield no suggestions and reverse failures yield a
// coordinate-string label.
type Geocoder interface {
	SearchAddress(ctx context.Context, query string) []AddressSearchResult
	ReverseGeocode(ctx context.Context, coords Geo) string
}
