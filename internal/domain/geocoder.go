package domain

import "context"

// Geocoder resolves coordinates to the country that contains them.
type Geocoder interface {
	// CountryCode returns the ISO 3166-1 alpha-2 code for the coordinate, or an
	// empty string when the point is not inside any country (e.g. open ocean).
	CountryCode(ctx context.Context, lat, lon float64) (string, error)
}
