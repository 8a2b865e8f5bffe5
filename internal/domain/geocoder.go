package domain

import "context"

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location is a named point the risk is screened for.
type Location struct {
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
}

// GeocodingResult contains location data returned by a geocoding provider.
// A zero-value result means the provider found nothing.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	ElevationM       *float64
}

// Found reports whether the result carries a match.
func (r GeocodingResult) Found() bool {
	return r.PlaceName != "" || r.Lat != 0 || r.Lon != 0
}

// Geocoder resolves free-text place names to coordinates.
type Geocoder interface {
	// ForwardGeocode converts a place name to coordinates.
	ForwardGeocode(ctx context.Context, name string) (GeocodingResult, error)
}

// WeatherProvider fetches the raw forecast payload for a point.
type WeatherProvider interface {
	FetchForecast(ctx context.Context, at Coordinates) (RawPayload, error)
}
