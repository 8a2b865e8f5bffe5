package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable means the weather fetch failed or returned a malformed structure.
	ErrProviderUnavailable = errors.New("weather provider unavailable")

	// ErrMalformedPayload is a provider response that cannot be assembled into an Observation.
	ErrMalformedPayload = fmt.Errorf("%w: malformed payload", ErrProviderUnavailable)

	// ErrLocationNotFound means geocoding returned no results.
	ErrLocationNotFound = errors.New("location not found")

	// ErrEmptyQuery is a blank place-name search.
	ErrEmptyQuery = errors.New("empty location query")

	// ErrGeocodingFailed wraps transport or decoding failures from the geocoder.
	ErrGeocodingFailed = errors.New("geocoding failed")

	// ErrNoLocation means a refresh was requested before any location was set.
	ErrNoLocation = errors.New("no location selected")
)

// UserMessage maps an error to the short text shown to the person screening.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrProviderUnavailable):
		return "Weather fetch failed. Click Refresh to try again."
	case errors.Is(err, ErrLocationNotFound):
		return "City not found."
	case errors.Is(err, ErrEmptyQuery):
		return "Please type a city name."
	case errors.Is(err, ErrGeocodingFailed):
		return "Something went wrong while searching the city."
	case errors.Is(err, ErrNoLocation):
		return "No location selected."
	default:
		return "Something went wrong."
	}
}
