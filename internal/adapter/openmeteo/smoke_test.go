//go:build openmeteo

package openmeteo

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/field-risk-service/internal/domain"
	"github.com/couchcryptid/field-risk-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the public Open-Meteo APIs and need network access.
// Run with: go test -tags=openmeteo ./internal/adapter/openmeteo/ -v -count=1

func TestSmoke_FetchForecast(t *testing.T) {
	c := NewForecastClient("https://api.open-meteo.com", 10*time.Second, BreakerSettings{}, observability.NewMetricsForTesting(), discardLogger())

	payload, err := c.FetchForecast(context.Background(), domain.Coordinates{Lat: 58.97, Lon: 5.73})
	require.NoError(t, err)

	obs, err := domain.Assemble(payload)
	require.NoError(t, err)
	assert.NotNil(t, obs.MaxRainMm)
	assert.NotNil(t, obs.MaxSnowCm)
	assert.NotNil(t, obs.ElevationM)

	r := domain.Score(obs, domain.UserInputs{})
	t.Logf("Stavanger: %.1f°C, %.1f km/h, score %d (%s)", obs.TemperatureC, obs.WindSpeedKph, r.Score, r.Level)
}

func TestSmoke_ForwardGeocode(t *testing.T) {
	c := NewGeocodingClient("https://geocoding-api.open-meteo.com", "NO", 10*time.Second, observability.NewMetricsForTesting(), discardLogger())

	result, err := c.ForwardGeocode(context.Background(), "Bergen")
	require.NoError(t, err)
	require.True(t, result.Found())
	assert.InDelta(t, 60.39, result.Lat, 0.2)
	assert.InDelta(t, 5.32, result.Lon, 0.2)
	t.Logf("Bergen: %s (%.4f, %.4f)", result.FormattedAddress, result.Lat, result.Lon)
}

func TestSmoke_ForwardGeocode_NotFound(t *testing.T) {
	c := NewGeocodingClient("https://geocoding-api.open-meteo.com", "NO", 10*time.Second, observability.NewMetricsForTesting(), discardLogger())

	result, err := c.ForwardGeocode(context.Background(), "Xyzzyplughvillage")
	require.NoError(t, err)
	assert.False(t, result.Found())
}
