package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePayload(t *testing.T, body string) RawPayload {
	t.Helper()
	var p RawPayload
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	return p
}

func TestAssemble(t *testing.T) {
	fixed := time.Date(2025, time.January, 14, 8, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	t.Run("full payload", func(t *testing.T) {
		p := decodePayload(t, `{
			"elevation": 12,
			"current_weather": {"temperature": -1.5, "windspeed": 22.3},
			"hourly": {
				"precipitation": [0.1, 0.4, 2.2, 0, 0, 0.3, 9.9],
				"snowfall": [0, 0, 0.7, 1.4, 0, 0, 8]
			}
		}`)

		obs, err := Assemble(p)
		require.NoError(t, err)

		assert.Equal(t, -1.5, obs.TemperatureC)
		assert.Equal(t, 22.3, obs.WindSpeedKph)
		require.NotNil(t, obs.MaxRainMm)
		assert.Equal(t, 2.2, *obs.MaxRainMm, "values past the horizon are ignored")
		require.NotNil(t, obs.MaxSnowCm)
		assert.Equal(t, 1.4, *obs.MaxSnowCm)
		require.NotNil(t, obs.ElevationM)
		assert.Equal(t, 12.0, *obs.ElevationM)
		assert.Equal(t, fixed, obs.FetchedAt)
	})

	t.Run("missing hourly block", func(t *testing.T) {
		obs, err := Assemble(decodePayload(t, `{"current_weather": {"temperature": 3, "windspeed": 4}}`))
		require.NoError(t, err)
		assert.Nil(t, obs.MaxRainMm)
		assert.Nil(t, obs.MaxSnowCm)
		assert.Nil(t, obs.ElevationM)
	})

	t.Run("one series omitted", func(t *testing.T) {
		obs, err := Assemble(decodePayload(t, `{"current_weather": {"temperature": 3, "windspeed": 4}, "hourly": {"snowfall": [0.2]}}`))
		require.NoError(t, err)
		assert.Nil(t, obs.MaxRainMm)
		require.NotNil(t, obs.MaxSnowCm)
		assert.Equal(t, 0.2, *obs.MaxSnowCm)
	})

	t.Run("missing current block", func(t *testing.T) {
		_, err := Assemble(decodePayload(t, `{"hourly": {"precipitation": [1]}}`))
		require.ErrorIs(t, err, ErrMalformedPayload)
		assert.ErrorIs(t, err, ErrProviderUnavailable)
	})
}

func TestHorizonMax(t *testing.T) {
	tests := []struct {
		name   string
		series string
		want   *float64
	}{
		{"absent", ``, nil},
		{"null", `null`, nil},
		{"not an array", `{"a": 1}`, nil},
		{"string", `"1.5"`, nil},
		{"empty array", `[]`, Float64(0)},
		{"all non-numeric", `["x", null, true, {"v": 3}]`, Float64(0)},
		{"non-numeric dropped not zeroed", `[null, -0.5, "9"]`, Float64(-0.5)},
		{"first six only", `[0, 0, 0, 0, 0, 1, 50]`, Float64(1)},
		{"mixed", `[0.2, "bad", 3.4, null, 1]`, Float64(3.4)},
		{"fewer than six", `[0.3]`, Float64(0.3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := horizonMax(json.RawMessage(tt.series))
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestAssemble_NoCaching(t *testing.T) {
	first, err := Assemble(decodePayload(t, `{"current_weather": {"temperature": 1, "windspeed": 1}, "hourly": {"precipitation": [1]}}`))
	require.NoError(t, err)
	second, err := Assemble(decodePayload(t, `{"current_weather": {"temperature": 2, "windspeed": 2}, "hourly": {"precipitation": [4]}}`))
	require.NoError(t, err)

	assert.Equal(t, 1.0, *first.MaxRainMm)
	assert.Equal(t, 4.0, *second.MaxRainMm)
	assert.Equal(t, 2.0, second.TemperatureC)
}
