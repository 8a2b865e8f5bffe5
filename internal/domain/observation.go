package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// HorizonHours is the number of leading hourly buckets aggregated into
// MaxRainMm and MaxSnowCm.
const HorizonHours = 6

// RawCurrent is the provider's instantaneous conditions block.
type RawCurrent struct {
	Temperature float64 `json:"temperature"`
	Windspeed   float64 `json:"windspeed"`
}

// RawHourly keeps the hourly series undecoded so element types can be
// inspected one by one.
type RawHourly struct {
	Precipitation json.RawMessage `json:"precipitation,omitempty"`
	Snowfall      json.RawMessage `json:"snowfall,omitempty"`
}

// RawPayload mirrors the subset of the Open-Meteo forecast response the
// assembler reads.
type RawPayload struct {
	Current   *RawCurrent `json:"current_weather"`
	Hourly    *RawHourly  `json:"hourly,omitempty"`
	Elevation *float64    `json:"elevation,omitempty"`
}

// Observation is an immutable weather snapshot consumed by the scorer.
type Observation struct {
	TemperatureC float64   `json:"temperature_c"`
	WindSpeedKph float64   `json:"wind_speed_kph"`
	MaxRainMm    *float64  `json:"max_rain_mm"` // nil when the provider omitted the series
	MaxSnowCm    *float64  `json:"max_snow_cm"` // nil when the provider omitted the series
	ElevationM   *float64  `json:"elevation_m,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Assemble reduces a provider payload to an Observation stamped with the
// package clock. A payload without a current-conditions block is malformed.
func Assemble(p RawPayload) (Observation, error) {
	if p.Current == nil {
		return Observation{}, ErrMalformedPayload
	}

	obs := Observation{
		TemperatureC: p.Current.Temperature,
		WindSpeedKph: p.Current.Windspeed,
		ElevationM:   p.Elevation,
		FetchedAt:    clock.Now(),
	}
	if p.Hourly != nil {
		obs.MaxRainMm = horizonMax(p.Hourly.Precipitation)
		obs.MaxSnowCm = horizonMax(p.Hourly.Snowfall)
	}
	return obs, nil
}

// horizonMax returns the largest numeric value among the first HorizonHours
// entries of a JSON array. It returns nil when the series is absent or not an
// array, and 0 when no entry in the window is numeric.
func horizonMax(series json.RawMessage) *float64 {
	series = bytes.TrimSpace(series)
	if len(series) == 0 || series[0] != '[' {
		return nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(series, &elems); err != nil {
		return nil
	}
	if len(elems) > HorizonHours {
		elems = elems[:HorizonHours]
	}

	maxVal := 0.0
	seen := false
	for _, e := range elems {
		var v any
		if err := json.Unmarshal(e, &v); err != nil {
			continue
		}
		f, ok := v.(float64)
		if !ok {
			continue
		}
		if !seen || f > maxVal {
			maxVal = f
			seen = true
		}
	}
	return &maxVal
}

// Float64 returns a pointer to v, for building observations by hand.
func Float64(v float64) *float64 {
	return &v
}
