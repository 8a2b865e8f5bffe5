package domain

import (
	"strconv"
	"strings"
	"time"
)

const notAvailable = "N/A"

const geologicalContext = "Interpret map panel for structural and deposit-related field considerations."

// Assessment is the full record of one scoring pass, as exposed to API
// clients and published downstream.
type Assessment struct {
	ID          string      `json:"id"`
	Location    Location    `json:"location"`
	Observation Observation `json:"observation"`
	Inputs      UserInputs  `json:"inputs"`
	Result      RiskResult  `json:"result"`
	Summary     string      `json:"summary"`
	Basin       string      `json:"basin"`
	AssessedAt  time.Time   `json:"assessed_at"`
}

// BasinFor returns the simplified offshore basin for a latitude band.
func BasinFor(c *Coordinates) string {
	switch {
	case c == nil:
		return notAvailable
	case c.Lat < 60:
		return "North Sea Basin"
	case c.Lat < 70:
		return "Norwegian Sea Basin"
	default:
		return "Barents Sea Basin"
	}
}

// ReportInput is everything the plain-text report flattens. Nil pointers
// render as N/A.
type ReportInput struct {
	LocationName string
	Coordinates  *Coordinates
	Observation  *Observation
	Inputs       UserInputs
	Result       *RiskResult
}

// Report renders a line-oriented "Label: value" summary suitable for pasting
// into a field log.
func Report(in ReportInput) string {
	var (
		temp, wind, rain, snow, elev = notAvailable, notAvailable, notAvailable, notAvailable, notAvailable
		coords                       = notAvailable
		risk, score, reasons         = notAvailable, notAvailable, notAvailable
		name                         = in.LocationName
	)
	if name == "" {
		name = notAvailable
	}
	if o := in.Observation; o != nil {
		temp = withUnit(formatNumber(o.TemperatureC), "°C")
		wind = withUnit(formatNumber(o.WindSpeedKph), "km/h")
		rain = withUnit(formatOptional(o.MaxRainMm), "mm")
		snow = withUnit(formatOptional(o.MaxSnowCm), "cm")
		elev = withUnit(formatOptional(o.ElevationM), "m")
	}
	if c := in.Coordinates; c != nil {
		coords = formatNumber(c.Lat) + ", " + formatNumber(c.Lon)
	}
	if r := in.Result; r != nil {
		risk = r.Level.Label()
		score = strconv.Itoa(r.Score)
		reasons = "None"
		if len(r.Reasons) > 0 {
			reasons = strings.Join(r.Reasons, ", ")
		}
	}

	lines := []string{
		"Field Risk Report",
		"Location: " + name,
		"Temperature: " + temp,
		"Wind: " + wind,
		"Rain (max next 6h): " + rain,
		"Snow (max next 6h): " + snow,
		"Elevation: " + elev,
		"Coordinates: " + coords,
		"Basin (simplified): " + BasinFor(in.Coordinates),
		"Geological context: " + geologicalContext,
		"Ground: " + in.Inputs.Ground.String(),
		"Terrain: " + in.Inputs.Terrain.String(),
		"Severity: " + in.Inputs.Severity.String(),
		"Risk: " + risk,
		"Risk Score: " + score,
		"Reasons: " + reasons,
	}
	return strings.Join(lines, "\n")
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatOptional(v *float64) string {
	if v == nil {
		return notAvailable
	}
	return formatNumber(*v)
}

func withUnit(v, unit string) string {
	if v == notAvailable {
		return v
	}
	return v + " " + unit
}
