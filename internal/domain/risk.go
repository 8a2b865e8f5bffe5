package domain

import (
	"fmt"
	"strings"
)

// Level is the coarse classification derived from a risk score.
type Level uint8

const (
	LevelSafe Level = iota
	LevelCaution
	LevelNotRecommended
)

var levelNames = [...]string{"SAFE", "CAUTION", "NOT_RECOMMENDED"}

// String returns the wire form, e.g. "NOT_RECOMMENDED".
func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("Level(%d)", uint8(l))
}

// Label returns the display form, e.g. "NOT RECOMMENDED".
func (l Level) Label() string {
	return strings.ReplaceAll(l.String(), "_", " ")
}

func (l Level) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Level) UnmarshalText(b []byte) error {
	s := strings.ToUpper(strings.TrimSpace(string(b)))
	for i, n := range levelNames {
		if s == n {
			*l = Level(i)
			return nil
		}
	}
	return fmt.Errorf("invalid risk level %q", s)
}

// Level thresholds, applied to the summed score.
const (
	cautionScore        = 2
	notRecommendedScore = 4
)

// LevelFor classifies a score.
func LevelFor(score int) Level {
	switch {
	case score >= notRecommendedScore:
		return LevelNotRecommended
	case score >= cautionScore:
		return LevelCaution
	default:
		return LevelSafe
	}
}

// Hazard reasons, in rule-evaluation order.
const (
	ReasonHighWind        = "High wind (> 40 km/h)"
	ReasonPrecipitation   = "Moderate/Heavy precipitation (reduced traction/visibility)"
	ReasonFreezeThaw      = "Freeze–thaw hazard (precipitation near 0°C)"
	ReasonFreezing        = "Freezing temperature (ice risk)"
	ReasonSnowAccumulated = "Snow accumulation (> 1 cm)"
	ReasonHeavySnowfall   = "Heavy snowfall (> 5 cm)"
	ReasonWetSurface      = "Wet surface (slip risk)"
	ReasonUnstableGround  = "Unstable / soft ground (access risk)"
	ReasonHillyTerrain    = "Hilly terrain (slip / access difficulty)"
)

// RiskResult is the verdict for one Observation and UserInputs pair.
type RiskResult struct {
	Score   int      `json:"score"`
	Level   Level    `json:"level"`
	Reasons []string `json:"reasons"`
}

// Score evaluates the hazard rule table. It is pure: identical inputs always
// produce identical results.
func Score(obs Observation, in UserInputs) RiskResult {
	var (
		score   int
		reasons = make([]string, 0, 8)
	)
	add := func(points int, reason string) {
		score += points
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	rain, hasRain := deref(obs.MaxRainMm)
	snow, hasSnow := deref(obs.MaxSnowCm)

	if obs.WindSpeedKph > 40 {
		add(2, ReasonHighWind)
	}
	if hasRain && rain >= 2 {
		add(2, ReasonPrecipitation)
	}

	// Freeze-thaw takes priority over plain freezing.
	switch {
	case obs.TemperatureC <= 1 && hasRain && rain > 0:
		add(3, ReasonFreezeThaw)
	case obs.TemperatureC <= 0:
		add(2, ReasonFreezing)
	}

	if hasSnow && snow > 1 {
		add(2, ReasonSnowAccumulated)
	}
	if hasSnow && snow > 5 {
		add(3, ReasonHeavySnowfall)
	}

	switch in.Ground {
	case GroundWet:
		add(2, ReasonWetSurface)
	case GroundUnstable:
		add(3, ReasonUnstableGround)
	}
	if in.Terrain == TerrainHilly {
		add(2, ReasonHillyTerrain)
	}

	switch in.Severity {
	case SeverityMedium:
		add(1, "")
	case SeverityHigh:
		add(2, "")
	}

	return RiskResult{Score: score, Level: LevelFor(score), Reasons: reasons}
}

// Summary condenses a result to its two leading reasons.
func Summary(r RiskResult) string {
	if len(r.Reasons) == 0 {
		return "No major hazards detected from the inputs."
	}
	n := min(len(r.Reasons), 2)
	return strings.Join(r.Reasons[:n], " + ")
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
