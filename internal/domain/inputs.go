package domain

import (
	"fmt"
	"strings"
)

// Ground is the user-declared surface condition at the site.
type Ground uint8

const (
	GroundNormal Ground = iota
	GroundWet
	GroundUnstable
)

var groundNames = [...]string{"normal", "wet", "unstable"}

func (g Ground) String() string {
	if int(g) < len(groundNames) {
		return groundNames[g]
	}
	return fmt.Sprintf("Ground(%d)", uint8(g))
}

// ParseGround accepts "normal", "wet" or "unstable" (case-insensitive).
func ParseGround(s string) (Ground, error) {
	i, err := parseEnum("ground", s, groundNames[:])
	return Ground(i), err
}

func (g Ground) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Ground) UnmarshalText(b []byte) error {
	v, err := ParseGround(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// Terrain is the user-declared slope class of the site.
type Terrain uint8

const (
	TerrainFlat Terrain = iota
	TerrainHilly
)

var terrainNames = [...]string{"flat", "hilly"}

func (t Terrain) String() string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return fmt.Sprintf("Terrain(%d)", uint8(t))
}

// ParseTerrain accepts "flat" or "hilly" (case-insensitive).
func ParseTerrain(s string) (Terrain, error) {
	i, err := parseEnum("terrain", s, terrainNames[:])
	return Terrain(i), err
}

func (t Terrain) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Terrain) UnmarshalText(b []byte) error {
	v, err := ParseTerrain(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Severity is how consequential the planned field work is.
type Severity uint8

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
)

var severityNames = [...]string{"low", "medium", "high"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", uint8(s))
}

// ParseSeverity accepts "low", "medium" or "high" (case-insensitive).
func ParseSeverity(s string) (Severity, error) {
	i, err := parseEnum("severity", s, severityNames[:])
	return Severity(i), err
}

func (s Severity) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UserInputs holds the site conditions declared by the user. The zero value
// is {normal, flat, low}.
type UserInputs struct {
	Ground   Ground   `json:"ground"`
	Terrain  Terrain  `json:"terrain"`
	Severity Severity `json:"severity"`
}

// ParseUserInputs builds UserInputs from their string forms. Empty strings
// keep the zero value for that field.
func ParseUserInputs(ground, terrain, severity string) (UserInputs, error) {
	var in UserInputs
	var err error
	if ground != "" {
		if in.Ground, err = ParseGround(ground); err != nil {
			return UserInputs{}, err
		}
	}
	if terrain != "" {
		if in.Terrain, err = ParseTerrain(terrain); err != nil {
			return UserInputs{}, err
		}
	}
	if severity != "" {
		if in.Severity, err = ParseSeverity(severity); err != nil {
			return UserInputs{}, err
		}
	}
	return in, nil
}

func parseEnum(kind, s string, names []string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range names {
		if s == n {
			return i, nil
		}
	}
	return 0, fmt.Errorf("invalid %s %q: want one of %s", kind, s, strings.Join(names, ", "))
}
