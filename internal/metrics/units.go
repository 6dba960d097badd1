// Package metrics derives training statistics from historical records:
// streaks, personal records, volume, body-weight series and unit
// conversion. Every function is pure; callers fetch the records and pass
// the user's unit preferences explicitly.
package metrics

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// MassUnit is a display unit for weights.
type MassUnit string

// LengthUnit is a display unit for heights.
type LengthUnit string

const (
	Kilograms MassUnit = "kg"
	Pounds    MassUnit = "lbs"

	Centimeters LengthUnit = "cm"
	Feet        LengthUnit = "ft"
)

const (
	// LbsPerKg is the mass conversion factor used everywhere in LiftLog.
	LbsPerKg  = 2.20462
	CmPerInch = 2.54
	cmPerFoot = CmPerInch * 12
)

var (
	// ErrUnknownUnit is returned for a unit string that is neither metric
	// nor imperial.
	ErrUnknownUnit = errors.New("unknown unit")

	// ErrMalformedInput is returned when an input record has no identity.
	ErrMalformedInput = errors.New("malformed input")
)

// ParseMassUnit accepts "kg", "lbs" and "lb" (case-insensitive).
func ParseMassUnit(s string) (MassUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kg", "kgs":
		return Kilograms, nil
	case "lbs", "lb":
		return Pounds, nil
	}
	return "", fmt.Errorf("%w: mass %q", ErrUnknownUnit, s)
}

// ParseLengthUnit accepts "cm" and "ft" (case-insensitive).
func ParseLengthUnit(s string) (LengthUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cm":
		return Centimeters, nil
	case "ft":
		return Feet, nil
	}
	return "", fmt.Errorf("%w: length %q", ErrUnknownUnit, s)
}

// ConvertMass converts value between kilograms and pounds. Converting to
// the same unit returns value unchanged.
func ConvertMass(value float64, from, to MassUnit) (float64, error) {
	if err := checkMass(from); err != nil {
		return 0, err
	}
	if err := checkMass(to); err != nil {
		return 0, err
	}
	switch {
	case from == to:
		return value, nil
	case to == Pounds:
		return value * LbsPerKg, nil
	default:
		return value / LbsPerKg, nil
	}
}

// ConvertLength converts value between centimeters and decimal feet.
func ConvertLength(value float64, from, to LengthUnit) (float64, error) {
	if err := checkLength(from); err != nil {
		return 0, err
	}
	if err := checkLength(to); err != nil {
		return 0, err
	}
	switch {
	case from == to:
		return value, nil
	case to == Feet:
		return value / cmPerFoot, nil
	default:
		return value * cmPerFoot, nil
	}
}

// FeetInches splits a height in centimeters into whole feet and rounded
// inches. A remainder that rounds up to 12 inches carries into the feet.
func FeetInches(cm float64) (feet, inches int) {
	totalInches := cm / CmPerInch
	feet = int(math.Floor(totalInches / 12))
	inches = int(math.Round(math.Mod(totalInches, 12)))
	if inches == 12 {
		feet++
		inches = 0
	}
	return feet, inches
}

func checkMass(u MassUnit) error {
	if u != Kilograms && u != Pounds {
		return fmt.Errorf("%w: mass %q", ErrUnknownUnit, string(u))
	}
	return nil
}

func checkLength(u LengthUnit) error {
	if u != Centimeters && u != Feet {
		return fmt.Errorf("%w: length %q", ErrUnknownUnit, string(u))
	}
	return nil
}

// fromKg converts a stored kilogram value into the display unit.
func fromKg(kg float64, unit MassUnit) (float64, error) {
	return ConvertMass(kg, Kilograms, unit)
}

// Preferences are a user's display units. They are read from the profile
// and passed into every conversion.
type Preferences struct {
	Mass   MassUnit   `json:"weight_unit"`
	Length LengthUnit `json:"height_unit"`
}

// DefaultPreferences returns the metric defaults for new profiles.
func DefaultPreferences() Preferences {
	return Preferences{Mass: Kilograms, Length: Centimeters}
}

// ParsePreferences builds Preferences from stored unit strings. Empty
// strings fall back to the metric defaults.
func ParsePreferences(mass, length string) (Preferences, error) {
	return DefaultPreferences().With(mass, length)
}

// With returns p with the given units replaced. Empty strings keep the
// current unit.
func (p Preferences) With(mass, length string) (Preferences, error) {
	if mass != "" {
		u, err := ParseMassUnit(mass)
		if err != nil {
			return p, err
		}
		p.Mass = u
	}
	if length != "" {
		u, err := ParseLengthUnit(length)
		if err != nil {
			return p, err
		}
		p.Length = u
	}
	return p, nil
}
