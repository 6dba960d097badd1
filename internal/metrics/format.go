package metrics

import (
	"fmt"
	"math"
	"strconv"
)

// NoData is rendered in place of a missing value.
const NoData = "--"

// FormatWeight renders a stored kilogram value in the display unit.
// Pounds are rounded to whole numbers; kilograms print as stored.
func FormatWeight(kg *float64, unit MassUnit) string {
	if kg == nil {
		return NoData
	}
	if unit == Pounds {
		return fmt.Sprintf("%d lbs", int(math.Round(*kg*LbsPerKg)))
	}
	return strconv.FormatFloat(*kg, 'f', -1, 64) + " kg"
}

// FormatHeight renders a stored centimeter value as cm or feet'inches".
func FormatHeight(cm *float64, unit LengthUnit) string {
	if cm == nil {
		return NoData
	}
	if unit == Feet {
		feet, inches := FeetInches(*cm)
		return fmt.Sprintf("%d'%d\"", feet, inches)
	}
	return strconv.FormatFloat(*cm, 'f', -1, 64) + " cm"
}
