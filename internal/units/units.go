// Package units provides shared angle unit constants and conversions
package units

import (
	"fmt"
	"math"
)

// Unit constants
const (
	Radians = "rad"
	Degrees = "deg"
)

// ValidUnits contains all valid angle unit values
var ValidUnits = []string{Radians, Degrees}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// ToDegrees converts an angle from radians to degrees.
// The engine computes in radians; reports and labels use degrees.
func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// ToRadians converts an angle from degrees to radians.
func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// ConvertAngle converts an angle in radians to the target units
func ConvertAngle(angleRad float64, targetUnits string) float64 {
	switch targetUnits {
	case Degrees:
		return ToDegrees(angleRad)
	case Radians:
		return angleRad
	default:
		return angleRad // default to radians if unknown unit
	}
}

// FormatAngle renders an angle in radians as a degree string for logs and
// reports, e.g. "42.85°"
func FormatAngle(angleRad float64) string {
	return fmt.Sprintf("%.2f°", ToDegrees(angleRad))
}
