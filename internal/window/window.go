// Package window provides the space-time windows used by the Gardner-Knopoff
// family of declustering engines. Each model maps a magnitude to a spatial
// radius in km and a temporal half-width in days.
package window

import "math"

// Window is a space-time neighbourhood around a candidate mainshock
type Window struct {
	RadiusKm float64
	Days     float64
}

// Seconds returns the temporal half-width in seconds
func (w Window) Seconds() float64 {
	return w.Days * 86400.0
}

// Model maps a magnitude to its window
type Model func(magnitude float64) Window

// upperBranchMagnitude is where Gardner & Knopoff switch time formulas.
// The two branches do not meet there; the published jump is kept as is.
const upperBranchMagnitude = 6.5

// GardnerKnopoff is the continuous Gardner & Knopoff (1974) fit:
//
//	radius = 10^(0.1238*M + 0.983)
//	time   = 10^(0.032*M + 2.7389)   for M >= 6.5
//	         10^(0.5409*M - 0.547)   otherwise
func GardnerKnopoff(magnitude float64) Window {
	radius := math.Pow(10, 0.1238*magnitude+0.983)

	var days float64
	if magnitude >= upperBranchMagnitude {
		days = math.Pow(10, 0.032*magnitude+2.7389)
	} else {
		days = math.Pow(10, 0.5409*magnitude-0.547)
	}

	return Window{RadiusKm: radius, Days: days}
}

// Scaled multiplies both continuous Gardner-Knopoff windows by scale
func Scaled(scale float64) Model {
	return func(magnitude float64) Window {
		w := GardnerKnopoff(magnitude)
		return Window{RadiusKm: w.RadiusKm * scale, Days: w.Days * scale}
	}
}

// Fixed ignores magnitude and always returns the same window
func Fixed(radiusKm, days float64) Model {
	w := Window{RadiusKm: radiusKm, Days: days}
	return func(float64) Window {
		return w
	}
}
