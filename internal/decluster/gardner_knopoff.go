// Package decluster separates a seismic catalog into mainshocks and
// dependent events (aftershocks and foreshocks).
//
// Two independent families are provided. The Gardner-Knopoff engines walk
// candidates from the largest magnitude down and flag every smaller or equal
// event inside the candidate's space-time window. The Reasenberg engine walks
// the catalog in time order and grows clusters whose interaction radius and
// lookback window adapt to their largest member.
//
// Engines never modify the input catalog; all bookkeeping lives in
// index-keyed side tables.
package decluster

import (
	"math"
	"sort"
	"time"

	"github.com/ppiankov/urd/internal/geo"
	"github.com/ppiankov/urd/internal/model"
	"github.com/ppiankov/urd/internal/window"
)

// GardnerKnopoff declusters catalog using the continuous Gardner & Knopoff
// (1974) windows.
func GardnerKnopoff(catalog model.Catalog) (mainshocks, aftershocks model.Catalog) {
	return DeclusterWindowed(catalog, window.GardnerKnopoff)
}

// GardnerKnopoffTable declusters catalog using the tabulated windows.
func GardnerKnopoffTable(catalog model.Catalog) (mainshocks, aftershocks model.Catalog) {
	return DeclusterWindowed(catalog, window.Table)
}

// A1bFixed declusters catalog with a single window applied to every
// magnitude.
func A1bFixed(catalog model.Catalog, radiusKm, windowDays float64) (mainshocks, aftershocks model.Catalog) {
	return DeclusterWindowed(catalog, window.Fixed(radiusKm, windowDays))
}

// DeclusterWindowed runs the Gardner-Knopoff traversal with an arbitrary
// window model. Both outputs keep the catalog order.
func DeclusterWindowed(catalog model.Catalog, w window.Model) (mainshocks, aftershocks model.Catalog) {
	n := len(catalog)
	dependent := make([]bool, n)

	for _, i := range byMagnitudeDesc(catalog) {
		if dependent[i] {
			continue
		}

		candidate := catalog[i]
		win := w(candidate.Magnitude)
		maxSecs := win.Seconds()

		for j := range catalog {
			// Flags are never cleared.
			if j == i || dependent[j] {
				continue
			}
			if inWindow(candidate, catalog[j], win.RadiusKm, maxSecs) {
				dependent[j] = true
			}
		}
	}

	return partition(catalog, dependent)
}

// inWindow reports whether other is no larger than candidate and lies inside
// its space-time window.
func inWindow(candidate, other model.Event, radiusKm, maxSecs float64) bool {
	if other.Magnitude > candidate.Magnitude {
		return false
	}
	if math.Abs(elapsedSeconds(candidate.Time, other.Time)) > maxSecs {
		return false
	}
	return distanceKm(candidate, other) <= radiusKm
}

// byMagnitudeDesc returns catalog indices ordered by descending magnitude,
// equal magnitudes keeping catalog order.
func byMagnitudeDesc(catalog model.Catalog) []int {
	order := make([]int, len(catalog))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return catalog[order[a]].Magnitude > catalog[order[b]].Magnitude
	})
	return order
}

// byTime returns catalog indices ordered by origin time, ties keeping
// catalog order.
func byTime(catalog model.Catalog) []int {
	order := make([]int, len(catalog))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return catalog[order[a]].Time.Before(catalog[order[b]].Time)
	})
	return order
}

func partition(catalog model.Catalog, dependent []bool) (mainshocks, aftershocks model.Catalog) {
	mainshocks = model.Catalog{}
	aftershocks = model.Catalog{}
	for i, e := range catalog {
		if dependent[i] {
			aftershocks = append(aftershocks, e)
		} else {
			mainshocks = append(mainshocks, e)
		}
	}
	return mainshocks, aftershocks
}

// elapsedSeconds returns to - from in seconds. It works on Unix seconds so
// catalogs spanning more than time.Duration's ~292 years do not saturate.
func elapsedSeconds(from, to time.Time) float64 {
	secs := float64(to.Unix() - from.Unix())
	nanos := float64(to.Nanosecond() - from.Nanosecond())
	return secs + nanos/1e9
}

func distanceKm(a, b model.Event) float64 {
	return geo.DistanceKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}
