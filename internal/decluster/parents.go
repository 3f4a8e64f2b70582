package decluster

import (
	"math"

	"github.com/ppiankov/urd/internal/model"
	"github.com/ppiankov/urd/internal/window"
)

const noParent = -1

// WithParents runs the Gardner-Knopoff traversal with windows scaled by
// scale and attributes every dependent event to a mainshock.
//
// Unlike DeclusterWindowed, every candidate re-examines events already
// claimed by a larger one. When windows overlap the claim goes to the
// candidate closest in time; only the attribution moves, never the class.
func WithParents(catalog model.Catalog, scale float64) (mainshocks model.Catalog, aftershocks []model.Aftershock) {
	return withParents(catalog, window.Scaled(scale))
}

func withParents(catalog model.Catalog, w window.Model) (model.Catalog, []model.Aftershock) {
	n := len(catalog)
	dependent := make([]bool, n)
	parent := make([]int, n)
	parentGap := make([]float64, n) // |dt| to the current parent, seconds
	for i := range parent {
		parent[i] = noParent
	}

	for _, i := range byMagnitudeDesc(catalog) {
		if dependent[i] {
			continue
		}

		candidate := catalog[i]
		win := w(candidate.Magnitude)
		maxSecs := win.Seconds()

		for j := range catalog {
			if j == i || !inWindow(candidate, catalog[j], win.RadiusKm, maxSecs) {
				continue
			}

			gap := math.Abs(elapsedSeconds(candidate.Time, catalog[j].Time))
			switch {
			case !dependent[j]:
				dependent[j] = true
				parent[j] = i
				parentGap[j] = gap
			case parent[j] != i && gap < parentGap[j]:
				parent[j] = i
				parentGap[j] = gap
			}
		}
	}

	mainshocks := model.Catalog{}
	aftershocks := []model.Aftershock{}
	for j, e := range catalog {
		if !dependent[j] {
			mainshocks = append(mainshocks, e)
			continue
		}
		aftershocks = append(aftershocks, attribute(e, catalog[parent[j]]))
	}
	return mainshocks, aftershocks
}

// attribute derives the parent fields of a dependent event from coordinates
// and times.
func attribute(e, p model.Event) model.Aftershock {
	return model.Aftershock{
		Event:           e,
		ParentID:        p.ID,
		ParentMagnitude: p.Magnitude,
		DeltaTSec:       elapsedSeconds(p.Time, e.Time),
		DeltaDistKm:     distanceKm(e, p),
	}
}
