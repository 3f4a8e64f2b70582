package decluster

import (
	"math"

	"github.com/ppiankov/urd/internal/model"
)

// tauOverflowExponent bounds b*(mmax-xmeff) before 10^x is attempted
const tauOverflowExponent = 300

// gutenbergRichterB is the b-value used in the lookback window
const gutenbergRichterB = 1.0

// ReasenbergParams are the tunables of the Reasenberg (1985) method
type ReasenbergParams struct {
	Rfact  float64 // Interaction radius scale factor
	TauMin float64 // Minimum lookback window, days
	TauMax float64 // Maximum lookback window, days
	P      float64 // Probability of observing the next event
	Xmeff  float64 // Effective lower magnitude cutoff
}

// DefaultReasenbergParams returns the published defaults
func DefaultReasenbergParams() ReasenbergParams {
	return ReasenbergParams{
		Rfact:  10.0,
		TauMin: 1.0,
		TauMax: 10.0,
		P:      0.95,
		Xmeff:  1.5,
	}
}

// InteractionRadius returns rfact * 10^(0.11*mmax + 0.024) in km
func InteractionRadius(mmax, rfact float64) float64 {
	return rfact * math.Pow(10, 0.11*mmax+0.024)
}

// LookbackDays returns the adaptive window
//
//	tau = clamp(-ln(1-p) / 10^(b*(mmax-xmeff)), tau_min, tau_max)
//
// falling back to tau_min when the power would overflow.
func (p ReasenbergParams) LookbackDays(mmax float64) float64 {
	exponent := gutenbergRichterB * (mmax - p.Xmeff)
	if exponent > tauOverflowExponent {
		return p.TauMin
	}
	tau := -math.Log(1.0-p.P) / math.Pow(10, exponent)
	return math.Max(p.TauMin, math.Min(p.TauMax, tau))
}

// cluster is the running state of one Reasenberg cluster. Indices refer to
// the time-ordered view of the catalog.
type cluster struct {
	mmax    float64
	main    int // member holding mmax
	last    int // most recently admitted member
	members []int
}

// Reasenberg declusters catalog with the Reasenberg (1985) method. Both
// outputs are in chronological order, ties keeping catalog order.
func Reasenberg(catalog model.Catalog, params ReasenbergParams) (mainshocks, aftershocks model.Catalog) {
	order := byTime(catalog)
	events := make(model.Catalog, len(order))
	for k, idx := range order {
		events[k] = catalog[idx]
	}

	var clusters []*cluster
	for i, e := range events {
		best := params.nearestOpenCluster(clusters, events, e)
		if best == nil {
			clusters = append(clusters, &cluster{mmax: e.Magnitude, main: i, last: i, members: []int{i}})
			continue
		}

		best.members = append(best.members, i)
		if e.Magnitude > best.mmax {
			best.mmax = e.Magnitude
			best.main = i
		}
		best.last = i
	}

	dependent := make([]bool, len(events))
	for _, c := range clusters {
		if len(c.members) == 1 {
			continue
		}
		for _, m := range c.members {
			if m != c.main {
				dependent[m] = true
			}
		}
	}

	return partition(events, dependent)
}

// nearestOpenCluster returns the open cluster within interaction range of e
// whose last member is closest in time, or nil.
func (p ReasenbergParams) nearestOpenCluster(clusters []*cluster, events model.Catalog, e model.Event) *cluster {
	var best *cluster
	bestDays := math.Inf(1)

	for _, c := range clusters {
		days := elapsedSeconds(events[c.last].Time, e.Time) / 86400.0
		if days > p.LookbackDays(c.mmax) {
			continue
		}
		if distanceKm(e, events[c.main]) > InteractionRadius(c.mmax, p.Rfact) {
			continue
		}
		if days < bestDays {
			bestDays = days
			best = c
		}
	}

	return best
}
