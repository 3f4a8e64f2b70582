package model

import "time"

// Report is the complete output of one declustering run
type Report struct {
	Method      string             `json:"method"`       // Registry name of the engine (e.g. "gk", "reasenberg")
	Params      map[string]float64 `json:"params"`       // Engine parameters actually used
	Source      string             `json:"source"`       // Catalog path
	GeneratedAt time.Time          `json:"generated_at"` // When the run finished
	Cached      bool               `json:"cached"`       // Whether the result came from the cache

	Mainshocks  Catalog      `json:"-"`
	Aftershocks Catalog      `json:"-"`
	Attributed  []Aftershock `json:"-"` // Set only by parent-attributing engines, same order as Aftershocks

	Summary Summary `json:"summary"`
}

// Summary is a transparent breakdown of a declustering result
type Summary struct {
	Events              int     `json:"events"`
	Mainshocks          int     `json:"mainshocks"`
	Aftershocks         int     `json:"aftershocks"`
	Foreshocks          int     `json:"foreshocks,omitempty"`
	DeclusteredFraction float64 `json:"declustered_fraction"` // aftershocks / events
	Stats               []Stat  `json:"stats,omitempty"`
}

// Stat is a single derived figure with the formula that produced it
type Stat struct {
	Name    StatName `json:"name"`
	Value   float64  `json:"value"`
	Unit    string   `json:"unit,omitempty"`
	Formula string   `json:"formula"`
}

// StatName identifies a summary statistic
type StatName string

const (
	StatMagnitudeMax      StatName = "magnitude_max"
	StatMainshockMagMean  StatName = "mainshock_magnitude_mean"
	StatAftershockMagMean StatName = "aftershock_magnitude_mean"
	StatDeltaTMedian      StatName = "abs_delta_t_median"
	StatDeltaTP90         StatName = "abs_delta_t_p90"
	StatDeltaDistMedian   StatName = "delta_dist_median"
	StatDeltaDistP90      StatName = "delta_dist_p90"
	StatLargestFamily     StatName = "largest_family"
	StatParentsWithFamily StatName = "parents_with_dependents"
)

// Lookup returns the stat with the given name
func (s Summary) Lookup(name StatName) (Stat, bool) {
	for _, st := range s.Stats {
		if st.Name == name {
			return st, true
		}
	}
	return Stat{}, false
}
