package summary

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ppiankov/urd/internal/decluster"
	"github.com/ppiankov/urd/internal/model"
)

const secondsPerDay = 86400.0

// Summarizer derives a transparent breakdown of a declustering result
type Summarizer struct{}

// NewSummarizer creates a new summarizer
func NewSummarizer() *Summarizer {
	return &Summarizer{}
}

// Summarize counts the partition and derives the statistics. Every figure
// carries the formula that produced it. Attribution statistics are only
// present when the engine attributed parents.
func (s *Summarizer) Summarize(res decluster.Result) model.Summary {
	mains := len(res.Mainshocks)
	afters := len(res.Aftershocks)
	total := mains + afters

	sum := model.Summary{
		Events:      total,
		Mainshocks:  mains,
		Aftershocks: afters,
	}
	if total == 0 {
		return sum
	}
	sum.DeclusteredFraction = float64(afters) / float64(total)

	sum.Stats = append(sum.Stats, s.magnitudes(res)...)

	if len(res.Attributed) > 0 {
		for _, a := range res.Attributed {
			if a.IsForeshock() {
				sum.Foreshocks++
			}
		}
		sum.Stats = append(sum.Stats, s.offsets(res.Attributed)...)
		sum.Stats = append(sum.Stats, s.families(res.Attributed)...)
	}

	return sum
}

func (s *Summarizer) magnitudes(res decluster.Result) []model.Stat {
	mainMags := magnitudes(res.Mainshocks)
	afterMags := magnitudes(res.Aftershocks)

	peak := math.Inf(-1)
	for _, m := range mainMags {
		peak = math.Max(peak, m)
	}
	for _, m := range afterMags {
		peak = math.Max(peak, m)
	}

	stats := []model.Stat{{
		Name:    model.StatMagnitudeMax,
		Value:   peak,
		Formula: "max(magnitude)",
	}}

	if len(mainMags) > 0 {
		stats = append(stats, model.Stat{
			Name:    model.StatMainshockMagMean,
			Value:   stat.Mean(mainMags, nil),
			Formula: "sum(mainshock magnitude) / mainshocks",
		})
	}
	if len(afterMags) > 0 {
		stats = append(stats, model.Stat{
			Name:    model.StatAftershockMagMean,
			Value:   stat.Mean(afterMags, nil),
			Formula: "sum(aftershock magnitude) / aftershocks",
		})
	}

	return stats
}

func (s *Summarizer) offsets(attributed []model.Aftershock) []model.Stat {
	days := make([]float64, len(attributed))
	dists := make([]float64, len(attributed))
	for i, a := range attributed {
		days[i] = math.Abs(a.DeltaTSec) / secondsPerDay
		dists[i] = a.DeltaDistKm
	}
	sort.Float64s(days)
	sort.Float64s(dists)

	return []model.Stat{
		{
			Name:    model.StatDeltaTMedian,
			Value:   stat.Quantile(0.5, stat.Empirical, days, nil),
			Unit:    "days",
			Formula: "empirical quantile 0.5 of |delta_t|",
		},
		{
			Name:    model.StatDeltaTP90,
			Value:   stat.Quantile(0.9, stat.Empirical, days, nil),
			Unit:    "days",
			Formula: "empirical quantile 0.9 of |delta_t|",
		},
		{
			Name:    model.StatDeltaDistMedian,
			Value:   stat.Quantile(0.5, stat.Empirical, dists, nil),
			Unit:    "km",
			Formula: "empirical quantile 0.5 of delta_dist",
		},
		{
			Name:    model.StatDeltaDistP90,
			Value:   stat.Quantile(0.9, stat.Empirical, dists, nil),
			Unit:    "km",
			Formula: "empirical quantile 0.9 of delta_dist",
		},
	}
}

func (s *Summarizer) families(attributed []model.Aftershock) []model.Stat {
	sizes := make(map[string]int)
	largest := 0
	for _, a := range attributed {
		sizes[a.ParentID]++
		if sizes[a.ParentID] > largest {
			largest = sizes[a.ParentID]
		}
	}

	return []model.Stat{
		{
			Name:    model.StatLargestFamily,
			Value:   float64(largest),
			Unit:    "events",
			Formula: "max over parents of count(dependents)",
		},
		{
			Name:    model.StatParentsWithFamily,
			Value:   float64(len(sizes)),
			Unit:    "events",
			Formula: "count(distinct parent_id)",
		},
	}
}

func magnitudes(c model.Catalog) []float64 {
	out := make([]float64, len(c))
	for i, e := range c {
		out[i] = e.Magnitude
	}
	return out
}
