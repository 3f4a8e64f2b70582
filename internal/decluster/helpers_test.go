package decluster

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/ppiankov/urd/internal/model"
)

var t0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

func ev(id string, mag float64, at time.Time, lat, lon float64) model.Event {
	return model.Event{ID: id, Magnitude: mag, Time: at, Latitude: lat, Longitude: lon}
}

func ids(c model.Catalog) []string {
	out := make([]string, len(c))
	for i, e := range c {
		out[i] = e.ID
	}
	return out
}

// syntheticCatalog builds a reproducible catalog of clustered events around
// a handful of epicentres, with a background of scattered events.
func syntheticCatalog(n int, seed int64) model.Catalog {
	rng := rand.New(rand.NewSource(seed))
	centres := [][2]float64{{35.0, 139.0}, {-33.0, -70.0}, {38.3, 142.4}, {0.0, 179.95}, {61.0, -147.7}}

	catalog := make(model.Catalog, 0, n)
	for i := 0; i < n; i++ {
		var lat, lon float64
		if rng.Float64() < 0.7 {
			c := centres[rng.Intn(len(centres))]
			lat = c[0] + rng.NormFloat64()*0.3
			lon = c[1] + rng.NormFloat64()*0.3
			if lon > 180 {
				lon -= 360
			}
		} else {
			lat = rng.Float64()*140 - 70
			lon = rng.Float64()*360 - 180
		}
		mag := 4.0 + float64(rng.Intn(40))/10
		at := t0.Add(time.Duration(rng.Int63n(int64(3 * 365 * day))))
		catalog = append(catalog, model.Event{
			ID:        fmt.Sprintf("ev%04d", i),
			Magnitude: mag,
			Time:      at,
			Latitude:  lat,
			Longitude: lon,
			Attrs:     map[string]any{"depth": float64(rng.Intn(700)), "seq": i},
		})
	}
	return catalog
}

func clone(c model.Catalog) model.Catalog {
	out := make(model.Catalog, len(c))
	for i, e := range c {
		attrs := make(map[string]any, len(e.Attrs))
		for k, v := range e.Attrs {
			attrs[k] = v
		}
		e.Attrs = attrs
		out[i] = e
	}
	return out
}

// assertPartition checks that mainshocks and aftershocks cover catalog
// exactly once each.
func assertPartition(t *testing.T, catalog, mainshocks, aftershocks model.Catalog) {
	t.Helper()

	if got := len(mainshocks) + len(aftershocks); got != len(catalog) {
		t.Fatalf("partition size %d, catalog size %d", got, len(catalog))
	}

	seen := make(map[string]int, len(catalog))
	for _, e := range mainshocks {
		seen[e.ID]++
	}
	for _, e := range aftershocks {
		seen[e.ID]++
	}
	for _, e := range catalog {
		if seen[e.ID] != 1 {
			t.Errorf("event %s appears %d times across partitions", e.ID, seen[e.ID])
		}
	}
}
