package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/urd/internal/decluster"
	"github.com/ppiankov/urd/internal/model"
)

// resultEntry stores a partition by catalog index. The key already pins the
// catalog, so indices are enough to rebuild the events.
type resultEntry struct {
	Mainshocks  []int         `json:"m"`
	Aftershocks []int         `json:"a"`
	Attributed  bool          `json:"t,omitempty"`
	Parents     []parentEntry `json:"p,omitempty"`
}

type parentEntry struct {
	Parent      int     `json:"i"`
	DeltaTSec   float64 `json:"dt"`
	DeltaDistKm float64 `json:"dd"`
}

// ResultCache stores declustering results in a byte cache
type ResultCache struct {
	cache Cache
	ttl   time.Duration
}

// NewResultCache wraps c; ttl of zero uses the backing cache's default
func NewResultCache(c Cache, ttl time.Duration) *ResultCache {
	return &ResultCache{cache: c, ttl: ttl}
}

// Load returns the cached result for key rebuilt against catalog
func (r *ResultCache) Load(key string, catalog model.Catalog) (decluster.Result, bool) {
	data, ok := r.cache.Get(key)
	if !ok {
		return decluster.Result{}, false
	}

	var entry resultEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		_ = r.cache.Delete(key)
		return decluster.Result{}, false
	}

	res, err := entry.rebuild(catalog)
	if err != nil {
		_ = r.cache.Delete(key)
		return decluster.Result{}, false
	}
	return res, true
}

// Store encodes res, which must have been computed from catalog
func (r *ResultCache) Store(key string, catalog model.Catalog, res decluster.Result) error {
	entry, err := newResultEntry(catalog, res)
	if err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return r.cache.Set(key, data, r.ttl)
}

func newResultEntry(catalog model.Catalog, res decluster.Result) (*resultEntry, error) {
	index := make(map[string]int, len(catalog))
	for i, e := range catalog {
		index[e.ID] = i
	}

	lookup := func(id string) (int, error) {
		i, ok := index[id]
		if !ok {
			return 0, fmt.Errorf("event %q not in catalog", id)
		}
		return i, nil
	}

	entry := &resultEntry{
		Mainshocks:  make([]int, len(res.Mainshocks)),
		Aftershocks: make([]int, len(res.Aftershocks)),
	}
	for k, e := range res.Mainshocks {
		i, err := lookup(e.ID)
		if err != nil {
			return nil, err
		}
		entry.Mainshocks[k] = i
	}
	for k, e := range res.Aftershocks {
		i, err := lookup(e.ID)
		if err != nil {
			return nil, err
		}
		entry.Aftershocks[k] = i
	}

	if res.Attributed != nil {
		entry.Attributed = true
		entry.Parents = make([]parentEntry, len(res.Attributed))
		for k, a := range res.Attributed {
			p, err := lookup(a.ParentID)
			if err != nil {
				return nil, err
			}
			entry.Parents[k] = parentEntry{Parent: p, DeltaTSec: a.DeltaTSec, DeltaDistKm: a.DeltaDistKm}
		}
	}

	return entry, nil
}

func (e *resultEntry) rebuild(catalog model.Catalog) (decluster.Result, error) {
	at := func(i int) (model.Event, error) {
		if i < 0 || i >= len(catalog) {
			return model.Event{}, fmt.Errorf("index %d out of range", i)
		}
		return catalog[i], nil
	}

	res := decluster.Result{
		Mainshocks:  make(model.Catalog, len(e.Mainshocks)),
		Aftershocks: make(model.Catalog, len(e.Aftershocks)),
	}
	for k, i := range e.Mainshocks {
		ev, err := at(i)
		if err != nil {
			return decluster.Result{}, err
		}
		res.Mainshocks[k] = ev
	}
	for k, i := range e.Aftershocks {
		ev, err := at(i)
		if err != nil {
			return decluster.Result{}, err
		}
		res.Aftershocks[k] = ev
	}

	if e.Attributed {
		if len(e.Parents) != len(e.Aftershocks) {
			return decluster.Result{}, fmt.Errorf("%d parents for %d aftershocks", len(e.Parents), len(e.Aftershocks))
		}
		res.Attributed = make([]model.Aftershock, len(e.Parents))
		for k, p := range e.Parents {
			parent, err := at(p.Parent)
			if err != nil {
				return decluster.Result{}, err
			}
			res.Attributed[k] = model.Aftershock{
				Event:           res.Aftershocks[k],
				ParentID:        parent.ID,
				ParentMagnitude: parent.Magnitude,
				DeltaTSec:       p.DeltaTSec,
				DeltaDistKm:     p.DeltaDistKm,
			}
		}
	}

	return res, nil
}
