package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/urd/internal/model"
)

// Sentinel errors wrapped by Problem
var (
	ErrMissingField = errors.New("missing required field")
	ErrBadType      = errors.New("field has wrong type")
	ErrBadTime      = errors.New("unparseable timestamp")
	ErrOutOfRange   = errors.New("value out of range")
	ErrDuplicateID  = errors.New("duplicate event id")
)

// maxProblems caps how many problems are kept before giving up
const maxProblems = 50

// Keys records which source key fed each required field, so output can be
// written back under the caller's names
type Keys struct {
	ID        string
	Magnitude string
	Time      string
	Latitude  string
	Longitude string
}

// DefaultKeys are the canonical field names
func DefaultKeys() Keys {
	return Keys{ID: "id", Magnitude: "magnitude", Time: "time", Latitude: "latitude", Longitude: "longitude"}
}

// aliases lists accepted source keys per field, preferred first
var aliases = struct {
	id, magnitude, time []string
}{
	id:        []string{"id", "usgs_id", "event_id"},
	magnitude: []string{"magnitude", "usgs_mag", "mag"},
	time:      []string{"time", "event_at", "origin_time"},
}

// zoneless timestamp layouts read as UTC
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Problem is a single validation failure
type Problem struct {
	Record int    // 0-based record index
	Field  string // Source key
	Err    error
}

func (p Problem) Error() string {
	return fmt.Sprintf("record %d: %s: %v", p.Record, p.Field, p.Err)
}

func (p Problem) Unwrap() error {
	return p.Err
}

// Error collects every problem found in a catalog
type Error struct {
	Problems  []Problem
	Truncated bool
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "catalog has %d invalid field(s)", len(e.Problems))
	if e.Truncated {
		b.WriteString(" (truncated)")
	}
	for _, p := range e.Problems {
		b.WriteString("\n  ")
		b.WriteString(p.Error())
	}
	return b.String()
}

// Unwrap exposes the problems to errors.Is
func (e *Error) Unwrap() []error {
	errs := make([]error, len(e.Problems))
	for i, p := range e.Problems {
		errs[i] = p
	}
	return errs
}

// Validator converts raw catalog records into events
type Validator struct {
	problems  []Problem
	truncated bool
}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

// Catalog converts records into a catalog. Required fields are resolved
// through their aliases; every other key is kept as a pass-through
// attribute. All problems are reported together.
func (v *Validator) Catalog(records []map[string]any) (model.Catalog, Keys, error) {
	v.problems = nil
	v.truncated = false

	keys := resolveKeys(records)
	catalog := make(model.Catalog, 0, len(records))
	seen := make(map[string]int, len(records))

	for i, rec := range records {
		e, ok := v.event(i, rec, keys)
		if !ok {
			continue
		}
		if first, dup := seen[e.ID]; dup {
			v.add(i, keys.ID, fmt.Errorf("%w: %q (first at record %d)", ErrDuplicateID, e.ID, first))
			continue
		}
		seen[e.ID] = i
		catalog = append(catalog, e)
	}

	if len(v.problems) > 0 {
		return nil, keys, &Error{Problems: v.problems, Truncated: v.truncated}
	}
	return catalog, keys, nil
}

func (v *Validator) event(i int, rec map[string]any, keys Keys) (model.Event, bool) {
	before := len(v.problems)

	id := v.str(i, rec, keys.ID)
	mag := v.number(i, rec, keys.Magnitude)
	lat := v.number(i, rec, keys.Latitude)
	lon := v.number(i, rec, keys.Longitude)
	at := v.timestamp(i, rec, keys.Time)

	if len(v.problems) == before {
		if lat < -90 || lat > 90 {
			v.add(i, keys.Latitude, fmt.Errorf("%w: %g not in [-90, 90]", ErrOutOfRange, lat))
		}
		if lon < -180 || lon > 180 {
			v.add(i, keys.Longitude, fmt.Errorf("%w: %g not in [-180, 180]", ErrOutOfRange, lon))
		}
	}
	if len(v.problems) != before {
		return model.Event{}, false
	}

	attrs := make(map[string]any, len(rec))
	source := make(map[string]any, 5)
	for k, val := range rec {
		switch k {
		case keys.ID, keys.Magnitude, keys.Time, keys.Latitude, keys.Longitude:
			source[k] = val
			continue
		}
		attrs[k] = val
	}

	return model.Event{
		ID:        id,
		Magnitude: mag,
		Time:      at,
		Latitude:  lat,
		Longitude: lon,
		Attrs:     attrs,
		Source:    source,
	}, true
}

func (v *Validator) add(record int, field string, err error) {
	if len(v.problems) >= maxProblems {
		v.truncated = true
		return
	}
	v.problems = append(v.problems, Problem{Record: record, Field: field, Err: err})
}

func (v *Validator) str(i int, rec map[string]any, key string) string {
	raw, ok := rec[key]
	if !ok || raw == nil {
		v.add(i, key, ErrMissingField)
		return ""
	}
	switch val := raw.(type) {
	case string:
		if val == "" {
			v.add(i, key, ErrMissingField)
		}
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		v.add(i, key, fmt.Errorf("%w: %T", ErrBadType, raw))
		return ""
	}
}

func (v *Validator) number(i int, rec map[string]any, key string) float64 {
	raw, ok := rec[key]
	if !ok || raw == nil {
		v.add(i, key, ErrMissingField)
		return 0
	}

	var (
		f   float64
		err error
	)
	switch val := raw.(type) {
	case float64:
		f = val
	case json.Number:
		f, err = val.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(val), 64)
	default:
		err = fmt.Errorf("%T", raw)
	}
	if err != nil {
		v.add(i, key, fmt.Errorf("%w: %v", ErrBadType, err))
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		v.add(i, key, fmt.Errorf("%w: %g", ErrOutOfRange, f))
		return 0
	}
	return f
}

func (v *Validator) timestamp(i int, rec map[string]any, key string) time.Time {
	s := v.str(i, rec, key)
	if s == "" {
		return time.Time{}
	}
	t, err := ParseTime(s)
	if err != nil {
		v.add(i, key, fmt.Errorf("%w: %q", ErrBadTime, s))
		return time.Time{}
	}
	return t
}

// ParseTime parses an ISO 8601 instant. A trailing Z or numeric offset is
// honoured; a timestamp without a zone is read as UTC. The result is UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q", s)
}

// resolveKeys picks, for each aliased field, the first alias present in the
// first record that has any of them.
func resolveKeys(records []map[string]any) Keys {
	keys := DefaultKeys()
	keys.ID = pick(records, aliases.id)
	keys.Magnitude = pick(records, aliases.magnitude)
	keys.Time = pick(records, aliases.time)
	return keys
}

func pick(records []map[string]any, candidates []string) string {
	for _, rec := range records {
		for _, c := range candidates {
			if _, ok := rec[c]; ok {
				return c
			}
		}
	}
	return candidates[0]
}
