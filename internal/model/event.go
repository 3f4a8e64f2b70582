package model

import "time"

// Event is a single catalog record
type Event struct {
	ID        string    `json:"id"`        // Opaque identifier, only used for output and attribution
	Magnitude float64   `json:"magnitude"` // Catalog magnitude
	Time      time.Time `json:"time"`      // Origin time (UTC)
	Latitude  float64   `json:"latitude"`  // Degrees, -90..90
	Longitude float64   `json:"longitude"` // Degrees, -180..180

	// Attrs holds every other column of the source record. Engines never
	// read or modify it.
	Attrs map[string]any `json:"-"`

	// Source keeps the required fields exactly as read, under their source
	// keys, so output can echo the caller's text.
	Source map[string]any `json:"-"`
}

// Catalog is an ordered sequence of events as supplied by the caller
type Catalog []Event

// Aftershock is a dependent event together with the mainshock it is
// attributed to
type Aftershock struct {
	Event

	ParentID        string  `json:"parent_id"`
	ParentMagnitude float64 `json:"parent_magnitude"`
	DeltaTSec       float64 `json:"delta_t_sec"`   // Dependent time minus parent time in seconds; negative for a foreshock
	DeltaDistKm     float64 `json:"delta_dist_km"` // Great-circle distance to the parent
}

// IsForeshock reports whether the event precedes its parent
func (a Aftershock) IsForeshock() bool {
	return a.DeltaTSec < 0
}
