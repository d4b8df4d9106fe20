package domain

import "time"

// MarkerVersion is the current on-disk marker format.
const MarkerVersion = 1

// Marker is the record written when a target is materialized. Readers only
// rely on the file being present; the content is informational.
type Marker struct {
	Task           string    `json:"task"`
	MaterializedAt time.Time `json:"materialized_at"`
	Version        int       `json:"version"`
}

// NewMarker returns a marker for task stamped with now.
func NewMarker(task string, now time.Time) Marker {
	return Marker{
		Task:           task,
		MaterializedAt: now.UTC(),
		Version:        MarkerVersion,
	}
}
