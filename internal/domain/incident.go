package domain

import "time"

// Incident is a person or object reported missing in the water
type Incident struct {
	ID                string       `json:"id,omitempty"`
	Position          Coordinate   `json:"position"`
	Timestamp         time.Time    `json:"timestamp"`
	ElapsedMinutes    float64      `json:"elapsedMinutes"`
	Profile           DriftProfile `json:"profile"`
	UncertaintyFactor float64      `json:"uncertaintyFactor,omitempty"`
}

// LocationMode distinguishes inland water from open water
type LocationMode string

const (
	ModeInland LocationMode = "inland"
	ModeMarine LocationMode = "marine"
)

// Assessment is everything computed for one incident at one instant
type Assessment struct {
	Incident   Incident       `json:"incident"`
	Mode       LocationMode   `json:"mode"`
	Region     string         `json:"region"`
	ZoomHint   int            `json:"zoomHint"`
	Weather    Weather        `json:"weather"`
	Current    CurrentVector  `json:"current"`
	Drift      DriftVector    `json:"drift"`
	Summary    DriftSummary   `json:"summary"`
	SearchArea SearchArea     `json:"searchArea"`
	Patterns   SearchPatterns `json:"patterns"`
	Conditions Conditions     `json:"conditions"`
	Report     Report         `json:"report"`
	ComputedAt time.Time      `json:"computedAt"`
}

// TrackedIncident is an incident kept for periodic re-assessment
type TrackedIncident struct {
	Incident  Incident     `json:"incident"`
	Mode      LocationMode `json:"mode"`
	Latest    *Assessment  `json:"latest,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// DeltaType indicates whether an incident was updated or removed
type DeltaType string

const (
	DeltaUpdate DeltaType = "update"
	DeltaRemove DeltaType = "remove"
)

// IncidentDelta represents a change in tracked incident state
type IncidentDelta struct {
	Type     DeltaType        `json:"type"`
	Incident *TrackedIncident `json:"incident,omitempty"`
	ID       string           `json:"id"`
}
