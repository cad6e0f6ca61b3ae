// Package drift converts wind, current and elapsed time into a displacement.
//
// Distances are converted to degrees with a flat-earth approximation: one
// nautical mile is 1/60 degree of latitude and the same 1/60 degree of
// longitude. No cos(latitude) correction is applied, so the east-west
// component is off by a factor of cos(latitude), an error that grows with
// distance from the equator. Bearing 0 is north (+lat) and bearing 90 is
// east (+lng).
package drift

import (
	"math"

	"seadrift/internal/domain"
)

const nmPerDegree = 60.0

// Leeway is the fraction of current and wind speed an object acquires
type Leeway struct {
	CurrentFactor float64 `yaml:"current_factor" json:"currentFactor"`
	WindFactor    float64 `yaml:"wind_factor" json:"windFactor"`
	Description   string  `yaml:"description" json:"description"`
}

// SummaryParams drive the scalar drift summary
type SummaryParams struct {
	InlandWindFactor float64 `yaml:"inland_wind_factor"`
	MarineWindFactor float64 `yaml:"marine_wind_factor"`
	HoursPerMinute   float64 `yaml:"hours_per_minute"`
}

type Params struct {
	Leeway     map[domain.DriftProfile]Leeway `yaml:"-"`
	MphToKnots float64                        `yaml:"mph_to_knots"`
	Summary    SummaryParams                  `yaml:"summary"`
}

func DefaultParams() Params {
	return Params{
		Leeway:     DefaultLeeway(),
		MphToKnots: 0.868976,
		Summary: SummaryParams{
			InlandWindFactor: 0.05,
			MarineWindFactor: 0.03,
			HoursPerMinute:   0.0166667,
		},
	}
}

func DefaultLeeway() map[domain.DriftProfile]Leeway {
	return map[domain.DriftProfile]Leeway{
		domain.ProfilePerson:        {CurrentFactor: 0.85, WindFactor: 0.05, Description: "Person in water"},
		domain.ProfilePersonWithPFD: {CurrentFactor: 0.80, WindFactor: 0.15, Description: "Person with life jacket"},
		domain.ProfileDebris:        {CurrentFactor: 0.90, WindFactor: 0.25, Description: "Floating debris"},
		domain.ProfileLifeRaft:      {CurrentFactor: 0.60, WindFactor: 0.40, Description: "Life raft"},
	}
}

type Engine struct {
	p Params
}

func NewEngine(p Params) *Engine {
	return &Engine{p: p}
}

// Leeway returns the coefficients for profile. Profiles absent from the
// table fall back to the built-in coefficients.
func (e *Engine) Leeway(profile domain.DriftProfile) Leeway {
	if l, ok := e.p.Leeway[profile]; ok {
		return l
	}
	if l, ok := DefaultLeeway()[profile]; ok {
		return l
	}
	return DefaultLeeway()[domain.ProfilePerson]
}

// Vector computes the full drift vector with bearing decomposition.
//
// Non-finite or negative speeds and elapsed times are treated as zero, so
// malformed input degrades to a stationary component instead of failing.
// A current in wind-only mode contributes nothing.
func (e *Engine) Vector(current domain.CurrentVector, wind domain.WindVector, elapsedMinutes float64, profile domain.DriftProfile) domain.DriftVector {
	leeway := e.Leeway(profile)
	hours := nonNegative(elapsedMinutes) / 60

	currentSpeed := nonNegative(current.SpeedKnots)
	if current.WindOnlyMode {
		currentSpeed = 0
	}
	currentBearing := finite(current.DirectionDeg)
	windBearing := finite(wind.DirectionDeg)
	windKnots := nonNegative(wind.SpeedMph) * e.p.MphToKnots

	currentDist := currentSpeed * hours * leeway.CurrentFactor
	windDist := windKnots * hours * leeway.WindFactor

	cLat, cLng := ToLatLng(currentDist, currentBearing)
	wLat, wLng := ToLatLng(windDist, windBearing)

	lat := cLat + wLat
	lng := cLng + wLng

	return domain.DriftVector{
		LatOffset:       lat,
		LngOffset:       lng,
		TotalDistanceNm: math.Hypot(lat, lng) * nmPerDegree,
		Current:         domain.DriftComponent{DistanceNm: currentDist, BearingDeg: currentBearing},
		Wind:            domain.DriftComponent{DistanceNm: windDist, BearingDeg: windBearing},
	}
}

// ToLatLng converts a distance and bearing to a degree offset
func ToLatLng(distanceNm, bearingDeg float64) (dLat, dLng float64) {
	rad := bearingDeg * math.Pi / 180
	return distanceNm * math.Cos(rad) / nmPerDegree, distanceNm * math.Sin(rad) / nmPerDegree
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func nonNegative(v float64) float64 {
	v = finite(v)
	if v < 0 {
		return 0
	}
	return v
}
