package search

import (
	"math"

	"seadrift/internal/domain"
)

type Params struct {
	UncertaintyFactor float64 `yaml:"uncertainty_factor"`
	MinRadiusNm       float64 `yaml:"min_radius_nm"`
	// TimeUncertainty is multiplied by sqrt(elapsed minutes).
	TimeUncertainty float64 `yaml:"time_uncertainty"`
	PolygonPoints   int     `yaml:"polygon_points"`

	ConfidenceFloor    float64 `yaml:"confidence_floor"`
	GraceMinutes       float64 `yaml:"grace_minutes"`
	PenaltyPerMinute   float64 `yaml:"penalty_per_minute"`
	ExtendedMinutes    float64 `yaml:"extended_minutes"`
	ExtendedPenalty    float64 `yaml:"extended_penalty_per_minute"`
	GraceDriftNm       float64 `yaml:"grace_drift_nm"`
	PenaltyPerDriftNm  float64 `yaml:"penalty_per_drift_nm"`
	InlandRadiusFactor float64 `yaml:"inland_radius_factor"`
	MarineRadiusFactor float64 `yaml:"marine_radius_factor"`
}

func DefaultParams() Params {
	return Params{
		UncertaintyFactor:  1.5,
		MinRadiusNm:        0.5,
		TimeUncertainty:    0.1,
		PolygonPoints:      20,
		ConfidenceFloor:    10,
		GraceMinutes:       60,
		PenaltyPerMinute:   0.5,
		ExtendedMinutes:    180,
		ExtendedPenalty:    1.0,
		GraceDriftNm:       2,
		PenaltyPerDriftNm:  10,
		InlandRadiusFactor: 3.0,
		MarineRadiusFactor: 2.5,
	}
}

type Generator struct {
	p Params
}

func NewGenerator(p Params) *Generator {
	if p.PolygonPoints < 3 {
		p.PolygonPoints = DefaultParams().PolygonPoints
	}
	return &Generator{p: p}
}

// Area builds the search area around the drifted position. A
// non-positive uncertaintyFactor selects the configured default.
func (g *Generator) Area(incident domain.Coordinate, drift domain.DriftVector, elapsedMinutes, uncertaintyFactor float64) domain.SearchArea {
	if !(uncertaintyFactor > 0) {
		uncertaintyFactor = g.p.UncertaintyFactor
	}
	elapsed := math.Max(elapsedMinutes, 0)
	distance := drift.TotalDistanceNm

	center := incident.Offset(drift.LatOffset, drift.LngOffset)

	radius := math.Max(distance*uncertaintyFactor, g.p.MinRadiusNm)
	radius += math.Sqrt(elapsed) * g.p.TimeUncertainty

	return domain.SearchArea{
		Center:            center,
		RadiusNm:          radius,
		Polygon:           CirclePolygon(center, radius, g.p.PolygonPoints),
		ConfidencePercent: g.Confidence(elapsed, distance),
		AreaSqNm:          math.Pi * radius * radius,
	}
}

// Confidence scores trust in the predicted center. It decays with elapsed
// time past the grace period, again faster past the extended mark, and with
// drift distance, and never drops below the floor.
func (g *Generator) Confidence(elapsedMinutes, driftDistanceNm float64) float64 {
	c := 100.0
	if elapsedMinutes > g.p.GraceMinutes {
		c -= (elapsedMinutes - g.p.GraceMinutes) * g.p.PenaltyPerMinute
	}
	if elapsedMinutes > g.p.ExtendedMinutes {
		c -= (elapsedMinutes - g.p.ExtendedMinutes) * g.p.ExtendedPenalty
	}
	if driftDistanceNm > g.p.GraceDriftNm {
		c -= (driftDistanceNm - g.p.GraceDriftNm) * g.p.PenaltyPerDriftNm
	}
	return math.Max(c, g.p.ConfidenceFloor)
}

// QuickRadius is the simpler radius that accompanies the scalar drift
// summary. It is not used for patterns.
func (g *Generator) QuickRadius(totalDriftNm float64, windOnly bool) float64 {
	if windOnly {
		return totalDriftNm * g.p.InlandRadiusFactor
	}
	return totalDriftNm * g.p.MarineRadiusFactor
}

// CirclePolygon approximates a circle with points vertices and closes the
// ring by repeating the first vertex.
func CirclePolygon(center domain.Coordinate, radiusNm float64, points int) []domain.Coordinate {
	radiusDeg := radiusNm / nmPerDegree
	ring := make([]domain.Coordinate, 0, points+1)
	for i := 0; i < points; i++ {
		angle := float64(i) * 2 * math.Pi / float64(points)
		ring = append(ring, center.Offset(radiusDeg*math.Cos(angle), radiusDeg*math.Sin(angle)))
	}
	if len(ring) > 0 {
		ring = append(ring, ring[0])
	}
	return ring
}
