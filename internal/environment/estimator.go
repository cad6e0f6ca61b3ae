package environment

import (
	"math"

	"seadrift/internal/domain"
	"seadrift/internal/geo"
)

// Range is a uniform sampling interval [Min, Min+Span)
type Range struct {
	Min  float64 `yaml:"min"`
	Span float64 `yaml:"span"`
}

func (r Range) sample(rnd Rand) float64 {
	return r.Min + rnd.Float64()*r.Span
}

// CurrentModel describes the synthetic current for one class of water
type CurrentModel struct {
	SpeedKnots   Range  `yaml:"speed_knots"`
	DirectionDeg Range  `yaml:"direction_deg"`
	Station      string `yaml:"station"`
	Confidence   string `yaml:"confidence"`
}

type Params struct {
	GulfNearshore CurrentModel `yaml:"gulf_nearshore"`
	GulfOffshore  CurrentModel `yaml:"gulf_offshore"`
	OtherMarine   CurrentModel `yaml:"other_marine"`

	InlandWindMph Range `yaml:"inland_wind_mph"`
	MarineWindMph Range `yaml:"marine_wind_mph"`
	AirTempF      Range `yaml:"air_temp_f"`
}

func DefaultParams() Params {
	return Params{
		GulfNearshore: CurrentModel{
			SpeedKnots:   Range{Min: 0.4, Span: 0.8},
			DirectionDeg: Range{Min: 45, Span: 90},
			Station:      "Estimated Loop Current (Gulf Coast nearshore)",
			Confidence:   "Medium",
		},
		GulfOffshore: CurrentModel{
			SpeedKnots:   Range{Min: 0.2, Span: 0.6},
			DirectionDeg: Range{Min: 0, Span: 360},
			Station:      "Estimated Gulf Current (offshore)",
			Confidence:   "Medium",
		},
		OtherMarine: CurrentModel{
			SpeedKnots:   Range{Min: 0.1, Span: 0.4},
			DirectionDeg: Range{Min: 0, Span: 360},
			Station:      "Estimated regional marine current",
			Confidence:   "Low",
		},
		InlandWindMph: Range{Min: 5, Span: 10},
		MarineWindMph: Range{Min: 8, Span: 12},
		AirTempF:      Range{Min: 70, Span: 20},
	}
}

// Estimator supplies current vectors and fallback weather. Values are
// sampled, not measured, so they are advisory only.
type Estimator struct {
	geo *geo.Classifier
	rnd Rand
	p   Params
}

// NewEstimator builds an Estimator. A nil rnd uses NewRandomSource.
func NewEstimator(classifier *geo.Classifier, p Params, rnd Rand) *Estimator {
	if rnd == nil {
		rnd = NewRandomSource()
	}
	return &Estimator{geo: classifier, rnd: rnd, p: p}
}

func (e *Estimator) EstimateCurrent(pos domain.Coordinate) domain.CurrentVector {
	if e.geo.IsInland(pos) {
		return e.inlandCurrent(pos)
	}
	return e.marineCurrent(pos)
}

func (e *Estimator) inlandCurrent(pos domain.Coordinate) domain.CurrentVector {
	info := e.geo.RegionInfo(pos)
	return domain.CurrentVector{
		SpeedKnots:   0,
		DirectionDeg: 0,
		WindOnlyMode: true,
		Station:      "Inland location - " + info.Description,
		Confidence:   "High (wind-only mode)",
		Region:       info.Region,
		DriftType:    "Wind-driven surface drift only",
		Estimated:    true,
		Warnings: []string{
			"INLAND LOCATION DETECTED",
			"Drift calculations based on wind only",
			"No ocean current effects included",
			"Contact local emergency services for land-based search protocols",
		},
	}
}

func (e *Estimator) marineCurrent(pos domain.Coordinate) domain.CurrentVector {
	gulf := e.geo.InGulf(pos)

	var m CurrentModel
	switch {
	case gulf && e.geo.Nearshore(pos):
		m = e.p.GulfNearshore
	case gulf:
		m = e.p.GulfOffshore
	default:
		m = e.p.OtherMarine
	}

	region := "Other marine waters"
	if gulf {
		region = e.geo.Params().Gulf.Name
	}

	speed := m.SpeedKnots.sample(e.rnd)
	dir := m.DirectionDeg.sample(e.rnd)

	return domain.CurrentVector{
		SpeedKnots:   math.Round(speed*10) / 10,
		DirectionDeg: math.Mod(math.Round(dir), 360),
		Station:      m.Station,
		Confidence:   m.Confidence,
		Region:       region,
		DriftType:    "Combined current and wind drift",
		Estimated:    true,
	}
}

// FallbackWeather synthesizes a plausible observation for when the live
// weather provider is unavailable. The result is tagged Fallback.
func (e *Estimator) FallbackWeather(pos domain.Coordinate) domain.Weather {
	inland := e.geo.IsInland(pos)

	windRange := e.p.MarineWindMph
	if inland {
		windRange = e.p.InlandWindMph
	}
	speed := windRange.sample(e.rnd)
	dir := e.rnd.Float64() * 360
	temp := e.p.AirTempF.sample(e.rnd)

	w := domain.Weather{
		Wind: domain.WindVector{
			SpeedMph:     math.Round(speed*10) / 10,
			DirectionDeg: math.Mod(math.Round(dir), 360),
		},
		Main:        "Clouds",
		TempF:       math.Round(temp),
		PressureHpa: 1015,
		Fallback:    true,
	}
	if inland {
		w.Description = "partly cloudy (inland)"
		w.Humidity = 60
		w.VisibilityM = 6000
		w.Location = "Inland location (estimated)"
	} else {
		w.Description = "partly cloudy (offshore)"
		w.Humidity = 70
		w.VisibilityM = 8000
		w.Location = "Offshore location (estimated)"
	}
	return w
}

// Conditions aggregates the derived environmental estimators for a
// position, given the weather and current already resolved for it.
func (e *Estimator) Conditions(pos domain.Coordinate, weather domain.Weather, current domain.CurrentVector) domain.Conditions {
	inland := e.geo.IsInland(pos)
	waterTemp := WaterTemp(pos.Lat, weather.TempF, inland)

	locationType := "Marine"
	if inland {
		locationType = "Inland"
	}

	return domain.Conditions{
		LocationType:   locationType,
		Inland:         inland,
		Region:         e.geo.RegionInfo(pos).Region,
		SeaState:       SeaState(weather.Wind.SpeedMph),
		Visibility:     FormatVisibility(weather.VisibilityM),
		WaterTempF:     waterTemp,
		Survivability:  Survivability(waterTemp, inland),
		Rates:          Rates(weather.Wind, current),
		SafetyWarnings: SafetyWarnings(weather, current, inland),
	}
}
