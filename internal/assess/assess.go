// Package assess runs the full drift pipeline for one incident.
package assess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"seadrift/internal/domain"
	"seadrift/internal/drift"
	"seadrift/internal/environment"
	"seadrift/internal/geo"
	"seadrift/internal/report"
	"seadrift/internal/search"
)

var (
	ErrInvalidCoordinate = errors.New("invalid coordinate")
	ErrNegativeElapsed   = errors.New("elapsed minutes must not be negative")
	ErrElapsedTooLarge   = errors.New("elapsed minutes out of range")
)

// MaxElapsedMinutes is one year. Anything older is outside what the drift
// model can say anything useful about.
const MaxElapsedMinutes = 365 * 24 * 60

const (
	zoomInland = 12
	zoomMarine = 10
)

// WeatherSource fetches live weather for a position
type WeatherSource interface {
	Current(ctx context.Context, pos domain.Coordinate) (domain.Weather, error)
}

// Request is one assessment to perform. Wind and Current, when set, are
// observations from the scene and replace the provider and the estimator.
type Request struct {
	Incident domain.Incident
	Wind     *domain.WindVector
	Current  *domain.CurrentVector
}

// Inputs is a fully resolved assessment: weather is known, so Compute does
// no I/O.
type Inputs struct {
	Incident domain.Incident
	Weather  domain.Weather
	Current  *domain.CurrentVector
}

type Assessor struct {
	classifier *geo.Classifier
	estimator  *environment.Estimator
	engine     *drift.Engine
	generator  *search.Generator
	weather    WeatherSource
	logger     *slog.Logger
	now        func() time.Time
}

// New builds an Assessor. A nil weather source runs on fallback weather.
func New(classifier *geo.Classifier, estimator *environment.Estimator, engine *drift.Engine, generator *search.Generator, weather WeatherSource, logger *slog.Logger) *Assessor {
	return &Assessor{
		classifier: classifier,
		estimator:  estimator,
		engine:     engine,
		generator:  generator,
		weather:    weather,
		logger:     logger.With("component", "assessor"),
		now:        time.Now,
	}
}

func (a *Assessor) Engine() *drift.Engine { return a.engine }

// Conditions resolves weather and current for pos and returns the
// environmental picture without computing drift.
func (a *Assessor) Conditions(ctx context.Context, pos domain.Coordinate) (domain.Weather, domain.CurrentVector, domain.Conditions, error) {
	if !pos.Valid() {
		return domain.Weather{}, domain.CurrentVector{}, domain.Conditions{}, ErrInvalidCoordinate
	}
	weather := a.resolveWeather(ctx, pos)
	current := a.estimator.EstimateCurrent(pos)
	return weather, current, a.estimator.Conditions(pos, weather, current), nil
}

// Assess resolves weather, falling back to synthetic weather on any
// provider error, then computes the assessment.
func (a *Assessor) Assess(ctx context.Context, req Request) (domain.Assessment, error) {
	if err := Validate(req.Incident); err != nil {
		return domain.Assessment{}, err
	}

	weather := a.resolveWeather(ctx, req.Incident.Position)
	if req.Wind != nil {
		weather.Wind = *req.Wind
	}

	return a.Compute(Inputs{
		Incident: req.Incident,
		Weather:  weather,
		Current:  req.Current,
	})
}

func (a *Assessor) resolveWeather(ctx context.Context, pos domain.Coordinate) domain.Weather {
	if a.weather == nil {
		return a.estimator.FallbackWeather(pos)
	}
	w, err := a.weather.Current(ctx, pos)
	if err != nil {
		a.logger.Warn("weather unavailable, using fallback",
			"error", err,
			"lat", pos.Lat,
			"lng", pos.Lng,
		)
		return a.estimator.FallbackWeather(pos)
	}
	return w
}

// Compute runs the pure pipeline: classify, estimate current, drift,
// summarize, search area, patterns, conditions, report.
func (a *Assessor) Compute(in Inputs) (domain.Assessment, error) {
	inc := in.Incident
	if err := Validate(inc); err != nil {
		return domain.Assessment{}, err
	}
	if inc.Profile == 0 {
		inc.Profile = domain.ProfilePerson
	}

	pos := inc.Position
	elapsed := inc.ElapsedMinutes
	inland := a.classifier.IsInland(pos)

	// Inland water has no modeled current, so an observed current is only
	// honored on marine positions.
	current := a.estimator.EstimateCurrent(pos)
	if in.Current != nil && !inland {
		current = *in.Current
		current.WindOnlyMode = false
	}

	wind := in.Weather.Wind
	vector := a.engine.Vector(current, wind, elapsed, inc.Profile)

	summary := a.engine.Summarize(current, wind, elapsed)
	summary.SearchRadiusNm = a.generator.QuickRadius(summary.TotalDriftNm, summary.WindOnlyMode)
	summary.SearchAreaSqNm = math.Pi * summary.SearchRadiusNm * summary.SearchRadiusNm

	area := a.generator.Area(pos, vector, elapsed, inc.UncertaintyFactor)
	conditions := a.estimator.Conditions(pos, in.Weather, current)

	now := a.now()
	incidentTime := inc.Timestamp
	if incidentTime.IsZero() {
		incidentTime = now.Add(-time.Duration(elapsed * float64(time.Minute)))
	}
	rep := report.Build(pos, area, elapsed, report.Environment{
		Current:    &current,
		Wind:       &wind,
		Visibility: conditions.Visibility,
		SeaState:   conditions.SeaState.Description,
	}, incidentTime)

	mode := domain.ModeMarine
	if inland {
		mode = domain.ModeInland
	}
	zoom := zoomMarine
	if a.classifier.IsInlandForDisplay(pos) {
		zoom = zoomInland
	}

	return domain.Assessment{
		Incident:   inc,
		Mode:       mode,
		Region:     a.classifier.RegionInfo(pos).Region,
		ZoomHint:   zoom,
		Weather:    in.Weather,
		Current:    current,
		Drift:      vector,
		Summary:    summary,
		SearchArea: area,
		Patterns:   search.Patterns(area.Center, area.RadiusNm),
		Conditions: conditions,
		Report:     rep,
		ComputedAt: now,
	}, nil
}

// Validate checks the parts of an incident the pipeline cannot recover from.
func Validate(inc domain.Incident) error {
	if !inc.Position.Valid() {
		return fmt.Errorf("%w: lat=%v lng=%v", ErrInvalidCoordinate, inc.Position.Lat, inc.Position.Lng)
	}
	if inc.ElapsedMinutes < 0 {
		return ErrNegativeElapsed
	}
	if !(inc.ElapsedMinutes <= MaxElapsedMinutes) {
		return fmt.Errorf("%w: %v exceeds %d", ErrElapsedTooLarge, inc.ElapsedMinutes, MaxElapsedMinutes)
	}
	if inc.Profile != 0 && inc.Profile.String() == "unknown" {
		return fmt.Errorf("%w: %d", domain.ErrUnknownProfile, int(inc.Profile))
	}
	return nil
}
