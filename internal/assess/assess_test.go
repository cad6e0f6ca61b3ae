package assess

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"slices"
	"testing"
	"time"

	"seadrift/internal/domain"
	"seadrift/internal/drift"
	"seadrift/internal/environment"
	"seadrift/internal/geo"
	"seadrift/internal/search"
)

type stubWeather struct {
	w     domain.Weather
	err   error
	calls int
}

func (s *stubWeather) Current(ctx context.Context, pos domain.Coordinate) (domain.Weather, error) {
	s.calls++
	return s.w, s.err
}

var fixedNow = time.Date(2024, 7, 4, 15, 0, 0, 0, time.UTC)

func newTestAssessor(t *testing.T, ws WeatherSource) *Assessor {
	t.Helper()
	classifier := geo.NewClassifier(geo.DefaultParams())
	estimator := environment.NewEstimator(classifier, environment.DefaultParams(), environment.NewLockedRand(1, 2))
	a := New(
		classifier,
		estimator,
		drift.NewEngine(drift.DefaultParams()),
		search.NewGenerator(search.DefaultParams()),
		ws,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	a.now = func() time.Time { return fixedNow }
	return a
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}

func TestAssess_GulfScenario(t *testing.T) {
	ws := &stubWeather{w: domain.Weather{
		Wind:        domain.WindVector{SpeedMph: 20, DirectionDeg: 90},
		TempF:       80,
		VisibilityM: 10000,
		Live:        true,
	}}
	a := newTestAssessor(t, ws)

	res, err := a.Assess(context.Background(), Request{
		Incident: domain.Incident{
			Position:       domain.Coordinate{Lat: 29.30, Lng: -94.80},
			ElapsedMinutes: 60,
			Profile:        domain.ProfilePerson,
		},
		Current: &domain.CurrentVector{SpeedKnots: 1.0, DirectionDeg: 90},
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if ws.calls != 1 {
		t.Fatalf("weather calls=%d want 1", ws.calls)
	}
	if res.Mode != domain.ModeMarine {
		t.Fatalf("mode=%v want marine", res.Mode)
	}
	if !almostEqual(res.Drift.Current.DistanceNm, 0.85) {
		t.Fatalf("current component=%v want 0.85", res.Drift.Current.DistanceNm)
	}
	if !almostEqual(res.Drift.Wind.DistanceNm, 20*0.868976*0.05) {
		t.Fatalf("wind component=%v", res.Drift.Wind.DistanceNm)
	}
	if !almostEqual(res.Drift.TotalDistanceNm, 1.718976) {
		t.Fatalf("total=%v want 1.718976", res.Drift.TotalDistanceNm)
	}
	if math.Abs(res.Drift.LatOffset) > 1e-12 || res.Drift.LngOffset <= 0 {
		t.Fatalf("drift should be due east: %+v", res.Drift)
	}
	if res.SearchArea.ConfidencePercent <= 0 || res.SearchArea.ConfidencePercent > 100 {
		t.Fatalf("confidence=%v", res.SearchArea.ConfidencePercent)
	}
	if res.Weather.Fallback {
		t.Fatal("live weather marked fallback")
	}
	if !res.ComputedAt.Equal(fixedNow) || !res.Report.Incident.Time.Equal(fixedNow.Add(-60*time.Minute)) {
		t.Fatalf("computedAt=%v report time=%v", res.ComputedAt, res.Report.Incident.Time)
	}
	if len(res.Patterns.ExpandingSquare) != 8 || len(res.Patterns.Sector) != 6 || len(res.Patterns.ParallelTrack) != 5 {
		t.Fatalf("patterns=%+v", res.Patterns)
	}
	if res.Patterns.ExpandingSquare[0].Start != res.SearchArea.Center {
		t.Fatal("patterns not centered on search area")
	}
}

func TestAssess_InlandScenario(t *testing.T) {
	ws := &stubWeather{w: domain.Weather{Wind: domain.WindVector{SpeedMph: 12, DirectionDeg: 200}, VisibilityM: 9000}}
	a := newTestAssessor(t, ws)

	res, err := a.Assess(context.Background(), Request{
		Incident: domain.Incident{
			Position:       domain.Coordinate{Lat: 29.80, Lng: -95.40},
			ElapsedMinutes: 90,
		},
		Current: &domain.CurrentVector{SpeedKnots: 3, DirectionDeg: 10},
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if res.Mode != domain.ModeInland || res.ZoomHint != zoomInland {
		t.Fatalf("mode=%v zoom=%d", res.Mode, res.ZoomHint)
	}
	if !res.Current.WindOnlyMode || res.Current.SpeedKnots != 0 {
		t.Fatalf("inland current=%+v", res.Current)
	}
	if res.Incident.Profile != domain.ProfilePerson {
		t.Fatalf("profile=%v want person", res.Incident.Profile)
	}

	s := res.Summary
	want := 12 * 0.05 * 90 * 0.0166667
	if s.CurrentDriftNm != 0 || !almostEqual(s.TotalDriftNm, want) {
		t.Fatalf("summary=%+v want total=%v", s, want)
	}
	if !almostEqual(s.SearchRadiusNm, s.TotalDriftNm*3.0) {
		t.Fatalf("radius=%v want %v", s.SearchRadiusNm, s.TotalDriftNm*3.0)
	}
	if res.Drift.Current.DistanceNm != 0 {
		t.Fatalf("current component=%v want 0", res.Drift.Current.DistanceNm)
	}
	if res.Region != "Houston Metro Area" {
		t.Fatalf("region=%q", res.Region)
	}
}

func TestAssess_ZeroElapsed(t *testing.T) {
	a := newTestAssessor(t, nil)

	res, err := a.Assess(context.Background(), Request{
		Incident: domain.Incident{Position: domain.Coordinate{Lat: 27.5, Lng: -92}},
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if res.Summary.TotalDriftNm != 0 || res.Drift.TotalDistanceNm != 0 {
		t.Fatalf("drift=%+v summary=%+v", res.Drift, res.Summary)
	}
	if res.SearchArea.RadiusNm != 0.5 || res.SearchArea.ConfidencePercent != 100 {
		t.Fatalf("area=%+v", res.SearchArea)
	}
	if res.SearchArea.Center != res.Incident.Position {
		t.Fatalf("center moved: %v", res.SearchArea.Center)
	}
	if !slices.Contains(res.Report.Recommendations, "SEARCH PATTERN: Use expanding square pattern") {
		t.Fatalf("recommendations=%v", res.Report.Recommendations)
	}
}

func TestAssess_FallbackWeather(t *testing.T) {
	ws := &stubWeather{err: errors.New("provider down")}
	a := newTestAssessor(t, ws)

	res, err := a.Assess(context.Background(), Request{
		Incident: domain.Incident{Position: domain.Coordinate{Lat: 28.85, Lng: -94.20}, ElapsedMinutes: 30},
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if !res.Weather.Fallback {
		t.Fatal("expected fallback weather")
	}
	if res.Weather.Wind.SpeedMph < 8 || res.Weather.Wind.SpeedMph > 20 {
		t.Fatalf("fallback marine wind=%v", res.Weather.Wind.SpeedMph)
	}
}

func TestAssess_WindOverride(t *testing.T) {
	ws := &stubWeather{w: domain.Weather{Wind: domain.WindVector{SpeedMph: 30}}}
	a := newTestAssessor(t, ws)

	res, err := a.Assess(context.Background(), Request{
		Incident: domain.Incident{Position: domain.Coordinate{Lat: 29.80, Lng: -95.40}, ElapsedMinutes: 60},
		Wind:     &domain.WindVector{SpeedMph: 10, DirectionDeg: 0},
	})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if res.Weather.Wind.SpeedMph != 10 {
		t.Fatalf("wind=%+v want override", res.Weather.Wind)
	}
}

func TestAssess_ReportCarriesIncidentTime(t *testing.T) {
	a := newTestAssessor(t, nil)
	happened := fixedNow.Add(-95 * time.Minute)

	res, err := a.Assess(context.Background(), Request{Incident: domain.Incident{
		Position:       domain.Coordinate{Lat: 29.30, Lng: -94.80},
		Timestamp:      happened,
		ElapsedMinutes: 95,
	}})
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if !res.Report.Incident.Time.Equal(res.Incident.Timestamp) {
		t.Fatalf("report time=%v incident timestamp=%v", res.Report.Incident.Time, res.Incident.Timestamp)
	}
	if !res.ComputedAt.Equal(fixedNow) {
		t.Fatalf("computedAt=%v", res.ComputedAt)
	}
}

func TestAssess_Validation(t *testing.T) {
	a := newTestAssessor(t, nil)
	cases := []struct {
		name string
		inc  domain.Incident
		want error
	}{
		{"BadLatitude", domain.Incident{Position: domain.Coordinate{Lat: 91}}, ErrInvalidCoordinate},
		{"NaNLongitude", domain.Incident{Position: domain.Coordinate{Lng: math.NaN()}}, ErrInvalidCoordinate},
		{"NegativeElapsed", domain.Incident{ElapsedMinutes: -1}, ErrNegativeElapsed},
		{"ElapsedBeyondYear", domain.Incident{ElapsedMinutes: MaxElapsedMinutes + 1}, ErrElapsedTooLarge},
		{"HugeElapsed", domain.Incident{ElapsedMinutes: 1e300}, ErrElapsedTooLarge},
		{"InfiniteElapsed", domain.Incident{ElapsedMinutes: math.Inf(1)}, ErrElapsedTooLarge},
		{"NaNElapsed", domain.Incident{ElapsedMinutes: math.NaN()}, ErrElapsedTooLarge},
		{"UnknownProfile", domain.Incident{Profile: domain.DriftProfile(42)}, domain.ErrUnknownProfile},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := a.Assess(context.Background(), Request{Incident: tc.inc})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
		})
	}
}

func TestConditions(t *testing.T) {
	a := newTestAssessor(t, nil)

	_, current, cond, err := a.Conditions(context.Background(), domain.Coordinate{Lat: 32.8, Lng: -97.0})
	if err != nil {
		t.Fatalf("Conditions: %v", err)
	}
	if !cond.Inland || !current.WindOnlyMode {
		t.Fatalf("conditions=%+v current=%+v", cond, current)
	}

	if _, _, _, err := a.Conditions(context.Background(), domain.Coordinate{Lat: -100}); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("err=%v want ErrInvalidCoordinate", err)
	}
}
