package environment

import (
	"fmt"
	"math"

	"seadrift/internal/domain"
)

var seaStates = []struct {
	belowMph    float64
	description string
}{
	{4, "Calm - Mirror-like surface"},
	{7, "Light Air - Ripples, no foam"},
	{11, "Light Breeze - Small wavelets"},
	{17, "Gentle Breeze - Large wavelets, scattered whitecaps"},
	{22, "Moderate Breeze - Small waves, frequent whitecaps"},
	{28, "Fresh Breeze - Moderate waves, many whitecaps"},
	{34, "Strong Breeze - Large waves, foam crests"},
}

// SeaState classifies wind speed in mph onto eight levels
func SeaState(windSpeedMph float64) domain.SeaState {
	for code, s := range seaStates {
		if windSpeedMph < s.belowMph {
			return domain.SeaState{Code: code, Description: s.description}
		}
	}
	return domain.SeaState{Code: len(seaStates), Description: "High Wind - Dangerous conditions"}
}

// WaterTemp estimates water temperature in °F from air temperature.
// Inland water tracks the air closely; marine water is damped by latitude.
func WaterTemp(lat, airTempF float64, inland bool) float64 {
	if inland {
		return math.Round(clamp(airTempF*0.95, 32, 90))
	}
	latFactor := math.Cos(math.Abs(lat) * math.Pi / 180)
	t := airTempF*0.9*latFactor + latFactor*5
	return math.Round(clamp(t, 50, 90))
}

var survivalBuckets = []struct {
	belowF float64
	text   string
}{
	{40, "15-45 minutes - EXTREME hypothermia risk"},
	{50, "30-90 minutes - HIGH hypothermia risk"},
	{60, "1-6 hours - MODERATE hypothermia risk"},
	{70, "2-40 hours - LOW hypothermia risk"},
	{80, "6+ hours - exhaustion/dehydration risk"},
}

// SurvivalTime maps water temperature to an expected survival range
func SurvivalTime(waterTempF float64) string {
	for _, b := range survivalBuckets {
		if waterTempF < b.belowF {
			return b.text
		}
	}
	return "12+ hours - dehydration primary risk"
}

// Survivability is SurvivalTime tagged with the kind of water
func Survivability(waterTempF float64, inland bool) string {
	if inland {
		return SurvivalTime(waterTempF) + " (inland waters)"
	}
	return SurvivalTime(waterTempF) + " (marine waters)"
}

func FormatVisibility(meters float64) string {
	miles := meters * 0.000621371
	switch {
	case miles > 6:
		return fmt.Sprintf("Excellent visibility (%.1f miles)", miles)
	case miles > 3:
		return fmt.Sprintf("Good visibility (%.1f miles)", miles)
	case miles > 1:
		return fmt.Sprintf("Moderate visibility (%.1f miles)", miles)
	default:
		return fmt.Sprintf("Poor visibility (%.1f miles)", miles)
	}
}

// Rates summarizes how fast wind and current move an object, per hour.
func Rates(wind domain.WindVector, current domain.CurrentVector) domain.DriftRates {
	if current.WindOnlyMode {
		windRate := round2(wind.SpeedMph * 0.05)
		return domain.DriftRates{
			WindEffect:     windRate,
			CurrentEffect:  0,
			TotalDriftRate: windRate,
			DominantFactor: "Wind (inland mode)",
			Mode:           "Wind-only drift calculation",
			Accuracy:       "Limited - wind-driven surface movement only",
		}
	}

	windRate := wind.SpeedMph * 0.03
	dominant := "Wind"
	if current.SpeedKnots > windRate {
		dominant = "Ocean Current"
	}
	return domain.DriftRates{
		WindEffect:     round2(windRate),
		CurrentEffect:  current.SpeedKnots,
		TotalDriftRate: round2(current.SpeedKnots + windRate),
		DominantFactor: dominant,
		Mode:           "Combined current and wind drift",
		Accuracy:       "Standard marine calculation",
	}
}

func SafetyWarnings(weather domain.Weather, current domain.CurrentVector, inland bool) []string {
	var warnings []string

	if inland {
		warnings = append(warnings,
			"INLAND LOCATION: Wind-only drift calculations",
			"Contact local emergency services (911) immediately",
			"Consider land-based search patterns and protocols",
		)
	} else {
		warnings = append(warnings,
			"MARINE LOCATION: Combined current and wind drift",
			"Contact Coast Guard (VHF Channel 16) immediately",
		)
	}

	switch {
	case weather.Wind.SpeedMph > 25:
		warnings = append(warnings, "HIGH WIND WARNING: Dangerous conditions, extreme caution required")
	case weather.Wind.SpeedMph > 18:
		warnings = append(warnings, "MODERATE WIND: Challenging search conditions")
	}

	if !inland {
		switch {
		case current.SpeedKnots > 1.5:
			warnings = append(warnings, "STRONG CURRENT: Rapid drift expected, expand search area quickly")
		case current.SpeedKnots > 1.0:
			warnings = append(warnings, "MODERATE CURRENT: Significant drift factor")
		}
	}

	switch {
	case weather.VisibilityM < 2000:
		warnings = append(warnings, "POOR VISIBILITY: Search operations severely limited")
	case weather.VisibilityM < 5000:
		warnings = append(warnings, "REDUCED VISIBILITY: Search conditions challenging")
	}

	return append(warnings, "TIME CRITICAL: Begin search operations immediately")
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
