package drift

import "seadrift/internal/domain"

// Summarize is the scalar drift estimate behind the quick on-screen
// summary. It ignores bearings and drift profiles and uses flat wind
// factors, so it does not agree with Vector. Both are kept because they
// serve different views.
//
//	wind    = windMph * factor * elapsedMinutes * HoursPerMinute
//	current = currentKnots * elapsedMinutes * HoursPerMinute (0 in wind-only mode)
func (e *Engine) Summarize(current domain.CurrentVector, wind domain.WindVector, elapsedMinutes float64) domain.DriftSummary {
	s := e.p.Summary
	minutes := nonNegative(elapsedMinutes)

	factor := s.MarineWindFactor
	currentDrift := nonNegative(current.SpeedKnots) * minutes * s.HoursPerMinute
	if current.WindOnlyMode {
		factor = s.InlandWindFactor
		currentDrift = 0
	}
	windDrift := nonNegative(wind.SpeedMph) * factor * minutes * s.HoursPerMinute

	return domain.DriftSummary{
		CurrentDriftNm: currentDrift,
		WindDriftNm:    windDrift,
		TotalDriftNm:   currentDrift + windDrift,
		WindOnlyMode:   current.WindOnlyMode,
	}
}
