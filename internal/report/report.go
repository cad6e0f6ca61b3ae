// Package report assembles the rescue-coordination summary for an incident.
package report

import (
	"fmt"
	"time"

	"seadrift/internal/domain"
)

const unknown = "Unknown"

const (
	recUrgent       = "URGENT: Search immediately - person likely within initial search radius"
	recHighPriority = "HIGH PRIORITY: Expand search area - drift significant"
	recExtended     = "EXTENDED SEARCH: Large search area required - consider multiple assets"
	recHighWinds    = "HIGH WINDS: Consider wind drift effects - expand downwind search area"
	recStrongCurr   = "STRONG CURRENT: Focus search along current direction"
	recSquare       = "SEARCH PATTERN: Use expanding square pattern"
	recSector       = "SEARCH PATTERN: Use sector search with multiple assets"
	recParallel     = "SEARCH PATTERN: Coordinate multiple parallel track searches"
)

// Environment is what the formatter needs to know about the scene.
// Nil vectors are reported as unknown and trigger no recommendation.
type Environment struct {
	Current    *domain.CurrentVector
	Wind       *domain.WindVector
	Visibility string
	SeaState   string
}

// Build assembles the report. incidentTime is when the incident happened,
// not when the report is computed.
func Build(incident domain.Coordinate, area domain.SearchArea, elapsedMinutes float64, env Environment, incidentTime time.Time) domain.Report {
	return domain.Report{
		Incident: domain.ReportIncident{
			Position:       incident,
			Time:           incidentTime.UTC(),
			ElapsedMinutes: elapsedMinutes,
		},
		SearchArea: domain.ReportSearchArea{
			Center:     area.Center,
			RadiusNm:   fmt.Sprintf("%.2f", area.RadiusNm),
			AreaSqNm:   fmt.Sprintf("%.2f", area.AreaSqNm),
			Confidence: fmt.Sprintf("%.0f%%", area.ConfidencePercent),
		},
		Environmental: domain.ReportEnvironmental{
			Current:    formatCurrent(env.Current),
			Wind:       formatWind(env.Wind),
			Visibility: orUnknown(env.Visibility),
			SeaState:   orUnknown(env.SeaState),
		},
		Recommendations: Recommendations(area, elapsedMinutes, env),
	}
}

// Recommendations applies every matching rule in order: urgency by elapsed
// time, then wind, then current, then a pattern chosen by radius.
func Recommendations(area domain.SearchArea, elapsedMinutes float64, env Environment) []string {
	recs := make([]string, 0, 5)

	switch {
	case elapsedMinutes < 30:
		recs = append(recs, recUrgent)
	case elapsedMinutes < 120:
		recs = append(recs, recHighPriority)
	default:
		recs = append(recs, recExtended)
	}

	if env.Wind != nil && env.Wind.SpeedMph > 20 {
		recs = append(recs, recHighWinds)
	}
	if env.Current != nil && env.Current.SpeedKnots > 1 {
		recs = append(recs, recStrongCurr)
	}

	switch {
	case area.RadiusNm < 1:
		recs = append(recs, recSquare)
	case area.RadiusNm < 3:
		recs = append(recs, recSector)
	default:
		recs = append(recs, recParallel)
	}
	return recs
}

func formatCurrent(c *domain.CurrentVector) string {
	if c == nil {
		return unknown
	}
	if c.WindOnlyMode {
		return "None (wind-only mode)"
	}
	return fmt.Sprintf("%.1f kn toward %.0f°", c.SpeedKnots, c.DirectionDeg)
}

func formatWind(w *domain.WindVector) string {
	if w == nil {
		return unknown
	}
	return fmt.Sprintf("%.1f mph toward %.0f°", w.SpeedMph, w.DirectionDeg)
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
