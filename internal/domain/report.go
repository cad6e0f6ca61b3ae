package domain

import "time"

// Report is the rescue-coordination summary handed to the presentation layer
type Report struct {
	Incident        ReportIncident      `json:"incident"`
	SearchArea      ReportSearchArea    `json:"search_area"`
	Environmental   ReportEnvironmental `json:"environmental"`
	Recommendations []string            `json:"recommendations"`
}

type ReportIncident struct {
	Position       Coordinate `json:"position"`
	Time           time.Time  `json:"time"`
	ElapsedMinutes float64    `json:"elapsed_minutes"`
}

// ReportSearchArea carries the search metrics formatted to fixed precision
type ReportSearchArea struct {
	Center     Coordinate `json:"center"`
	RadiusNm   string     `json:"radius_nm"`
	AreaSqNm   string     `json:"area_sqnm"`
	Confidence string     `json:"confidence"`
}

type ReportEnvironmental struct {
	Current    string `json:"current"`
	Wind       string `json:"wind"`
	Visibility string `json:"visibility"`
	SeaState   string `json:"sea_state"`
}
