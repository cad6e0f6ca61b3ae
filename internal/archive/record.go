package archive

import (
	"encoding/json"

	"seadrift/internal/domain"
)

// Record is one archived assessment row
type Record struct {
	IncidentID string  `parquet:"name=incident_id, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	ComputedAt int64   `parquet:"name=computed_at, type=INT64, convertedtype=TIMESTAMP_MILLIS"`
	Elapsed    float64 `parquet:"name=elapsed_minutes, type=DOUBLE"`
	Lat        float64 `parquet:"name=lat, type=DOUBLE"`
	Lng        float64 `parquet:"name=lng, type=DOUBLE"`
	CenterLat  float64 `parquet:"name=center_lat, type=DOUBLE"`
	CenterLng  float64 `parquet:"name=center_lng, type=DOUBLE"`
	RadiusNm   float64 `parquet:"name=radius_nm, type=DOUBLE"`
	Confidence float64 `parquet:"name=confidence, type=DOUBLE"`
	DriftNm    float64 `parquet:"name=drift_nm, type=DOUBLE"`
	Mode       string  `parquet:"name=mode, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Profile    string  `parquet:"name=profile, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Region     string  `parquet:"name=region, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Fallback   bool    `parquet:"name=fallback_weather, type=BOOLEAN"`
	ReportJSON string  `parquet:"name=report_json, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN"`
}

func NewRecord(a *domain.Assessment) (Record, error) {
	report, err := json.Marshal(a.Report)
	if err != nil {
		return Record{}, err
	}
	return Record{
		IncidentID: a.Incident.ID,
		ComputedAt: a.ComputedAt.UnixMilli(),
		Elapsed:    a.Incident.ElapsedMinutes,
		Lat:        a.Incident.Position.Lat,
		Lng:        a.Incident.Position.Lng,
		CenterLat:  a.SearchArea.Center.Lat,
		CenterLng:  a.SearchArea.Center.Lng,
		RadiusNm:   a.SearchArea.RadiusNm,
		Confidence: a.SearchArea.ConfidencePercent,
		DriftNm:    a.Drift.TotalDistanceNm,
		Mode:       string(a.Mode),
		Profile:    a.Incident.Profile.String(),
		Region:     a.Region,
		Fallback:   a.Weather.Fallback,
		ReportJSON: string(report),
	}, nil
}
