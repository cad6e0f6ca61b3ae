package domain

// WindVector is wind at the incident position. Speed is in miles per hour.
type WindVector struct {
	SpeedMph     float64 `json:"speed"`
	DirectionDeg float64 `json:"deg"`
}

// CurrentVector is surface water current. Speed is in knots.
//
// When WindOnlyMode is set the position is on inland water and the speed
// and direction are placeholders that must not feed drift.
type CurrentVector struct {
	SpeedKnots   float64  `json:"speed"`
	DirectionDeg float64  `json:"direction"`
	WindOnlyMode bool     `json:"windOnlyMode"`
	Station      string   `json:"station,omitempty"`
	Confidence   string   `json:"confidence,omitempty"`
	Region       string   `json:"region,omitempty"`
	DriftType    string   `json:"driftType,omitempty"`
	Estimated    bool     `json:"estimated"`
	Warnings     []string `json:"warnings,omitempty"`
}

// Weather is a weather observation for a position, either live from the
// provider or synthesized when the provider is unavailable.
type Weather struct {
	Wind        WindVector `json:"wind"`
	Description string     `json:"description"`
	Main        string     `json:"main"`
	TempF       float64    `json:"temp"`
	Humidity    float64    `json:"humidity"`
	PressureHpa float64    `json:"pressure"`
	VisibilityM float64    `json:"visibility"`
	Location    string     `json:"location"`
	Live        bool       `json:"live"`
	Fallback    bool       `json:"fallback"`
}

// SeaState is a Beaufort-like wind/wave severity level
type SeaState struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// DriftRates is the per-hour drift rate breakdown shown alongside conditions
type DriftRates struct {
	WindEffect     float64 `json:"windEffect"`
	CurrentEffect  float64 `json:"currentEffect"`
	TotalDriftRate float64 `json:"totalDriftRate"`
	DominantFactor string  `json:"dominantFactor"`
	Mode           string  `json:"mode"`
	Accuracy       string  `json:"accuracy"`
}

// Conditions aggregates the environmental picture at an incident position
type Conditions struct {
	LocationType   string     `json:"locationType"`
	Inland         bool       `json:"inland"`
	Region         string     `json:"region"`
	SeaState       SeaState   `json:"seaState"`
	Visibility     string     `json:"visibility"`
	WaterTempF     float64    `json:"waterTemp"`
	Survivability  string     `json:"survivability"`
	Rates          DriftRates `json:"driftFactors"`
	SafetyWarnings []string   `json:"safetyWarnings"`
}
