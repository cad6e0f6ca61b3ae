package geo

import (
	"math"

	"seadrift/internal/domain"
)

// Box is a named lat/lng rectangle. Bounds are exclusive.
type Box struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	WaterType   string  `yaml:"water_type"`
	MinLat      float64 `yaml:"min_lat"`
	MaxLat      float64 `yaml:"max_lat"`
	MinLng      float64 `yaml:"min_lng"`
	MaxLng      float64 `yaml:"max_lng"`
}

func (b Box) Contains(c domain.Coordinate) bool {
	return c.Lat > b.MinLat && c.Lat < b.MaxLat && c.Lng > b.MinLng && c.Lng < b.MaxLng
}

// Params holds the classifier tunables.
//
// Distance from coast is measured in degree space against a single
// reference point and scaled by MilesPerDegree. It is only meaningful near
// the reference point and grows wrong with distance from it, most of all
// east-west at higher latitudes.
type Params struct {
	InlandBoxes    []Box             `yaml:"inland_boxes"`
	CoastReference domain.Coordinate `yaml:"coast_reference"`
	MilesPerDegree float64           `yaml:"miles_per_degree"`

	// InlandThresholdMiles applies when choosing the current model.
	InlandThresholdMiles float64 `yaml:"inland_threshold_miles"`
	// DisplayInlandThresholdMiles applies to the location summary and map hints.
	DisplayInlandThresholdMiles float64 `yaml:"display_inland_threshold_miles"`
	// LandwardOnly limits the distance rule to positions north of the
	// reference latitude, the land side of the Gulf coast. Without it every
	// offshore position past the threshold counts as inland.
	LandwardOnly bool `yaml:"landward_only"`

	Gulf                    Box     `yaml:"gulf"`
	NearshoreThresholdMiles float64 `yaml:"nearshore_threshold_miles"`
}

func DefaultParams() Params {
	return Params{
		InlandBoxes: []Box{
			{
				Name:        "Houston Metro Area",
				Description: "Urban inland area with waterways",
				WaterType:   "Rivers, bayous, urban water features",
				MinLat:      29.5, MaxLat: 30.1, MinLng: -95.8, MaxLng: -95.0,
			},
			{
				Name:        "Dallas-Fort Worth Area",
				Description: "Urban inland area with lakes",
				WaterType:   "Lakes, rivers, reservoirs",
				MinLat:      32.5, MaxLat: 33.1, MinLng: -97.5, MaxLng: -96.5,
			},
			{
				Name:        "Austin Area",
				Description: "Urban inland area with lakes and rivers",
				WaterType:   "Lakes, rivers, reservoirs",
				MinLat:      30.1, MaxLat: 30.5, MinLng: -97.9, MaxLng: -97.5,
			},
			{
				Name:        "San Antonio Area",
				Description: "Urban inland area with rivers",
				WaterType:   "Rivers, creeks, urban water features",
				MinLat:      29.2, MaxLat: 29.7, MinLng: -98.8, MaxLng: -98.2,
			},
		},
		CoastReference:              domain.Coordinate{Lat: 29.3, Lng: -94.8},
		MilesPerDegree:              69,
		InlandThresholdMiles:        20,
		DisplayInlandThresholdMiles: 15,
		LandwardOnly:                true,
		Gulf: Box{
			Name:   "Gulf of Mexico",
			MinLat: 25, MaxLat: 32, MinLng: -100, MaxLng: -80,
		},
		NearshoreThresholdMiles: 10,
	}
}

// RegionInfo is a human readable label for a position
type RegionInfo struct {
	Region      string `json:"region"`
	Description string `json:"description"`
	WaterType   string `json:"waterType"`
	Inland      bool   `json:"inland"`
}

type Classifier struct {
	p Params
}

func NewClassifier(p Params) *Classifier {
	return &Classifier{p: p}
}

func (c *Classifier) Params() Params {
	return c.p
}

// IsInland reports whether no tidal or ocean current applies at coord
func (c *Classifier) IsInland(coord domain.Coordinate) bool {
	return c.isInlandWithin(coord, c.p.InlandThresholdMiles)
}

// IsInlandForDisplay is IsInland with the display threshold
func (c *Classifier) IsInlandForDisplay(coord domain.Coordinate) bool {
	return c.isInlandWithin(coord, c.p.DisplayInlandThresholdMiles)
}

func (c *Classifier) isInlandWithin(coord domain.Coordinate, thresholdMiles float64) bool {
	if _, ok := c.inlandBox(coord); ok {
		return true
	}
	if c.p.LandwardOnly && coord.Lat <= c.p.CoastReference.Lat {
		return false
	}
	return c.DistanceFromCoast(coord) > thresholdMiles
}

// DistanceFromCoast returns an approximate distance in statute miles
func (c *Classifier) DistanceFromCoast(coord domain.Coordinate) float64 {
	dLat := coord.Lat - c.p.CoastReference.Lat
	dLng := coord.Lng - c.p.CoastReference.Lng
	return math.Sqrt(dLat*dLat+dLng*dLng) * c.p.MilesPerDegree
}

func (c *Classifier) InGulf(coord domain.Coordinate) bool {
	return c.p.Gulf.Contains(coord)
}

func (c *Classifier) Nearshore(coord domain.Coordinate) bool {
	return c.DistanceFromCoast(coord) < c.p.NearshoreThresholdMiles
}

func (c *Classifier) RegionInfo(coord domain.Coordinate) RegionInfo {
	if b, ok := c.inlandBox(coord); ok {
		return RegionInfo{
			Region:      b.Name,
			Description: b.Description,
			WaterType:   b.WaterType,
			Inland:      true,
		}
	}
	if c.IsInland(coord) {
		return RegionInfo{
			Region:      "Inland Waters",
			Description: "Non-coastal location",
			WaterType:   "Rivers, lakes, or other inland waters",
			Inland:      true,
		}
	}
	if c.InGulf(coord) {
		desc := "Offshore marine waters"
		if c.Nearshore(coord) {
			desc = "Nearshore marine waters"
		}
		return RegionInfo{
			Region:      c.p.Gulf.Name,
			Description: desc,
			WaterType:   "Open ocean",
		}
	}
	return RegionInfo{
		Region:      "Other marine waters",
		Description: "Marine location outside known regions",
		WaterType:   "Open ocean",
	}
}

func (c *Classifier) inlandBox(coord domain.Coordinate) (Box, bool) {
	for _, b := range c.p.InlandBoxes {
		if b.Contains(coord) {
			return b, true
		}
	}
	return Box{}, false
}
