package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"seadrift/internal/domain"
	"seadrift/internal/drift"
	"seadrift/internal/environment"
	"seadrift/internal/geo"
	"seadrift/internal/search"
)

// Model holds the tunables of the drift model. Each component receives its
// section at construction.
type Model struct {
	Geo         geo.Params         `yaml:"geo"`
	Environment environment.Params `yaml:"environment"`
	Drift       drift.Params       `yaml:"drift"`
	Search      search.Params      `yaml:"search"`

	// Leeway is keyed by profile name in the file. Each entry is decoded
	// over the profile's current coefficients on load, so it only needs the
	// fields it changes.
	Leeway map[string]yaml.Node `yaml:"leeway"`
}

func DefaultModel() Model {
	return Model{
		Geo:         geo.DefaultParams(),
		Environment: environment.DefaultParams(),
		Drift:       drift.DefaultParams(),
		Search:      search.DefaultParams(),
	}
}

// LoadModel decodes path over DefaultModel, so a file only needs the keys
// it changes. Lists such as geo.inland_boxes replace the default list.
func LoadModel(path string) (Model, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Model{}, err
	}

	m := DefaultModel()
	if err := yaml.Unmarshal(b, &m); err != nil {
		return Model{}, err
	}

	for name, node := range m.Leeway {
		profile, err := domain.ParseDriftProfile(name)
		if err != nil {
			return Model{}, fmt.Errorf("leeway: %w", err)
		}
		lw := m.Drift.Leeway[profile]
		if err := node.Decode(&lw); err != nil {
			return Model{}, fmt.Errorf("leeway.%s: %w", name, err)
		}
		m.Drift.Leeway[profile] = lw
	}
	m.Leeway = nil

	if err := m.validate(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) validate() error {
	if m.Geo.MilesPerDegree <= 0 {
		return fmt.Errorf("geo.miles_per_degree must be > 0")
	}
	if m.Geo.InlandThresholdMiles <= 0 || m.Geo.DisplayInlandThresholdMiles <= 0 {
		return fmt.Errorf("geo inland thresholds must be > 0")
	}
	for _, b := range m.Geo.InlandBoxes {
		if b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng {
			return fmt.Errorf("geo.inland_boxes: %q has empty bounds", b.Name)
		}
	}
	for profile, lw := range m.Drift.Leeway {
		if lw.CurrentFactor < 0 || lw.CurrentFactor > 1 || lw.WindFactor < 0 || lw.WindFactor > 1 {
			return fmt.Errorf("leeway.%s: factors must be within [0, 1]", profile)
		}
	}
	if m.Drift.MphToKnots <= 0 {
		return fmt.Errorf("drift.mph_to_knots must be > 0")
	}
	if m.Search.MinRadiusNm <= 0 {
		return fmt.Errorf("search.min_radius_nm must be > 0")
	}
	if m.Search.PolygonPoints < 3 {
		return fmt.Errorf("search.polygon_points must be >= 3")
	}
	if m.Search.ConfidenceFloor < 0 || m.Search.ConfidenceFloor > 100 {
		return fmt.Errorf("search.confidence_floor must be within [0, 100]")
	}
	return nil
}
