package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownProfile is returned when a drift profile name is not recognized
var ErrUnknownProfile = errors.New("unknown drift profile")

// DriftProfile identifies what is in the water
type DriftProfile int

const (
	ProfilePerson DriftProfile = iota + 1
	ProfilePersonWithPFD
	ProfileDebris
	ProfileLifeRaft
)

// Profiles lists every drift profile in a stable order
var Profiles = []DriftProfile{
	ProfilePerson,
	ProfilePersonWithPFD,
	ProfileDebris,
	ProfileLifeRaft,
}

func (p DriftProfile) String() string {
	switch p {
	case ProfilePerson:
		return "person"
	case ProfilePersonWithPFD:
		return "person_with_pfd"
	case ProfileDebris:
		return "debris"
	case ProfileLifeRaft:
		return "life_raft"
	default:
		return "unknown"
	}
}

// ParseDriftProfile maps a profile name to its variant. An empty name
// selects ProfilePerson.
func ParseDriftProfile(name string) (DriftProfile, error) {
	switch name {
	case "", "person":
		return ProfilePerson, nil
	case "person_with_pfd":
		return ProfilePersonWithPFD, nil
	case "debris":
		return ProfileDebris, nil
	case "life_raft":
		return ProfileLifeRaft, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
}

func (p DriftProfile) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *DriftProfile) UnmarshalText(text []byte) error {
	v, err := ParseDriftProfile(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// DriftComponent is the displacement contributed by one forcing
type DriftComponent struct {
	DistanceNm float64 `json:"distanceNm"`
	BearingDeg float64 `json:"bearingDeg"`
}

// DriftVector is the combined displacement of a drifting object
type DriftVector struct {
	LatOffset       float64        `json:"latOffset"`
	LngOffset       float64        `json:"lngOffset"`
	TotalDistanceNm float64        `json:"totalDistanceNm"`
	Current         DriftComponent `json:"currentComponent"`
	Wind            DriftComponent `json:"windComponent"`
}

// DriftSummary is the scalar drift estimate used for the quick summary.
// It has no bearing information.
type DriftSummary struct {
	CurrentDriftNm float64 `json:"currentDriftNm"`
	WindDriftNm    float64 `json:"windDriftNm"`
	TotalDriftNm   float64 `json:"totalDriftNm"`
	SearchRadiusNm float64 `json:"searchRadiusNm"`
	SearchAreaSqNm float64 `json:"searchAreaSqNm"`
	WindOnlyMode   bool    `json:"windOnlyMode"`
}
