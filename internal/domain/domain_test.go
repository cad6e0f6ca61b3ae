package domain

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestParseDriftProfile(t *testing.T) {
	cases := []struct {
		name string
		want DriftProfile
	}{
		{"", ProfilePerson},
		{"person", ProfilePerson},
		{"person_with_pfd", ProfilePersonWithPFD},
		{"debris", ProfileDebris},
		{"life_raft", ProfileLifeRaft},
	}
	for _, tc := range cases {
		got, err := ParseDriftProfile(tc.name)
		if err != nil || got != tc.want {
			t.Fatalf("ParseDriftProfile(%q)=%v, %v want %v", tc.name, got, err, tc.want)
		}
	}

	for _, bad := range []string{"kayak", "Person", "life raft"} {
		if _, err := ParseDriftProfile(bad); !errors.Is(err, ErrUnknownProfile) {
			t.Fatalf("ParseDriftProfile(%q) err=%v", bad, err)
		}
	}
}

func TestDriftProfile_JSON(t *testing.T) {
	var inc Incident
	if err := json.Unmarshal([]byte(`{"profile":"debris"}`), &inc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if inc.Profile != ProfileDebris {
		t.Fatalf("profile=%v", inc.Profile)
	}

	b, err := json.Marshal(Incident{Profile: ProfileLifeRaft})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	if raw["profile"] != "life_raft" {
		t.Fatalf("profile=%v", raw["profile"])
	}

	if err := json.Unmarshal([]byte(`{"profile":"kayak"}`), &inc); err == nil {
		t.Fatal("expected error for unknown profile")
	}
}

func TestCoordinate_Valid(t *testing.T) {
	cases := []struct {
		c    Coordinate
		want bool
	}{
		{Coordinate{0, 0}, true},
		{Coordinate{90, 180}, true},
		{Coordinate{-90, -180}, true},
		{Coordinate{90.0001, 0}, false},
		{Coordinate{0, -180.5}, false},
		{Coordinate{math.NaN(), 0}, false},
		{Coordinate{0, math.Inf(1)}, false},
	}
	for _, tc := range cases {
		if got := tc.c.Valid(); got != tc.want {
			t.Fatalf("%+v Valid()=%v want %v", tc.c, got, tc.want)
		}
	}
}

func TestBoundingBox_Contains(t *testing.T) {
	bb := &BoundingBox{MinLat: 29, MaxLat: 30, MinLng: -96, MaxLng: -95}
	if !bb.Contains(Coordinate{29.5, -95.5}) || !bb.Contains(Coordinate{29, -96}) {
		t.Fatal("expected inside")
	}
	if bb.Contains(Coordinate{30.1, -95.5}) {
		t.Fatal("expected outside")
	}
}
