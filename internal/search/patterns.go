package search

import (
	"math"

	"seadrift/internal/domain"
)

const (
	nmPerDegree = 60.0

	squareLegs     = 8
	sectorCount    = 6
	parallelTracks = 5
)

// Destination moves start by distanceNm along bearingDeg using the same
// flat-earth conversion as the drift engine.
func Destination(start domain.Coordinate, bearingDeg, distanceNm float64) domain.Coordinate {
	rad := bearingDeg * math.Pi / 180
	d := distanceNm / nmPerDegree
	return start.Offset(d*math.Cos(rad), d*math.Sin(rad))
}

func Patterns(center domain.Coordinate, radiusNm float64) domain.SearchPatterns {
	return domain.SearchPatterns{
		ExpandingSquare: ExpandingSquare(center, radiusNm),
		Sector:          Sector(center, radiusNm),
		ParallelTrack:   ParallelTrack(center, radiusNm),
	}
}

// ExpandingSquare starts north with a leg of radius/2 and turns 90° right
// each leg, growing by half the first leg every time.
func ExpandingSquare(center domain.Coordinate, radiusNm float64) []domain.SquareLeg {
	base := radiusNm / 2
	legs := make([]domain.SquareLeg, 0, squareLegs)

	pos := center
	heading := 0.0
	for i := 0; i < squareLegs; i++ {
		dist := base * (1 + float64(i)*0.5)
		end := Destination(pos, heading, dist)
		legs = append(legs, domain.SquareLeg{
			Start:      pos,
			End:        end,
			HeadingDeg: heading,
			DistanceNm: dist,
		})
		pos = end
		heading = math.Mod(heading+90, 360)
	}
	return legs
}

func Sector(center domain.Coordinate, radiusNm float64) []domain.SectorWedge {
	sweep := 360.0 / sectorCount
	wedges := make([]domain.SectorWedge, 0, sectorCount)
	for i := 0; i < sectorCount; i++ {
		angle := float64(i) * sweep
		wedges = append(wedges, domain.SectorWedge{
			Center:   center,
			Outer:    Destination(center, angle, radiusNm),
			AngleDeg: angle,
			SweepDeg: sweep,
		})
	}
	return wedges
}

// ParallelTrack lays five eastbound tracks of 2*radius, spaced radius/4
// apart and offset along 270° so the middle track starts at the center.
func ParallelTrack(center domain.Coordinate, radiusNm float64) []domain.TrackLine {
	spacing := radiusNm / 4
	length := radiusNm * 2
	tracks := make([]domain.TrackLine, 0, parallelTracks)
	for i := 0; i < parallelTracks; i++ {
		offset := float64(i-parallelTracks/2) * spacing
		start := Destination(center, 270, offset)
		tracks = append(tracks, domain.TrackLine{
			Start:       start,
			End:         Destination(start, 90, length),
			TrackNumber: i + 1,
		})
	}
	return tracks
}
