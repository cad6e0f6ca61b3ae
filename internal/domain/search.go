package domain

// SearchArea is the probable location of the drifting object
type SearchArea struct {
	Center            Coordinate   `json:"center"`
	RadiusNm          float64      `json:"radiusNm"`
	Polygon           []Coordinate `json:"polygon"`
	ConfidencePercent float64      `json:"confidence"`
	AreaSqNm          float64      `json:"areaSqNm"`
}

type SquareLeg struct {
	Start      Coordinate `json:"start"`
	End        Coordinate `json:"end"`
	HeadingDeg float64    `json:"heading"`
	DistanceNm float64    `json:"distance"`
}

type SectorWedge struct {
	Center   Coordinate `json:"center"`
	Outer    Coordinate `json:"outer"`
	AngleDeg float64    `json:"angle"`
	SweepDeg float64    `json:"sweep"`
}

type TrackLine struct {
	Start       Coordinate `json:"start"`
	End         Coordinate `json:"end"`
	TrackNumber int        `json:"trackNumber"`
}

// SearchPatterns holds the three canonical coverage patterns for an area
type SearchPatterns struct {
	ExpandingSquare []SquareLeg   `json:"expandingSquare"`
	Sector          []SectorWedge `json:"sector"`
	ParallelTrack   []TrackLine   `json:"parallelTrack"`
}
