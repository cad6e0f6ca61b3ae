package domain

// Coordinate is a WGS 84 position in decimal degrees
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate lies inside the lat/lng ranges
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Offset returns the coordinate shifted by the given degree deltas
func (c Coordinate) Offset(dLat, dLng float64) Coordinate {
	return Coordinate{Lat: c.Lat + dLat, Lng: c.Lng + dLng}
}

// BoundingBox represents a geographic rectangle
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

// Contains checks if a point is within the bounding box
func (bb *BoundingBox) Contains(c Coordinate) bool {
	return c.Lat >= bb.MinLat && c.Lat <= bb.MaxLat &&
		c.Lng >= bb.MinLng && c.Lng <= bb.MaxLng
}
