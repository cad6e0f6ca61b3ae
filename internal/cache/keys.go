package cache

import (
	"fmt"

	"seadrift/internal/domain"
)

// KeyWeather buckets positions to two decimal places, roughly 1 km, so
// nearby requests share an observation.
func KeyWeather(pos domain.Coordinate) string {
	return fmt.Sprintf("weather:%.2f:%.2f", pos.Lat, pos.Lng)
}

func KeyIncidentLatest(id string) string {
	return fmt.Sprintf("incident:%s:latest", id)
}
