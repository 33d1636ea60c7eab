package models

import "fmt"

// Coordinate is a WGS 84 position in degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%0.6f, %0.6f", c.Lat, c.Lon)
}

// InRange reports whether both components are physically meaningful.
func (c Coordinate) InRange() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}
