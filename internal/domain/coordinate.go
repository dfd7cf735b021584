// Package domain contains the core business entities and value objects.
package domain

import (
	"fmt"
	"strconv"
)

// Coordinate represents a WGS84 latitude/longitude pair.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// NewCoordinate creates a coordinate.
func NewCoordinate(lat, lon float64) Coordinate {
	return Coordinate{Latitude: lat, Longitude: lon}
}

// Validate checks that the coordinate lies within WGS84 bounds.
func (c Coordinate) Validate() error {
	if c.Longitude < -180 || c.Longitude > 180 {
		return &ValidationError{
			Field:      "longitude",
			Value:      c.Longitude,
			Constraint: "[-180, 180]",
			Message:    "longitude must be between -180 and 180",
		}
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return &ValidationError{
			Field:      "latitude",
			Value:      c.Latitude,
			Constraint: "[-90, 90]",
			Message:    "latitude must be between -90 and 90",
		}
	}
	return nil
}

// LatString formats the latitude for use in a URL.
func (c Coordinate) LatString() string {
	return strconv.FormatFloat(c.Latitude, 'f', 6, 64)
}

// LonString formats the longitude for use in a URL.
func (c Coordinate) LonString() string {
	return strconv.FormatFloat(c.Longitude, 'f', 6, 64)
}

// String returns a string representation of the coordinate.
func (c Coordinate) String() string {
	return fmt.Sprintf("(%s, %s)", c.LatString(), c.LonString())
}
