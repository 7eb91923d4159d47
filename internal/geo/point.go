// Package geo holds the coordinate value shared by the planner's state, its
// collaborators and the URL codec.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidCoordinates indicates a point outside the WGS84 range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the point lies within valid latitude and longitude ranges.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]: %w", p.Lat, ErrInvalidCoordinates)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]: %w", p.Lon, ErrInvalidCoordinates)
	}
	return nil
}

// String formats the point as "lat,lon".
func (p Point) String() string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lon)
}

// Wrap returns p with the longitude wrapped into [-180, 180) and the latitude
// clamped to [-90, 90]. Non-finite components become zero.
func (p Point) Wrap() Point {
	lat, lon := p.Lat, p.Lon
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		lat = 0
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) {
		lon = 0
	}
	if lon < -180 || lon >= 180 {
		lon = math.Mod(lon+180, 360)
		if lon < 0 {
			lon += 360
		}
		lon -= 180
	}
	return Point{Lat: math.Max(-90, math.Min(90, lat)), Lon: lon}
}
