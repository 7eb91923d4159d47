// Package leisure provides the catalog of curated leisure routes.
package leisure

import (
	"errors"
	"time"

	"github.com/breatheroute/planner/internal/geo"
)

// Repository errors.
var (
	ErrRouteNotFound = errors.New("leisure route not found")
)

// Route is a curated route shown in the leisure view.
type Route struct {
	ID              string    `json:"id" toml:"id"`
	Name            string    `json:"name" toml:"name"`
	Description     string    `json:"description,omitempty" toml:"description"`
	DistanceMeters  float64   `json:"distanceMeters" toml:"distance_meters"`
	DurationSeconds float64   `json:"durationSeconds" toml:"duration_seconds"`
	Geometry        string    `json:"geometry" toml:"geometry"`
	Start           geo.Point `json:"start" toml:"start"`
	CreatedAt       time.Time `json:"createdAt" toml:"-"`
}
