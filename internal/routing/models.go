// Package routing provides route solving across an ordered list of waypoints.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/breatheroute/planner/internal/geo"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no valid route exists through the given points.
	ErrNoRouteFound = errors.New("no route found between the given points")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrTooFewWaypoints indicates fewer than two waypoints were supplied.
	ErrTooFewWaypoints = errors.New("at least two waypoints are required")
)

// Solver is the route-solving collaborator consumed by the planner.
type Solver interface {
	// Search solves routes visiting points in order.
	Search(ctx context.Context, points []geo.Point) ([]Route, error)
}

// Provider defines the interface for routing providers.
type Provider interface {
	// GetDirections retrieves route alternatives through the request's waypoints.
	GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
	// SupportedProfiles returns the list of route profiles this provider supports.
	SupportedProfiles() []RouteProfile
}

// RouteProfile represents a routing profile (mode of transport).
type RouteProfile string

const (
	// ProfileWalk is the foot-walking profile for pedestrian routing.
	ProfileWalk RouteProfile = "foot-walking"
	// ProfileBike is the cycling-regular profile for bike routing.
	ProfileBike RouteProfile = "cycling-regular"
)

// DirectionsRequest is the request for computing routes.
type DirectionsRequest struct {
	Waypoints       []geo.Point
	Profile         RouteProfile
	MaxAlternatives int // Maximum number of alternative routes to return (default: 2)
}

// DirectionsResponse is the response containing route alternatives.
type DirectionsResponse struct {
	Routes    []Route
	Provider  string
	FetchedAt time.Time
}

// Route represents a single solved route.
type Route struct {
	Geometry        string        `json:"geometry"`        // Encoded polyline (precision 5)
	DistanceMeters  int           `json:"distanceMeters"`  // Total distance in meters
	DurationSeconds int           `json:"durationSeconds"` // Total duration in seconds
	Summary         string        `json:"summary,omitempty"`
	Instructions    []Instruction `json:"instructions,omitempty"`
}

// Instruction represents a turn-by-turn instruction.
type Instruction struct {
	Text           string `json:"text"`
	DistanceMeters int    `json:"distanceMeters"`
	DurationSecs   int    `json:"durationSecs"`
	Type           int    `json:"type"`
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}

// ValidateWaypoints checks the waypoint count and every coordinate.
func ValidateWaypoints(provider string, points []geo.Point) error {
	if len(points) < 2 {
		return &Error{
			Provider: provider,
			Code:     "TOO_FEW_WAYPOINTS",
			Message:  "route needs an origin and a destination",
			Err:      ErrTooFewWaypoints,
		}
	}
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return &Error{
				Provider: provider,
				Code:     "INVALID_WAYPOINT",
				Message:  err.Error(),
				Err:      ErrInvalidCoordinates,
			}
		}
	}
	return nil
}
