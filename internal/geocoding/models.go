// Package geocoding defines location search results and the geocoder
// collaborator used to produce them.
package geocoding

import (
	"context"
	"errors"
	"fmt"

	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/pkg/polyline"
)

// Sentinel errors for geocoding operations.
var (
	// ErrProviderUnavailable indicates the geocoder is down or its circuit breaker is open.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrNoResults indicates the query matched nothing.
	ErrNoResults = errors.New("no geocoding results")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrEmptyQuery indicates a blank search query.
	ErrEmptyQuery = errors.New("empty search query")
)

// Geocoder is the location search collaborator.
type Geocoder interface {
	// SearchPointsOfInterest finds named places matching the query.
	SearchPointsOfInterest(ctx context.Context, query string) ([]Result, error)
	// SearchAddress finds streets, blocks and corners matching the query.
	SearchAddress(ctx context.Context, query string) ([]Result, error)
	// Reverse lists what lies at the given point.
	Reverse(ctx context.Context, point geo.Point) ([]Result, error)
	// Name returns the provider identifier for logging.
	Name() string
}

// Kind discriminates the shapes a search result can take.
type Kind string

const (
	// KindCorner is the intersection of two streets.
	KindCorner Kind = "corner"
	// KindBlock is a stretch of street between two house numbers.
	KindBlock Kind = "block"
	// KindStreet is a whole street.
	KindStreet Kind = "street"
	// KindPlace is a point of interest.
	KindPlace Kind = "place"
	// KindCoordinates is a raw coordinate pair picked on the map.
	KindCoordinates Kind = "coordinates"
)

// Kinds lists every result kind.
var Kinds = []Kind{KindCorner, KindBlock, KindStreet, KindPlace, KindCoordinates}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Result is a single location search result. Which fields are populated
// depends on Kind:
//
//	corner:      Street, CrossStreet, Location
//	block:       Street, FromNumber, ToNumber, Geometry
//	street:      Street, Geometry
//	place:       Name, Category, Address, Location
//	coordinates: Location
//
// Geometry is an encoded polyline.
type Result struct {
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name,omitempty"`
	Street      string    `json:"street,omitempty"`
	CrossStreet string    `json:"crossStreet,omitempty"`
	FromNumber  int       `json:"fromNumber,omitempty"`
	ToNumber    int       `json:"toNumber,omitempty"`
	Category    string    `json:"category,omitempty"`
	Address     string    `json:"address,omitempty"`
	Location    geo.Point `json:"location"`
	Geometry    string    `json:"geometry,omitempty"`
}

// NewCoordinates builds a result for a point picked directly on the map.
func NewCoordinates(p geo.Point) Result {
	return Result{Kind: KindCoordinates, Location: p}
}

// Point resolves the result to a single coordinate. Line-shaped results
// (streets and blocks) resolve to the midpoint of their geometry, falling
// back to Location when no geometry is attached.
func (r Result) Point() geo.Point {
	switch r.Kind {
	case KindStreet, KindBlock:
		if p, ok := polyline.Midpoint(polyline.Decode(r.Geometry)); ok {
			return p
		}
	}
	return r.Location
}

// DisplayName is the label shown for the result.
func (r Result) DisplayName() string {
	switch r.Kind {
	case KindCorner:
		return r.Street + " & " + r.CrossStreet
	case KindBlock:
		return fmt.Sprintf("%s %d-%d", r.Street, r.FromNumber, r.ToNumber)
	case KindStreet:
		return r.Street
	case KindPlace:
		if r.Name != "" {
			return r.Name
		}
		return r.Address
	default:
		return fmt.Sprintf("%.6f, %.6f", r.Location.Lat, r.Location.Lon)
	}
}

// Shape returns the result's geometry as points: the decoded polyline for
// line-shaped results, a single point otherwise.
func (r Result) Shape() []geo.Point {
	if pts := polyline.Decode(r.Geometry); len(pts) > 0 {
		return pts
	}
	return []geo.Point{r.Location}
}

// Error provides detailed error information from a geocoding provider.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
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

// IsRetryable returns true if the error is transient.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}
