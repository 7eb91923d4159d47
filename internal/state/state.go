// Package state defines the planner's state tree, the closed set of actions
// that transform it and the pure reducers that apply them.
package state

import (
	"fmt"
	"math"

	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/itinerary"
	"github.com/breatheroute/planner/internal/leisure"
	"github.com/breatheroute/planner/internal/routing"
)

// View is the active screen.
type View string

const (
	ViewSearch    View = "search"
	ViewItinerary View = "itinerary"
	ViewSettings  View = "settings"
	ViewLeisure   View = "leisure"
)

// Views lists every view.
var Views = []View{ViewSearch, ViewItinerary, ViewSettings, ViewLeisure}

// ParseView returns the view named s.
func ParseView(s string) (View, error) {
	for _, v := range Views {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Theme is the display theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// SearchMode selects which geocoder call backs a search.
type SearchMode string

const (
	SearchPointsOfInterest SearchMode = "poi"
	SearchAddress          SearchMode = "address"
)

// Valid reports whether m is a known mode.
func (m SearchMode) Valid() bool {
	return m == SearchPointsOfInterest || m == SearchAddress
}

// Default map viewport: central Amsterdam.
var (
	DefaultCenter = geo.Point{Lat: 52.3676, Lon: 4.9041}
	DefaultZoom   = 13.0
)

// State is the whole application state. It is replaced wholesale on every
// dispatch and never mutated in place.
type State struct {
	Navigation Navigation `json:"navigation"`
	Itinerary  Itinerary  `json:"itinerary"`
	Search     Search     `json:"search"`
	Map        Map        `json:"map"`
	Settings   Settings   `json:"settings"`
	Leisure    Leisure    `json:"leisure"`
}

// Navigation holds the active view.
type Navigation struct {
	View View `json:"view"`
}

// Itinerary holds the ordered stops and the routes solved for them.
// SelectedRoute is meaningful only when it indexes Routes. NextID is the id
// the next inserted stop receives.
type Itinerary struct {
	Stops         []itinerary.Stop `json:"stops"`
	Routes        []routing.Route  `json:"routes"`
	SelectedRoute int              `json:"selectedRoute"`
	NextID        int              `json:"nextId"`
	Loading       bool             `json:"loading"`
	Error         string           `json:"error,omitempty"`
}

// Search holds geocoding results and the picked one.
type Search struct {
	Mode                 SearchMode         `json:"mode"`
	Query                string             `json:"query"`
	Results              []geocoding.Result `json:"results"`
	Loading              bool               `json:"loading"`
	SelectedSearchResult *geocoding.Result  `json:"selectedSearchResult"`
	Error                string             `json:"error,omitempty"`
}

// Map holds the viewport.
type Map struct {
	Center geo.Point `json:"center"`
	Zoom   float64   `json:"zoom"`
}

// Normalize wraps the center onto the globe and keeps the zoom at zero or
// above, so every viewport has a location segment the URL codec can read.
func (m Map) Normalize() Map {
	zoom := m.Zoom
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) {
		zoom = DefaultZoom
	}
	return Map{Center: m.Center.Wrap(), Zoom: math.Max(0, zoom)}
}

// Settings holds user preferences.
type Settings struct {
	Theme Theme `json:"theme"`
}

// Leisure holds the curated route catalog.
type Leisure struct {
	Routes        []leisure.Route `json:"routes"`
	Loading       bool            `json:"loading"`
	SelectedRoute string          `json:"selectedRoute,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// Default returns the initial state.
func Default() State {
	return State{
		Navigation: Navigation{View: ViewSearch},
		Itinerary: Itinerary{
			Stops:  itinerary.DefaultStops(),
			Routes: []routing.Route{},
			NextID: itinerary.FirstFreeID,
		},
		Search: Search{
			Mode:    SearchPointsOfInterest,
			Results: []geocoding.Result{},
		},
		Map: Map{
			Center: DefaultCenter,
			Zoom:   DefaultZoom,
		},
		Settings: Settings{Theme: ThemeLight},
		Leisure: Leisure{
			Routes: []leisure.Route{},
		},
	}
}

// Selected returns the selected route, if the selection is in range.
func (it Itinerary) Selected() (routing.Route, bool) {
	if it.SelectedRoute < 0 || it.SelectedRoute >= len(it.Routes) {
		return routing.Route{}, false
	}
	return it.Routes[it.SelectedRoute], true
}
