package state

import (
	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/itinerary"
	"github.com/breatheroute/planner/internal/leisure"
	"github.com/breatheroute/planner/internal/routing"
)

// Type is the tag carried by every action.
type Type string

// Action types.
const (
	TypeNavigate       Type = "NAVIGATE"
	TypeSetMapViewport Type = "SET_MAP_VIEWPORT"
	TypeSetTheme       Type = "SET_THEME"

	TypeAddItineraryPoint    Type = "ADD_ITINERARY_POINT"
	TypeUpdateItineraryPoint Type = "UPDATE_ITINERARY_POINT"
	TypeRemoveItineraryPoint Type = "REMOVE_ITINERARY_POINT"
	TypeMoveItineraryPoint   Type = "MOVE_ITINERARY_POINT"
	TypeResetItinerary       Type = "RESET_ITINERARY"
	TypeSelectRoute          Type = "SELECT_ROUTE"
	TypeFetchRoutes          Type = "FETCH_ROUTES"
	TypeFetchRoutesSuccess   Type = "FETCH_ROUTES_SUCCESS"
	TypeFetchRoutesFailure   Type = "FETCH_ROUTES_FAILURE"

	TypeSearch                Type = "SEARCH"
	TypeSearchSuccess         Type = "SEARCH_SUCCESS"
	TypeSearchFailure         Type = "SEARCH_FAILURE"
	TypeSelectSearchResult    Type = "SELECT_SEARCH_RESULT"
	TypeClearSearch           Type = "CLEAR_SEARCH"
	TypeReverseGeocode        Type = "REVERSE_GEOCODE"
	TypeReverseGeocodeSuccess Type = "REVERSE_GEOCODE_SUCCESS"
	TypeReverseGeocodeFailure Type = "REVERSE_GEOCODE_FAILURE"

	TypeFetchLeisureRoutes        Type = "FETCH_LEISURE_ROUTES"
	TypeFetchLeisureRoutesSuccess Type = "FETCH_LEISURE_ROUTES_SUCCESS"
	TypeFetchLeisureRoutesFailure Type = "FETCH_LEISURE_ROUTES_FAILURE"
	TypeSelectLeisureRoute        Type = "SELECT_LEISURE_ROUTE"

	TypeRestoreState Type = "RESTORE_STATE"
)

// Action is a request for a state transition. The set of actions is closed:
// only types in this package implement it.
type Action interface {
	Type() Type
	action()
}

// Failure is implemented by the *_FAILURE actions.
type Failure interface {
	Action
	Cause() error
}

// Navigate switches the active view.
type Navigate struct {
	View View `json:"view"`
}

// SetMapViewport moves the map.
type SetMapViewport struct {
	Center geo.Point `json:"center"`
	Zoom   float64   `json:"zoom"`
}

// SetTheme changes the display theme.
type SetTheme struct {
	Theme Theme `json:"theme"`
}

// AddItineraryPoint inserts a stop holding Item (nil for an empty slot)
// before the stop with BeforeID, or at the end.
type AddItineraryPoint struct {
	Item     *geocoding.Result `json:"item"`
	BeforeID *int              `json:"beforeId,omitempty"`
}

// UpdateItineraryPoint sets the item of the stop with ID.
type UpdateItineraryPoint struct {
	ID   int               `json:"id"`
	Item *geocoding.Result `json:"item"`
}

// RemoveItineraryPoint removes the stop with ID.
type RemoveItineraryPoint struct {
	ID int `json:"id"`
}

// MoveItineraryPoint moves the stop SourceID next to the stop TargetID.
type MoveItineraryPoint struct {
	SourceID int                `json:"sourceId"`
	TargetID int                `json:"targetId"`
	Position itinerary.Position `json:"position"`
}

// ResetItinerary restores the empty origin/destination pair.
type ResetItinerary struct{}

// SelectRoute picks one of the solved routes.
type SelectRoute struct {
	Index int `json:"index"`
}

// FetchRoutes marks a route solve as started.
type FetchRoutes struct{}

// FetchRoutesSuccess carries the solved routes.
type FetchRoutesSuccess struct {
	Routes []routing.Route `json:"routes"`
}

// FetchRoutesFailure carries the solver error.
type FetchRoutesFailure struct {
	Err error `json:"-"`
}

// StartSearch marks a forward geocoding search as started.
type StartSearch struct {
	Mode  SearchMode `json:"mode"`
	Query string     `json:"query"`
}

// SearchSuccess carries the search results.
type SearchSuccess struct {
	Results []geocoding.Result `json:"results"`
}

// SearchFailure carries the geocoder error.
type SearchFailure struct {
	Err error `json:"-"`
}

// SelectSearchResult picks a result. A nil Result clears the selection.
type SelectSearchResult struct {
	Result *geocoding.Result `json:"result"`
}

// ClearSearch drops the query, the results and the selection.
type ClearSearch struct{}

// ReverseGeocode marks a reverse lookup of Point as started.
type ReverseGeocode struct {
	Point geo.Point `json:"point"`
}

// ReverseGeocodeSuccess carries what was found at the point.
type ReverseGeocodeSuccess struct {
	Results []geocoding.Result `json:"results"`
}

// ReverseGeocodeFailure carries the geocoder error.
type ReverseGeocodeFailure struct {
	Err error `json:"-"`
}

// FetchLeisureRoutes marks a catalog listing as started.
type FetchLeisureRoutes struct{}

// FetchLeisureRoutesSuccess carries the catalog.
type FetchLeisureRoutesSuccess struct {
	Routes []leisure.Route `json:"routes"`
}

// FetchLeisureRoutesFailure carries the catalog error.
type FetchLeisureRoutesFailure struct {
	Err error `json:"-"`
}

// SelectLeisureRoute picks a catalog route by id. An empty ID clears it.
type SelectLeisureRoute struct {
	ID string `json:"id"`
}

// RestoreState replaces the whole tree with Snapshot.
type RestoreState struct {
	Snapshot State `json:"snapshot"`
}

func (Navigate) Type() Type                  { return TypeNavigate }
func (SetMapViewport) Type() Type            { return TypeSetMapViewport }
func (SetTheme) Type() Type                  { return TypeSetTheme }
func (AddItineraryPoint) Type() Type         { return TypeAddItineraryPoint }
func (UpdateItineraryPoint) Type() Type      { return TypeUpdateItineraryPoint }
func (RemoveItineraryPoint) Type() Type      { return TypeRemoveItineraryPoint }
func (MoveItineraryPoint) Type() Type        { return TypeMoveItineraryPoint }
func (ResetItinerary) Type() Type            { return TypeResetItinerary }
func (SelectRoute) Type() Type               { return TypeSelectRoute }
func (FetchRoutes) Type() Type               { return TypeFetchRoutes }
func (FetchRoutesSuccess) Type() Type        { return TypeFetchRoutesSuccess }
func (FetchRoutesFailure) Type() Type        { return TypeFetchRoutesFailure }
func (StartSearch) Type() Type               { return TypeSearch }
func (SearchSuccess) Type() Type             { return TypeSearchSuccess }
func (SearchFailure) Type() Type             { return TypeSearchFailure }
func (SelectSearchResult) Type() Type        { return TypeSelectSearchResult }
func (ClearSearch) Type() Type               { return TypeClearSearch }
func (ReverseGeocode) Type() Type            { return TypeReverseGeocode }
func (ReverseGeocodeSuccess) Type() Type     { return TypeReverseGeocodeSuccess }
func (ReverseGeocodeFailure) Type() Type     { return TypeReverseGeocodeFailure }
func (FetchLeisureRoutes) Type() Type        { return TypeFetchLeisureRoutes }
func (FetchLeisureRoutesSuccess) Type() Type { return TypeFetchLeisureRoutesSuccess }
func (FetchLeisureRoutesFailure) Type() Type { return TypeFetchLeisureRoutesFailure }
func (SelectLeisureRoute) Type() Type        { return TypeSelectLeisureRoute }
func (RestoreState) Type() Type              { return TypeRestoreState }

func (Navigate) action()                  {}
func (SetMapViewport) action()            {}
func (SetTheme) action()                  {}
func (AddItineraryPoint) action()         {}
func (UpdateItineraryPoint) action()      {}
func (RemoveItineraryPoint) action()      {}
func (MoveItineraryPoint) action()        {}
func (ResetItinerary) action()            {}
func (SelectRoute) action()               {}
func (FetchRoutes) action()               {}
func (FetchRoutesSuccess) action()        {}
func (FetchRoutesFailure) action()        {}
func (StartSearch) action()               {}
func (SearchSuccess) action()             {}
func (SearchFailure) action()             {}
func (SelectSearchResult) action()        {}
func (ClearSearch) action()               {}
func (ReverseGeocode) action()            {}
func (ReverseGeocodeSuccess) action()     {}
func (ReverseGeocodeFailure) action()     {}
func (FetchLeisureRoutes) action()        {}
func (FetchLeisureRoutesSuccess) action() {}
func (FetchLeisureRoutesFailure) action() {}
func (SelectLeisureRoute) action()        {}
func (RestoreState) action()              {}

func (a FetchRoutesFailure) Cause() error        { return a.Err }
func (a SearchFailure) Cause() error             { return a.Err }
func (a ReverseGeocodeFailure) Cause() error     { return a.Err }
func (a FetchLeisureRoutesFailure) Cause() error { return a.Err }

// IsItineraryMutation reports whether a changes the stop sequence.
func IsItineraryMutation(a Action) bool {
	switch a.(type) {
	case AddItineraryPoint, UpdateItineraryPoint, RemoveItineraryPoint, MoveItineraryPoint:
		return true
	}
	return false
}

// IsUserIntent reports whether actions of type t express something a user
// asked for. Request lifecycle actions and RestoreState are produced by the
// planner itself and are not accepted from outside.
func IsUserIntent(t Type) bool {
	switch t {
	case TypeNavigate, TypeSetMapViewport, TypeSetTheme,
		TypeAddItineraryPoint, TypeUpdateItineraryPoint, TypeRemoveItineraryPoint, TypeMoveItineraryPoint,
		TypeResetItinerary, TypeSelectRoute,
		TypeSelectSearchResult, TypeClearSearch, TypeSelectLeisureRoute:
		return true
	}
	return false
}
