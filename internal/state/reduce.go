package state

import (
	"errors"
	"fmt"

	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/itinerary"
	"github.com/breatheroute/planner/internal/leisure"
	"github.com/breatheroute/planner/internal/routing"
)

// ErrUnknownAction is returned for nil actions and unregistered types.
var ErrUnknownAction = errors.New("unknown action")

// Reduce applies a to s and returns the next state. s is not modified.
func Reduce(s State, a Action) (State, error) {
	if a == nil {
		return s, fmt.Errorf("%w: nil", ErrUnknownAction)
	}
	if !Known(a.Type()) {
		return s, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type())
	}

	if r, ok := a.(RestoreState); ok {
		return r.Snapshot, nil
	}

	return State{
		Navigation: reduceNavigation(s.Navigation, a),
		Itinerary:  reduceItinerary(s.Itinerary, a),
		Search:     reduceSearch(s.Search, a),
		Map:        reduceMap(s.Map, a),
		Settings:   reduceSettings(s.Settings, a),
		Leisure:    reduceLeisure(s.Leisure, a),
	}, nil
}

func reduceNavigation(s Navigation, a Action) Navigation {
	switch a := a.(type) {
	case Navigate:
		if _, err := ParseView(string(a.View)); err == nil {
			s.View = a.View
		}
	}
	return s
}

func reduceItinerary(s Itinerary, a Action) Itinerary {
	switch a := a.(type) {
	case AddItineraryPoint:
		s.Stops = itinerary.Insert(s.Stops, s.NextID, a.Item, a.BeforeID)
		s.NextID++
	case UpdateItineraryPoint:
		s.Stops = itinerary.Update(s.Stops, a.ID, a.Item)
	case RemoveItineraryPoint:
		s.Stops = itinerary.Remove(s.Stops, a.ID)
	case MoveItineraryPoint:
		s.Stops = itinerary.Move(s.Stops, a.SourceID, a.TargetID, a.Position)
	case ResetItinerary:
		return Itinerary{
			Stops:  itinerary.DefaultStops(),
			Routes: []routing.Route{},
			NextID: itinerary.FirstFreeID,
		}
	case SelectRoute:
		if a.Index >= 0 && a.Index < len(s.Routes) {
			s.SelectedRoute = a.Index
		}
	case FetchRoutes:
		s.Loading = true
		s.Error = ""
		s.Routes = []routing.Route{}
		s.SelectedRoute = 0
	case FetchRoutesSuccess:
		s.Loading = false
		s.Routes = nonNil(a.Routes)
		s.SelectedRoute = 0
	case FetchRoutesFailure:
		s.Loading = false
		s.Error = errorText(a.Err)
	}
	return s
}

func reduceSearch(s Search, a Action) Search {
	switch a := a.(type) {
	case StartSearch:
		s.Mode = a.Mode
		s.Query = a.Query
		s.Loading = true
		s.Error = ""
		s.Results = []geocoding.Result{}
	case SearchSuccess:
		s.Loading = false
		s.Results = nonNil(a.Results)
	case SearchFailure:
		s.Loading = false
		s.Error = errorText(a.Err)
	case SelectSearchResult:
		s.SelectedSearchResult = a.Result
	case ClearSearch:
		return Search{
			Mode:    s.Mode,
			Results: []geocoding.Result{},
		}
	case ReverseGeocode:
		s.Loading = true
		s.Error = ""
		s.Results = []geocoding.Result{}
	case ReverseGeocodeSuccess:
		s.Loading = false
		s.Results = nonNil(a.Results)
		if len(s.Results) > 0 {
			first := s.Results[0]
			s.SelectedSearchResult = &first
		}
	case ReverseGeocodeFailure:
		s.Loading = false
		s.Error = errorText(a.Err)
	}
	return s
}

func reduceMap(s Map, a Action) Map {
	switch a := a.(type) {
	case SetMapViewport:
		s.Center = a.Center
		s.Zoom = a.Zoom
	case SelectSearchResult:
		if a.Result != nil {
			s.Center = a.Result.Point()
		}
	}
	return s.Normalize()
}

func reduceSettings(s Settings, a Action) Settings {
	switch a := a.(type) {
	case SetTheme:
		if a.Theme == ThemeLight || a.Theme == ThemeDark {
			s.Theme = a.Theme
		}
	}
	return s
}

func reduceLeisure(s Leisure, a Action) Leisure {
	switch a := a.(type) {
	case FetchLeisureRoutes:
		s.Loading = true
		s.Error = ""
		s.Routes = []leisure.Route{}
		s.SelectedRoute = ""
	case FetchLeisureRoutesSuccess:
		s.Loading = false
		s.Routes = nonNil(a.Routes)
	case FetchLeisureRoutesFailure:
		s.Loading = false
		s.Error = errorText(a.Err)
	case SelectLeisureRoute:
		if a.ID == "" {
			s.SelectedRoute = ""
			break
		}
		for _, r := range s.Routes {
			if r.ID == a.ID {
				s.SelectedRoute = a.ID
				break
			}
		}
	}
	return s
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

func errorText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
