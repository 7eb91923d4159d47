// Package command builds the effects that drive the planner: remote lookups
// wrapped in start/success/failure actions, and itinerary edits that keep
// the solved routes in step with the stops.
package command

import (
	"context"
	"errors"

	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/itinerary"
	"github.com/breatheroute/planner/internal/leisure"
	"github.com/breatheroute/planner/internal/routing"
	"github.com/breatheroute/planner/internal/state"
	"github.com/breatheroute/planner/internal/store"
)

// ErrNoCollaborator is reported when an effect needs a collaborator the
// store was built without.
var ErrNoCollaborator = errors.New("collaborator not configured")

// MinRoutableStops is the number of filled stops needed to solve a route.
const MinRoutableStops = 2

// Action wraps a plain action as an effect.
func Action(a state.Action) store.Effect {
	return store.EffectFunc(func(_ context.Context, s *store.Store) error {
		s.Dispatch(a)
		return nil
	})
}

type fetchRoutes struct{}

// FetchRoutes solves routes through the filled stops, in order.
func FetchRoutes() store.Effect {
	return fetchRoutes{}
}

func (fetchRoutes) Name() string { return "fetch_routes" }

func (f fetchRoutes) Run(ctx context.Context, s *store.Store) error {
	points := itinerary.Points(s.State().Itinerary.Stops)

	return store.Request[[]routing.Route]{
		Label: f.Name(),
		Start: state.FetchRoutes{},
		Call: func(ctx context.Context, c store.Collaborators) ([]routing.Route, error) {
			if c.Routes == nil {
				return nil, ErrNoCollaborator
			}
			return c.Routes.Search(ctx, points)
		},
		Success: func(routes []routing.Route) state.Action {
			return state.FetchRoutesSuccess{Routes: routes}
		},
		Failure: func(err error) state.Action {
			return state.FetchRoutesFailure{Err: err}
		},
	}.Run(ctx, s)
}

// Search runs a forward geocoding search in the given mode.
func Search(mode state.SearchMode, query string) store.Effect {
	return store.Request[[]geocoding.Result]{
		Label: "search_" + string(mode),
		Start: state.StartSearch{Mode: mode, Query: query},
		Call: func(ctx context.Context, c store.Collaborators) ([]geocoding.Result, error) {
			if c.Geocoder == nil {
				return nil, ErrNoCollaborator
			}
			if mode == state.SearchAddress {
				return c.Geocoder.SearchAddress(ctx, query)
			}
			return c.Geocoder.SearchPointsOfInterest(ctx, query)
		},
		Success: func(results []geocoding.Result) state.Action {
			return state.SearchSuccess{Results: results}
		},
		Failure: func(err error) state.Action {
			return state.SearchFailure{Err: err}
		},
	}
}

// SearchPointsOfInterest searches named places.
func SearchPointsOfInterest(query string) store.Effect {
	return Search(state.SearchPointsOfInterest, query)
}

// SearchAddress searches streets, blocks and corners.
func SearchAddress(query string) store.Effect {
	return Search(state.SearchAddress, query)
}

// ReverseGeocode looks up what lies at point. On success the first result
// becomes the selected search result.
func ReverseGeocode(point geo.Point) store.Effect {
	return store.Request[[]geocoding.Result]{
		Label: "reverse_geocode",
		Start: state.ReverseGeocode{Point: point},
		Call: func(ctx context.Context, c store.Collaborators) ([]geocoding.Result, error) {
			if c.Geocoder == nil {
				return nil, ErrNoCollaborator
			}
			return c.Geocoder.Reverse(ctx, point)
		},
		Success: func(results []geocoding.Result) state.Action {
			return state.ReverseGeocodeSuccess{Results: results}
		},
		Failure: func(err error) state.Action {
			return state.ReverseGeocodeFailure{Err: err}
		},
	}
}

// FetchLeisureRoutes lists the curated route catalog.
func FetchLeisureRoutes() store.Effect {
	return store.Request[[]leisure.Route]{
		Label: "fetch_leisure_routes",
		Start: state.FetchLeisureRoutes{},
		Call: func(ctx context.Context, c store.Collaborators) ([]leisure.Route, error) {
			if c.Catalog == nil {
				return nil, ErrNoCollaborator
			}
			return c.Catalog.SearchRoutes(ctx)
		},
		Success: func(routes []leisure.Route) state.Action {
			return state.FetchLeisureRoutesSuccess{Routes: routes}
		},
		Failure: func(err error) state.Action {
			return state.FetchLeisureRoutesFailure{Err: err}
		},
	}
}
