package command_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/planner/internal/command"
	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/itinerary"
	"github.com/breatheroute/planner/internal/leisure"
	"github.com/breatheroute/planner/internal/routing"
	"github.com/breatheroute/planner/internal/state"
	"github.com/breatheroute/planner/internal/store"
)

type fakeSolver struct {
	mu     sync.Mutex
	calls  [][]geo.Point
	routes []routing.Route
	err    error
}

func (f *fakeSolver) Search(_ context.Context, points []geo.Point) ([]routing.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, points)
	return f.routes, f.err
}

type fakeGeocoder struct {
	lastQuery string
	lastMode  string
	results   []geocoding.Result
	err       error
}

func (f *fakeGeocoder) SearchPointsOfInterest(_ context.Context, query string) ([]geocoding.Result, error) {
	f.lastQuery, f.lastMode = query, "poi"
	return f.results, f.err
}

func (f *fakeGeocoder) SearchAddress(_ context.Context, query string) ([]geocoding.Result, error) {
	f.lastQuery, f.lastMode = query, "address"
	return f.results, f.err
}

func (f *fakeGeocoder) Reverse(_ context.Context, p geo.Point) ([]geocoding.Result, error) {
	f.lastQuery, f.lastMode = p.String(), "reverse"
	return f.results, f.err
}

func (f *fakeGeocoder) Name() string { return "fake" }

type fakeCatalog struct {
	routes []leisure.Route
	err    error
}

func (f *fakeCatalog) SearchRoutes(context.Context) ([]leisure.Route, error) {
	return f.routes, f.err
}

var (
	pointA = &geocoding.Result{Kind: geocoding.KindPlace, Name: "A", Location: geo.Point{Lat: 52.36, Lon: 4.88}}
	pointB = &geocoding.Result{Kind: geocoding.KindPlace, Name: "B", Location: geo.Point{Lat: 52.37, Lon: 4.89}}
	pointC = &geocoding.Result{Kind: geocoding.KindPlace, Name: "C", Location: geo.Point{Lat: 52.38, Lon: 4.90}}
	route  = routing.Route{Geometry: "abc", DistanceMeters: 1200, DurationSeconds: 300}
)

type harness struct {
	store    *store.Store
	solver   *fakeSolver
	geocoder *fakeGeocoder
	catalog  *fakeCatalog
	types    []state.Type
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		solver:   &fakeSolver{routes: []routing.Route{route}},
		geocoder: &fakeGeocoder{},
		catalog:  &fakeCatalog{},
	}
	h.store = store.New(store.Config{
		Reducer: func(s state.State, a state.Action) (state.State, error) {
			h.types = append(h.types, a.Type())
			return state.Reduce(s, a)
		},
		Collaborators: store.Collaborators{
			Routes:   h.solver,
			Geocoder: h.geocoder,
			Catalog:  h.catalog,
		},
		Logger: zerolog.Nop(),
	})
	return h
}

func (h *harness) run(t *testing.T, eff store.Effect) error {
	t.Helper()
	h.types = nil
	return h.store.Execute(context.Background(), eff)
}

func intPtr(i int) *int { return &i }

func TestCascade_Scenario(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, command.AddItineraryPoint(pointA, nil)))
	assert.Equal(t, []state.Type{state.TypeAddItineraryPoint}, h.types)
	assert.Empty(t, h.solver.calls)
	assert.Equal(t, []itinerary.Stop{{ID: 0}, {ID: 1}, {ID: 2, Item: pointA}}, h.store.State().Itinerary.Stops)

	require.NoError(t, h.run(t, command.AddItineraryPoint(pointB, intPtr(1))))
	assert.Equal(t, []state.Type{
		state.TypeAddItineraryPoint,
		state.TypeFetchRoutes,
		state.TypeFetchRoutesSuccess,
	}, h.types)
	assert.Equal(t, []itinerary.Stop{
		{ID: 0},
		{ID: 3, Item: pointB},
		{ID: 1},
		{ID: 2, Item: pointA},
	}, h.store.State().Itinerary.Stops)

	require.Len(t, h.solver.calls, 1)
	assert.Equal(t, []geo.Point{pointB.Point(), pointA.Point()}, h.solver.calls[0])
	assert.Equal(t, []routing.Route{route}, h.store.State().Itinerary.Routes)
	assert.False(t, h.store.State().Itinerary.Loading)
}

func TestCascade_RouteFetchIsObserved(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	metrics, err := store.NewMetrics()
	require.NoError(t, err)

	s := store.New(store.Config{
		Collaborators: store.Collaborators{Routes: &fakeSolver{routes: []routing.Route{route}}},
		Metrics:       metrics,
		Logger:        zerolog.Nop(),
	})
	ctx := context.Background()
	require.NoError(t, s.Execute(ctx, command.UpdateItineraryPoint(0, pointA)))
	require.NoError(t, s.Execute(ctx, command.UpdateItineraryPoint(1, pointB)))

	var names []string
	for _, span := range sr.Ended() {
		names = append(names, span.Name())
	}
	assert.Equal(t, []string{
		"effect eventually_update_routes",
		"effect fetch_routes",
		"effect eventually_update_routes",
	}, names)
	assert.Equal(t, []routing.Route{route}, s.State().Itinerary.Routes)
}

func TestCascade_Threshold(t *testing.T) {
	tests := []struct {
		name      string
		setup     []state.Action
		effect    store.Effect
		wantFetch bool
	}{
		{
			name:      "update fills second stop",
			setup:     []state.Action{state.UpdateItineraryPoint{ID: 0, Item: pointA}},
			effect:    command.UpdateItineraryPoint(1, pointB),
			wantFetch: true,
		},
		{
			name:      "update fills first stop",
			effect:    command.UpdateItineraryPoint(0, pointA),
			wantFetch: false,
		},
		{
			name: "remove down to one filled",
			setup: []state.Action{
				state.UpdateItineraryPoint{ID: 0, Item: pointA},
				state.UpdateItineraryPoint{ID: 1, Item: pointB},
			},
			effect:    command.RemoveItineraryPoint(1),
			wantFetch: false,
		},
		{
			name: "remove keeps two filled",
			setup: []state.Action{
				state.UpdateItineraryPoint{ID: 0, Item: pointA},
				state.UpdateItineraryPoint{ID: 1, Item: pointB},
				state.AddItineraryPoint{Item: pointC},
			},
			effect:    command.RemoveItineraryPoint(2),
			wantFetch: true,
		},
		{
			name: "move with two filled",
			setup: []state.Action{
				state.UpdateItineraryPoint{ID: 0, Item: pointA},
				state.UpdateItineraryPoint{ID: 1, Item: pointB},
			},
			effect:    command.MoveItineraryPoint(1, 0, itinerary.Before),
			wantFetch: true,
		},
		{
			name:      "move with empty stops",
			effect:    command.MoveItineraryPoint(1, 0, itinerary.Before),
			wantFetch: false,
		},
		{
			name:      "clearing a stop",
			setup:     []state.Action{state.UpdateItineraryPoint{ID: 0, Item: pointA}, state.UpdateItineraryPoint{ID: 1, Item: pointB}},
			effect:    command.UpdateItineraryPoint(1, nil),
			wantFetch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			for _, a := range tt.setup {
				h.store.Dispatch(a)
			}

			require.NoError(t, h.run(t, tt.effect))

			if tt.wantFetch {
				assert.Len(t, h.types, 3)
				assert.Equal(t, state.TypeFetchRoutes, h.types[1])
				assert.Equal(t, state.TypeFetchRoutesSuccess, h.types[2])
				assert.Len(t, h.solver.calls, 1)
			} else {
				assert.Len(t, h.types, 1)
				assert.Empty(t, h.solver.calls)
			}
		})
	}
}

func TestCascade_MoveReordersSolvedPoints(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(state.UpdateItineraryPoint{ID: 0, Item: pointA})
	h.store.Dispatch(state.UpdateItineraryPoint{ID: 1, Item: pointB})

	require.NoError(t, h.run(t, command.MoveItineraryPoint(0, 1, itinerary.After)))
	require.Len(t, h.solver.calls, 1)
	assert.Equal(t, []geo.Point{pointB.Point(), pointA.Point()}, h.solver.calls[0])
}

func TestFetchRoutes_Failure(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(state.UpdateItineraryPoint{ID: 0, Item: pointA})
	h.store.Dispatch(state.FetchRoutesSuccess{Routes: []routing.Route{route}})
	h.solver.err = routing.ErrNoRouteFound

	err := h.run(t, command.UpdateItineraryPoint(1, pointB))
	assert.Same(t, routing.ErrNoRouteFound, err)
	assert.Equal(t, []state.Type{
		state.TypeUpdateItineraryPoint,
		state.TypeFetchRoutes,
		state.TypeFetchRoutesFailure,
	}, h.types)

	it := h.store.State().Itinerary
	assert.False(t, it.Loading)
	assert.Equal(t, routing.ErrNoRouteFound.Error(), it.Error)
}

func TestFetchRoutes_MissingSolver(t *testing.T) {
	s := store.New(store.Config{Logger: zerolog.Nop()})
	err := s.Execute(context.Background(), command.FetchRoutes())
	assert.True(t, errors.Is(err, command.ErrNoCollaborator))
	assert.Equal(t, command.ErrNoCollaborator.Error(), s.State().Itinerary.Error)
}

func TestSearch(t *testing.T) {
	h := newHarness(t)
	h.geocoder.results = []geocoding.Result{*pointA, *pointB}

	require.NoError(t, h.run(t, command.SearchAddress("damrak 1")))
	assert.Equal(t, "address", h.geocoder.lastMode)
	assert.Equal(t, "damrak 1", h.geocoder.lastQuery)
	assert.Equal(t, []state.Type{state.TypeSearch, state.TypeSearchSuccess}, h.types)

	s := h.store.State().Search
	assert.Equal(t, state.SearchAddress, s.Mode)
	assert.Equal(t, []geocoding.Result{*pointA, *pointB}, s.Results)

	require.NoError(t, h.run(t, command.SearchPointsOfInterest("museum")))
	assert.Equal(t, "poi", h.geocoder.lastMode)
}

func TestSearch_FailureKeepsResults(t *testing.T) {
	h := newHarness(t)
	h.geocoder.results = []geocoding.Result{*pointA}
	require.NoError(t, h.run(t, command.SearchPointsOfInterest("museum")))

	boom := &geocoding.Error{Provider: "fake", Code: "RATE_LIMIT", Message: "slow down", Err: geocoding.ErrRateLimitExceeded}
	h.geocoder.err = boom
	err := h.run(t, command.SearchPointsOfInterest("museum"))
	assert.Same(t, boom, err)
	assert.Equal(t, []state.Type{state.TypeSearch, state.TypeSearchFailure}, h.types)
	assert.False(t, h.store.State().Search.Loading)
}

func TestReverseGeocode(t *testing.T) {
	h := newHarness(t)
	h.geocoder.results = []geocoding.Result{*pointB}

	require.NoError(t, h.run(t, command.ReverseGeocode(geo.Point{Lat: 52.37, Lon: 4.89})))
	assert.Equal(t, "reverse", h.geocoder.lastMode)
	assert.Equal(t, []state.Type{state.TypeReverseGeocode, state.TypeReverseGeocodeSuccess}, h.types)
	require.NotNil(t, h.store.State().Search.SelectedSearchResult)
	assert.Equal(t, "B", h.store.State().Search.SelectedSearchResult.Name)
}

func TestFetchLeisureRoutes(t *testing.T) {
	h := newHarness(t)
	h.catalog.routes = []leisure.Route{{ID: "a", Name: "Vondelpark"}}

	require.NoError(t, h.run(t, command.FetchLeisureRoutes()))
	assert.Equal(t, []state.Type{state.TypeFetchLeisureRoutes, state.TypeFetchLeisureRoutesSuccess}, h.types)
	assert.Equal(t, h.catalog.routes, h.store.State().Leisure.Routes)

	h.catalog.err = errors.New("db down")
	assert.Error(t, h.run(t, command.FetchLeisureRoutes()))
	assert.Equal(t, []state.Type{state.TypeFetchLeisureRoutes, state.TypeFetchLeisureRoutesFailure}, h.types)
}

func TestForAction(t *testing.T) {
	h := newHarness(t)
	h.store.Dispatch(state.UpdateItineraryPoint{ID: 0, Item: pointA})

	require.NoError(t, h.run(t, command.ForAction(state.Navigate{View: state.ViewItinerary})))
	assert.Equal(t, []state.Type{state.TypeNavigate}, h.types)

	require.NoError(t, h.run(t, command.ForAction(state.UpdateItineraryPoint{ID: 1, Item: pointB})))
	assert.Equal(t, []state.Type{
		state.TypeUpdateItineraryPoint,
		state.TypeFetchRoutes,
		state.TypeFetchRoutesSuccess,
	}, h.types)
}
