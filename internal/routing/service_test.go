package routing

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/breatheroute/planner/internal/geo"
)

// mockProvider is a mock routing provider for testing.
type mockProvider struct {
	name      string
	profiles  []RouteProfile
	response  *DirectionsResponse
	err       error
	callCount atomic.Int32
	delay     time.Duration
	lastReq   DirectionsRequest
}

func (m *mockProvider) GetDirections(_ context.Context, req DirectionsRequest) (*DirectionsResponse, error) {
	m.callCount.Add(1)
	m.lastReq = req
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) SupportedProfiles() []RouteProfile {
	return m.profiles
}

var (
	amsterdam = geo.Point{Lat: 52.3676, Lon: 4.9041}
	haarlem   = geo.Point{Lat: 52.3874, Lon: 4.6462}
	utrecht   = geo.Point{Lat: 52.0907, Lon: 5.1214}
)

func newMockProvider() *mockProvider {
	return &mockProvider{
		name:     "test-provider",
		profiles: []RouteProfile{ProfileBike, ProfileWalk},
		response: &DirectionsResponse{
			Routes: []Route{
				{Geometry: "_p~iF~ps|U_ulLnnqC", DistanceMeters: 12345, DurationSeconds: 2456},
			},
			Provider:  "test-provider",
			FetchedAt: time.Now(),
		},
	}
}

func TestService_Search_UsesConfiguredProfile(t *testing.T) {
	provider := newMockProvider()
	service := NewService(ServiceConfig{
		Provider: provider,
		Profile:  ProfileWalk,
		Logger:   zerolog.Nop(),
	})

	routes, err := service.Search(context.Background(), []geo.Point{amsterdam, haarlem, utrecht})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(routes) != 1 || routes[0].DistanceMeters != 12345 {
		t.Fatalf("unexpected routes: %+v", routes)
	}
	if provider.lastReq.Profile != ProfileWalk {
		t.Errorf("expected profile %s, got %s", ProfileWalk, provider.lastReq.Profile)
	}
	if len(provider.lastReq.Waypoints) != 3 {
		t.Errorf("expected 3 waypoints, got %d", len(provider.lastReq.Waypoints))
	}
	if provider.lastReq.MaxAlternatives != 2 {
		t.Errorf("expected default of 2 alternatives, got %d", provider.lastReq.MaxAlternatives)
	}
}

func TestService_Search_EmptyResponseIsNoRoute(t *testing.T) {
	provider := newMockProvider()
	provider.response = &DirectionsResponse{Provider: "test-provider"}
	service := NewService(ServiceConfig{Provider: provider})

	_, err := service.Search(context.Background(), []geo.Point{amsterdam, utrecht})
	if !errors.Is(err, ErrNoRouteFound) {
		t.Fatalf("expected ErrNoRouteFound, got %v", err)
	}
}

func TestService_GetDirections_CacheHit(t *testing.T) {
	provider := newMockProvider()
	service := NewService(ServiceConfig{Provider: provider, CacheTTL: 5 * time.Minute})

	req := DirectionsRequest{Waypoints: []geo.Point{amsterdam, utrecht}, Profile: ProfileBike}

	if _, err := service.GetDirections(context.Background(), req); err != nil {
		t.Fatalf("unexpected error on first call: %v", err)
	}
	if _, err := service.GetDirections(context.Background(), req); err != nil {
		t.Fatalf("unexpected error on second call: %v", err)
	}

	if provider.callCount.Load() != 1 {
		t.Errorf("expected 1 provider call (cache hit), got %d", provider.callCount.Load())
	}
}

func TestService_GetDirections_WaypointOrderMatters(t *testing.T) {
	provider := newMockProvider()
	service := NewService(ServiceConfig{Provider: provider})

	_, _ = service.GetDirections(context.Background(), DirectionsRequest{
		Waypoints: []geo.Point{amsterdam, haarlem, utrecht},
		Profile:   ProfileBike,
	})
	_, _ = service.GetDirections(context.Background(), DirectionsRequest{
		Waypoints: []geo.Point{amsterdam, utrecht, haarlem},
		Profile:   ProfileBike,
	})

	if provider.callCount.Load() != 2 {
		t.Errorf("expected 2 provider calls for reordered waypoints, got %d", provider.callCount.Load())
	}
}

func TestService_GetDirections_DifferentProfilesNotCached(t *testing.T) {
	provider := newMockProvider()
	service := NewService(ServiceConfig{Provider: provider})

	_, _ = service.GetDirections(context.Background(), DirectionsRequest{
		Waypoints: []geo.Point{amsterdam, utrecht},
		Profile:   ProfileBike,
	})
	_, _ = service.GetDirections(context.Background(), DirectionsRequest{
		Waypoints: []geo.Point{amsterdam, utrecht},
		Profile:   ProfileWalk,
	})

	if provider.callCount.Load() != 2 {
		t.Errorf("expected 2 provider calls (different profiles), got %d", provider.callCount.Load())
	}
}

func TestService_GetDirections_StaleIfError(t *testing.T) {
	provider := newMockProvider()
	service := NewService(ServiceConfig{
		Provider:        provider,
		CacheTTL:        50 * time.Millisecond,
		StaleIfErrorTTL: 500 * time.Millisecond,
	})

	req := DirectionsRequest{Waypoints: []geo.Point{amsterdam, utrecht}, Profile: ProfileBike}

	if _, err := service.GetDirections(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	time.Sleep(100 * time.Millisecond)
	provider.err = errors.New("provider error")

	resp, err := service.GetDirections(context.Background(), req)
	if err != nil {
		t.Fatalf("expected stale data to be served, got error: %v", err)
	}
	if resp.Routes[0].DistanceMeters != 12345 {
		t.Errorf("expected stale distance 12345, got %d", resp.Routes[0].DistanceMeters)
	}
}

func TestService_GetDirections_InvalidWaypoints(t *testing.T) {
	service := NewService(ServiceConfig{Provider: &mockProvider{name: "test-provider"}})

	tests := []struct {
		name      string
		waypoints []geo.Point
		want      error
	}{
		{name: "no waypoints", waypoints: nil, want: ErrTooFewWaypoints},
		{name: "single waypoint", waypoints: []geo.Point{amsterdam}, want: ErrTooFewWaypoints},
		{name: "latitude out of range", waypoints: []geo.Point{{Lat: 91}, amsterdam}, want: ErrInvalidCoordinates},
		{name: "longitude out of range", waypoints: []geo.Point{amsterdam, {Lon: 181}}, want: ErrInvalidCoordinates},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.GetDirections(context.Background(), DirectionsRequest{Waypoints: tt.waypoints, Profile: ProfileBike})

			var routingErr *Error
			if !errors.As(err, &routingErr) {
				t.Fatalf("expected *Error, got %T", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestService_GetDirections_ConcurrentRequests(t *testing.T) {
	provider := newMockProvider()
	provider.delay = 50 * time.Millisecond
	service := NewService(ServiceConfig{Provider: provider})

	req := DirectionsRequest{Waypoints: []geo.Point{amsterdam, utrecht}, Profile: ProfileBike}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := service.GetDirections(context.Background(), req); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls := provider.callCount.Load(); calls > 3 {
		t.Errorf("expected <= 3 provider calls with double-check locking, got %d", calls)
	}
}

func TestService_CacheStats(t *testing.T) {
	provider := newMockProvider()
	service := NewService(ServiceConfig{Provider: provider})

	if stats := service.CacheStats(); stats.TotalEntries != 0 || stats.Provider != "test-provider" {
		t.Fatalf("unexpected initial stats: %+v", stats)
	}

	req := DirectionsRequest{Waypoints: []geo.Point{amsterdam, utrecht}, Profile: ProfileBike}
	_, _ = service.GetDirections(context.Background(), req)
	_, _ = service.GetDirections(context.Background(), req)

	stats := service.CacheStats()
	if stats.TotalEntries != 1 || stats.FreshEntries != 1 || stats.StaleEntries != 0 {
		t.Fatalf("expected 1 fresh entry, got %+v", stats)
	}
	if provider.callCount.Load() != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.callCount.Load())
	}

	service.mu.Lock()
	for _, c := range service.cache {
		c.expiresAt = time.Now().Add(-time.Second)
	}
	service.mu.Unlock()

	stats = service.CacheStats()
	if stats.FreshEntries != 0 || stats.StaleEntries != 1 {
		t.Fatalf("expected 1 stale entry, got %+v", stats)
	}
}

func TestService_CacheKeyFormat(t *testing.T) {
	service := &Service{cacheGridSize: 0.01}

	key := service.cacheKey(DirectionsRequest{
		Waypoints: []geo.Point{amsterdam, haarlem, utrecht},
		Profile:   ProfileBike,
	})

	if !strings.HasPrefix(key, "cycling-regular:") {
		t.Errorf("cache key should start with profile, got %q", key)
	}
	if strings.Count(key, "|") != 2 {
		t.Errorf("expected one segment per waypoint, got %q", key)
	}
}
