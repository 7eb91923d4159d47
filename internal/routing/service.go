package routing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/breatheroute/planner/internal/geo"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the routing data provider.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// Profile is the routing profile used by Search (default: cycling).
	Profile RouteProfile

	// MaxAlternatives bounds the alternatives requested per search (default: 2).
	MaxAlternatives int

	// CacheTTL is how long to cache solved routes (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.0001 ~ 11m).
	// Waypoint lists that snap to the same cells share cached routes.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale routes on provider errors (default: 15 minutes).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often to clean up expired entries (default: 5 minutes).
	CleanupInterval time.Duration
}

// Service solves routes with caching. It implements Solver.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	profile         RouteProfile
	maxAlternatives int
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	cleanupInterval time.Duration

	mu          sync.RWMutex
	cache       map[string]*cachedDirections
	lastCleanup time.Time
}

var _ Solver = (*Service)(nil)

type cachedDirections struct {
	response  *DirectionsResponse
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	profile := cfg.Profile
	if profile == "" {
		profile = ProfileBike
	}

	maxAlternatives := cfg.MaxAlternatives
	if maxAlternatives <= 0 {
		maxAlternatives = 2
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.0001
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 15 * time.Minute
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 5 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		profile:         profile,
		maxAlternatives: maxAlternatives,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cleanupInterval: cleanupInterval,
		cache:           make(map[string]*cachedDirections),
	}
}

// Search solves routes through points, in order, with the configured profile.
func (s *Service) Search(ctx context.Context, points []geo.Point) ([]Route, error) {
	resp, err := s.GetDirections(ctx, DirectionsRequest{
		Waypoints:       points,
		Profile:         s.profile,
		MaxAlternatives: s.maxAlternatives,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		return nil, &Error{
			Provider: resp.Provider,
			Code:     "NO_ROUTE",
			Message:  "provider returned no routes",
			Err:      ErrNoRouteFound,
		}
	}
	return resp.Routes, nil
}

// GetDirections returns route directions through the request's waypoints.
// Uses cached data if available and not expired.
func (s *Service) GetDirections(ctx context.Context, req DirectionsRequest) (*DirectionsResponse, error) {
	if err := ValidateWaypoints(s.provider.Name(), req.Waypoints); err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(req)

	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit for directions")
		return cached.response, nil
	}
	s.mu.RUnlock()

	return s.fetchDirections(ctx, req, cacheKey)
}

// fetchDirections fetches directions from provider and updates cache.
func (s *Service) fetchDirections(ctx context.Context, req DirectionsRequest, cacheKey string) (*DirectionsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache (prevents thundering herd)
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		return cached.response, nil
	}

	s.logger.Debug().
		Int("waypoints", len(req.Waypoints)).
		Str("profile", string(req.Profile)).
		Str("provider", s.provider.Name()).
		Msg("fetching directions from provider")

	resp, err := s.provider.GetDirections(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).
			Int("waypoints", len(req.Waypoints)).
			Str("profile", string(req.Profile)).
			Msg("failed to fetch directions")

		if cached, ok := s.cache[cacheKey]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Str("cache_key", cacheKey).
					Msg("serving stale directions due to provider error")
				return cached.response, nil
			}
		}

		return nil, err
	}

	now := time.Now()
	s.cache[cacheKey] = &cachedDirections{
		response:  resp,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}

	s.cleanupIfNeeded()

	return resp, nil
}

// cacheKey snaps every waypoint to the cache grid.
// Format: {profile}:{lat},{lon}|{lat},{lon}|...
func (s *Service) cacheKey(req DirectionsRequest) string {
	var b strings.Builder
	b.WriteString(string(req.Profile))
	b.WriteByte(':')
	for i, p := range req.Waypoints {
		if i > 0 {
			b.WriteByte('|')
		}
		lat := math.Floor(p.Lat/s.cacheGridSize) * s.cacheGridSize
		lon := math.Floor(p.Lon/s.cacheGridSize) * s.cacheGridSize
		fmt.Fprintf(&b, "%.4f,%.4f", lat, lon)
	}
	return b.String()
}

// cleanupIfNeeded removes entries past the stale window. Caller holds s.mu.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.cache {
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired routing cache entries")
	}
}

// CacheStats counts the cached directions. Entries past the stale-if-error
// window that cleanup has not yet removed count toward TotalEntries only.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	stats := CacheStats{
		TotalEntries: len(s.cache),
		Provider:     s.provider.Name(),
	}
	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			stats.FreshEntries++
		} else if now.Before(c.fetchedAt.Add(s.staleIfErrorTTL)) {
			stats.StaleEntries++
		}
	}
	return stats
}

// CacheStats describes the directions cache.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Provider     string
}
