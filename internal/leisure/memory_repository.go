package leisure

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryRepository is an in-memory implementation of Repository, used
// when no database is configured and in tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	routes map[string]*Route
}

// NewInMemoryRepository creates an in-memory repository seeded with routes.
// Seed routes without an ID get one assigned.
func NewInMemoryRepository(seed ...Route) *InMemoryRepository {
	r := &InMemoryRepository{
		routes: make(map[string]*Route, len(seed)),
	}
	for i := range seed {
		route := seed[i]
		_ = r.Create(context.Background(), &route)
	}
	return r
}

// SearchRoutes lists every route, shortest first.
func (r *InMemoryRepository) SearchRoutes(_ context.Context) ([]Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routes := make([]Route, 0, len(r.routes))
	for _, route := range r.routes {
		routes = append(routes, *route)
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].DistanceMeters != routes[j].DistanceMeters {
			return routes[i].DistanceMeters < routes[j].DistanceMeters
		}
		return routes[i].ID < routes[j].ID
	})
	return routes, nil
}

// Get retrieves a route by ID.
func (r *InMemoryRepository) Get(_ context.Context, id string) (*Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, ok := r.routes[id]
	if !ok {
		return nil, ErrRouteNotFound
	}

	// Return a copy
	cpy := *route
	return &cpy, nil
}

// Create stores a new route, assigning ID and CreatedAt when unset.
func (r *InMemoryRepository) Create(_ context.Context, route *Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if route.ID == "" {
		route.ID = "lsr_" + uuid.New().String()[:22]
	}
	if route.CreatedAt.IsZero() {
		route.CreatedAt = time.Now()
	}

	cpy := *route
	r.routes[route.ID] = &cpy
	return nil
}

// Delete deletes a route by ID.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.routes[id]; !ok {
		return ErrRouteNotFound
	}
	delete(r.routes, id)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
