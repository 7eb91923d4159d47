package leisure

import "context"

// Catalog is the read side consumed by the leisure commands.
type Catalog interface {
	// SearchRoutes lists every curated route, shortest first.
	SearchRoutes(ctx context.Context) ([]Route, error)
}

// Repository defines the interface for leisure route persistence.
type Repository interface {
	Catalog

	// Get retrieves a route by ID.
	Get(ctx context.Context, id string) (*Route, error)

	// Create stores a new route.
	Create(ctx context.Context, route *Route) error

	// Delete deletes a route by ID.
	Delete(ctx context.Context, id string) error
}
