package leisure

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
//
// It expects a table:
//
//	CREATE TABLE leisure_routes (
//	    id               TEXT PRIMARY KEY,
//	    name             TEXT NOT NULL,
//	    description      TEXT NOT NULL DEFAULT '',
//	    distance_meters  DOUBLE PRECISION NOT NULL,
//	    duration_seconds DOUBLE PRECISION NOT NULL,
//	    geometry         TEXT NOT NULL,
//	    start_lat        DOUBLE PRECISION NOT NULL,
//	    start_lon        DOUBLE PRECISION NOT NULL,
//	    created_at       TIMESTAMPTZ NOT NULL
//	);
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL leisure route repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const selectRoute = `
	SELECT
		id, name, description,
		distance_meters, duration_seconds, geometry,
		start_lat, start_lon, created_at
	FROM leisure_routes
`

// SearchRoutes lists every route, shortest first.
func (r *PostgresRepository) SearchRoutes(ctx context.Context) ([]Route, error) {
	rows, err := r.pool.Query(ctx, selectRoute+` ORDER BY distance_meters, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []Route
	for rows.Next() {
		route, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, *route)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return routes, nil
}

// Get retrieves a route by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Route, error) {
	route, err := scanRoute(r.pool.QueryRow(ctx, selectRoute+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}
	return route, nil
}

// scanRoute scans a route from a row.
func scanRoute(row pgx.Row) (*Route, error) {
	var route Route
	err := row.Scan(
		&route.ID,
		&route.Name,
		&route.Description,
		&route.DistanceMeters,
		&route.DurationSeconds,
		&route.Geometry,
		&route.Start.Lat,
		&route.Start.Lon,
		&route.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// Create stores a new route, assigning ID and CreatedAt when unset.
func (r *PostgresRepository) Create(ctx context.Context, route *Route) error {
	if route.ID == "" {
		route.ID = "lsr_" + uuid.New().String()[:22]
	}
	if route.CreatedAt.IsZero() {
		route.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO leisure_routes (
			id, name, description,
			distance_meters, duration_seconds, geometry,
			start_lat, start_lon, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		route.ID,
		route.Name,
		route.Description,
		route.DistanceMeters,
		route.DurationSeconds,
		route.Geometry,
		route.Start.Lat,
		route.Start.Lon,
		route.CreatedAt,
	)
	return err
}

// Delete deletes a route by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM leisure_routes WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrRouteNotFound
	}

	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
