// Package googlemaps provides a geocoder backed by the Google Maps Places and
// Geocoding APIs.
package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"

	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/provider/resilience"
)

// ProviderName identifies this geocoding provider.
const ProviderName = "googlemaps"

// Address component and result types used for classification.
const (
	typeIntersection  = "intersection"
	typeRoute         = "route"
	typeStreetAddress = "street_address"
	typeStreetNumber  = "street_number"
)

// Config holds configuration for the Google Maps geocoder.
type Config struct {
	// APIKey is the Google Maps platform key.
	APIKey string

	// BaseURL overrides the API host (optional, used in tests).
	BaseURL string

	// Language is the result language (optional).
	Language string

	// Region biases results to a ccTLD region code (optional).
	Region string

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client adapts the Google Maps SDK to geocoding.Geocoder.
type Client struct {
	client   *maps.Client
	language string
	region   string
	registry *resilience.Registry
	logger   zerolog.Logger
}

var _ geocoding.Geocoder = (*Client)(nil)

// NewClient creates a new Google Maps geocoder.
func NewClient(cfg Config) (*Client, error) {
	opts := []maps.ClientOption{maps.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, maps.WithBaseURL(cfg.BaseURL))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}

	if cfg.Registry != nil {
		cfg.Registry.Register(ProviderName, nil)
	}

	return &Client{
		client:   client,
		language: cfg.Language,
		region:   cfg.Region,
		registry: cfg.Registry,
		logger:   cfg.Logger,
	}, nil
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SearchPointsOfInterest runs a Places text search.
func (c *Client) SearchPointsOfInterest(ctx context.Context, query string) ([]geocoding.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, emptyQueryError()
	}

	resp, err := c.client.TextSearch(ctx, &maps.TextSearchRequest{
		Query:    query,
		Language: c.language,
		Region:   c.region,
	})
	if err = c.record(err); err != nil {
		return nil, err
	}

	results := make([]geocoding.Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		category := ""
		if len(r.Types) > 0 {
			category = r.Types[0]
		}
		results = append(results, geocoding.Result{
			Kind:     geocoding.KindPlace,
			Name:     r.Name,
			Category: category,
			Address:  r.FormattedAddress,
			Location: toPoint(r.Geometry.Location),
		})
	}

	c.logger.Debug().
		Str("query", query).
		Int("result_count", len(results)).
		Msg("received place results from google maps")

	return results, nil
}

// SearchAddress geocodes a free-form address. Intersections become corners.
func (c *Client) SearchAddress(ctx context.Context, query string) ([]geocoding.Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, emptyQueryError()
	}

	resp, err := c.client.Geocode(ctx, &maps.GeocodingRequest{
		Address:  query,
		Language: c.language,
		Region:   c.region,
	})
	if err = c.record(err); err != nil {
		return nil, err
	}

	results := make([]geocoding.Result, 0, len(resp))
	for i := range resp {
		results = append(results, toResult(&resp[i]))
	}
	return results, nil
}

// Reverse geocodes point.
func (c *Client) Reverse(ctx context.Context, point geo.Point) ([]geocoding.Result, error) {
	if err := point.Validate(); err != nil {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "INVALID_POINT",
			Message:  "invalid reverse geocoding point",
			Err:      err,
		}
	}

	resp, err := c.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng:   &maps.LatLng{Lat: point.Lat, Lng: point.Lon},
		Language: c.language,
	})
	if err = c.record(err); err != nil {
		return nil, err
	}
	if len(resp) == 0 {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "NO_RESULTS",
			Message:  "nothing found at " + point.String(),
			Err:      geocoding.ErrNoResults,
		}
	}

	results := make([]geocoding.Result, 0, len(resp))
	for i := range resp {
		results = append(results, toResult(&resp[i]))
	}
	return results, nil
}

// record reports the call outcome to the registry and maps SDK errors.
func (c *Client) record(err error) error {
	if err == nil {
		if c.registry != nil {
			c.registry.RecordSuccess(ProviderName)
		}
		return nil
	}

	mapped := mapError(err)
	if c.registry != nil {
		c.registry.RecordFailure(ProviderName, mapped)
	}
	c.logger.Warn().Err(err).Msg("google maps request failed")
	return mapped
}

func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "OVER_QUERY_LIMIT"), strings.Contains(msg, "OVER_DAILY_LIMIT"):
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "geocoding rate limit exceeded, please try again later",
			Err:      geocoding.ErrRateLimitExceeded,
		}
	case strings.Contains(msg, "NOT_FOUND"):
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     "NO_RESULTS",
			Message:  msg,
			Err:      geocoding.ErrNoResults,
		}
	default:
		return &geocoding.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  msg,
			Err:      geocoding.ErrProviderUnavailable,
		}
	}
}

func emptyQueryError() error {
	return &geocoding.Error{
		Provider: ProviderName,
		Code:     "EMPTY_QUERY",
		Message:  "search query is empty",
		Err:      geocoding.ErrEmptyQuery,
	}
}

func toPoint(ll maps.LatLng) geo.Point {
	return geo.Point{Lat: ll.Lat, Lon: ll.Lng}
}

func toResult(r *maps.GeocodingResult) geocoding.Result {
	loc := toPoint(r.Geometry.Location)

	if hasType(r.Types, typeIntersection) {
		if street, cross, ok := splitIntersection(r); ok {
			return geocoding.Result{
				Kind:        geocoding.KindCorner,
				Street:      street,
				CrossStreet: cross,
				Location:    loc,
			}
		}
	}

	route := component(r, typeRoute)
	if hasType(r.Types, typeStreetAddress) && route != "" {
		if n, err := strconv.Atoi(component(r, typeStreetNumber)); err == nil {
			from := n / 100 * 100
			return geocoding.Result{
				Kind:       geocoding.KindBlock,
				Street:     route,
				FromNumber: from,
				ToNumber:   from + 99,
				Address:    r.FormattedAddress,
				Location:   loc,
			}
		}
	}

	if hasType(r.Types, typeRoute) && route != "" {
		return geocoding.Result{
			Kind:     geocoding.KindStreet,
			Street:   route,
			Location: loc,
		}
	}

	name := r.FormattedAddress
	if i := strings.Index(name, ","); i > 0 {
		name = name[:i]
	}
	return geocoding.Result{
		Kind:     geocoding.KindPlace,
		Name:     name,
		Address:  r.FormattedAddress,
		Location: loc,
	}
}

// splitIntersection reads "A & B" from the intersection component.
func splitIntersection(r *maps.GeocodingResult) (string, string, bool) {
	name := component(r, typeIntersection)
	if name == "" {
		name = r.FormattedAddress
		if i := strings.Index(name, ","); i > 0 {
			name = name[:i]
		}
	}
	street, cross, ok := strings.Cut(name, "&")
	if !ok {
		return "", "", false
	}
	street, cross = strings.TrimSpace(street), strings.TrimSpace(cross)
	return street, cross, street != "" && cross != ""
}

func component(r *maps.GeocodingResult, typ string) string {
	for _, c := range r.AddressComponents {
		if hasType(c.Types, typ) {
			return c.LongName
		}
	}
	return ""
}

func hasType(types []string, typ string) bool {
	for _, t := range types {
		if t == typ {
			return true
		}
	}
	return false
}
