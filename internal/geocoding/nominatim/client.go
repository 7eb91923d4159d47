// Package nominatim provides a geocoder backed by the OpenStreetMap Nominatim API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/provider/resilience"
	"github.com/breatheroute/planner/pkg/polyline"
)

const (
	// ProviderName identifies this geocoding provider.
	ProviderName = "nominatim"

	// DefaultBaseURL is the public Nominatim instance.
	DefaultBaseURL = "https://nominatim.openstreetmap.org"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 10 * time.Second

	// DefaultLimit caps the number of results per search.
	DefaultLimit = 8

	userAgent = "breatheroute-planner/1.0"
)

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the Nominatim client.
type ClientConfig struct {
	// BaseURL is the API base URL (optional, defaults to the public instance).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the request timeout (optional, defaults to 10s).
	Timeout time.Duration

	// Limit caps results per search (optional, defaults to 8).
	Limit int

	// ViewBox biases searches to "lon1,lat1,lon2,lat2" (optional).
	ViewBox string

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a Nominatim API client. It implements geocoding.Geocoder.
type Client struct {
	baseURL    string
	httpClient HTTPDoer
	limit      int
	viewBox    string
	logger     zerolog.Logger
}

var _ geocoding.Geocoder = (*Client)(nil)

// NewClient creates a new Nominatim client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		clientCfg.Timeout = timeout
		clientCfg.CircuitBreaker.OnStateChange = resilience.LogStateChanges(cfg.Logger)
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		limit:      limit,
		viewBox:    cfg.ViewBox,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// SearchPointsOfInterest searches named places. Roads are filtered out.
func (c *Client) SearchPointsOfInterest(ctx context.Context, query string) ([]geocoding.Result, error) {
	places, err := c.search(ctx, query, false)
	if err != nil {
		return nil, err
	}

	results := make([]geocoding.Result, 0, len(places))
	for i := range places {
		if places[i].Category == categoryHighway {
			continue
		}
		r, err := toPlace(&places[i])
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// SearchAddress searches streets and house numbers, attaching road geometry.
func (c *Client) SearchAddress(ctx context.Context, query string) ([]geocoding.Result, error) {
	places, err := c.search(ctx, query, true)
	if err != nil {
		return nil, err
	}

	results := make([]geocoding.Result, 0, len(places))
	for i := range places {
		r, err := toAddress(&places[i])
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// Reverse looks up what lies at point.
func (c *Client) Reverse(ctx context.Context, point geo.Point) ([]geocoding.Result, error) {
	if err := point.Validate(); err != nil {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "INVALID_POINT",
			Message:  "invalid reverse geocoding point",
			Err:      err,
		}
	}

	params := url.Values{
		"lat":            {strconv.FormatFloat(point.Lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(point.Lon, 'f', -1, 64)},
		"format":         {"jsonv2"},
		"addressdetails": {"1"},
	}

	body, err := c.get(ctx, "/reverse", params)
	if err != nil {
		return nil, err
	}

	var p place
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decoding reverse response: %w", err)
	}
	if p.Error != "" {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "NO_RESULTS",
			Message:  p.Error,
			Err:      geocoding.ErrNoResults,
		}
	}

	r, err := toAddress(&p)
	if err != nil {
		return nil, err
	}
	// Keep the picked point rather than the snapped OSM object.
	if r.Kind == geocoding.KindPlace {
		r.Location = point
	}
	return []geocoding.Result{r}, nil
}

func (c *Client) search(ctx context.Context, query string, withGeometry bool) ([]place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "EMPTY_QUERY",
			Message:  "search query is empty",
			Err:      geocoding.ErrEmptyQuery,
		}
	}

	params := url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"limit":          {strconv.Itoa(c.limit)},
		"addressdetails": {"1"},
	}
	if withGeometry {
		params.Set("polygon_geojson", "1")
	}
	if c.viewBox != "" {
		params.Set("viewbox", c.viewBox)
	}

	body, err := c.get(ctx, "/search", params)
	if err != nil {
		return nil, err
	}

	var places []place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	c.logger.Debug().
		Str("query", query).
		Int("result_count", len(places)).
		Msg("received search results from nominatim")

	return places, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach geocoding provider",
			Err:      geocoding.ErrProviderUnavailable,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "geocoding rate limit exceeded, please try again later",
			Err:      geocoding.ErrRateLimitExceeded,
		}
	default:
		var apiErr errorResponse
		msg := fmt.Sprintf("geocoding provider returned status %d", resp.StatusCode)
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return nil, &geocoding.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", resp.StatusCode),
			Message:  msg,
			Err:      geocoding.ErrProviderUnavailable,
		}
	}
}

func toPlace(p *place) (geocoding.Result, error) {
	loc, err := p.point()
	if err != nil {
		return geocoding.Result{}, err
	}
	name := p.Name
	if name == "" {
		name = p.DisplayName
	}
	return geocoding.Result{
		Kind:     geocoding.KindPlace,
		Name:     name,
		Category: p.Type,
		Address:  p.DisplayName,
		Location: loc,
	}, nil
}

// toAddress maps roads to streets and house numbers to their hundred block.
func toAddress(p *place) (geocoding.Result, error) {
	loc, err := p.point()
	if err != nil {
		return geocoding.Result{}, err
	}

	street := p.Address.Road
	if street == "" {
		street = p.Name
	}

	switch {
	case p.Category == categoryHighway:
		return geocoding.Result{
			Kind:     geocoding.KindStreet,
			Street:   street,
			Location: loc,
			Geometry: p.encodedLine(),
		}, nil
	case p.Address.HouseNumber != "" && street != "":
		n, err := strconv.Atoi(p.Address.HouseNumber)
		if err != nil {
			break
		}
		from := n / 100 * 100
		return geocoding.Result{
			Kind:       geocoding.KindBlock,
			Street:     street,
			FromNumber: from,
			ToNumber:   from + 99,
			Address:    p.DisplayName,
			Location:   loc,
		}, nil
	}
	return toPlace(p)
}

func (p *place) point() (geo.Point, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("parsing latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("parsing longitude %q: %w", p.Lon, err)
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}

// encodedLine returns the road geometry as a polyline, or "" when the
// geometry is missing or not line-shaped. Multi-lines keep their first part.
func (p *place) encodedLine() string {
	if p.GeoJSON == nil {
		return ""
	}

	var coords [][]float64
	switch p.GeoJSON.Type {
	case "LineString":
		if err := json.Unmarshal(p.GeoJSON.Coordinates, &coords); err != nil {
			return ""
		}
	case "MultiLineString":
		var parts [][][]float64
		if err := json.Unmarshal(p.GeoJSON.Coordinates, &parts); err != nil || len(parts) == 0 {
			return ""
		}
		coords = parts[0]
	default:
		return ""
	}

	points := make([]geo.Point, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			continue
		}
		// GeoJSON is [lon, lat]
		points = append(points, geo.Point{Lat: c[1], Lon: c[0]})
	}
	return polyline.Encode(points)
}
