package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/planner/internal/api"
	"github.com/breatheroute/planner/internal/api/models"
	"github.com/breatheroute/planner/internal/geo"
	"github.com/breatheroute/planner/internal/geocoding"
	"github.com/breatheroute/planner/internal/provider/resilience"
	"github.com/breatheroute/planner/internal/session"
	"github.com/breatheroute/planner/internal/state"
	"github.com/breatheroute/planner/internal/store"
	"github.com/breatheroute/planner/internal/urlcodec"
)

type fixedGeocoder struct{}

var centraal = geocoding.Result{Kind: geocoding.KindPlace, Name: "Centraal", Location: geo.Point{Lat: 52.3791, Lon: 4.9003}}

func (fixedGeocoder) SearchPointsOfInterest(context.Context, string) ([]geocoding.Result, error) {
	return []geocoding.Result{centraal}, nil
}

func (fixedGeocoder) SearchAddress(context.Context, string) ([]geocoding.Result, error) {
	return []geocoding.Result{centraal}, nil
}

func (fixedGeocoder) Reverse(context.Context, geo.Point) ([]geocoding.Result, error) {
	return []geocoding.Result{centraal}, nil
}

func (fixedGeocoder) Name() string { return "fixed" }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zerolog.New(io.Discard)

	s := session.New(session.Config{
		Collaborators: store.Collaborators{Geocoder: fixedGeocoder{}},
		Logger:        logger,
	})
	t.Cleanup(s.Close)

	registry := resilience.NewRegistry()
	registry.Register("fixed", nil)

	return api.NewRouter(api.RouterConfig{
		Version:   "test",
		BuildTime: "2026-01-01T00:00:00Z",
		Logger:    logger,
		Session:   s,
		Registry:  registry,
	})
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRouter_HealthCheck(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/v1/ops/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health models.Health
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, models.HealthStatusOK, health.Status)
	assert.NotEmpty(t, health.Time)
}

func TestRouter_Providers(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/v1/ops/providers", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var status models.ProvidersStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	require.Len(t, status.Providers, 1)
	assert.Equal(t, "fixed", status.Providers[0].Provider)
}

func TestRouter_SessionFlow(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/v1/session", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodPost, "/v1/session/search", models.SearchRequest{Query: "station"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/v1/session/actions", map[string]any{
		"type":   state.TypeSelectSearchResult,
		"result": centraal,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var s models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	require.NotNil(t, s.State.Search.SelectedSearchResult)
	assert.Equal(t, "Centraal", s.State.Search.SelectedSearchResult.Name)
	assert.Equal(t, urlcodec.Serialize(s.State), s.URL)

	w = do(t, router, http.MethodPost, "/v1/session/back", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Nil(t, s.State.Search.SelectedSearchResult)

	w = do(t, router, http.MethodGet, "/v1/session", nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	require.NotNil(t, s.History)
	assert.Len(t, s.History.Entries, 2)
	assert.Equal(t, 0, s.History.Index)
}

func TestRouter_RejectsNonJSONBodies(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/session/actions", bytes.NewBufferString("type=NAVIGATE"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
}

func TestRouter_Resolve(t *testing.T) {
	router := newTestRouter(t)

	s := state.Default()
	s.Search.SelectedSearchResult = &centraal
	link := urlcodec.Serialize(s)

	w := do(t, router, http.MethodGet, "/v1/resolve"+link, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resolved models.Resolved
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
	assert.Equal(t, link, resolved.URL)

	w = do(t, router, http.MethodGet, "/v1/resolve/nowhere", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(t)

	w := do(t, router, http.MethodGet, "/v1/commutes", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
