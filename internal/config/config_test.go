package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/breatheroute/planner/internal/config"
	"github.com/breatheroute/planner/internal/routing"
)

const sampleTOML = `
port = "9090"
log_level = "debug"
start_url = "/leisure/@4.9,52.37,12z"

[telemetry]
enabled = true
otlp_endpoint = "collector:4317"
sample_ratio = 0.5

[routing]
profile = "foot-walking"
cache_ttl = "10m"

[geocoding]
provider = "nominatim"
viewbox = "4.7,52.4,5.1,52.3"

[[leisure.routes]]
id = "lsr_amstel"
name = "Amstel loop"
distance_meters = 21000.0
duration_seconds = 4200.0
geometry = "_p~iF~ps|U_ulLnnqC"
start = { lat = 52.35, lon = 4.91 }
`

// isolate runs the test in an empty directory so no .env is picked up and
// clears every variable Load reads.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range []string{
		"PLANNER_CONFIG", "APP_PORT", "APP_ENV", "LOG_LEVEL", "PLANNER_START_URL",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "ORS_API_KEY", "ORS_BASE_URL",
		"GEOCODER", "NOMINATIM_URL", "GOOGLE_MAPS_API_KEY", "LEISURE_STORE",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	} {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
}

func TestLoad_TOMLFile(t *testing.T) {
	isolate(t)
	t.Setenv("PLANNER_CONFIG", writeFile(t, "planner.toml", sampleTOML))

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
	assert.Equal(t, "/leisure/@4.9,52.37,12z", cfg.StartURL)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "collector:4317", cfg.Telemetry.OTLPEndpoint)
	assert.Equal(t, 0.5, cfg.Telemetry.SampleRatio)
	assert.Equal(t, routing.ProfileWalk, cfg.Routing.Profile)
	assert.Equal(t, 10*time.Minute, cfg.Routing.CacheTTL)
	assert.Equal(t, "4.7,52.4,5.1,52.3", cfg.Geocoding.ViewBox)

	require.Len(t, cfg.Leisure.Routes, 1)
	route := cfg.Leisure.Routes[0]
	assert.Equal(t, "lsr_amstel", route.ID)
	assert.Equal(t, 21000.0, route.DistanceMeters)
	assert.Equal(t, 52.35, route.Start.Lat)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	t.Setenv("PLANNER_CONFIG", writeFile(t, "planner.toml", sampleTOML))
	t.Setenv("APP_PORT", "7070")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("ORS_API_KEY", "ors-key")
	t.Setenv("NOMINATIM_URL", "http://nominatim.local")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Port)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "ors-key", cfg.Routing.APIKey)
	assert.Equal(t, "http://nominatim.local", cfg.Geocoding.NominatimURL)
}

func TestLoad_DotEnv(t *testing.T) {
	isolate(t)
	// godotenv never overrides a variable that is already present.
	require.NoError(t, os.Unsetenv("APP_ENV"))
	require.NoError(t, os.WriteFile(".env", []byte("APP_ENV=staging\n"), 0o600))

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "staging", cfg.Env)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		toml string
	}{
		{name: "unknown geocoder", env: map[string]string{"GEOCODER": "bing"}},
		{name: "google without key", env: map[string]string{"GEOCODER": "googlemaps"}},
		{name: "unknown leisure store", env: map[string]string{"LEISURE_STORE": "redis"}},
		{name: "bad otel flag", env: map[string]string{"OTEL_ENABLED": "maybe"}},
		{name: "bad port", env: map[string]string{"APP_PORT": "http"}},
		{name: "bad log level", env: map[string]string{"LOG_LEVEL": "loud"}},
		{name: "malformed file", toml: "port = "},
		{name: "unknown key", toml: "colour = \"blue\""},
		{name: "unsupported profile", toml: "[routing]\nprofile = \"driving-car\""},
		{name: "seeded postgres", toml: "[leisure]\nstore = \"postgres\"\n[[leisure.routes]]\nid = \"x\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.toml != "" {
				t.Setenv("PLANNER_CONFIG", writeFile(t, "planner.toml", tt.toml))
			}

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	isolate(t)
	t.Setenv("PLANNER_CONFIG", filepath.Join(t.TempDir(), "absent.toml"))

	_, err := config.Load()
	assert.Error(t, err)
}

func TestValidate_GoogleMapsWithKey(t *testing.T) {
	cfg := config.Default()
	cfg.Geocoding.Provider = config.GeocoderGoogleMaps
	cfg.Geocoding.GoogleMapsAPIKey = "key"
	assert.NoError(t, cfg.Validate())
}

func TestValidate_PostgresStore(t *testing.T) {
	cfg := config.Default()
	cfg.Leisure.Store = config.LeisureStorePostgres
	assert.NoError(t, cfg.Validate())

	cfg.Database.Host = ""
	assert.Error(t, cfg.Validate())
}
