// Package config loads planner configuration from an optional .env file,
// an optional TOML file and the process environment, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/breatheroute/planner/internal/database"
	"github.com/breatheroute/planner/internal/leisure"
	"github.com/breatheroute/planner/internal/routing"
	"github.com/breatheroute/planner/internal/telemetry"
)

// Geocoder choices.
const (
	GeocoderNominatim  = "nominatim"
	GeocoderGoogleMaps = "googlemaps"
)

// Leisure catalog choices.
const (
	LeisureStoreMemory   = "memory"
	LeisureStorePostgres = "postgres"
)

// Config is the planner process configuration.
type Config struct {
	Port     string `toml:"port"`
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`

	// StartURL is the location the session opens on.
	StartURL string `toml:"start_url"`

	Telemetry telemetry.Config `toml:"telemetry"`
	Routing   Routing          `toml:"routing"`
	Geocoding Geocoding        `toml:"geocoding"`
	Leisure   Leisure          `toml:"leisure"`
	Database  database.Config  `toml:"database"`
}

// Routing configures the OpenRouteService solver.
type Routing struct {
	APIKey   string               `toml:"api_key"`
	BaseURL  string               `toml:"base_url"`
	Profile  routing.RouteProfile `toml:"profile"`
	CacheTTL time.Duration        `toml:"cache_ttl"`
}

// Geocoding selects and configures the geocoder.
type Geocoding struct {
	Provider         string `toml:"provider"`
	NominatimURL     string `toml:"nominatim_url"`
	ViewBox          string `toml:"viewbox"`
	Limit            int    `toml:"limit"`
	GoogleMapsAPIKey string `toml:"google_maps_api_key"`
}

// Leisure selects the curated route catalog. Routes seed the in-memory
// catalog.
type Leisure struct {
	Store  string          `toml:"store"`
	Routes []leisure.Route `toml:"routes"`
}

// Default returns the development configuration.
func Default() Config {
	return Config{
		Port:     "8080",
		Env:      "development",
		LogLevel: "info",
		Telemetry: telemetry.Config{
			OTLPEndpoint: "localhost:4317",
		},
		Routing: Routing{
			Profile:  routing.ProfileBike,
			CacheTTL: 5 * time.Minute,
		},
		Geocoding: Geocoding{
			Provider: GeocoderNominatim,
		},
		Leisure: Leisure{
			Store: LeisureStoreMemory,
		},
		Database: database.DefaultConfig(),
	}
}

// Load reads .env (if present), the TOML file named by PLANNER_CONFIG (if
// set) and environment overrides, then validates the result.
func Load() (Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("PLANNER_CONFIG"); path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("decoding config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config file %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "APP_PORT")
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.StartURL, "PLANNER_START_URL")

	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OTEL_ENABLED: %q", v)
		}
		cfg.Telemetry.Enabled = enabled
	}
	setString(&cfg.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")

	setString(&cfg.Routing.APIKey, "ORS_API_KEY")
	setString(&cfg.Routing.BaseURL, "ORS_BASE_URL")

	setString(&cfg.Geocoding.Provider, "GEOCODER")
	setString(&cfg.Geocoding.NominatimURL, "NOMINATIM_URL")
	setString(&cfg.Geocoding.GoogleMapsAPIKey, "GOOGLE_MAPS_API_KEY")

	setString(&cfg.Leisure.Store, "LEISURE_STORE")

	cfg.Database = database.ConfigFromEnv(cfg.Database)
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error

	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %q", c.Port))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.LogLevel))
	}

	switch c.Routing.Profile {
	case routing.ProfileBike, routing.ProfileWalk:
	default:
		errs = append(errs, fmt.Errorf("unsupported routing profile %q", c.Routing.Profile))
	}

	switch c.Geocoding.Provider {
	case GeocoderNominatim:
	case GeocoderGoogleMaps:
		if c.Geocoding.GoogleMapsAPIKey == "" {
			errs = append(errs, errors.New("GOOGLE_MAPS_API_KEY is required for the googlemaps geocoder"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown geocoder %q", c.Geocoding.Provider))
	}

	switch c.Leisure.Store {
	case LeisureStoreMemory:
	case LeisureStorePostgres:
		if err := c.Database.Validate(); err != nil {
			errs = append(errs, err)
		}
		if len(c.Leisure.Routes) > 0 {
			errs = append(errs, errors.New("leisure routes can only be seeded into the memory store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown leisure store %q", c.Leisure.Store))
	}

	return errors.Join(errs...)
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
