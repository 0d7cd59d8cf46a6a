// Package config holds the API server settings. Load layers environment
// variables over an optional YAML file (read with koanf) over Default.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Config is the complete server configuration. The koanf tags are the keys
// of the YAML file.
type Config struct {
	Port     int    `koanf:"port"`
	Env      string `koanf:"env"`
	LogLevel string `koanf:"log_level"`

	CalibrationPath string `koanf:"calibration_path"`

	// Both fixture paths are set, or neither and the embedded catalog is used.
	PersonsFixturePath string `koanf:"persons_fixture_path"`
	PlacesFixturePath  string `koanf:"places_fixture_path"`

	SearchMaxResults int `koanf:"search_max_results"`
	SearchRateLimit  int `koanf:"search_rate_limit"` // per client per minute, GET /search
	GlobalRateLimit  int `koanf:"global_rate_limit"` // per client per minute, every route

	// RedisURL moves rate limit counters to Redis. Empty keeps them in memory.
	RedisURL string `koanf:"redis_url"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	TracingEnabled   bool    `koanf:"tracing_enabled"`
	OTelExporter     string  `koanf:"otel_exporter"`
	OTelEndpoint     string  `koanf:"otel_endpoint"`
	OTelSamplingRate float64 `koanf:"otel_sampling_rate"`
	OTelInsecure     bool    `koanf:"otel_insecure"`

	ProfilingEnabled bool `koanf:"profiling_enabled"`
}

const (
	DefaultPort             = 8080
	DefaultEnv              = "development"
	DefaultSearchMaxResults = 50
	DefaultSearchRateLimit  = 30
	DefaultGlobalRateLimit  = 100
	DefaultOTelExporter     = "otlp-http"
	DefaultOTelSamplingRate = 1.0
)

// Default returns the configuration of an unconfigured development server.
func Default() Config {
	return Config{
		Port:             DefaultPort,
		Env:              DefaultEnv,
		SearchMaxResults: DefaultSearchMaxResults,
		SearchRateLimit:  DefaultSearchRateLimit,
		GlobalRateLimit:  DefaultGlobalRateLimit,
		OTelExporter:     DefaultOTelExporter,
		OTelSamplingRate: DefaultOTelSamplingRate,
	}
}

var (
	ErrInvalidValue           = errors.New("invalid value")
	ErrInvalidPort            = errors.New("port must be between 1 and 65535")
	ErrInvalidMaxResults      = errors.New("search_max_results must not be negative")
	ErrInvalidRateLimit       = errors.New("rate limits must be greater than zero")
	ErrIncompleteFixturePaths = errors.New("persons and places fixture paths must be set together")
	ErrInvalidRedisURL        = errors.New("redis_url is not a redis URL")
	ErrInvalidSamplingRate    = errors.New("otel_sampling_rate must be between 0 and 1")
	ErrInvalidExporter        = errors.New("otel_exporter must be otlp-http or otlp-grpc")
	ErrProfilingInProduction  = errors.New("profiling cannot be enabled in production")
)

// IsProduction reports whether Env is "production" or "prod".
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// Validate returns every out of range or inconsistent setting. Tracing
// settings are only checked when tracing is enabled.
func (c *Config) Validate() []error {
	var errs []error
	fail := func(err error) { errs = append(errs, err) }

	if c.Port < 1 || c.Port > 65535 {
		fail(fmt.Errorf("%w: %d", ErrInvalidPort, c.Port))
	}
	if c.SearchMaxResults < 0 {
		fail(fmt.Errorf("%w: %d", ErrInvalidMaxResults, c.SearchMaxResults))
	}
	if c.SearchRateLimit <= 0 || c.GlobalRateLimit <= 0 {
		fail(fmt.Errorf("%w: search=%d global=%d", ErrInvalidRateLimit, c.SearchRateLimit, c.GlobalRateLimit))
	}
	if (c.PersonsFixturePath == "") != (c.PlacesFixturePath == "") {
		fail(ErrIncompleteFixturePaths)
	}
	if c.RedisURL != "" {
		if _, err := redis.ParseURL(c.RedisURL); err != nil {
			fail(fmt.Errorf("%w: %w", ErrInvalidRedisURL, err))
		}
	}
	if c.TracingEnabled {
		if c.OTelSamplingRate < 0 || c.OTelSamplingRate > 1 {
			fail(fmt.Errorf("%w: %g", ErrInvalidSamplingRate, c.OTelSamplingRate))
		}
		if c.OTelExporter != "otlp-http" && c.OTelExporter != "otlp-grpc" {
			fail(fmt.Errorf("%w: %q", ErrInvalidExporter, c.OTelExporter))
		}
	}
	if c.ProfilingEnabled && c.IsProduction() {
		fail(ErrProfilingInProduction)
	}
	return errs
}

const notSet = "<not set>"

// LogSummary renders the settings for the startup log line. The Redis
// password never appears in it.
func (c *Config) LogSummary() map[string]string {
	orNotSet := func(s string) string {
		if s == "" {
			return notSet
		}
		return s
	}
	return map[string]string{
		"port":                 strconv.Itoa(c.Port),
		"env":                  c.Env,
		"log_level":            orNotSet(c.LogLevel),
		"calibration_path":     orNotSet(c.CalibrationPath),
		"persons_fixture_path": orNotSet(c.PersonsFixturePath),
		"places_fixture_path":  orNotSet(c.PlacesFixturePath),
		"search_max_results":   strconv.Itoa(c.SearchMaxResults),
		"search_rate_limit":    strconv.Itoa(c.SearchRateLimit),
		"global_rate_limit":    strconv.Itoa(c.GlobalRateLimit),
		"redis_url":            redactURL(c.RedisURL),
		"cors_allowed_origins": orNotSet(strings.Join(c.CORSAllowedOrigins, ",")),
		"tracing_enabled":      strconv.FormatBool(c.TracingEnabled),
		"otel_exporter":        c.OTelExporter,
		"otel_endpoint":        orNotSet(c.OTelEndpoint),
		"otel_sampling_rate":   strconv.FormatFloat(c.OTelSamplingRate, 'g', -1, 64),
		"profiling_enabled":    strconv.FormatBool(c.ProfilingEnabled),
	}
}

// redactURL hides the password of a connection URL. Values that do not
// parse as URLs are hidden entirely.
func redactURL(raw string) string {
	if raw == "" {
		return notSet
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "<redacted>"
	}
	return u.Redacted()
}
