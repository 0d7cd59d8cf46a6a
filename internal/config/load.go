package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds the configuration from Default, the YAML file at path (when
// path is not empty) and the environment, later layers winning. Empty
// environment variables count as unset.
//
// A file that cannot be read or parsed yields a nil Config and that single
// error. Otherwise the Config is returned with every parse and validation
// error found.
func Load(path string) (*Config, []error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, []error{fmt.Errorf("failed to load config file %s: %w", path, err)}
		}
	}

	cfg := Default()
	b := &binder{k: k, getenv: os.Getenv}

	// KINMATCH_PORT wins over the PORT injected by hosting platforms.
	b.integer(&cfg.Port, "port", "KINMATCH_PORT", "PORT")
	b.text(&cfg.Env, "env", "KINMATCH_ENV", "ENV")
	b.text(&cfg.LogLevel, "log_level", "LOG_LEVEL")
	b.text(&cfg.CalibrationPath, "calibration_path", "RANKING_CALIBRATION_PATH")
	b.text(&cfg.PersonsFixturePath, "persons_fixture_path", "PERSONS_FIXTURE_PATH")
	b.text(&cfg.PlacesFixturePath, "places_fixture_path", "PLACES_FIXTURE_PATH")
	b.integer(&cfg.SearchMaxResults, "search_max_results", "SEARCH_MAX_RESULTS")
	b.integer(&cfg.SearchRateLimit, "search_rate_limit", "SEARCH_RATE_LIMIT")
	b.integer(&cfg.GlobalRateLimit, "global_rate_limit", "GLOBAL_RATE_LIMIT")
	b.text(&cfg.RedisURL, "redis_url", "REDIS_URL")
	b.list(&cfg.CORSAllowedOrigins, "cors_allowed_origins", "CORS_ALLOWED_ORIGINS")
	b.boolean(&cfg.TracingEnabled, "tracing_enabled", "TRACING_ENABLED")
	b.text(&cfg.OTelExporter, "otel_exporter", "OTEL_EXPORTER_TYPE")
	b.text(&cfg.OTelEndpoint, "otel_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	b.float(&cfg.OTelSamplingRate, "otel_sampling_rate", "OTEL_SAMPLING_RATE")
	b.boolean(&cfg.OTelInsecure, "otel_insecure", "OTEL_EXPORTER_OTLP_INSECURE")
	b.boolean(&cfg.ProfilingEnabled, "profiling_enabled", "PROFILING_ENABLED")

	return &cfg, append(b.errs, cfg.Validate()...)
}

// binder copies one setting at a time from the environment or the file into
// a Config field, keeping the field's default when neither has it.
type binder struct {
	k      *koanf.Koanf
	getenv func(string) string
	errs   []error
}

// env returns the first non-empty variable of names.
func (b *binder) env(names []string) (value, name string, ok bool) {
	for _, n := range names {
		if v := strings.TrimSpace(b.getenv(n)); v != "" {
			return v, n, true
		}
	}
	return "", "", false
}

// lookup returns the raw value of a setting and where it came from: the
// environment first, then the file key.
func (b *binder) lookup(key string, env []string) (raw, source string, ok bool) {
	if v, name, ok := b.env(env); ok {
		return v, name, true
	}
	if b.k.Exists(key) {
		return strings.TrimSpace(b.k.String(key)), key, true
	}
	return "", "", false
}

func (b *binder) invalid(source, raw, want string) {
	b.errs = append(b.errs, fmt.Errorf("%w: %s=%q is not %s", ErrInvalidValue, source, raw, want))
}

func (b *binder) text(dst *string, key string, env ...string) {
	if raw, _, ok := b.lookup(key, env); ok && raw != "" {
		*dst = raw
	}
}

func (b *binder) integer(dst *int, key string, env ...string) {
	raw, source, ok := b.lookup(key, env)
	if !ok {
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		b.invalid(source, raw, "an integer")
		return
	}
	*dst = n
}

func (b *binder) float(dst *float64, key string, env ...string) {
	raw, source, ok := b.lookup(key, env)
	if !ok {
		return
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		b.invalid(source, raw, "a number")
		return
	}
	*dst = f
}

func (b *binder) boolean(dst *bool, key string, env ...string) {
	raw, source, ok := b.lookup(key, env)
	if !ok {
		return
	}
	switch strings.ToLower(raw) {
	case "true", "1", "yes", "on":
		*dst = true
	case "false", "0", "no", "off":
		*dst = false
	default:
		b.invalid(source, raw, "a boolean")
	}
}

// list reads a comma separated variable, or a YAML sequence or comma
// separated string from the file. Blank entries are dropped.
func (b *binder) list(dst *[]string, key string, env ...string) {
	var items []string
	if raw, _, ok := b.env(env); ok {
		items = strings.Split(raw, ",")
	} else if _, isSeq := b.k.Get(key).([]any); isSeq {
		items = b.k.Strings(key)
	} else if b.k.Exists(key) {
		items = strings.Split(b.k.String(key), ",")
	} else {
		return
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	*dst = out
}
