package middleware

import (
	"log/slog"
	"net/http"
	"net/http/pprof"
	"strings"
)

// ProfilingConfig configures the profiling middleware.
type ProfilingConfig struct {
	// Enabled controls whether /debug/pprof/* is served.
	Enabled bool

	// Environment guards against exposing pprof in production.
	Environment string
}

// profilingPrefix is the path prefix served by the pprof handlers.
const profilingPrefix = "/debug/pprof"

// isProductionEnv reports whether env names a production deployment.
func isProductionEnv(env string) bool {
	switch strings.ToLower(env) {
	case "production", "prod":
		return true
	}
	return false
}

// Profiling returns middleware that serves pprof endpoints under /debug/pprof/.
// It is a pass-through when disabled or when Environment is production.
// Profiles expose process memory and should stay on development builds.
func Profiling(config ProfilingConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !config.Enabled {
			return next
		}
		if isProductionEnv(config.Environment) {
			slog.Error("profiling requested in production, refusing to expose pprof",
				"environment", config.Environment)
			return next
		}

		slog.Warn("profiling endpoints enabled",
			"environment", config.Environment,
			"endpoints", profilingPrefix+"/*")

		mux := http.NewServeMux()
		mux.HandleFunc(profilingPrefix+"/", pprof.Index)
		mux.HandleFunc(profilingPrefix+"/cmdline", pprof.Cmdline)
		mux.HandleFunc(profilingPrefix+"/profile", pprof.Profile)
		mux.HandleFunc(profilingPrefix+"/symbol", pprof.Symbol)
		mux.HandleFunc(profilingPrefix+"/trace", pprof.Trace)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == profilingPrefix || strings.HasPrefix(r.URL.Path, profilingPrefix+"/") {
				mux.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
