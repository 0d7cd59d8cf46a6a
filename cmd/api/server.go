package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/kinmatch/internal/api"
	"github.com/onnwee/kinmatch/internal/config"
	"github.com/onnwee/kinmatch/internal/health"
	"github.com/onnwee/kinmatch/internal/middleware"
	"github.com/onnwee/kinmatch/internal/ranking"
	"github.com/onnwee/kinmatch/internal/search"
	"github.com/onnwee/kinmatch/internal/tracing"
)

const limiterSweepEvery = 5 * time.Minute

// app is the assembled server: the wrapped handler plus whatever must be
// released when it stops.
type app struct {
	Handler http.Handler
	closers []func() error
	logger  *slog.Logger
}

// Close releases external clients in reverse order of creation.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to release dependency", "error", err)
		}
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{logger: logger}

	weights, err := ranking.LoadCalibration(cfg.CalibrationPath)
	if err != nil {
		logger.Warn("ranking calibration not applied", "error", err)
	}

	catalog, err := openCatalog(cfg)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	persons, places := catalog.Len()
	logger.Info("catalog loaded", "persons", persons, "places", places)

	registry, httpMetrics, rankingMetrics, err := newRegistry()
	if err != nil {
		return nil, err
	}

	service, err := search.NewService(search.Config{
		Candidates:  catalog,
		Places:      catalog,
		PlaceSearch: catalog,
		Weights:     weights,
		MaxResults:  cfg.SearchMaxResults,
		Metrics:     rankingMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("search service: %w", err)
	}

	checks := api.HealthHandlersConfig{SourceChecker: catalog}
	store, err := a.limiterStore(ctx, cfg, httpMetrics, &checks)
	if err != nil {
		a.Close()
		return nil, err
	}

	limit := func(scope string, perMinute int) func(http.Handler) http.Handler {
		lc := middleware.DefaultSearchLimit()
		if scope == middleware.ScopeGlobal {
			lc = middleware.DefaultGlobalLimit()
		}
		lc.RequestsPerWindow = perMinute
		return middleware.RateLimiter(store, lc, middleware.RouteKeyFunc(scope), httpMetrics)
	}

	mux := http.NewServeMux()
	api.NewSearchHandlers(service).Register(mux, limit(middleware.ScopeSearch, cfg.SearchRateLimit))
	api.NewHealthHandlers(checks).Register(mux)
	mux.Handle("GET "+middleware.RouteMetrics, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc(middleware.RouteRoot, serveRoot)

	// Listed innermost first; RequestID ends up outermost.
	layers := []func(http.Handler) http.Handler{
		middleware.Profiling(middleware.ProfilingConfig{Enabled: cfg.ProfilingEnabled, Environment: cfg.Env}),
		limit(middleware.ScopeGlobal, cfg.GlobalRateLimit),
		middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins)),
		middleware.Logging(logger),
		middleware.HTTPMetrics(httpMetrics),
		middleware.Tracing(tracing.DefaultServiceName),
		middleware.RequestID,
	}
	var h http.Handler = mux
	for _, wrap := range layers {
		h = wrap(h)
	}
	a.Handler = h
	return a, nil
}

func newRegistry() (*prometheus.Registry, *middleware.Metrics, *ranking.Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := middleware.NewMetrics()
	if err := httpMetrics.Register(registry); err != nil {
		return nil, nil, nil, fmt.Errorf("http metrics: %w", err)
	}
	rankingMetrics := ranking.NewMetrics()
	if err := rankingMetrics.Register(registry); err != nil {
		return nil, nil, nil, fmt.Errorf("ranking metrics: %w", err)
	}
	return registry, httpMetrics, rankingMetrics, nil
}

// limiterStore picks Redis when configured, otherwise an in-memory store
// swept until ctx ends. A Redis store also becomes a readiness check.
func (a *app) limiterStore(ctx context.Context, cfg *config.Config, m *middleware.Metrics, checks *api.HealthHandlersConfig) (middleware.RateLimitStore, error) {
	if cfg.RedisURL == "" {
		mem := middleware.NewInMemoryRateLimitStore()
		mem.StartCleanup(ctx, limiterSweepEvery)
		return mem, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	client := redis.NewClient(opts)
	a.closers = append(a.closers, client.Close)
	checks.RedisChecker = health.NewRedisChecker(client)
	a.logger.Info("rate limits kept in redis", "addr", opts.Addr)
	return middleware.NewRedisRateLimitStore(client, m), nil
}

func openCatalog(cfg *config.Config) (*search.Catalog, error) {
	if cfg.PersonsFixturePath == "" {
		return search.DefaultCatalog()
	}
	return search.LoadCatalog(cfg.PersonsFixturePath, cfg.PlacesFixturePath)
}

// serveRoot answers GET / with the service banner and everything unrouted
// with the not_found envelope.
func serveRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != middleware.RouteRoot {
		api.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"service":"kinmatch-api","version":%q}`, version); err != nil {
		slog.ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}
