package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthChecker is a dependency /ready can ask about.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// States of one readiness check.
const (
	checkOK            = "ok"
	checkFailed        = "error"
	checkNotConfigured = "not_configured"
)

// readyTimeout bounds one /ready request across all checks.
const readyTimeout = 5 * time.Second

// HealthHandlersConfig lists the optional dependencies. A nil checker is
// reported as not_configured and does not fail readiness.
type HealthHandlersConfig struct {
	// RedisChecker is set when rate limits live in Redis.
	RedisChecker HealthChecker
	// SourceChecker is set when the candidate source can report health.
	SourceChecker HealthChecker
}

type dependency struct {
	name    string
	checker HealthChecker
}

// HealthHandlers serves /health and /ready.
type HealthHandlers struct {
	deps []dependency
	now  func() time.Time
}

func NewHealthHandlers(config HealthHandlersConfig) *HealthHandlers {
	return &HealthHandlers{
		deps: []dependency{
			{name: "redis", checker: config.RedisChecker},
			{name: "candidate_source", checker: config.SourceChecker},
		},
		now: time.Now,
	}
}

// HealthResponse is the body of /health and /ready.
type HealthResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Register mounts both endpoints on mux.
func (h *HealthHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/ready", h.Ready)
}

// Health answers 200 as long as the process serves HTTP.
func (h *HealthHandlers) Health(w http.ResponseWriter, r *http.Request) {
	if !allowGET(w, r) {
		return
	}
	h.respond(w, r, true, map[string]string{"runtime": checkOK})
}

// Ready runs every configured check concurrently and answers 503 when any
// of them fails.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	if !allowGET(w, r) {
		return
	}

	results := make([]string, len(h.deps))
	g, ctx := errgroup.WithContext(r.Context())
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	for i, dep := range h.deps {
		if dep.checker == nil {
			results[i] = checkNotConfigured
			continue
		}
		g.Go(func() error {
			if err := dep.checker.HealthCheck(ctx); err != nil {
				slog.WarnContext(ctx, "readiness check failed", "check", dep.name, "error", err)
				results[i] = checkFailed
				return nil
			}
			results[i] = checkOK
			return nil
		})
	}
	_ = g.Wait()

	checks := map[string]string{"metrics": checkOK}
	ready := true
	for i, dep := range h.deps {
		checks[dep.name] = results[i]
		ready = ready && results[i] != checkFailed
	}
	h.respond(w, r, ready, checks)
}

func (h *HealthHandlers) respond(w http.ResponseWriter, r *http.Request, ok bool, checks map[string]string) {
	resp := HealthResponse{
		Status:    "healthy",
		Checks:    checks,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	}
	status := http.StatusOK
	if !ok {
		resp.Status, status = "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, r, status, resp)
}
