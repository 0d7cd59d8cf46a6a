// Package middleware holds the HTTP middleware of the kinmatch API: request
// IDs, tracing, metrics, request logging, CORS, rate limiting and profiling.
package middleware

import "strings"

// Route labels used by metrics, span names and rate limit counters. They
// mirror the patterns registered on the API mux.
const (
	RouteRoot      = "/"
	RouteSearch    = "/search"
	RoutePlaces    = "/places"
	RoutePlace     = "/places/{id}"
	RouteHealth    = "/health"
	RouteReady     = "/ready"
	RouteMetrics   = "/metrics"
	UnmatchedRoute = "unmatched"
)

var fixedRoutes = map[string]struct{}{
	RouteRoot:    {},
	RouteSearch:  {},
	RoutePlaces:  {},
	RouteHealth:  {},
	RouteReady:   {},
	RouteMetrics: {},
}

// RouteOf maps a request path to its route label. Place ids collapse to
// RoutePlace and anything else unknown to UnmatchedRoute, which keeps label
// cardinality bounded no matter what clients send.
func RouteOf(path string) string {
	if path != RouteRoot {
		path = strings.TrimSuffix(path, "/")
	}
	if _, ok := fixedRoutes[path]; ok {
		return path
	}
	if id, ok := strings.CutPrefix(path, RoutePlaces+"/"); ok && id != "" && !strings.Contains(id, "/") {
		return RoutePlace
	}
	return UnmatchedRoute
}

// isOpsEndpoint reports whether path is served for the platform rather than
// for API clients: liveness, readiness and the metrics scrape. Such requests
// are neither traced nor counted in the HTTP metrics.
func isOpsEndpoint(path string) bool {
	switch path {
	case RouteHealth, RouteReady, RouteMetrics:
		return true
	}
	return false
}
