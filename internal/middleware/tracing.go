package middleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request with otelhttp, continuing any W3C
// traceparent sent by the caller. Spans are named "<METHOD> <route>" with the
// RouteOf label, e.g. "GET /places/{id}". Liveness, readiness and
// scrape requests are not traced.
// Install it inside RequestID.
func Tracing(serviceName string) func(http.Handler) http.Handler {
	spanName := func(_ string, r *http.Request) string {
		return r.Method + " " + RouteOf(r.URL.Path)
	}
	traced := func(r *http.Request) bool {
		return !isOpsEndpoint(r.URL.Path)
	}

	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithSpanNameFormatter(spanName),
			otelhttp.WithFilter(traced),
		)
	}
}

// GetTraceID returns the hex trace ID of the active span, or "".
func GetTraceID(r *http.Request) string {
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the hex span ID of the active span, or "".
func GetSpanID(r *http.Request) string {
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}
