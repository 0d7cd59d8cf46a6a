package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

type errorCodeKey struct{}

// SetErrorCode returns a copy of ctx carrying an API error code. Pass the
// result to UpdateResponseContext so the request log line can report it.
func SetErrorCode(ctx context.Context, code string) context.Context {
	return context.WithValue(ctx, errorCodeKey{}, code)
}

// GetErrorCode returns the code stored by SetErrorCode, or "".
func GetErrorCode(ctx context.Context) string {
	code, _ := ctx.Value(errorCodeKey{}).(string)
	return code
}

// UpdateResponseContext pushes the error code of ctx onto every recorder
// wrapping w. Handlers only see the request context going down the chain,
// so this is how a code travels back up to Logging.
func UpdateResponseContext(w http.ResponseWriter, ctx context.Context) {
	code := GetErrorCode(ctx)
	if code == "" {
		return
	}
	for w != nil {
		if rec, ok := w.(*recorder); ok {
			rec.errorCode = code
		}
		inner, ok := w.(interface{ Unwrap() http.ResponseWriter })
		if !ok {
			return
		}
		w = inner.Unwrap()
	}
}

// Logging writes one "request completed" line per request at a level
// derived from the status: error for 5xx, warn for 4xx, info otherwise.
// The line carries method, path, status, latency_ms and size, plus
// request_id, trace_id and error_code when known.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newRecorder(w)
			next.ServeHTTP(rec, r)

			ctx := r.Context()
			logger.LogAttrs(ctx, levelForStatus(rec.status), "request completed",
				requestAttrs(r, rec, time.Since(start))...)
		})
	}
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	}
	return slog.LevelInfo
}

func requestAttrs(r *http.Request, rec *recorder, elapsed time.Duration) []slog.Attr {
	attrs := make([]slog.Attr, 0, 8)
	attrs = append(attrs,
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", rec.status),
		slog.Int64("latency_ms", elapsed.Milliseconds()),
		slog.Int64("size", rec.bytes),
	)
	if id := GetRequestID(r.Context()); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	if traceID := GetTraceID(r); traceID != "" {
		attrs = append(attrs, slog.String("trace_id", traceID))
	}
	if rec.status < http.StatusBadRequest {
		return attrs
	}

	code := rec.errorCode
	if code == "" {
		code = GetErrorCode(r.Context())
	}
	if code != "" {
		attrs = append(attrs, slog.String("error_code", code))
	}
	return attrs
}
