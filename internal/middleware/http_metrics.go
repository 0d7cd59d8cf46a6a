package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// HTTPMetrics records count, latency and body sizes of every API request,
// labelled by RouteOf. Requests to the ops endpoints are skipped.
func HTTPMetrics(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isOpsEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := newRecorder(w)
			next.ServeHTTP(rec, r)

			requestBytes := r.ContentLength
			if requestBytes < 0 {
				requestBytes = 0
			}
			metrics.ObserveHTTPRequest(
				r.Method,
				RouteOf(r.URL.Path),
				strconv.Itoa(rec.status),
				time.Since(start).Seconds(),
				requestBytes,
				rec.bytes,
			)
		})
	}
}
