// Package api serves the kinmatch search API: candidate search, place
// lookup, health endpoints and the JSON error envelope they share.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/onnwee/kinmatch/internal/middleware"
)

// Error codes of the envelope. rate_limited and forbidden are written by the
// middleware package with the same values.
const (
	ErrCodeValidation       = "validation_error"
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeForbidden        = "forbidden"
	ErrCodeRateLimited      = "rate_limited"
	ErrCodeUpstream         = "upstream_error"
	ErrCodeInternal         = "internal_error"
)

var codeStatus = map[string]int{
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeMethodNotAllowed: http.StatusMethodNotAllowed,
	ErrCodeForbidden:        http.StatusForbidden,
	ErrCodeRateLimited:      http.StatusTooManyRequests,
	ErrCodeUpstream:         http.StatusBadGateway,
	ErrCodeInternal:         http.StatusInternalServerError,
}

// StatusFor returns the HTTP status sent with code. Unknown codes are 500.
func StatusFor(code string) int {
	if status, ok := codeStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorResponse is the body of every error: {"error":{"code":..,"message":..}}.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError answers r with the envelope for code at StatusFor(code) and
// hands code to the request log.
func WriteError(w http.ResponseWriter, r *http.Request, code, message string) {
	middleware.UpdateResponseContext(w, middleware.SetErrorCode(r.Context(), code))
	writeJSON(w, r, StatusFor(code), ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(r.Context(), "failed to encode response", "status", status, "error", err)
	}
}

// NotFound is the catch-all for paths no route matches.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, ErrCodeNotFound, "The requested resource was not found")
}

// allowGET rejects any method but GET (and HEAD) with 405. It reports
// whether the handler may continue.
func allowGET(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	WriteError(w, r, ErrCodeMethodNotAllowed, "Method not allowed")
	return false
}
