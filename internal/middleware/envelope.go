package middleware

import (
	"encoding/json"
	"net/http"
)

// Error codes written by the middleware itself. They match the codes of the
// api package envelope.
const (
	codeRateLimited = "rate_limited"
	codeForbidden   = "forbidden"
)

type envelope struct {
	Error envelopeDetail `json:"error"`
}

type envelopeDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// rejectRequest answers r with the JSON error envelope and records code for
// the request log.
func rejectRequest(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	UpdateResponseContext(w, SetErrorCode(r.Context(), code))

	body, err := json.Marshal(envelope{Error: envelopeDetail{Code: code, Message: message}})
	if err != nil {
		http.Error(w, message, status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
