package middleware

import "net/http"

// recorder captures what a handler wrote: the status, the body size and the
// API error code reported through UpdateResponseContext.
type recorder struct {
	http.ResponseWriter
	status    int
	bytes     int64
	committed bool
	errorCode string
}

func newRecorder(w http.ResponseWriter) *recorder {
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader keeps the first status only, as net/http does.
func (rec *recorder) WriteHeader(status int) {
	if rec.committed {
		return
	}
	rec.status = status
	rec.committed = true
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *recorder) Write(p []byte) (int, error) {
	rec.committed = true
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rec *recorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}
