package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type accessLogEntry struct {
	Time       string `json:"time"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	DurationMS int64  `json:"duration_ms"`
	RequestID  string `json:"request_id,omitempty"`
	RemoteAddr string `json:"remote_addr"`
}

// AccessLog emits one JSON line per request.
func AccessLog(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			entry := accessLogEntry{
				Time:       start.UTC().Format(time.RFC3339),
				Method:     r.Method,
				Path:       r.URL.Path,
				Status:     rec.status,
				DurationMS: time.Since(start).Milliseconds(),
				RequestID:  GetRequestID(r.Context()),
				RemoteAddr: r.RemoteAddr,
			}
			line, err := json.Marshal(entry)
			if err != nil {
				logger.Printf("failed to marshal access log entry: %v", err)
				return
			}
			logger.Print(string(line))
		})
	}
}
