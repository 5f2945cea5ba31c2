package middleware

import "net/http"

// MaxBody caps request body size. Reads past the limit fail and the JSON
// decoder surfaces the error as a normal bad request.
func MaxBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
