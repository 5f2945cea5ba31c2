package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/relayline-ai/relayline/internal/api"
)

// BearerAuth requires a static bearer token on every request. An empty
// configured token disables the check.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				api.WriteError(w, http.StatusUnauthorized, "invalid or missing api token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
