package middleware

import (
	"net/http"

	sentryhttp "github.com/getsentry/sentry-go/http"
)

// Sentry wraps handlers in a sentry transaction so service-layer spans
// attach to the request trace.
func Sentry() func(http.Handler) http.Handler {
	handler := sentryhttp.New(sentryhttp.Options{
		Repanic: true,
	})
	return handler.Handle
}
