package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/relayline-ai/relayline/internal/telemetry"
)

// WriteJSON writes payload as-is with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// WriteSuccess writes a {"success":true, ...fields} envelope.
func WriteSuccess(w http.ResponseWriter, status int, fields map[string]any) {
	payload := map[string]any{"success": true}
	for k, v := range fields {
		payload[k] = v
	}
	WriteJSON(w, status, payload)
}

// WriteError writes a {"success":false,"error":message} envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
	})
}

// HandleError maps a service error to an HTTP response. Domain errors keep
// their message; anything else becomes an opaque 500 and goes to telemetry.
func HandleError(w http.ResponseWriter, logger *log.Logger, err error) {
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		status := statusForCode(domainErr.Code)
		if status >= http.StatusInternalServerError {
			logger.Printf("request failed: %v", err)
			telemetry.CaptureError(err, map[string]string{"code": domainErr.Code})
		}
		WriteError(w, status, domainErr.Message)
		return
	}

	logger.Printf("unhandled error: %v", err)
	telemetry.CaptureError(err, nil)
	WriteError(w, http.StatusInternalServerError, "internal server error")
}

func statusForCode(code string) int {
	switch code {
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeInvalidState:
		return http.StatusConflict
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodeDependencyUnavailable:
		return http.StatusServiceUnavailable
	case domain.ErrCodeDeliveryFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
