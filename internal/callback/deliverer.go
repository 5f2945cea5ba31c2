package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/relayline-ai/relayline/internal/domain"
)

// HTTPDeliverer pushes messages to the voice pipeline's answer endpoint.
type HTTPDeliverer struct {
	client  *http.Client
	sinkURL string
}

func NewHTTPDeliverer(sinkURL string, timeout time.Duration) *HTTPDeliverer {
	return &HTTPDeliverer{
		client:  &http.Client{Timeout: timeout},
		sinkURL: sinkURL,
	}
}

func (d *HTTPDeliverer) Deliver(ctx context.Context, sessionToken string, msg Message) error {
	payload, err := json.Marshal(map[string]any{
		"session_token": sessionToken,
		"request_id":    msg.RequestID,
		"status":        string(msg.Status),
		"answer":        msg.Answer,
	})
	if err != nil {
		return fmt.Errorf("encode session message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.sinkURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return domain.ErrSessionGone
	case resp.StatusCode >= 400:
		return fmt.Errorf("session sink returned %d", resp.StatusCode)
	}
	return nil
}

// LogDeliverer is the fallback when no session sink is configured: messages
// are logged and dropped.
type LogDeliverer struct {
	Logger *log.Logger
}

func (d *LogDeliverer) Deliver(_ context.Context, sessionToken string, msg Message) error {
	d.Logger.Printf("no session sink configured, dropping answer for request %d (session %s, status %s)",
		msg.RequestID, sessionToken, msg.Status)
	return nil
}
