package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/relayline-ai/relayline/internal/domain"
)

const maxAttempts = 3

// Sender delivers resolution notifications with retries. Server errors and
// network failures are retried with exponential backoff; a 4xx from the
// endpoint is treated as permanent since retrying will not change it.
type Sender struct {
	client *http.Client
	logger *log.Logger
}

func NewSender(perAttemptTimeout time.Duration, logger *log.Logger) *Sender {
	return &Sender{
		client: &http.Client{Timeout: perAttemptTimeout},
		logger: logger,
	}
}

type notification struct {
	RequestID int64  `json:"request_id"`
	Status    string `json:"status"`
	Answer    string `json:"answer"`
}

// Send posts the outcome of a help request to {baseURL}/{requestID}.
func (s *Sender) Send(ctx context.Context, baseURL string, requestID int64, status domain.HelpRequestStatus, answer string) error {
	body, err := json.Marshal(notification{
		RequestID: requestID,
		Status:    string(status),
		Answer:    answer,
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	url := fmt.Sprintf("%s/%d", strings.TrimRight(baseURL, "/"), requestID)

	attempt := 0
	operation := func() error {
		attempt++
		if err := s.post(ctx, url, body); err != nil {
			s.logger.Printf("webhook attempt %d/%d to %s failed: %v", attempt, maxAttempts, url, err)
			return err
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxAttempts-1),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		return domain.NewDomainErrorWithCause(
			domain.ErrCodeDeliveryFailed,
			"webhook delivery retries exhausted", err,
		)
	}
	return nil
}

func (s *Sender) post(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("endpoint returned %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return backoff.Permanent(fmt.Errorf("endpoint rejected delivery with %d", resp.StatusCode))
	}
	return nil
}
