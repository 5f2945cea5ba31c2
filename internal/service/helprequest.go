package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/relayline-ai/relayline/internal/telemetry"
)

// HelpRequestService drives the escalation lifecycle: creation when the
// agent cannot answer, resolution or dismissal by an operator, and the
// timeout sweep for requests nobody picked up.
type HelpRequestService struct {
	repo      HelpRequestRepositoryAPI
	tx        TxRunner
	callbacks CallbackRegistry
	webhooks  WebhookSender
	indexer   IndexRebuilder
	uuidGen   UUIDGenerator
	timeout   time.Duration
	logger    *log.Logger
}

func NewHelpRequestService(
	repo HelpRequestRepositoryAPI,
	tx TxRunner,
	callbacks CallbackRegistry,
	webhooks WebhookSender,
	indexer IndexRebuilder,
	uuidGen UUIDGenerator,
	timeout time.Duration,
	logger *log.Logger,
) *HelpRequestService {
	return &HelpRequestService{
		repo:      repo,
		tx:        tx,
		callbacks: callbacks,
		webhooks:  webhooks,
		indexer:   indexer,
		uuidGen:   uuidGen,
		timeout:   timeout,
		logger:    logger,
	}
}

// CreateHelpRequestInput carries everything the agent knows when it
// escalates. SessionToken binds the request to the live caller session;
// WebhookURL is an optional external notification target. CreatedAt is when
// the agent raised the question; zero means now.
type CreateHelpRequestInput struct {
	CustomerID   string
	Question     string
	WebhookURL   string
	SessionToken string
	CreatedAt    time.Time
}

// Create stores the request and its session binding in one transaction, so a
// failed registration never leaves behind a request no session can receive.
func (s *HelpRequestService) Create(ctx context.Context, in CreateHelpRequestInput) (*domain.HelpRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.helprequest.create", &telemetry.SpanAttributes{
		Question: in.Question,
	})
	defer span.Finish()

	createdAt := in.CreatedAt.UTC()
	if in.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	hr := &domain.HelpRequest{
		CustomerID: in.CustomerID,
		Question:   strings.TrimSpace(in.Question),
		Status:     domain.StatusPending,
		WebhookURL: in.WebhookURL,
		CreatedAt:  createdAt,
	}
	if err := domain.ValidateHelpRequest(hr); err != nil {
		return nil, err
	}

	err := s.tx.WithTx(ctx, func(repos TxRepositories) error {
		if err := repos.HelpRequests().Create(ctx, hr); err != nil {
			return err
		}
		if in.SessionToken == "" {
			return nil
		}
		if err := repos.Callbacks().Upsert(ctx, &domain.CallbackBinding{
			RequestID:    hr.ID,
			SessionToken: in.SessionToken,
		}); err != nil {
			return fmt.Errorf("register callback binding: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Printf("help request %d created for customer %s", hr.ID, hr.CustomerID)
	return hr, nil
}

func (s *HelpRequestService) Get(ctx context.Context, id int64) (*domain.HelpRequest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *HelpRequestService) ListPending(ctx context.Context) ([]*domain.HelpRequest, error) {
	return s.repo.ListPending(ctx)
}

func (s *HelpRequestService) ListUnresolved(ctx context.Context) ([]*domain.HelpRequest, error) {
	return s.repo.ListUnresolved(ctx)
}

func (s *HelpRequestService) Counts(ctx context.Context) (*RequestCounts, error) {
	return s.repo.CountByStatus(ctx)
}

// Resolve transitions a pending request to resolved and writes the answer
// into the knowledge base, atomically. After commit the index rebuild runs
// synchronously and notifications go out in the background, so an operator
// response never hangs on a slow webhook.
func (s *HelpRequestService) Resolve(ctx context.Context, id int64, answer string) (*domain.HelpRequest, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.helprequest.resolve", &telemetry.SpanAttributes{
		RequestID: strconv.FormatInt(id, 10),
	})
	defer span.Finish()

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, domain.ErrEmptyAnswer
	}

	var resolved *domain.HelpRequest
	err := s.tx.WithTx(ctx, func(repos TxRepositories) error {
		hr, err := repos.HelpRequests().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !hr.CanTransitionTo(domain.StatusResolved) {
			return domain.ErrRequestNotPending
		}

		now := time.Now().UTC()
		if err := repos.HelpRequests().MarkResolved(ctx, id, answer, now); err != nil {
			return err
		}

		item := &domain.KnowledgeItem{
			ID:        s.uuidGen.NewUUID(),
			Question:  hr.Question,
			Answer:    answer,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := repos.Knowledge().Upsert(ctx, item); err != nil {
			return fmt.Errorf("store resolved answer: %w", err)
		}

		hr.Status = domain.StatusResolved
		hr.Answer = answer
		hr.ResolvedAt = &now
		resolved = hr
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.rebuildIndex(ctx)
	go s.notify(resolved)
	return resolved, nil
}

// MarkUnresolved closes a pending request without an answer.
func (s *HelpRequestService) MarkUnresolved(ctx context.Context, id int64) (*domain.HelpRequest, error) {
	var closed *domain.HelpRequest
	err := s.tx.WithTx(ctx, func(repos TxRepositories) error {
		hr, err := repos.HelpRequests().GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !hr.CanTransitionTo(domain.StatusUnresolved) {
			return domain.ErrRequestNotPending
		}

		now := time.Now().UTC()
		if err := repos.HelpRequests().MarkUnresolved(ctx, id, now); err != nil {
			return err
		}

		hr.Status = domain.StatusUnresolved
		hr.ResolvedAt = &now
		closed = hr
		return nil
	})
	if err != nil {
		return nil, err
	}

	go s.notify(closed)
	return closed, nil
}

// SweepTimeouts marks every pending request older than the configured
// timeout as unresolved. Each request is its own transaction; one failure
// does not stop the sweep.
func (s *HelpRequestService) SweepTimeouts(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.timeout)
	expired, err := s.repo.ListExpiredPending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, hr := range expired {
		if _, err := s.MarkUnresolved(ctx, hr.ID); err != nil {
			// A concurrent resolve can win the race; that is not a sweep
			// failure.
			if errors.Is(err, domain.ErrRequestNotPending) {
				continue
			}
			s.logger.Printf("sweep failed for request %d: %v", hr.ID, err)
			telemetry.CaptureError(err, map[string]string{
				"operation":  "timeout_sweep",
				"request_id": strconv.FormatInt(hr.ID, 10),
			})
			continue
		}
		swept++
	}
	if swept > 0 {
		s.logger.Printf("timeout sweep closed %d request(s)", swept)
	}
	return swept, nil
}

func (s *HelpRequestService) rebuildIndex(ctx context.Context) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Rebuild(ctx); err != nil {
		s.logger.Printf("index rebuild after resolve failed: %v", err)
		telemetry.CaptureError(err, map[string]string{"operation": "resolve_rebuild"})
	}
}

// notify runs detached from the request that triggered it.
func (s *HelpRequestService) notify(hr *domain.HelpRequest) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if hr.WebhookURL != "" && s.webhooks != nil {
		if err := s.webhooks.Send(ctx, hr.WebhookURL, hr.ID, hr.Status, hr.Answer); err != nil {
			s.logger.Printf("webhook notification for request %d failed: %v", hr.ID, err)
			telemetry.CaptureError(err, map[string]string{
				"operation":  "webhook_notify",
				"request_id": strconv.FormatInt(hr.ID, 10),
			})
		}
	}

	if s.callbacks == nil {
		return
	}
	err := s.callbacks.Deliver(ctx, hr.ID, hr.Status, hr.Answer)
	if err != nil && !errors.Is(err, domain.ErrCallbackBindingNotFound) {
		s.logger.Printf("session delivery for request %d failed: %v", hr.ID, err)
	}
}
