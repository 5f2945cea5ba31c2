package callback

import (
	"context"
	"fmt"
	"log"

	"github.com/relayline-ai/relayline/internal/domain"
)

// Message is what gets pushed into a live caller session.
type Message struct {
	RequestID int64
	Status    domain.HelpRequestStatus
	Answer    string
}

// Deliverer pushes a message into the session identified by its token.
// Returning domain.ErrSessionGone means the session no longer exists.
type Deliverer interface {
	Deliver(ctx context.Context, sessionToken string, msg Message) error
}

// BindingStore persists request-to-session bindings. Bindings are created
// alongside the request row; the registry only consumes them.
type BindingStore interface {
	Get(ctx context.Context, requestID int64) (*domain.CallbackBinding, error)
	Delete(ctx context.Context, requestID int64) error
}

// Registry performs one-shot delivery of the eventual answer into the caller
// session bound to a request. Delivery is terminal: whether it succeeds or
// fails, the binding is gone afterwards and a retry would need a fresh
// registration.
type Registry struct {
	store     BindingStore
	deliverer Deliverer
	logger    *log.Logger
}

func NewRegistry(store BindingStore, deliverer Deliverer, logger *log.Logger) *Registry {
	return &Registry{
		store:     store,
		deliverer: deliverer,
		logger:    logger,
	}
}

// Deliver pushes the outcome of a request into its bound session and removes
// the binding.
func (r *Registry) Deliver(ctx context.Context, requestID int64, status domain.HelpRequestStatus, answer string) error {
	binding, err := r.store.Get(ctx, requestID)
	if err != nil {
		return err
	}

	deliverErr := r.deliverer.Deliver(ctx, binding.SessionToken, Message{
		RequestID: requestID,
		Status:    status,
		Answer:    answer,
	})

	if err := r.store.Delete(ctx, requestID); err != nil {
		r.logger.Printf("failed to remove callback binding for request %d: %v", requestID, err)
	}

	if deliverErr != nil {
		return domain.NewDomainErrorWithCause(
			domain.ErrCodeDeliveryFailed,
			fmt.Sprintf("failed to deliver answer for request %d", requestID),
			deliverErr,
		)
	}
	return nil
}
