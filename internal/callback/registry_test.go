package callback

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBindingStore struct {
	mock.Mock
}

func (m *mockBindingStore) Get(ctx context.Context, requestID int64) (*domain.CallbackBinding, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CallbackBinding), args.Error(1)
}

func (m *mockBindingStore) Delete(ctx context.Context, requestID int64) error {
	return m.Called(ctx, requestID).Error(0)
}

type mockDeliverer struct {
	mock.Mock
}

func (m *mockDeliverer) Deliver(ctx context.Context, sessionToken string, msg Message) error {
	return m.Called(ctx, sessionToken, msg).Error(0)
}

func newRegistry(store BindingStore, deliverer Deliverer) *Registry {
	return NewRegistry(store, deliverer, log.New(io.Discard, "", 0))
}

func TestDeliverRemovesBinding(t *testing.T) {
	store := &mockBindingStore{}
	store.On("Get", mock.Anything, int64(5)).Return(&domain.CallbackBinding{
		RequestID:    5,
		SessionToken: "tok",
	}, nil)
	store.On("Delete", mock.Anything, int64(5)).Return(nil)

	deliverer := &mockDeliverer{}
	deliverer.On("Deliver", mock.Anything, "tok", Message{
		RequestID: 5,
		Status:    domain.StatusResolved,
		Answer:    "yes",
	}).Return(nil)

	r := newRegistry(store, deliverer)
	require.NoError(t, r.Deliver(context.Background(), 5, domain.StatusResolved, "yes"))

	store.AssertExpectations(t)
	deliverer.AssertExpectations(t)
}

func TestDeliverUnknownBinding(t *testing.T) {
	store := &mockBindingStore{}
	store.On("Get", mock.Anything, int64(8)).Return(nil, domain.ErrCallbackBindingNotFound)

	r := newRegistry(store, &mockDeliverer{})
	err := r.Deliver(context.Background(), 8, domain.StatusResolved, "x")
	assert.ErrorIs(t, err, domain.ErrCallbackBindingNotFound)
}

func TestDeliverFailureIsTerminal(t *testing.T) {
	store := &mockBindingStore{}
	store.On("Get", mock.Anything, int64(5)).Return(&domain.CallbackBinding{
		RequestID:    5,
		SessionToken: "tok",
	}, nil)
	store.On("Delete", mock.Anything, int64(5)).Return(nil)

	deliverer := &mockDeliverer{}
	deliverer.On("Deliver", mock.Anything, "tok", mock.Anything).Return(errors.New("socket closed"))

	r := newRegistry(store, deliverer)
	err := r.Deliver(context.Background(), 5, domain.StatusResolved, "yes")
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeDeliveryFailed, domainErr.Code)

	// The binding is gone even though delivery failed.
	store.AssertCalled(t, "Delete", mock.Anything, int64(5))
}
