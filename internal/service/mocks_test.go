package service

import (
	"context"
	"time"

	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/relayline-ai/relayline/internal/index"
	"github.com/relayline-ai/relayline/internal/pagination"
	"github.com/stretchr/testify/mock"
)

type mockKnowledgeRepo struct {
	mock.Mock
}

func (m *mockKnowledgeRepo) Upsert(ctx context.Context, k *domain.KnowledgeItem) error {
	return m.Called(ctx, k).Error(0)
}

func (m *mockKnowledgeRepo) GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

func (m *mockKnowledgeRepo) GetByQuestionFold(ctx context.Context, question string) (*domain.KnowledgeItem, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KnowledgeItem), args.Error(1)
}

func (m *mockKnowledgeRepo) ListAll(ctx context.Context) ([]*domain.KnowledgeItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.KnowledgeItem), args.Error(1)
}

func (m *mockKnowledgeRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockKnowledgeRepo) UpdateEmbedding(ctx context.Context, id string, embedding []float32) error {
	return m.Called(ctx, id, embedding).Error(0)
}

func (m *mockKnowledgeRepo) ListEmbeddings(ctx context.Context) ([]*EmbeddingRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*EmbeddingRecord), args.Error(1)
}

func (m *mockKnowledgeRepo) ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*KnowledgePageResult, error) {
	args := m.Called(ctx, cursor, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*KnowledgePageResult), args.Error(1)
}

type mockHelpRequestRepo struct {
	mock.Mock
}

func (m *mockHelpRequestRepo) GetByID(ctx context.Context, id int64) (*domain.HelpRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HelpRequest), args.Error(1)
}

func (m *mockHelpRequestRepo) ListPending(ctx context.Context) ([]*domain.HelpRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HelpRequest), args.Error(1)
}

func (m *mockHelpRequestRepo) ListUnresolved(ctx context.Context) ([]*domain.HelpRequest, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HelpRequest), args.Error(1)
}

func (m *mockHelpRequestRepo) ListExpiredPending(ctx context.Context, cutoff time.Time) ([]*domain.HelpRequest, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HelpRequest), args.Error(1)
}

func (m *mockHelpRequestRepo) CountByStatus(ctx context.Context) (*RequestCounts, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RequestCounts), args.Error(1)
}

type mockHelpRequestTxRepo struct {
	mock.Mock
}

func (m *mockHelpRequestTxRepo) Create(ctx context.Context, hr *domain.HelpRequest) error {
	return m.Called(ctx, hr).Error(0)
}

func (m *mockHelpRequestTxRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.HelpRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HelpRequest), args.Error(1)
}

func (m *mockHelpRequestTxRepo) MarkResolved(ctx context.Context, id int64, answer string, resolvedAt time.Time) error {
	return m.Called(ctx, id, answer, resolvedAt).Error(0)
}

func (m *mockHelpRequestTxRepo) MarkUnresolved(ctx context.Context, id int64, resolvedAt time.Time) error {
	return m.Called(ctx, id, resolvedAt).Error(0)
}

type mockKnowledgeTxRepo struct {
	mock.Mock
}

func (m *mockKnowledgeTxRepo) Upsert(ctx context.Context, k *domain.KnowledgeItem) error {
	return m.Called(ctx, k).Error(0)
}

type mockCallbackTxRepo struct {
	mock.Mock
}

func (m *mockCallbackTxRepo) Upsert(ctx context.Context, b *domain.CallbackBinding) error {
	return m.Called(ctx, b).Error(0)
}

// fakeTxRunner executes the callback directly against mock repositories,
// standing in for a real transaction.
type fakeTxRunner struct {
	helpRequests *mockHelpRequestTxRepo
	knowledge    *mockKnowledgeTxRepo
	callbacks    *mockCallbackTxRepo
	beginErr     error
}

func (f *fakeTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	if f.beginErr != nil {
		return f.beginErr
	}
	return fn(f)
}

func (f *fakeTxRunner) HelpRequests() HelpRequestTxRepository { return f.helpRequests }
func (f *fakeTxRunner) Knowledge() KnowledgeTxRepository      { return f.knowledge }
func (f *fakeTxRunner) Callbacks() CallbackTxRepository       { return f.callbacks }

type mockEmbedder struct {
	mock.Mock
}

func (m *mockEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) Search(query []float32, k int) ([]index.Match, error) {
	args := m.Called(query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]index.Match), args.Error(1)
}

type mockIndexer struct {
	mock.Mock
}

func (m *mockIndexer) Rebuild(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// fakeCallbacks signals each delivery on a channel.
type fakeCallbacks struct {
	deliverErr error
	delivered  chan deliveredMsg
}

type deliveredMsg struct {
	requestID int64
	status    domain.HelpRequestStatus
	answer    string
}

func newFakeCallbacks() *fakeCallbacks {
	return &fakeCallbacks{delivered: make(chan deliveredMsg, 8)}
}

func (f *fakeCallbacks) Deliver(_ context.Context, requestID int64, status domain.HelpRequestStatus, answer string) error {
	f.delivered <- deliveredMsg{requestID: requestID, status: status, answer: answer}
	return f.deliverErr
}

// fakeWebhooks signals each send on a channel.
type fakeWebhooks struct {
	sent    chan sentWebhook
	sendErr error
}

type sentWebhook struct {
	url       string
	requestID int64
	status    domain.HelpRequestStatus
	answer    string
}

func newFakeWebhooks() *fakeWebhooks {
	return &fakeWebhooks{sent: make(chan sentWebhook, 8)}
}

func (f *fakeWebhooks) Send(_ context.Context, baseURL string, requestID int64, status domain.HelpRequestStatus, answer string) error {
	f.sent <- sentWebhook{url: baseURL, requestID: requestID, status: status, answer: answer}
	return f.sendErr
}

type stubUUID struct {
	id string
}

func (s stubUUID) NewUUID() string { return s.id }
