package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/relayline-ai/relayline/internal/pagination"
)

// EmbeddingRecord pairs a knowledge item with its cached embedding vector.
// Embedding is nil for items that have not been embedded yet.
type EmbeddingRecord struct {
	ID        string
	Question  string
	Embedding []float32
}

// KnowledgePageResult is one page of a cursor-paginated knowledge listing.
type KnowledgePageResult struct {
	Items      []*domain.KnowledgeItem
	NextCursor string
	HasMore    bool
}

// RequestCounts are the dashboard counters for help requests.
type RequestCounts struct {
	Pending    int
	Resolved   int
	Unresolved int
	Total      int
}

type KnowledgeRepositoryAPI interface {
	Upsert(ctx context.Context, k *domain.KnowledgeItem) error
	GetByID(ctx context.Context, id string) (*domain.KnowledgeItem, error)
	GetByQuestionFold(ctx context.Context, question string) (*domain.KnowledgeItem, error)
	ListAll(ctx context.Context) ([]*domain.KnowledgeItem, error)
	Count(ctx context.Context) (int, error)
	UpdateEmbedding(ctx context.Context, id string, embedding []float32) error
	ListEmbeddings(ctx context.Context) ([]*EmbeddingRecord, error)
	ListWithCursor(ctx context.Context, cursor *pagination.Cursor, limit int) (*KnowledgePageResult, error)
}

type HelpRequestRepositoryAPI interface {
	GetByID(ctx context.Context, id int64) (*domain.HelpRequest, error)
	ListPending(ctx context.Context) ([]*domain.HelpRequest, error)
	ListUnresolved(ctx context.Context) ([]*domain.HelpRequest, error)
	ListExpiredPending(ctx context.Context, cutoff time.Time) ([]*domain.HelpRequest, error)
	CountByStatus(ctx context.Context) (*RequestCounts, error)
}

type BusinessInfoRepositoryAPI interface {
	Upsert(ctx context.Context, key, value string) error
	ListAll(ctx context.Context) ([]*domain.BusinessInfo, error)
}

// HelpRequestTxRepository is the transaction-bound slice of the help request
// repository used by creation and state transitions.
type HelpRequestTxRepository interface {
	Create(ctx context.Context, hr *domain.HelpRequest) error
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.HelpRequest, error)
	MarkResolved(ctx context.Context, id int64, answer string, resolvedAt time.Time) error
	MarkUnresolved(ctx context.Context, id int64, resolvedAt time.Time) error
}

type KnowledgeTxRepository interface {
	Upsert(ctx context.Context, k *domain.KnowledgeItem) error
}

type CallbackTxRepository interface {
	Upsert(ctx context.Context, b *domain.CallbackBinding) error
}

// TxRepositories hands out repositories bound to one transaction.
type TxRepositories interface {
	HelpRequests() HelpRequestTxRepository
	Knowledge() KnowledgeTxRepository
	Callbacks() CallbackTxRepository
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// CallbackRegistry pushes answers back into the live agent sessions bound to
// help requests. Bindings are written transactionally with the request row.
type CallbackRegistry interface {
	Deliver(ctx context.Context, requestID int64, status domain.HelpRequestStatus, answer string) error
}

// WebhookSender delivers resolution notifications to external endpoints.
type WebhookSender interface {
	Send(ctx context.Context, baseURL string, requestID int64, status domain.HelpRequestStatus, answer string) error
}

// IndexRebuilder is the slice of the index service knowledge writes depend on.
type IndexRebuilder interface {
	Rebuild(ctx context.Context) error
}

// UUIDGenerator abstracts id generation for deterministic tests.
type UUIDGenerator interface {
	NewUUID() string
}

type RandomUUIDGenerator struct{}

func (RandomUUIDGenerator) NewUUID() string {
	return uuid.NewString()
}
