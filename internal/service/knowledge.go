package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/relayline-ai/relayline/internal/openai"
	"github.com/relayline-ai/relayline/internal/pagination"
	"github.com/relayline-ai/relayline/internal/telemetry"
)

// KnowledgeService owns writes to the knowledge base. Every successful write
// re-embeds and rebuilds the vector index before returning, so queries never
// run against an index that is missing the item just written.
type KnowledgeService struct {
	repo     KnowledgeRepositoryAPI
	embedder openai.EmbeddingAPI
	indexer  IndexRebuilder
	uuidGen  UUIDGenerator
	logger   *log.Logger
}

func NewKnowledgeService(
	repo KnowledgeRepositoryAPI,
	embedder openai.EmbeddingAPI,
	indexer IndexRebuilder,
	uuidGen UUIDGenerator,
	logger *log.Logger,
) *KnowledgeService {
	return &KnowledgeService{
		repo:     repo,
		embedder: embedder,
		indexer:  indexer,
		uuidGen:  uuidGen,
		logger:   logger,
	}
}

// Upsert stores a question/answer pair, keyed on the question. The embedding
// is cached best-effort; the index rebuild picks up any item the cache write
// missed.
func (s *KnowledgeService) Upsert(ctx context.Context, question, answer string) (*domain.KnowledgeItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.knowledge.upsert", &telemetry.SpanAttributes{
		Question: question,
	})
	defer span.Finish()

	now := time.Now().UTC()
	item := &domain.KnowledgeItem{
		ID:        s.uuidGen.NewUUID(),
		Question:  strings.TrimSpace(question),
		Answer:    strings.TrimSpace(answer),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := domain.ValidateKnowledgeItem(item); err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, item); err != nil {
		return nil, err
	}

	s.cacheEmbedding(ctx, item)
	s.rebuildIndex(ctx)
	return item, nil
}

func (s *KnowledgeService) Get(ctx context.Context, id string) (*domain.KnowledgeItem, error) {
	return s.repo.GetByID(ctx, id)
}

// List returns one page of knowledge items, newest first.
func (s *KnowledgeService) List(ctx context.Context, cursorToken string, limit int) (*KnowledgePageResult, error) {
	cursor, err := pagination.DecodeCursor(cursorToken)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid cursor", err)
	}
	return s.repo.ListWithCursor(ctx, cursor, limit)
}

func (s *KnowledgeService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *KnowledgeService) cacheEmbedding(ctx context.Context, item *domain.KnowledgeItem) {
	if s.embedder == nil {
		return
	}
	embedding, err := s.embedder.CreateEmbedding(ctx, item.Question)
	if err != nil {
		s.logger.Printf("embedding cache miss for item %s: %v", item.ID, err)
		return
	}
	if err := s.repo.UpdateEmbedding(ctx, item.ID, embedding); err != nil {
		s.logger.Printf("failed to cache embedding for item %s: %v", item.ID, err)
	}
}

// rebuildIndex runs synchronously; on failure the previous index keeps
// serving and the error goes to telemetry instead of the caller.
func (s *KnowledgeService) rebuildIndex(ctx context.Context) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Rebuild(ctx); err != nil {
		s.logger.Printf("index rebuild after knowledge write failed: %v", err)
		telemetry.CaptureError(err, map[string]string{"operation": "knowledge_rebuild"})
	}
}
