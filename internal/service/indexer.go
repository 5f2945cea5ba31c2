package service

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/relayline-ai/relayline/internal/index"
	"github.com/relayline-ai/relayline/internal/openai"
)

// IndexService keeps the vector index in step with the knowledge base. It is
// the only writer of the index store; rebuilds are serialized so concurrent
// knowledge writes cannot interleave partial builds.
type IndexService struct {
	store    *index.Store
	repo     KnowledgeRepositoryAPI
	embedder openai.EmbeddingAPI
	logger   *log.Logger

	mu sync.Mutex
}

func NewIndexService(
	store *index.Store,
	repo KnowledgeRepositoryAPI,
	embedder openai.EmbeddingAPI,
	logger *log.Logger,
) *IndexService {
	return &IndexService{
		store:    store,
		repo:     repo,
		embedder: embedder,
		logger:   logger,
	}
}

// LoadOrBuild restores the persisted snapshot, falling back to a full
// rebuild when none exists, it is corrupt, or its vector count disagrees
// with the knowledge store.
func (s *IndexService) LoadOrBuild(ctx context.Context, force bool) error {
	if force {
		return s.Rebuild(ctx)
	}

	err := s.store.Load(ctx)
	switch {
	case err == nil:
		count, cerr := s.repo.Count(ctx)
		if cerr != nil {
			return cerr
		}
		if count != s.store.Size() {
			s.logger.Printf("index holds %d vectors but store has %d items, rebuilding", s.store.Size(), count)
			return s.Rebuild(ctx)
		}
		return nil
	case errors.Is(err, index.ErrSnapshotNotFound), errors.Is(err, index.ErrSnapshotCorrupt):
		s.logger.Printf("no usable index snapshot (%v), rebuilding", err)
		return s.Rebuild(ctx)
	default:
		return err
	}
}

// Rebuild re-derives the index from every stored item. Cached embeddings are
// reused; items without one are embedded now and the vector written back to
// the cache. Any embedding failure aborts the rebuild and leaves the
// previous index serving.
func (s *IndexService) Rebuild(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.repo.ListEmbeddings(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(records))
	vectors := make([][]float32, 0, len(records))
	for _, rec := range records {
		embedding := rec.Embedding
		if embedding == nil {
			if s.embedder == nil {
				return domain.ErrEmbeddingUnavailable
			}
			embedding, err = s.embedder.CreateEmbedding(ctx, rec.Question)
			if err != nil {
				return domain.NewDomainErrorWithCause(
					domain.ErrCodeDependencyUnavailable,
					"embedding failed during index rebuild", err,
				)
			}
			if uerr := s.repo.UpdateEmbedding(ctx, rec.ID, embedding); uerr != nil {
				s.logger.Printf("failed to cache embedding for item %s: %v", rec.ID, uerr)
			}
		}
		ids = append(ids, rec.ID)
		vectors = append(vectors, embedding)
	}

	return s.store.Swap(ctx, ids, vectors)
}

// Search proxies nearest-neighbor lookups to the live index.
func (s *IndexService) Search(query []float32, k int) ([]index.Match, error) {
	return s.store.Search(query, k)
}

func (s *IndexService) Size() int {
	return s.store.Size()
}
