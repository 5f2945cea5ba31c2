package service

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"unicode"

	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/relayline-ai/relayline/internal/index"
	"github.com/relayline-ai/relayline/internal/openai"
	"github.com/relayline-ai/relayline/internal/telemetry"
)

// Match type labels on query results.
const (
	MatchExact    = "exact"
	MatchKeyword  = "keyword"
	MatchSemantic = "semantic"
)

// SemanticSearcher is the slice of the index service the query engine uses.
type SemanticSearcher interface {
	Search(query []float32, k int) ([]index.Match, error)
}

// QueryOptions are the matching thresholds, all in [0,1].
type QueryOptions struct {
	TopK              int
	SemanticThreshold float64
	KeywordThreshold  float64
	FinalThreshold    float64
}

// QueryResult is the outcome of one hybrid lookup. When Found is false,
// BestScore carries the highest score any candidate reached (zero when there
// were none) so callers can judge how close the miss was. Degraded means the
// semantic tier was skipped because the embedding provider or index was
// unavailable.
type QueryResult struct {
	Found     bool
	Item      *domain.KnowledgeItem
	Score     float64
	MatchType string
	BestScore float64
	Degraded  bool
}

// QueryService answers questions from the knowledge base with a three-tier
// match: case-insensitive exact lookup, keyword overlap, then semantic
// nearest-neighbor. Candidates from all tiers are merged and the best must
// clear the final threshold to count as an answer.
type QueryService struct {
	repo     KnowledgeRepositoryAPI
	embedder openai.EmbeddingAPI
	searcher SemanticSearcher
	opts     QueryOptions
	logger   *log.Logger
}

func NewQueryService(
	repo KnowledgeRepositoryAPI,
	embedder openai.EmbeddingAPI,
	searcher SemanticSearcher,
	opts QueryOptions,
	logger *log.Logger,
) *QueryService {
	return &QueryService{
		repo:     repo,
		embedder: embedder,
		searcher: searcher,
		opts:     opts,
		logger:   logger,
	}
}

type candidate struct {
	item      *domain.KnowledgeItem
	score     float64
	matchType string
}

func (s *QueryService) Query(ctx context.Context, question string) (*QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}

	ctx, span := telemetry.StartSpan(ctx, "service.query.hybrid", &telemetry.SpanAttributes{
		Question: question,
	})
	defer span.Finish()

	candidates := make(map[string]*candidate)

	// Tier 1: exact match, case-insensitive, always score 1.0.
	exact, err := s.repo.GetByQuestionFold(ctx, question)
	if err != nil && !errors.Is(err, domain.ErrKnowledgeItemNotFound) {
		return nil, err
	}
	if exact != nil {
		candidates[exact.ID] = &candidate{item: exact, score: 1.0, matchType: MatchExact}
	}

	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.KnowledgeItem, len(items))

	// Tier 2: keyword overlap.
	queryTokens := tokenize(question)
	for _, item := range items {
		byID[item.ID] = item
		score := jaccard(queryTokens, tokenize(item.Question))
		if score >= s.opts.KeywordThreshold {
			mergeCandidate(candidates, &candidate{item: item, score: score, matchType: MatchKeyword})
		}
	}

	// Tier 3: semantic nearest-neighbor. Failures here degrade the query
	// instead of failing it.
	degraded := s.searchSemantic(ctx, question, byID, candidates)

	best := bestCandidate(candidates)
	if best == nil {
		return &QueryResult{Degraded: degraded}, nil
	}
	if best.score < s.opts.FinalThreshold {
		return &QueryResult{BestScore: best.score, Degraded: degraded}, nil
	}
	return &QueryResult{
		Found:     true,
		Item:      best.item,
		Score:     best.score,
		MatchType: best.matchType,
		BestScore: best.score,
		Degraded:  degraded,
	}, nil
}

func (s *QueryService) searchSemantic(
	ctx context.Context,
	question string,
	byID map[string]*domain.KnowledgeItem,
	candidates map[string]*candidate,
) (degraded bool) {
	if s.embedder == nil || s.searcher == nil {
		return true
	}

	embedding, err := s.embedder.CreateEmbedding(ctx, question)
	if err != nil {
		s.logger.Printf("semantic tier skipped, embedding failed: %v", err)
		return true
	}

	matches, err := s.searcher.Search(embedding, s.opts.TopK)
	if err != nil {
		if errors.Is(err, index.ErrIndexEmpty) {
			return false
		}
		s.logger.Printf("semantic tier skipped, index search failed: %v", err)
		return true
	}

	for _, m := range matches {
		if m.Similarity < s.opts.SemanticThreshold {
			continue
		}
		item, ok := byID[m.ID]
		if !ok {
			// Index row with no backing item: stale snapshot. Skip it; the
			// next rebuild reconciles.
			s.logger.Printf("index references unknown item %s", m.ID)
			continue
		}
		mergeCandidate(candidates, &candidate{item: item, score: m.Similarity, matchType: MatchSemantic})
	}
	return false
}

// mergeCandidate resolves collisions when the same item surfaces in more
// than one tier: an exact match always wins, otherwise the higher score does.
func mergeCandidate(candidates map[string]*candidate, c *candidate) {
	existing, ok := candidates[c.item.ID]
	if !ok {
		candidates[c.item.ID] = c
		return
	}
	if existing.matchType == MatchExact {
		return
	}
	if c.matchType == MatchExact || c.score > existing.score {
		candidates[c.item.ID] = c
	}
}

// bestCandidate ranks exact matches above everything else, then by score.
func bestCandidate(candidates map[string]*candidate) *candidate {
	ranked := make([]*candidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		iExact := ranked[i].matchType == MatchExact
		jExact := ranked[j].matchType == MatchExact
		if iExact != jExact {
			return iExact
		}
		return ranked[i].score > ranked[j].score
	})
	if len(ranked) == 0 {
		return nil
	}
	return ranked[0]
}

// tokenize lowercases and splits on every non-alphanumeric rune.
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, field := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[field] = struct{}{}
	}
	return tokens
}

// jaccard is |a∩b| / |a∪b|; two empty sets score 0.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
