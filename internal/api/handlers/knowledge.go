package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/relayline-ai/relayline/internal/api"
	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/relayline-ai/relayline/internal/service"
)

type QueryServiceAPI interface {
	Query(ctx context.Context, question string) (*service.QueryResult, error)
}

type KnowledgeServiceAPI interface {
	List(ctx context.Context, cursorToken string, limit int) (*service.KnowledgePageResult, error)
}

type BusinessInfoServiceAPI interface {
	List(ctx context.Context) ([]*domain.BusinessInfo, error)
	Profile(ctx context.Context) (string, error)
}

type KnowledgeHandler struct {
	queries   QueryServiceAPI
	knowledge KnowledgeServiceAPI
	business  BusinessInfoServiceAPI
	logger    *log.Logger
}

func NewKnowledgeHandler(
	queries QueryServiceAPI,
	knowledge KnowledgeServiceAPI,
	business BusinessInfoServiceAPI,
	logger *log.Logger,
) *KnowledgeHandler {
	return &KnowledgeHandler{
		queries:   queries,
		knowledge: knowledge,
		business:  business,
		logger:    logger,
	}
}

type queryBody struct {
	Question string `json:"question"`
}

// Query handles POST /api/knowledge/query: the hybrid lookup the agent runs
// before deciding to escalate.
func (h *KnowledgeHandler) Query(w http.ResponseWriter, r *http.Request) {
	var body queryBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.queries.Query(r.Context(), body.Question)
	if err != nil {
		api.HandleError(w, h.logger, err)
		return
	}

	if !result.Found {
		api.WriteSuccess(w, http.StatusOK, map[string]any{
			"found":      false,
			"message":    "no answer found in the knowledge base",
			"best_score": result.BestScore,
			"degraded":   result.Degraded,
		})
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"found":      true,
		"id":         result.Item.ID,
		"question":   result.Item.Question,
		"answer":     result.Item.Answer,
		"score":      result.Score,
		"match_type": result.MatchType,
		"degraded":   result.Degraded,
	})
}

type knowledgeItemResponse struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toKnowledgeItemResponse(k *domain.KnowledgeItem) knowledgeItemResponse {
	return knowledgeItemResponse{
		ID:        k.ID,
		Question:  k.Question,
		Answer:    k.Answer,
		CreatedAt: k.CreatedAt,
		UpdatedAt: k.UpdatedAt,
	}
}

// List handles GET /api/knowledge?cursor=&limit=.
func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			api.WriteError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	page, err := h.knowledge.List(r.Context(), r.URL.Query().Get("cursor"), limit)
	if err != nil {
		api.HandleError(w, h.logger, err)
		return
	}

	items := make([]knowledgeItemResponse, 0, len(page.Items))
	for _, k := range page.Items {
		items = append(items, toKnowledgeItemResponse(k))
	}
	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"items":       items,
		"next_cursor": page.NextCursor,
		"has_more":    page.HasMore,
	})
}

// BusinessInfo handles GET /api/business-info.
func (h *KnowledgeHandler) BusinessInfo(w http.ResponseWriter, r *http.Request) {
	entries, err := h.business.List(r.Context())
	if err != nil {
		api.HandleError(w, h.logger, err)
		return
	}
	profile, err := h.business.Profile(r.Context())
	if err != nil {
		api.HandleError(w, h.logger, err)
		return
	}

	info := make(map[string]string, len(entries))
	for _, e := range entries {
		info[e.Key] = e.Value
	}
	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"info":    info,
		"profile": profile,
	})
}
