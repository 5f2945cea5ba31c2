package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/relayline-ai/relayline/internal/api"
	"github.com/relayline-ai/relayline/internal/domain"
	"github.com/relayline-ai/relayline/internal/service"
)

// HelpRequestServiceAPI is what the handler needs from the service layer.
type HelpRequestServiceAPI interface {
	Create(ctx context.Context, in service.CreateHelpRequestInput) (*domain.HelpRequest, error)
	Get(ctx context.Context, id int64) (*domain.HelpRequest, error)
	ListPending(ctx context.Context) ([]*domain.HelpRequest, error)
	ListUnresolved(ctx context.Context) ([]*domain.HelpRequest, error)
	Resolve(ctx context.Context, id int64, answer string) (*domain.HelpRequest, error)
	MarkUnresolved(ctx context.Context, id int64) (*domain.HelpRequest, error)
	Counts(ctx context.Context) (*service.RequestCounts, error)
}

// KnowledgeCounter supplies the knowledge total for the stats endpoint.
type KnowledgeCounter interface {
	Count(ctx context.Context) (int, error)
}

type HelpRequestHandler struct {
	requests  HelpRequestServiceAPI
	knowledge KnowledgeCounter
	logger    *log.Logger
}

func NewHelpRequestHandler(requests HelpRequestServiceAPI, knowledge KnowledgeCounter, logger *log.Logger) *HelpRequestHandler {
	return &HelpRequestHandler{
		requests:  requests,
		knowledge: knowledge,
		logger:    logger,
	}
}

type helpRequestResponse struct {
	ID         int64      `json:"id"`
	CustomerID string     `json:"customer_id"`
	Question   string     `json:"question"`
	Status     string     `json:"status"`
	Answer     *string    `json:"answer"`
	CreatedAt  time.Time  `json:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at"`
}

func toHelpRequestResponse(hr *domain.HelpRequest) helpRequestResponse {
	resp := helpRequestResponse{
		ID:         hr.ID,
		CustomerID: hr.CustomerID,
		Question:   hr.Question,
		Status:     string(hr.Status),
		CreatedAt:  hr.CreatedAt,
		ResolvedAt: hr.ResolvedAt,
	}
	if hr.Answer != "" {
		resp.Answer = &hr.Answer
	}
	return resp
}

type syncRequestBody struct {
	CustomerID   string     `json:"customer_id"`
	Question     string     `json:"question"`
	WebhookURL   string     `json:"webhook_url"`
	SessionToken string     `json:"session_token"`
	CreatedAt    *time.Time `json:"created_at"`
}

// SyncRequest handles POST /api/sync-request: the agent escalating a
// question it could not answer. created_at is the moment the agent raised
// the request, which can predate the sync call; the timeout clock runs from
// it.
func (h *HelpRequestHandler) SyncRequest(w http.ResponseWriter, r *http.Request) {
	var body syncRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in := service.CreateHelpRequestInput{
		CustomerID:   body.CustomerID,
		Question:     body.Question,
		WebhookURL:   body.WebhookURL,
		SessionToken: body.SessionToken,
	}
	if body.CreatedAt != nil {
		in.CreatedAt = *body.CreatedAt
	}

	hr, err := h.requests.Create(r.Context(), in)
	if err != nil {
		api.HandleError(w, h.logger, err)
		return
	}

	api.WriteSuccess(w, http.StatusCreated, map[string]any{"id": hr.ID})
}

// CheckRequest handles GET /api/check-request/{id}: the agent polling for
// an outcome.
func (h *HelpRequestHandler) CheckRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	hr, err := h.requests.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, h.logger, err)
		return
	}

	var answer *string
	if hr.Answer != "" {
		answer = &hr.Answer
	}
	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"id":     hr.ID,
		"status": string(hr.Status),
		"answer": answer,
	})
}

// Get handles GET /api/requests/{id}.
func (h *HelpRequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	hr, err := h.requests.Get(r.Context(), id)
	if err != nil {
		api.HandleError(w, h.logger, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, map[string]any{"request": toHelpRequestResponse(hr)})
}

// ListPending handles GET /api/requests/pending.
func (h *HelpRequestHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.requests.ListPending)
}

// ListUnresolved handles GET /api/requests/unresolved.
func (h *HelpRequestHandler) ListUnresolved(w http.ResponseWriter, r *http.Request) {
	h.writeList(w, r, h.requests.ListUnresolved)
}

type resolveBody struct {
	Answer string `json:"answer"`
}

// Resolve handles POST /api/requests/{id}/resolve.
func (h *HelpRequestHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	var body resolveBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	hr, err := h.requests.Resolve(r.Context(), id, body.Answer)
	if err != nil {
		api.HandleError(w, h.logger, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, map[string]any{"request": toHelpRequestResponse(hr)})
}

// MarkUnresolved handles POST /api/requests/{id}/unresolved.
func (h *HelpRequestHandler) MarkUnresolved(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}

	hr, err := h.requests.MarkUnresolved(r.Context(), id)
	if err != nil {
		api.HandleError(w, h.logger, err)
		return
	}
	api.WriteSuccess(w, http.StatusOK, map[string]any{"request": toHelpRequestResponse(hr)})
}

// Stats handles GET /api/stats: the dashboard counters.
func (h *HelpRequestHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.requests.Counts(r.Context())
	if err != nil {
		api.HandleError(w, h.logger, err)
		return
	}
	knowledge, err := h.knowledge.Count(r.Context())
	if err != nil {
		api.HandleError(w, h.logger, err)
		return
	}

	api.WriteSuccess(w, http.StatusOK, map[string]any{
		"pending":    counts.Pending,
		"resolved":   counts.Resolved,
		"unresolved": counts.Unresolved,
		"knowledge":  knowledge,
	})
}

func (h *HelpRequestHandler) writeList(
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context) ([]*domain.HelpRequest, error),
) {
	requests, err := list(r.Context())
	if err != nil {
		api.HandleError(w, h.logger, err)
		return
	}

	out := make([]helpRequestResponse, 0, len(requests))
	for _, hr := range requests {
		out = append(out, toHelpRequestResponse(hr))
	}
	api.WriteSuccess(w, http.StatusOK, map[string]any{"requests": out})
}

func (h *HelpRequestHandler) requestID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request id")
		return 0, false
	}
	return id, true
}
