package agent

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/relayline-ai/relayline/internal/api"
	"github.com/relayline-ai/relayline/internal/domain"
)

// AnswerSink pushes a resolved answer into the session bound to a request.
type AnswerSink interface {
	Deliver(ctx context.Context, requestID int64, status domain.HelpRequestStatus, answer string) error
}

// Gateway is the agent-side receiver for supervisor webhooks. It terminates
// POST /hooks/{id} and forwards the answer into the live caller session.
type Gateway struct {
	sink   AnswerSink
	logger *log.Logger
}

func NewGateway(sink AnswerSink, logger *log.Logger) *Gateway {
	return &Gateway{sink: sink, logger: logger}
}

// Routes returns the hook router, mountable under any prefix.
func (g *Gateway) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/hooks/{id}", g.handleHook)
	return r
}

type hookBody struct {
	RequestID int64  `json:"request_id"`
	Status    string `json:"status"`
	Answer    string `json:"answer"`
}

func (g *Gateway) handleHook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var body hookBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.RequestID != 0 && body.RequestID != id {
		api.WriteError(w, http.StatusBadRequest, "request id in body does not match path")
		return
	}

	status := domain.HelpRequestStatus(body.Status)
	if status == "" {
		status = domain.StatusResolved
	}
	if status == domain.StatusResolved && body.Answer == "" {
		api.WriteError(w, http.StatusBadRequest, "resolved hook requires an answer")
		return
	}

	if err := g.sink.Deliver(r.Context(), id, status, body.Answer); err != nil {
		api.HandleError(w, g.logger, err)
		return
	}

	g.logger.Printf("hook delivered answer for request %d", id)
	api.WriteSuccess(w, http.StatusOK, nil)
}
