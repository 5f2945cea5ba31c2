package server

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/relayline-ai/relayline/internal/agent"
	"github.com/relayline-ai/relayline/internal/api"
	"github.com/relayline-ai/relayline/internal/api/handlers"
	"github.com/relayline-ai/relayline/internal/api/middleware"
)

const maxBodyBytes = 1 << 20

// RouterConfig wires handlers into the HTTP surface.
type RouterConfig struct {
	HelpRequests *handlers.HelpRequestHandler
	Knowledge    *handlers.KnowledgeHandler

	// Gateway is mounted under /agent when the process also hosts the
	// agent-side hook receiver.
	Gateway *agent.Gateway

	// APIToken guards /api routes; empty disables auth.
	APIToken string

	Logger *log.Logger
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.Sentry())
	r.Use(middleware.MaxBody(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		api.WriteSuccess(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.APIToken))

		// Agent-facing surface.
		r.Post("/sync-request", cfg.HelpRequests.SyncRequest)
		r.Get("/check-request/{id}", cfg.HelpRequests.CheckRequest)
		r.Post("/knowledge/query", cfg.Knowledge.Query)
		r.Get("/business-info", cfg.Knowledge.BusinessInfo)

		// Operator-facing surface.
		r.Route("/requests", func(r chi.Router) {
			r.Get("/pending", cfg.HelpRequests.ListPending)
			r.Get("/unresolved", cfg.HelpRequests.ListUnresolved)
			r.Get("/{id}", cfg.HelpRequests.Get)
			r.Post("/{id}/resolve", cfg.HelpRequests.Resolve)
			r.Post("/{id}/unresolved", cfg.HelpRequests.MarkUnresolved)
		})
		r.Get("/knowledge", cfg.Knowledge.List)
		r.Get("/stats", cfg.HelpRequests.Stats)
	})

	if cfg.Gateway != nil {
		r.Mount("/agent", cfg.Gateway.Routes())
	}

	return r
}
