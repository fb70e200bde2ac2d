package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	journalHandler "github.com/avelar/jotter/internal/handler/journal"
	sessionHandler "github.com/avelar/jotter/internal/handler/session"
	middlewarePkg "github.com/avelar/jotter/internal/middleware"

	"github.com/avelar/jotter/internal/config"
	conversationService "github.com/avelar/jotter/internal/service/conversation"
	journalService "github.com/avelar/jotter/internal/service/journal"
	"github.com/avelar/jotter/pkg/utils"
)

// NewRouter wires HTTP routes to the journaling services.
func NewRouter(cfg config.JournalConfig, sessions *conversationService.Service, journals *journalService.Service) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		sessionHandler.New(sessions, cfg).RegisterRoutes(api)
		journalHandler.New(journals, sessions).RegisterRoutes(api)

		api.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
	})

	return r
}
