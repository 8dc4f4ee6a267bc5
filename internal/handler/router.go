package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	personaHandler "github.com/Danish137/Digital-twin/internal/handler/persona"
	sessionHandler "github.com/Danish137/Digital-twin/internal/handler/session"
	voiceHandler "github.com/Danish137/Digital-twin/internal/handler/voice"
	middlewarePkg "github.com/Danish137/Digital-twin/internal/middleware"
	personaModel "github.com/Danish137/Digital-twin/internal/model/persona"
	"github.com/Danish137/Digital-twin/internal/service/conversation"
	"github.com/Danish137/Digital-twin/pkg/utils"
	"github.com/Danish137/Digital-twin/web"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(personas personaModel.Store, conversations *conversation.Service, turns voiceHandler.TurnService) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Route("/api", func(api chi.Router) {
		personaHandler.New(personas).RegisterRoutes(api)
		sessionHandler.New(conversations).RegisterRoutes(api)

		voice := voiceHandler.New(turns)
		voice.RegisterRoutes(api)

		ws := voiceHandler.NewWebSocketHandler(turns, conversations)
		ws.RegisterRoutes(api)

		api.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		})
	})

	// Everything else is the embedded recorder UI.
	r.Handle("/*", web.Handler())

	return r
}
