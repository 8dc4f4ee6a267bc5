package persona

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Danish137/Digital-twin/internal/model/persona"
	"github.com/Danish137/Digital-twin/pkg/utils"
)

// Handler exposes the persona definition to the frontend header.
type Handler struct {
	personas persona.Store
}

// New creates the persona handler.
func New(personas persona.Store) *Handler {
	return &Handler{personas: personas}
}

// RegisterRoutes registers persona routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/persona", h.handleGetPersona)
}

func (h *Handler) handleGetPersona(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.personas.Definition())
}
