package voice

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Danish137/Digital-twin/internal/service/conversation"
	turnsvc "github.com/Danish137/Digital-twin/internal/service/turn"
	"github.com/Danish137/Digital-twin/pkg/utils"
)

// maxUploadBytes caps a single recorded utterance.
const maxUploadBytes = 32 << 20

// TurnService abstracts the turn pipeline so handler tests can use fakes.
type TurnService interface {
	HandleTurn(ctx context.Context, sessionID string, audio []byte, format string, opts ...turnsvc.Option) (*turnsvc.Result, error)
}

// Handler runs voice turns over HTTP.
type Handler struct {
	turns TurnService
}

// New creates the voice handler.
func New(turns TurnService) *Handler {
	return &Handler{turns: turns}
}

// RegisterRoutes registers the voice turn routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session/{sessionID}/turn", h.handleTurn)
}

// handleTurn accepts a multipart audio upload and runs one conversation turn.
func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		utils.RespondError(w, http.StatusBadRequest, "sessionID is required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}

	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio upload")
		return
	}

	result, err := h.turns.HandleTurn(r.Context(), sessionID, audio, inferAudioFormat(header.Filename))
	if err != nil {
		h.respondTurnError(w, sessionID, err)
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) respondTurnError(w http.ResponseWriter, sessionID string, err error) {
	if errors.Is(err, turnsvc.ErrNoSpeech) {
		// Silence is a no-op turn, not a failure.
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"sessionId": sessionID,
			"event":     "silence",
		})
		return
	}

	if errors.Is(err, conversation.ErrSessionNotFound) {
		utils.RespondError(w, http.StatusNotFound, "session not found")
		return
	}

	var stageErr *turnsvc.StageError
	if errors.As(err, &stageErr) {
		log.Printf("[voice] %s stage failed for session=%s: %v", stageErr.Stage, sessionID, stageErr.Err)
		utils.RespondJSON(w, http.StatusBadGateway, map[string]string{
			"error": stageErr.Stage.UserMessage(),
			"stage": string(stageErr.Stage),
		})
		return
	}

	log.Printf("[voice] turn failed for session=%s: %v", sessionID, err)
	utils.RespondError(w, http.StatusInternalServerError, "turn failed")
}

// inferAudioFormat maps the uploaded filename to a container extension.
func inferAudioFormat(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".mp3":
		return "mp3"
	case ".wav":
		return "wav"
	case ".webm":
		return "webm"
	case ".m4a":
		return "m4a"
	case ".ogg":
		return "ogg"
	default:
		return "wav"
	}
}
