package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Danish137/Digital-twin/internal/service/conversation"
	turnsvc "github.com/Danish137/Digital-twin/internal/service/turn"
)

// WebSocketHandler runs live voice turns over a persistent connection: the
// browser streams recorded chunks, the server answers with state transitions,
// the transcript, the reply text and the synthesized audio.
type WebSocketHandler struct {
	turns         TurnService
	conversations *conversation.Service
	upgrader      websocket.Upgrader
}

// NewWebSocketHandler creates the websocket voice handler.
func NewWebSocketHandler(turns TurnService, conversations *conversation.Service) *WebSocketHandler {
	return &WebSocketHandler{
		turns:         turns,
		conversations: conversations,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the websocket route.
func (h *WebSocketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/voice/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// audioMessage carries one recorded chunk; AudioData is base64 on the wire.
type audioMessage struct {
	AudioData []byte `json:"audioData"`
	Format    string `json:"format"`
	IsFinal   bool   `json:"isFinal"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

type connectionState struct {
	sessionID   string
	audioFormat string
	buffer      bytes.Buffer
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	if _, err := h.conversations.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[websocket] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.pingLoop(ctx, conn)

	state := &connectionState{sessionID: sessionID}

	h.sendEvent(conn, sessionID, "connected", map[string]any{
		"phase": string(turnsvc.PhaseIdle),
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("[websocket] read error: %v", err)
				}
				return
			}

			conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			h.handleMessage(ctx, conn, state, &msg)
		}
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, msg *inboundMessage) {
	switch msg.Type {
	case "audio":
		h.handleAudioMessage(ctx, conn, state, msg.Data)
	case "reset":
		h.handleResetMessage(ctx, conn, state)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) handleAudioMessage(ctx context.Context, conn *websocket.Conn, state *connectionState, raw json.RawMessage) {
	var audio audioMessage
	if err := json.Unmarshal(raw, &audio); err != nil {
		h.sendError(conn, "invalid audio payload")
		return
	}

	if len(audio.AudioData) > 0 {
		state.buffer.Write(audio.AudioData)
		h.sendEvent(conn, state.sessionID, "state", map[string]any{
			"phase": string(turnsvc.PhaseListening),
		})
	}
	if audio.Format != "" {
		state.audioFormat = audio.Format
	}

	if audio.IsFinal {
		h.runTurn(ctx, conn, state)
	}
}

func (h *WebSocketHandler) runTurn(ctx context.Context, conn *websocket.Conn, state *connectionState) {
	audioBytes := make([]byte, state.buffer.Len())
	copy(audioBytes, state.buffer.Bytes())
	state.buffer.Reset()

	if len(audioBytes) == 0 {
		return
	}

	format := state.audioFormat
	if format == "" {
		format = "wav"
	}

	log.Printf("[websocket] processing turn session=%s format=%s bytes=%d", state.sessionID, format, len(audioBytes))

	observer := turnsvc.WithPhaseObserver(func(phase turnsvc.Phase) {
		h.sendEvent(conn, state.sessionID, "state", map[string]any{
			"phase": string(phase),
		})
	})

	result, err := h.turns.HandleTurn(ctx, state.sessionID, audioBytes, format, observer)
	if err != nil {
		h.respondTurnError(conn, state.sessionID, err)
		return
	}

	h.sendEvent(conn, state.sessionID, "transcript", map[string]any{
		"text": result.Transcript,
	})
	h.sendEvent(conn, state.sessionID, "reply", map[string]any{
		"text":    result.Reply,
		"warning": result.Warning,
	})

	if len(result.Audio) > 0 {
		// []byte marshals as base64, same as the inbound chunks.
		h.sendEvent(conn, state.sessionID, "audio", map[string]any{
			"audioData": result.Audio,
			"format":    result.AudioFormat,
		})
	}
}

func (h *WebSocketHandler) respondTurnError(conn *websocket.Conn, sessionID string, err error) {
	if errors.Is(err, turnsvc.ErrNoSpeech) {
		h.sendEvent(conn, sessionID, "silence", nil)
		return
	}

	var stageErr *turnsvc.StageError
	if errors.As(err, &stageErr) {
		log.Printf("[websocket] %s stage failed for session=%s: %v", stageErr.Stage, sessionID, stageErr.Err)
		h.sendError(conn, stageErr.Stage.UserMessage())
		return
	}

	log.Printf("[websocket] turn failed for session=%s: %v", sessionID, err)
	h.sendError(conn, "turn failed")
}

func (h *WebSocketHandler) handleResetMessage(ctx context.Context, conn *websocket.Conn, state *connectionState) {
	state.buffer.Reset()

	if err := h.conversations.Reset(ctx, state.sessionID); err != nil {
		h.sendError(conn, "reset failed")
		return
	}

	h.sendEvent(conn, state.sessionID, "reset", nil)
}

func (h *WebSocketHandler) sendEvent(conn *websocket.Conn, sessionID, eventType string, data interface{}) {
	msg := outgoingMessage{
		Type:      eventType,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write failed: %v", err)
	}
}

func (h *WebSocketHandler) sendError(conn *websocket.Conn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write error failed: %v", err)
	}
}

func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
