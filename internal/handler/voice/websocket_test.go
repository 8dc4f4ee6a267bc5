package voice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Danish137/Digital-twin/internal/model/chat"
	"github.com/Danish137/Digital-twin/internal/service/conversation"
	turnsvc "github.com/Danish137/Digital-twin/internal/service/turn"
)

func setupWebSocket(t *testing.T, turns TurnService) (*websocket.Conn, *conversation.Service, string) {
	t.Helper()

	conversations := conversation.NewService("system prompt")
	session, err := conversations.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	r := chi.NewRouter()
	NewWebSocketHandler(turns, conversations).RegisterRoutes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/voice/ws/" + session.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn, conversations, session.ID
}

func readEvent(t *testing.T, conn *websocket.Conn) outgoingMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg outgoingMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read event err: %v", err)
	}
	return msg
}

func sendAudio(t *testing.T, conn *websocket.Conn, audio []byte, format string, isFinal bool) {
	t.Helper()
	payload := map[string]any{
		"type": "audio",
		"data": audioMessage{AudioData: audio, Format: format, IsFinal: isFinal},
	}
	if err := conn.WriteJSON(payload); err != nil {
		t.Fatalf("write audio err: %v", err)
	}
}

func TestWebSocketTurn(t *testing.T) {
	fake := &fakeTurnService{result: &turnsvc.Result{
		Transcript:  "hello",
		Reply:       "hi there",
		Audio:       []byte("mp3"),
		AudioFormat: "mp3",
	}}
	conn, _, _ := setupWebSocket(t, fake)

	if msg := readEvent(t, conn); msg.Type != "connected" {
		t.Fatalf("expected connected event, got %q", msg.Type)
	}

	sendAudio(t, conn, []byte("chunk-one"), "webm", false)
	if msg := readEvent(t, conn); msg.Type != "state" {
		t.Fatalf("expected state event while buffering, got %q", msg.Type)
	}

	sendAudio(t, conn, []byte("chunk-two"), "webm", true)

	var types []string
	for len(types) < 4 {
		msg := readEvent(t, conn)
		types = append(types, msg.Type)
	}

	want := []string{"state", "transcript", "reply", "audio"}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("event %d: got %q want %q (all: %v)", i, types[i], want[i], types)
		}
	}

	if fake.gotFormat != "webm" {
		t.Fatalf("unexpected format: %q", fake.gotFormat)
	}
	if string(fake.gotAudio) != "chunk-onechunk-two" {
		t.Fatalf("chunks must be concatenated, got %q", fake.gotAudio)
	}
}

func TestWebSocketSilence(t *testing.T) {
	fake := &fakeTurnService{err: turnsvc.ErrNoSpeech}
	conn, _, _ := setupWebSocket(t, fake)

	if msg := readEvent(t, conn); msg.Type != "connected" {
		t.Fatalf("expected connected event, got %q", msg.Type)
	}

	sendAudio(t, conn, []byte("quiet"), "wav", true)

	// Buffering state event, then the silence outcome.
	if msg := readEvent(t, conn); msg.Type != "state" {
		t.Fatalf("expected state event, got %q", msg.Type)
	}
	if msg := readEvent(t, conn); msg.Type != "silence" {
		t.Fatalf("expected silence event, got %q", msg.Type)
	}
}

func TestWebSocketStageError(t *testing.T) {
	fake := &fakeTurnService{err: &turnsvc.StageError{Stage: turnsvc.StageChat, Err: context.DeadlineExceeded}}
	conn, _, _ := setupWebSocket(t, fake)

	if msg := readEvent(t, conn); msg.Type != "connected" {
		t.Fatalf("expected connected event, got %q", msg.Type)
	}

	sendAudio(t, conn, []byte("audio"), "wav", true)

	if msg := readEvent(t, conn); msg.Type != "state" {
		t.Fatalf("expected state event, got %q", msg.Type)
	}

	msg := readEvent(t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error event, got %q", msg.Type)
	}

	raw, _ := json.Marshal(msg.Data)
	var data map[string]string
	_ = json.Unmarshal(raw, &data)
	if data["message"] != "thinking failed" {
		t.Fatalf("expected the user-facing message, got %+v", data)
	}
}

func TestWebSocketReset(t *testing.T) {
	fake := &fakeTurnService{}
	conn, conversations, sessionID := setupWebSocket(t, fake)

	if msg := readEvent(t, conn); msg.Type != "connected" {
		t.Fatalf("expected connected event, got %q", msg.Type)
	}

	if err := conversations.Append(context.Background(), sessionID, chat.Turn{Role: chat.RoleUser, Text: "hello"}); err != nil {
		t.Fatalf("Append err: %v", err)
	}

	if err := conn.WriteJSON(map[string]string{"type": "reset"}); err != nil {
		t.Fatalf("write reset err: %v", err)
	}

	if msg := readEvent(t, conn); msg.Type != "reset" {
		t.Fatalf("expected reset event, got %q", msg.Type)
	}

	turns, err := conversations.History(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected only the system turn after reset, got %d", len(turns))
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	conversations := conversation.NewService("system prompt")
	r := chi.NewRouter()
	NewWebSocketHandler(&fakeTurnService{}, conversations).RegisterRoutes(r)

	server := httptest.NewServer(r)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/voice/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected the handshake to fail for an unknown session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 handshake, got %+v", resp)
	}
}
