package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/Danish137/Digital-twin/internal/model/chat"
	"github.com/Danish137/Digital-twin/internal/service/conversation"
)

func setupRouter() (*chi.Mux, *conversation.Service) {
	conversations := conversation.NewService("system prompt")
	handler := New(conversations)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, conversations
}

func TestCreateSession(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/session", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.Code)
	}

	var session chat.Session
	if err := json.Unmarshal(resp.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode response err: %v", err)
	}
	if session.ID == "" {
		t.Fatal("expected a session ID in the response")
	}
}

func TestHistory(t *testing.T) {
	r, conversations := setupRouter()
	ctx := context.Background()

	session, err := conversations.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if err := conversations.Append(ctx, session.ID, chat.Turn{Role: chat.RoleUser, Text: "hello"}); err != nil {
		t.Fatalf("Append err: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/session/"+session.ID+"/history", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body struct {
		SessionID string      `json:"sessionId"`
		Turns     []chat.Turn `json:"turns"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response err: %v", err)
	}
	if body.SessionID != session.ID {
		t.Fatalf("unexpected session ID: %q", body.SessionID)
	}
	if len(body.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(body.Turns))
	}
	if body.Turns[0].Role != chat.RoleSystem || body.Turns[1].Text != "hello" {
		t.Fatalf("unexpected turns: %+v", body.Turns)
	}
}

func TestHistoryNotFound(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/session/missing/history", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestReset(t *testing.T) {
	r, conversations := setupRouter()
	ctx := context.Background()

	session, err := conversations.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if err := conversations.Append(ctx, session.ID, chat.Turn{Role: chat.RoleUser, Text: "hello"}); err != nil {
		t.Fatalf("Append err: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/session/"+session.ID+"/reset", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	turns, err := conversations.History(ctx, session.ID)
	if err != nil {
		t.Fatalf("History err: %v", err)
	}
	if len(turns) != 1 {
		t.Fatalf("expected only the system turn after reset, got %d", len(turns))
	}
}

func TestResetNotFound(t *testing.T) {
	r, _ := setupRouter()

	req := httptest.NewRequest(http.MethodPost, "/session/missing/reset", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}
