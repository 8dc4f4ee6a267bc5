package transcribe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Danish137/Digital-twin/internal/config"
)

func TestTranscribe(t *testing.T) {
	var gotPath, gotModel, gotFilename string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart err: %v", err)
		}
		gotModel = r.FormValue("model")
		if _, header, err := r.FormFile("file"); err == nil {
			gotFilename = header.Filename
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "hello from whisper"}`))
	}))
	defer server.Close()

	client := NewClient(config.TranscribeConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "whisper-large-v3-turbo",
		Timeout: 5 * time.Second,
	})

	result, err := client.Transcribe(context.Background(), []byte("audio-bytes"), "webm")
	if err != nil {
		t.Fatalf("Transcribe err: %v", err)
	}

	if result.Text != "hello from whisper" {
		t.Fatalf("unexpected text: %q", result.Text)
	}
	if gotPath != "/audio/transcriptions" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotModel != "whisper-large-v3-turbo" {
		t.Fatalf("unexpected model: %q", gotModel)
	}
	if gotFilename != "utterance.webm" {
		t.Fatalf("unexpected upload filename: %q", gotFilename)
	}
}

func TestTranscribeDefaultsFormat(t *testing.T) {
	var gotFilename string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseMultipartForm(32 << 20)
		if _, header, err := r.FormFile("file"); err == nil {
			gotFilename = header.Filename
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "ok"}`))
	}))
	defer server.Close()

	client := NewClient(config.TranscribeConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "whisper-large-v3-turbo",
	})

	if _, err := client.Transcribe(context.Background(), []byte("audio"), ""); err != nil {
		t.Fatalf("Transcribe err: %v", err)
	}
	if gotFilename != "utterance.wav" {
		t.Fatalf("unexpected default filename: %q", gotFilename)
	}
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	client := NewClient(config.TranscribeConfig{APIKey: "test-key"})

	if _, err := client.Transcribe(context.Background(), nil, "wav"); err == nil {
		t.Fatal("expected an error for empty audio")
	}
}

func TestTranscribeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "upstream broke"}}`))
	}))
	defer server.Close()

	client := NewClient(config.TranscribeConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "whisper-large-v3-turbo",
	})

	if _, err := client.Transcribe(context.Background(), []byte("audio"), "wav"); err == nil {
		t.Fatal("expected an error for an upstream failure")
	}
}
