package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Danish137/Digital-twin/internal/config"
	speechmodel "github.com/Danish137/Digital-twin/internal/model/speech"
)

// Client recognizes speech through Groq's OpenAI-compatible Whisper endpoint.
// One request per utterance; no retry, no streaming.
type Client struct {
	api   *openai.Client
	model string
}

// NewClient builds the transcription client from configuration.
func NewClient(cfg config.TranscribeConfig) *Client {
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 {
		apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		api:   openai.NewClientWithConfig(apiCfg),
		model: cfg.Model,
	}
}

// Transcribe sends the recorded audio and returns the recognized text as-is.
// format is the container extension the recorder produced (wav, webm, mp3...).
func (c *Client) Transcribe(ctx context.Context, audio []byte, format string) (*speechmodel.Transcription, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio payload is empty")
	}

	if format == "" {
		format = "wav"
	}

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		Reader:   bytes.NewReader(audio),
		FilePath: "utterance." + format,
	})
	if err != nil {
		return nil, fmt.Errorf("whisper transcription failed: %w", err)
	}

	return &speechmodel.Transcription{
		Text:      resp.Text,
		CreatedAt: time.Now().UTC(),
	}, nil
}
