package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service reads from the environment.
type Config struct {
	Server     ServerConfig
	Chat       ChatConfig
	Transcribe TranscribeConfig
	Synthesis  SynthesisConfig
	Persona    PersonaConfig
}

// Load parses configuration from environment variables. The three provider
// keys are required; all missing keys are reported together so the operator
// fixes them in one pass.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	chatCfg, err := loadChatConfig()
	if err != nil {
		return nil, err
	}

	transcribeCfg, err := loadTranscribeConfig()
	if err != nil {
		return nil, err
	}

	synthesisCfg, err := loadSynthesisConfig()
	if err != nil {
		return nil, err
	}

	personaCfg := loadPersonaConfig()

	var missing []string
	if transcribeCfg.APIKey == "" {
		missing = append(missing, "GROQ_API_KEY")
	}
	if chatCfg.APIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if synthesisCfg.APIKey == "" {
		missing = append(missing, "ELEVENLABS_API_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing API keys: %s", strings.Join(missing, ", "))
	}

	return &Config{
		Server:     server,
		Chat:       chatCfg,
		Transcribe: transcribeCfg,
		Synthesis:  synthesisCfg,
		Persona:    personaCfg,
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Allow ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// ChatConfig describes the completion model used for replies.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64
	MaxTokens   *int
	Timeout     time.Duration
}

// NewChatModel builds the eino chat model from this configuration.
func (c ChatConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	cfg := &openaimodel.ChatModelConfig{
		BaseURL:     c.BaseURL,
		APIKey:      c.APIKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		Timeout:     c.Timeout,
	}

	return openaimodel.NewChatModel(ctx, cfg)
}

func loadChatConfig() (ChatConfig, error) {
	temperature, err := parseOptionalFloatEnv("OPENAI_TEMPERATURE")
	if err != nil {
		return ChatConfig{}, err
	}
	if temperature == nil {
		val := 0.7
		temperature = &val
	}

	maxTokens, err := parseOptionalIntEnv("OPENAI_MAX_TOKENS")
	if err != nil {
		return ChatConfig{}, err
	}
	if maxTokens == nil {
		// Replies are spoken aloud; keep them short.
		val := 250
		maxTokens = &val
	}

	timeout, err := requestTimeout()
	if err != nil {
		return ChatConfig{}, err
	}

	return ChatConfig{
		APIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		BaseURL:     strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Model:       getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Timeout:     timeout,
	}, nil
}

// TranscribeConfig describes the Whisper endpoint used for recognition.
type TranscribeConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func loadTranscribeConfig() (TranscribeConfig, error) {
	timeout, err := requestTimeout()
	if err != nil {
		return TranscribeConfig{}, err
	}

	return TranscribeConfig{
		APIKey:  strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		BaseURL: getEnvOrDefault("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		Model:   getEnvOrDefault("GROQ_WHISPER_MODEL", "whisper-large-v3-turbo"),
		Timeout: timeout,
	}, nil
}

// SynthesisConfig describes the ElevenLabs voice used for playback.
type SynthesisConfig struct {
	APIKey  string
	BaseURL string
	VoiceID string
	ModelID string
	Timeout time.Duration
}

func loadSynthesisConfig() (SynthesisConfig, error) {
	timeout, err := requestTimeout()
	if err != nil {
		return SynthesisConfig{}, err
	}

	return SynthesisConfig{
		APIKey:  strings.TrimSpace(os.Getenv("ELEVENLABS_API_KEY")),
		BaseURL: getEnvOrDefault("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io"),
		VoiceID: getEnvOrDefault("ELEVENLABS_VOICE_ID", "WU3NNr4InTpWBvdLxgpD"),
		ModelID: getEnvOrDefault("ELEVENLABS_MODEL_ID", "eleven_turbo_v2_5"),
		Timeout: timeout,
	}, nil
}

// PersonaConfig points at the two static persona documents.
type PersonaConfig struct {
	PersonaFile string
	FactsFile   string
}

func loadPersonaConfig() PersonaConfig {
	return PersonaConfig{
		PersonaFile: getEnvOrDefault("PERSONA_FILE", "persona.json"),
		FactsFile:   getEnvOrDefault("FACTS_FILE", "facts.json"),
	}
}

func requestTimeout() (time.Duration, error) {
	seconds, err := parseOptionalIntEnv("SPEECH_TIMEOUT")
	if err != nil {
		return 0, err
	}
	if seconds == nil {
		return 30 * time.Second, nil
	}
	if *seconds <= 0 {
		return 0, fmt.Errorf("invalid SPEECH_TIMEOUT value: %d", *seconds)
	}
	return time.Duration(*seconds) * time.Second, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
