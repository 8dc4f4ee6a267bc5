package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Danish137/Digital-twin/internal/config"
	"github.com/Danish137/Digital-twin/internal/service/speech"
	"github.com/Danish137/Digital-twin/internal/service/transcribe"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] failed to load .env, falling back to system environment: %v", err)
	}

	mode := flag.String("mode", "", "check mode: stt or tts")
	audioPath := flag.String("audio", "", "STT input audio file path")
	text := flag.String("text", "", "TTS input text")
	outputPath := flag.String("out", "", "TTS output audio file path (derived from format when empty)")
	format := flag.String("format", "", "STT input audio format (derived from file extension when empty)")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")

	flag.Parse()

	if *mode != "stt" && *mode != "tts" {
		flag.Usage()
		log.Fatal("specify a check mode with -mode=stt or -mode=tts")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "stt":
		runSTT(ctx, cfg, *audioPath, *format)
	case "tts":
		runTTS(ctx, cfg, *text, *outputPath)
	}
}

func runSTT(ctx context.Context, cfg *config.Config, audioPath, format string) {
	if audioPath == "" {
		log.Fatal("stt mode requires an audio file path via -audio")
	}

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		log.Fatalf("failed to read audio file: %v", err)
	}

	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(audioPath)), ".")
		if format == "" {
			format = "wav"
		}
	}

	client := transcribe.NewClient(cfg.Transcribe)

	log.Printf("running transcription check: file=%s format=%s model=%s", audioPath, format, cfg.Transcribe.Model)

	result, err := client.Transcribe(ctx, audio, format)
	if err != nil {
		log.Fatalf("transcription call failed: %v", err)
	}

	log.Printf("transcription succeeded: text=%q", result.Text)
}

func runTTS(ctx context.Context, cfg *config.Config, text, outputPath string) {
	if strings.TrimSpace(text) == "" {
		log.Fatal("tts mode requires input text via -text")
	}

	client := speech.NewClient(cfg.Synthesis)

	log.Printf("running synthesis check: voice=%s model=%s", cfg.Synthesis.VoiceID, cfg.Synthesis.ModelID)

	result, err := client.Synthesize(ctx, text)
	if err != nil {
		log.Fatalf("synthesis call failed: %v", err)
	}

	if outputPath == "" {
		outputPath = fmt.Sprintf("tts-output-%d.%s", time.Now().Unix(), result.Format)
	}

	if err := os.WriteFile(outputPath, result.Audio, 0o644); err != nil {
		log.Fatalf("failed to write audio file: %v", err)
	}

	log.Printf("synthesis succeeded: wrote %d bytes to %s", len(result.Audio), outputPath)
}
