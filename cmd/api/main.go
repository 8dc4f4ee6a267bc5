package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Danish137/Digital-twin/internal/config"
	"github.com/Danish137/Digital-twin/internal/handler"
	"github.com/Danish137/Digital-twin/internal/model/persona"
	"github.com/Danish137/Digital-twin/internal/service/ai"
	"github.com/Danish137/Digital-twin/internal/service/conversation"
	"github.com/Danish137/Digital-twin/internal/service/speech"
	"github.com/Danish137/Digital-twin/internal/service/transcribe"
	"github.com/Danish137/Digital-twin/internal/service/turn"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// The persona documents are required; a broken file aborts startup.
	personaStore, err := persona.LoadStore(cfg.Persona.PersonaFile, cfg.Persona.FactsFile)
	if err != nil {
		log.Fatalf("failed to load persona data: %v", err)
	}
	log.Printf("persona loaded: %s", personaStore.Definition().Name)

	aiService, err := ai.NewService(ctx, personaStore, cfg.Chat)
	if err != nil {
		log.Fatalf("failed to initialize chat service: %v", err)
	}

	conversations := conversation.NewService(aiService.SystemPrompt())
	transcriber := transcribe.NewClient(cfg.Transcribe)
	synthesizer := speech.NewClient(cfg.Synthesis)

	orchestrator := turn.NewOrchestrator(transcriber, aiService, synthesizer, conversations)

	router := handler.NewRouter(personaStore, conversations, orchestrator)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("digital twin backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
