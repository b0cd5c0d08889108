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

	"github.com/scythe504/turing-game-backend/internal/config"
	"github.com/scythe504/turing-game-backend/internal/persona"
)

func main() {
	cfg, err := config.Load("bot", os.Args[1:])
	if err != nil {
		log.Fatalf("Config: %v", err)
	}

	closeLog, err := config.SetupLogging(cfg.LogFile)
	if err != nil {
		log.Fatalf("Logging: %v", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	llm, err := persona.NewModel(ctx, cfg)
	if err != nil {
		log.Fatalf("Persona: %v", err)
	}

	p := persona.New(llm, persona.LoadPrompt(cfg.BotPromptFile), persona.Options{
		Temperature: cfg.BotTemperature,
		TypingDelay: true,
	})

	srv := &http.Server{
		Addr:              cfg.BotAddr,
		Handler:           p.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Bot listening on %s (provider=%s model=%s)", cfg.BotAddr, cfg.BotProvider, cfg.BotModel)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Bot: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Bot shutdown: %v", err)
	}
	log.Println("Bot stopped")
}
