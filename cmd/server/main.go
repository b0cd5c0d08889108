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

	"github.com/scythe504/turing-game-backend/internal/bot"
	"github.com/scythe504/turing-game-backend/internal/config"
	"github.com/scythe504/turing-game-backend/internal/game"
	"github.com/scythe504/turing-game-backend/internal/server"
	"github.com/scythe504/turing-game-backend/internal/store"
	"github.com/scythe504/turing-game-backend/internal/websocket"
)

func main() {
	cfg, err := config.Load("server", os.Args[1:])
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

	st, err := store.Open(ctx, cfg.StoreDriver, cfg.StoreDSN)
	if err != nil {
		log.Fatalf("Store: %v", err)
	}
	defer st.Close()
	log.Printf("Store: %s ready", cfg.StoreDriver)

	hub := websocket.NewHub()
	rooms := game.NewRegistry()
	controller := game.NewController(rooms, st, bot.NewClient(cfg.BotURL, cfg.BotTimeout), hub, game.Options{
		GameDuration:   cfg.GameDuration,
		GracePeriod:    cfg.GracePeriod,
		BotTurnTimeout: cfg.BotTimeout,
	})

	srv := server.NewServer(st, rooms, hub.ServeWS(controller)).HTTPServer(cfg.Addr)

	go func() {
		log.Printf("Server listening on %s (bot at %s, game %s, grace %s)", cfg.Addr, cfg.BotURL, cfg.GameDuration, cfg.GracePeriod)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	hub.CloseAll()
	rooms.Shutdown()
	log.Println("Server stopped")
}
