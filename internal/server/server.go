package server

import (
	"context"
	"net/http"
	"time"

	"github.com/scythe504/turing-game-backend/internal/store"
)

// GameLookup is the slice of the store the HTTP routes read from.
type GameLookup interface {
	GetGame(ctx context.Context, gameID string) (store.Game, error)
}

// LiveRooms reports how many rooms are currently held in memory.
type LiveRooms interface {
	Len() int
}

type Server struct {
	games GameLookup
	rooms LiveRooms
	ws    http.Handler
}

func NewServer(games GameLookup, rooms LiveRooms, ws http.Handler) *Server {
	return &Server{games: games, rooms: rooms, ws: ws}
}

// HTTPServer wraps the routes in an http.Server listening on addr.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.RegisterRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}
}
