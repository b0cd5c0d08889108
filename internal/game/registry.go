package game

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/scythe504/turing-game-backend/internal"
)

var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomExists         = errors.New("room already exists")
	ErrInvalidTransition  = errors.New("invalid phase transition")
	ErrNotParticipant     = errors.New("not a participant of this game")
	ErrGameAlreadyOver    = errors.New("game already completed")
	ErrUnknownPlayerColor = errors.New("unknown player color")
)

// =============================================================================
// ROOM REGISTRY
// =============================================================================

// Registry holds the live rooms of this process and remembers which games
// already ended here. Lock order is always room.Mu before Registry.mu.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*internal.Room
	ended map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*internal.Room),
		ended: make(map[string]struct{}),
	}
}

// Create registers a new WAITING room for the game.
func (r *Registry) Create(gameID, player1, player2 string, colors internal.RoomColors) (*internal.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[gameID]; exists {
		return nil, ErrRoomExists
	}
	if _, over := r.ended[gameID]; over {
		return nil, ErrGameAlreadyOver
	}

	ctx, cancel := context.WithCancel(context.Background())
	room := &internal.Room{
		Id:          gameID,
		Player1:     player1,
		Player2:     player2,
		Colors:      colors,
		Members:     make([]*internal.Member, 0, internal.MaxPlayersPerRoom),
		Phase:       internal.PhaseWaiting,
		History:     make([]internal.ChatEntry, 0),
		Accusations: internal.AccusationRecord{},
		Context:     ctx,
		Cancel:      cancel,
	}
	r.rooms[gameID] = room

	log.Printf("[Create] Room %s: created (player1=%s/%s, player2=%s/%s, bot=%s)",
		gameID, player1, colors.Player1, player2, colors.Player2, colors.Bot)
	return room, nil
}

func (r *Registry) Get(gameID string) (*internal.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[gameID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// HasEnded reports whether the game was scored by this process. It does not
// depend on the completion write reaching the store.
func (r *Registry) HasEnded(gameID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, over := r.ended[gameID]
	return over
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Destroy tears down a room: its context is cancelled, its timers stop and it
// leaves the registry. Destroying an unknown id is a no-op.
func (r *Registry) Destroy(gameID string) {
	room, err := r.Get(gameID)
	if err != nil {
		return
	}

	room.Mu.Lock()
	r.destroyLocked(room)
	room.Mu.Unlock()
}

// destroyLocked is Destroy for callers already holding room.Mu.
func (r *Registry) destroyLocked(room *internal.Room) {
	room.Release()

	r.mu.Lock()
	if current, ok := r.rooms[room.Id]; ok && current == room {
		delete(r.rooms, room.Id)
	}
	r.mu.Unlock()

	log.Printf("[Destroy] Room %s: removed from registry", room.Id)
}

// finishLocked tears the room down for good: its id can never be created
// again. Callers hold room.Mu.
func (r *Registry) finishLocked(room *internal.Room) {
	r.mu.Lock()
	r.ended[room.Id] = struct{}{}
	r.mu.Unlock()

	r.destroyLocked(room)
}

// Shutdown destroys every live room.
func (r *Registry) Shutdown() {
	r.mu.RLock()
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	for _, id := range ids {
		r.Destroy(id)
	}
}
