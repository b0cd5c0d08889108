package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/turing-game-backend/internal"
)

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	colors := internal.RoomColors{Player1: "Red", Player2: "Green", Bot: "Black"}

	room, err := r.Create("g1", "alice", "bob", colors)
	require.NoError(t, err)
	assert.Equal(t, internal.PhaseWaiting, room.Phase)
	assert.Equal(t, colors, room.Colors)

	_, err = r.Create("g1", "alice", "bob", colors)
	assert.ErrorIs(t, err, ErrRoomExists)

	got, err := r.Get("g1")
	require.NoError(t, err)
	assert.Same(t, room, got)

	_, err = r.Get("g2")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	r.Destroy("g1")
	_, err = r.Get("g1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Equal(t, internal.PhaseEnded, room.Phase)
	assert.Error(t, room.Context.Err())

	// destroying twice or destroying an unknown id is harmless
	r.Destroy("g1")
	r.Destroy("nope")

	// the id can be reused after teardown
	again, err := r.Create("g1", "alice", "bob", colors)
	require.NoError(t, err)
	assert.NotSame(t, room, again)
}

func TestRegistryShutdown(t *testing.T) {
	r := NewRegistry()
	for _, id := range []string{"a", "b", "c"} {
		_, err := r.Create(id, "p1", "p2", internal.RoomColors{})
		require.NoError(t, err)
	}
	require.Equal(t, 3, r.Len())

	r.Shutdown()
	assert.Equal(t, 0, r.Len())
}

func TestRegistryRemembersFinishedGames(t *testing.T) {
	r := NewRegistry()
	room, err := r.Create("g1", "alice", "bob", internal.RoomColors{})
	require.NoError(t, err)

	room.Mu.Lock()
	r.finishLocked(room)
	room.Mu.Unlock()

	assert.True(t, r.HasEnded("g1"))
	assert.False(t, r.HasEnded("g2"))
	assert.Equal(t, internal.PhaseEnded, room.Phase)

	_, err = r.Get("g1")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = r.Create("g1", "alice", "bob", internal.RoomColors{})
	assert.ErrorIs(t, err, ErrGameAlreadyOver)
}
