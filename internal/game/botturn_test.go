package game

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/turing-game-backend/internal"
	"github.com/scythe504/turing-game-backend/internal/bot"
)

func TestBotDeadlineDispatchesTurn(t *testing.T) {
	h := newHarness(t)
	room := h.start(t)
	require.NoError(t, h.c.SendMessage(context.Background(), "c1", testGameID, "Orange", "hi who is here"))
	h.bot.setReply("  just me lol  ", nil)

	room.Mu.Lock()
	room.Timer.NextBotDeadline = room.Timer.Remaining - 1
	room.Mu.Unlock()

	h.c.tick(room)

	room.Mu.Lock()
	// IntN is pinned to 0, so the next deadline is exactly 8 seconds out
	assert.Equal(t, room.Timer.Remaining-8, room.Timer.NextBotDeadline)
	room.Mu.Unlock()

	require.Eventually(t, func() bool { return len(h.n.chat("Blue")) == 1 }, testWait, testPoll)
	assert.Equal(t, "just me lol", h.n.chat("Blue")[0].Message)

	room.Mu.Lock()
	defer room.Mu.Unlock()
	assert.True(t, room.LastSenderWasBot)
	assert.False(t, room.BotInFlight)
	assert.Equal(t, internal.ChatEntry{Role: internal.RoleBot, Content: "Blue: just me lol"}, room.History[len(room.History)-1])
}

func TestBotDeadlineSkippedWithoutHistory(t *testing.T) {
	h := newHarness(t)
	room := h.start(t)

	room.Mu.Lock()
	room.Timer.NextBotDeadline = room.Timer.Remaining - 1
	room.Mu.Unlock()

	h.c.tick(room)

	room.Mu.Lock()
	defer room.Mu.Unlock()
	assert.False(t, room.BotInFlight)
	assert.Equal(t, room.Timer.Remaining-8, room.Timer.NextBotDeadline)
}

func TestBotDeadlineSkippedWhileRequestInFlight(t *testing.T) {
	h := newHarness(t)
	room := h.start(t)
	require.NoError(t, h.c.SendMessage(context.Background(), "c1", testGameID, "Orange", "hey"))

	room.Mu.Lock()
	room.BotInFlight = true
	room.Timer.NextBotDeadline = room.Timer.Remaining - 1
	room.Mu.Unlock()

	h.c.tick(room)

	h.bot.mu.Lock()
	assert.Equal(t, 0, h.bot.turns)
	h.bot.mu.Unlock()
}

func TestBotReplyPostProcessing(t *testing.T) {
	h := newHarness(t)
	room := h.start(t)

	h.c.completeBotTurn(room, "   ", nil)
	h.c.completeBotTurn(room, "", errors.New("boom"))
	h.c.completeBotTurn(room, "", bot.ErrTimeout)
	assert.Empty(t, h.n.chat("Blue"))

	long := strings.Repeat("a", 200)
	h.c.completeBotTurn(room, long, nil)
	msgs := h.n.chat("Blue")
	require.Len(t, msgs, 1)
	assert.Equal(t, internal.MaxBotMessageLength, len([]rune(msgs[0].Message)))

	// back to back: rejected at the default roll of 0.99
	h.c.completeBotTurn(room, "and another thing", nil)
	assert.Len(t, h.n.chat("Blue"), 1)

	// accepted when the roll lands inside the repeat chance
	h.rng.set(0.05)
	h.c.completeBotTurn(room, "ok sure", nil)
	assert.Len(t, h.n.chat("Blue"), 2)
}

func TestBotReplySplitIntoTwoMessages(t *testing.T) {
	h := newHarness(t)
	room := h.start(t)
	require.NoError(t, h.c.SendMessage(context.Background(), "c1", testGameID, "Orange", "what did you do today"))

	h.rng.set(0.1)
	h.c.completeBotTurn(room, "I was at the beach today. The water was cold.", nil)

	msgs := h.n.chat("Blue")
	require.Len(t, msgs, 2)
	assert.Equal(t, "I was at the beach today.", msgs[0].Message)
	assert.Equal(t, "The water was cold.", msgs[1].Message)

	assert.Equal(t, []messageCall{
		{0, "Orange", "what did you do today"},
		{1, "Blue", "I was at the beach today."},
		{2, "Blue", "The water was cold."},
	}, h.store.messagesSnapshot())

	room.Mu.Lock()
	defer room.Mu.Unlock()
	// history keeps the unsplit utterance
	assert.Equal(t, "Blue: I was at the beach today. The water was cold.", room.History[len(room.History)-1].Content)
	assert.Equal(t, 3, room.MessageCount)
}

func TestBotReplyDroppedOutsideActivePhase(t *testing.T) {
	h := newHarness(t)
	room := h.start(t)

	require.NoError(t, h.c.Accuse(context.Background(), "c1", testGameID, "Orange", "Blue"))
	h.c.completeBotTurn(room, "wait what", nil)
	assert.Empty(t, h.n.chat("Blue"))
}
