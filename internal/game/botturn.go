package game

import (
	"context"
	"log"
	"slices"
	"strings"

	"github.com/scythe504/turing-game-backend/internal"
	"github.com/scythe504/turing-game-backend/internal/bot"
)

// =============================================================================
// BOT TURNS
// =============================================================================

// dispatchBotTurn starts a bot request unless one is already running for the
// room. Callers hold room.Mu.
func (c *Controller) dispatchBotTurn(room *internal.Room, b *batch) {
	if room.BotInFlight {
		log.Printf("[dispatchBotTurn] Room %s: bot request still in flight, skipping deadline", room.Id)
		return
	}
	room.BotInFlight = true

	history := slices.Clone(room.History)
	roomCtx := room.Context
	b.do(func() { go c.runBotTurn(roomCtx, room, history) })
}

func (c *Controller) runBotTurn(ctx context.Context, room *internal.Room, history []internal.ChatEntry) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[runBotTurn] Room %s: recovered from panic: %v", room.Id, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.turnTimeout)
	defer cancel()

	reply, err := c.bot.RequestTurn(ctx, room.Id, history)
	c.completeBotTurn(room, reply, err)
}

// completeBotTurn delivers a bot reply if the room can still take it.
func (c *Controller) completeBotTurn(room *internal.Room, reply string, err error) {
	b := c.newBatch(room.Id)

	room.Mu.Lock()
	c.applyBotReply(room, b, reply, err)
	room.Mu.Unlock()

	b.flush()
}

func (c *Controller) applyBotReply(room *internal.Room, b *batch, reply string, err error) {
	if room.IsEnded() {
		return
	}
	room.BotInFlight = false

	if err != nil {
		log.Printf("[completeBotTurn] Room %s: bot turn failed: %v", room.Id, err)
		return
	}

	text := bot.Truncate(strings.TrimSpace(reply), internal.MaxBotMessageLength)
	if text == "" {
		return
	}
	if room.Phase != internal.PhaseActive {
		log.Printf("[completeBotTurn] Room %s: dropping bot reply, phase is %s", room.Id, room.Phase)
		return
	}
	if room.LastSenderWasBot && c.rng.Float64() > bot.RepeatAcceptChance {
		log.Printf("[completeBotTurn] Room %s: dropping back-to-back bot reply", room.Id)
		return
	}

	room.History = append(room.History, internal.ChatEntry{
		Role:    internal.RoleBot,
		Content: room.BotColor + ": " + text,
	})
	room.LastSenderWasBot = true

	gameID, color := room.Id, room.BotColor
	for _, part := range bot.SplitMessage(text, c.rng.Float64()) {
		seq := room.MessageCount
		room.MessageCount++
		sentAt := c.clock.Now()

		b.toRoom(internal.EventMessage, internal.ChatMessageData{Color: color, Message: part})
		b.persist("record bot message", func(ctx context.Context) error {
			return c.store.RecordMessage(ctx, gameID, seq, color, part, sentAt)
		})
	}
}
