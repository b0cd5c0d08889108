package game

import (
	"context"
	"log"
	"time"

	"github.com/scythe504/turing-game-backend/internal"
)

// =============================================================================
// ACCUSATIONS
// =============================================================================

type accusationKind int

const (
	explicitAccusation accusationKind = iota
	departureAccusation
)

// Accuse records a player's verdict on who the bot is.
func (c *Controller) Accuse(ctx context.Context, connID, gameID, accuser, accused string) error {
	room, err := c.rooms.Get(gameID)
	if err != nil {
		log.Printf("[Accuse] Room %s: %v", gameID, err)
		return err
	}

	b := c.newBatch(gameID)
	room.Mu.Lock()
	switch {
	case room.Phase == internal.PhaseWaiting:
		b.notice(connID, noticeNotStarted)
		err = ErrInvalidTransition
	case room.IsEnded():
		err = ErrInvalidTransition
	case !room.IsHumanColor(accuser):
		err = ErrUnknownPlayerColor
	case !room.HoldsColor(connID, accuser):
		err = ErrNotParticipant
	case room.Accusations.HasAccused(accuser):
		// one verdict per player; the first one stands
		log.Printf("[Accuse] Room %s: %s already accused, ignoring", gameID, accuser)
	default:
		c.handleAccusation(room, b, accuser, accused, explicitAccusation)
	}
	room.Mu.Unlock()

	b.flush()
	return err
}

// handleAccusation fills the next accusation slot and drives the room toward
// its end. Callers hold room.Mu and have checked the room is past WAITING.
func (c *Controller) handleAccusation(room *internal.Room, b *batch, accuser, accused string, kind accusationKind) {
	slot := room.SlotOf(accuser)
	if slot == 0 {
		log.Printf("[handleAccusation] Room %s: unknown accuser %q", room.Id, accuser)
		return
	}

	at := c.clock.Now().Truncate(time.Second)
	res := room.Accusations.Record(accuser, accused, at)
	if !res.IsFirst && !res.IsSecond {
		return
	}

	code := room.AccusedCode(accuser, accused)
	log.Printf("[handleAccusation] Room %s: %s accused %q (code=%d, first=%v)",
		room.Id, accuser, accused, code, res.IsFirst)
	if code != internal.AccusedNone {
		gameID := room.Id
		b.persist("record accusation", func(ctx context.Context) error {
			return c.store.RecordAccusation(ctx, gameID, slot, code, at)
		})
	}

	if res.IsSecond {
		c.endGame(room, b, "")
		return
	}

	room.Advance(internal.PhaseAccusation)
	opponent := room.OpponentOf(accuser)

	switch kind {
	case explicitAccusation:
		if !room.TimeIsUp {
			if self := room.MemberByColor(accuser); self != nil {
				b.notice(self.ConnID, noticeAccuserWait)
			}
			if opponent != nil {
				b.toConn(opponent.ConnID, internal.EventPromptAccuse, internal.NoticeData{Message: noticeOpponentMoved})
			}
		}
	case departureAccusation:
		if opponent != nil {
			b.toConn(opponent.ConnID, internal.EventPromptAccuse, internal.NoticeData{Message: noticeOpponentLeft})
		}
	}

	if opponent == nil {
		c.endGame(room, b, "")
		return
	}
	c.armGrace(room)
}
