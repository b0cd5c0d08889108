package game

import (
	"context"
	"log"
	"time"

	"github.com/scythe504/turing-game-backend/internal"
)

// =============================================================================
// TIMER MANAGEMENT
// =============================================================================

const (
	firstBotDelayMin = 2
	firstBotDelayMax = 4
	botIntervalMin   = 8
	botIntervalMax   = 10
)

// startCountdown arms the per-second game countdown. Callers hold room.Mu.
func (c *Controller) startCountdown(room *internal.Room, startedAt time.Time) {
	secs := int(c.duration / time.Second)
	ticker := c.clock.NewTicker(time.Second)

	room.Timer = &internal.GameTimer{
		StartTime:       startedAt,
		Duration:        c.duration,
		Remaining:       secs,
		NextBotDeadline: secs - c.between(firstBotDelayMin, firstBotDelayMax),
		IsActive:        true,
		Ticker:          ticker,
	}
	log.Printf("[startCountdown] Room %s: %ds countdown, first bot turn at %d",
		room.Id, secs, room.Timer.NextBotDeadline)

	go c.runCountdown(room.Context, room, ticker.Chan())
}

func (c *Controller) runCountdown(ctx context.Context, room *internal.Room, ticks <-chan time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[runCountdown] Room %s: recovered from panic: %v", room.Id, r)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			c.tick(room)
		}
	}
}

// tick advances the countdown by one second.
func (c *Controller) tick(room *internal.Room) {
	b := c.newBatch(room.Id)

	room.Mu.Lock()
	t := room.Timer
	if room.IsEnded() || t == nil || !t.IsActive {
		room.Mu.Unlock()
		return
	}

	if t.Remaining > 0 {
		t.Remaining--
		if t.Remaining <= t.NextBotDeadline {
			if room.Phase == internal.PhaseActive && !room.LastSenderWasBot && len(room.History) > 0 {
				c.dispatchBotTurn(room, b)
			}
			t.NextBotDeadline = t.Remaining - c.between(botIntervalMin, botIntervalMax)
		}
		b.toRoom(internal.EventUpdateTimer, internal.TimerUpdateData{RemainingTime: t.Remaining})
	}

	if t.Remaining <= 0 {
		t.StopTicker()
		c.timeUp(room, b)
	}
	room.Mu.Unlock()

	b.flush()
}

// timeUp opens the final accusation window. Callers hold room.Mu.
func (c *Controller) timeUp(room *internal.Room, b *batch) {
	room.TimeIsUp = true
	room.Advance(internal.PhaseAccusation)
	log.Printf("[timeUp] Room %s: countdown finished, accusations=%d", room.Id, room.Accusations.Count())

	b.toRoom(internal.EventTimeUp, internal.NoticeData{Message: noticeTimeUp})
	c.armGrace(room)
}

// armGrace schedules the end of the accusation window. Callers hold room.Mu.
func (c *Controller) armGrace(room *internal.Room) {
	if room.Timer == nil {
		room.Timer = &internal.GameTimer{}
	}
	timer := c.clock.AfterFunc(c.grace, func() { c.graceExpired(room) })
	room.Timer.Grace = append(room.Timer.Grace, timer)
}

func (c *Controller) graceExpired(room *internal.Room) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[graceExpired] Room %s: recovered from panic: %v", room.Id, r)
		}
	}()

	b := c.newBatch(room.Id)
	room.Mu.Lock()
	if !room.IsEnded() && room.Accusations.Second == nil {
		log.Printf("[graceExpired] Room %s: accusation window closed", room.Id)
		c.endGame(room, b, "")
	}
	room.Mu.Unlock()

	b.flush()
}
