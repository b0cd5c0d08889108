package internal

import "time"

// Methods (Room Struct)

// ColorOf maps a username to the color the game row assigned it.
func (r *Room) ColorOf(username string) (string, bool) {
	switch username {
	case "":
		return "", false
	case r.Player1:
		return r.Colors.Player1, true
	case r.Player2:
		return r.Colors.Player2, true
	}
	return "", false
}

// SlotOf returns 1 or 2 for a human color and 0 otherwise.
func (r *Room) SlotOf(color string) int {
	switch color {
	case "":
		return 0
	case r.Colors.Player1:
		return 1
	case r.Colors.Player2:
		return 2
	}
	return 0
}

func (r *Room) IsHumanColor(color string) bool {
	return r.SlotOf(color) != 0
}

// AccusedCode classifies an accusation target from the accuser's point of view.
func (r *Room) AccusedCode(accuser, accused string) Accused {
	if accused == "" || accused == accuser {
		return AccusedNone
	}
	if accused == r.Colors.Bot {
		return AccusedBot
	}
	if r.IsHumanColor(accused) {
		return AccusedHuman
	}
	return AccusedNone
}

// Advance moves the room forward in its lifecycle. Backward moves are refused.
func (r *Room) Advance(to GamePhase) bool {
	if !r.Phase.Before(to) {
		return false
	}
	r.Phase = to
	return true
}

func (r *Room) IsEnded() bool {
	return r.Phase == PhaseEnded
}

// Release tears the room down: cancels its context, stops every timer it owns
// and drops its transcript. Callers hold r.Mu.
func (r *Room) Release() {
	if r.Cancel != nil {
		r.Cancel()
	}
	if r.Timer != nil {
		r.Timer.Stop()
	}
	r.Phase = PhaseEnded
	r.Members = nil
	r.History = nil
	r.Accusations = AccusationRecord{}
	r.BotInFlight = false
}

// StopTicker halts the countdown but leaves any grace timers armed.
func (t *GameTimer) StopTicker() {
	if t.Ticker != nil {
		t.Ticker.Stop()
		t.Ticker = nil
	}
	t.IsActive = false
}

func (t *GameTimer) Stop() {
	t.StopTicker()
	for _, g := range t.Grace {
		g.Stop()
	}
	t.Grace = nil
}

// Record stores the accusation in the first free slot. A third call leaves the
// record unchanged and reports neither slot.
func (a *AccusationRecord) Record(accuser, accused string, at time.Time) RecordResult {
	entry := &Accusation{Accuser: accuser, Accused: accused, At: at}
	switch {
	case a.First == nil:
		a.First = entry
		return RecordResult{IsFirst: true}
	case a.Second == nil:
		a.Second = entry
		return RecordResult{IsSecond: true}
	}
	return RecordResult{}
}

func (a *AccusationRecord) HasAccused(accuser string) bool {
	return a.By(accuser) != nil
}

// By returns the accusation made by the given color, if any.
func (a *AccusationRecord) By(accuser string) *Accusation {
	if a.First != nil && a.First.Accuser == accuser {
		return a.First
	}
	if a.Second != nil && a.Second.Accuser == accuser {
		return a.Second
	}
	return nil
}

func (a *AccusationRecord) Count() int {
	n := 0
	if a.First != nil {
		n++
	}
	if a.Second != nil {
		n++
	}
	return n
}
