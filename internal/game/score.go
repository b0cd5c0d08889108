package game

import (
	"time"

	"github.com/scythe504/turing-game-backend/internal"
)

// =============================================================================
// SCORING
// =============================================================================

// ConsolationScore is the floor for a correct accuser whose table score is 0.
const ConsolationScore = 5

// Verdict is one human's accusation as seen by the scoring engine.
type Verdict struct {
	Accused internal.Accused
	At      time.Time
}

// made reports whether the verdict counts as an accusation. A recorded time
// alone is not enough: leaving without naming anyone scores as no accusation.
func (v Verdict) made() bool {
	return v.Accused != internal.AccusedNone && !v.At.IsZero()
}

func (v Verdict) correct() bool {
	return v.Accused == internal.AccusedBot
}

type Scores struct {
	Player1 int `json:"player1"`
	Player2 int `json:"player2"`
	Bot     int `json:"bot"`
}

// award is (accuser, other human, bot) for the solo table and
// (earlier, later, bot) or (player1, player2, bot) for the two-accuser tables.
type award [3]int

type pair [2]internal.Accused

var soloAwards = map[internal.Accused]award{
	internal.AccusedBot:   {10, 0, 6},
	internal.AccusedHuman: {0, 0, 10},
}

// keyed by (earlier, later)
var orderedAwards = map[pair]award{
	{internal.AccusedBot, internal.AccusedBot}:     {10, 7, 0},
	{internal.AccusedBot, internal.AccusedHuman}:   {10, 0, 8},
	{internal.AccusedHuman, internal.AccusedBot}:   {0, 10, 8},
	{internal.AccusedHuman, internal.AccusedHuman}: {0, 0, 10},
}

// keyed by (player1, player2)
var tieAwards = map[pair]award{
	{internal.AccusedBot, internal.AccusedBot}:     {9, 9, 0},
	{internal.AccusedBot, internal.AccusedHuman}:   {10, 0, 8},
	{internal.AccusedHuman, internal.AccusedBot}:   {0, 10, 8},
	{internal.AccusedHuman, internal.AccusedHuman}: {0, 0, 10},
}

// Score computes the final points for both humans and the bot. Accusation
// times are compared at whole-second resolution, so two accusations inside
// the same second are a tie.
func Score(p1, p2 Verdict) Scores {
	var s Scores

	switch {
	case !p1.made() && !p2.made():
		return s

	case p1.made() && !p2.made():
		a := soloAwards[p1.Accused]
		s = Scores{Player1: a[0], Player2: a[1], Bot: a[2]}

	case !p1.made() && p2.made():
		a := soloAwards[p2.Accused]
		s = Scores{Player1: a[1], Player2: a[0], Bot: a[2]}

	default:
		t1 := p1.At.Truncate(time.Second)
		t2 := p2.At.Truncate(time.Second)
		switch {
		case t1.Before(t2):
			a := orderedAwards[pair{p1.Accused, p2.Accused}]
			s = Scores{Player1: a[0], Player2: a[1], Bot: a[2]}
		case t2.Before(t1):
			a := orderedAwards[pair{p2.Accused, p1.Accused}]
			s = Scores{Player1: a[1], Player2: a[0], Bot: a[2]}
		default:
			a := tieAwards[pair{p1.Accused, p2.Accused}]
			s = Scores{Player1: a[0], Player2: a[1], Bot: a[2]}
		}
	}

	if s.Player1 == 0 && p1.made() && p1.correct() {
		s.Player1 = ConsolationScore
	}
	if s.Player2 == 0 && p2.made() && p2.correct() {
		s.Player2 = ConsolationScore
	}
	return s
}

// verdictsOf reads the in-memory accusation record in player-slot order.
func verdictsOf(room *internal.Room) (Verdict, Verdict) {
	read := func(color string) Verdict {
		acc := room.Accusations.By(color)
		if acc == nil {
			return Verdict{}
		}
		return Verdict{
			Accused: room.AccusedCode(color, acc.Accused),
			At:      acc.At,
		}
	}
	return read(room.Colors.Player1), read(room.Colors.Player2)
}

// accusationLabel renders what a player accused and whether it was right.
func accusationLabel(room *internal.Room, color string) (string, string) {
	acc := room.Accusations.By(color)
	if acc == nil {
		return "no one", "⭕ No"
	}
	switch room.AccusedCode(color, acc.Accused) {
	case internal.AccusedBot:
		return acc.Accused, "✅ Correct"
	case internal.AccusedHuman:
		return acc.Accused, "❌ Incorrect"
	}
	return "no one", "⭕ No"
}

// buildResult snapshots the end-of-game record. Callers hold room.Mu.
func buildResult(room *internal.Room, reason string) (internal.GameResult, Scores) {
	v1, v2 := verdictsOf(room)
	scores := Score(v1, v2)

	p1Acc, p1Status := accusationLabel(room, room.Colors.Player1)
	p2Acc, p2Status := accusationLabel(room, room.Colors.Player2)

	return internal.GameResult{
		GameID:                  room.Id,
		Message:                 "The game has ended.",
		Player1Color:            room.Colors.Player1,
		Player1Accusation:       p1Acc,
		Player1AccusationStatus: p1Status,
		Player1Score:            scores.Player1,
		Player2Color:            room.Colors.Player2,
		Player2Accusation:       p2Acc,
		Player2AccusationStatus: p2Status,
		Player2Score:            scores.Player2,
		BotColor:                room.Colors.Bot,
		BotScore:                scores.Bot,
		Reason:                  reason,
	}, scores
}
