package game

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/turing-game-backend/internal"
)

var (
	accBot   = internal.AccusedBot
	accHuman = internal.AccusedHuman
	accNone  = internal.AccusedNone
)

func at(sec int64) time.Time {
	return time.Unix(1_700_000_000+sec, 0)
}

func TestScore(t *testing.T) {
	cases := []struct {
		name   string
		p1, p2 Verdict
		want   Scores
	}{
		{"nobody accused", Verdict{}, Verdict{}, Scores{0, 0, 0}},
		{"solo p1 correct", Verdict{accBot, at(10)}, Verdict{}, Scores{10, 0, 6}},
		{"solo p1 wrong", Verdict{accHuman, at(10)}, Verdict{}, Scores{0, 0, 10}},
		{"solo p2 correct", Verdict{}, Verdict{accBot, at(10)}, Scores{0, 10, 6}},
		{"solo p2 wrong", Verdict{}, Verdict{accHuman, at(10)}, Scores{0, 0, 10}},

		{"both bot p1 first", Verdict{accBot, at(10)}, Verdict{accBot, at(20)}, Scores{10, 7, 0}},
		{"both bot p2 first", Verdict{accBot, at(20)}, Verdict{accBot, at(10)}, Scores{7, 10, 0}},
		{"earlier bot later human", Verdict{accBot, at(10)}, Verdict{accHuman, at(20)}, Scores{10, 0, 8}},
		{"earlier human later bot", Verdict{accHuman, at(10)}, Verdict{accBot, at(20)}, Scores{0, 10, 8}},
		{"p2 earlier bot p1 later human", Verdict{accHuman, at(20)}, Verdict{accBot, at(10)}, Scores{0, 10, 8}},
		{"both human", Verdict{accHuman, at(10)}, Verdict{accHuman, at(20)}, Scores{0, 0, 10}},

		{"tie both bot", Verdict{accBot, at(10)}, Verdict{accBot, at(10)}, Scores{9, 9, 0}},
		{"tie p1 correct", Verdict{accBot, at(10)}, Verdict{accHuman, at(10)}, Scores{10, 0, 8}},
		{"tie p2 correct", Verdict{accHuman, at(10)}, Verdict{accBot, at(10)}, Scores{0, 10, 8}},
		{"tie both wrong", Verdict{accHuman, at(10)}, Verdict{accHuman, at(10)}, Scores{0, 0, 10}},

		{"time without target is no accusation", Verdict{accNone, at(10)}, Verdict{accBot, at(5)}, Scores{0, 10, 6}},
		{"target without time is no accusation", Verdict{accBot, time.Time{}}, Verdict{}, Scores{0, 0, 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Score(tc.p1, tc.p2))
		})
	}
}

func TestScoreSubSecondAccusationsTie(t *testing.T) {
	p1 := Verdict{accBot, at(42).Add(100 * time.Millisecond)}
	p2 := Verdict{accBot, at(42).Add(900 * time.Millisecond)}
	assert.Equal(t, Scores{9, 9, 0}, Score(p1, p2))
}

func TestScoreIsSymmetricInPlayerSlots(t *testing.T) {
	verdicts := []Verdict{
		{}, {accNone, at(1)},
		{accBot, at(1)}, {accBot, at(2)},
		{accHuman, at(1)}, {accHuman, at(2)},
	}
	for _, a := range verdicts {
		for _, b := range verdicts {
			ab := Score(a, b)
			ba := Score(b, a)
			assert.Equal(t, ab.Player1, ba.Player2)
			assert.Equal(t, ab.Player2, ba.Player1)
			assert.Equal(t, ab.Bot, ba.Bot)
		}
	}
}

func TestScoreCorrectAccuserNeverGetsZero(t *testing.T) {
	kinds := []internal.Accused{accNone, accBot, accHuman}
	times := []time.Time{{}, at(1), at(2)}
	for _, k1 := range kinds {
		for _, t1 := range times {
			for _, k2 := range kinds {
				for _, t2 := range times {
					p1, p2 := Verdict{k1, t1}, Verdict{k2, t2}
					s := Score(p1, p2)
					if p1.made() && p1.correct() {
						assert.GreaterOrEqual(t, s.Player1, ConsolationScore)
					}
					if p2.made() && p2.correct() {
						assert.GreaterOrEqual(t, s.Player2, ConsolationScore)
					}
					if !p1.made() {
						assert.Zero(t, s.Player1)
					}
					if !p2.made() {
						assert.Zero(t, s.Player2)
					}
				}
			}
		}
	}
}

func TestBuildResultLabels(t *testing.T) {
	room := &internal.Room{
		Id:     "g1",
		Colors: internal.RoomColors{Player1: "Orange", Player2: "Purple", Bot: "Blue"},
	}
	room.Accusations.Record("Purple", "Blue", at(100))
	room.Accusations.Record("Orange", "Purple", at(105))

	res, scores := buildResult(room, "")
	assert.Equal(t, Scores{0, 10, 8}, scores)
	assert.Equal(t, "Purple", res.Player1Accusation)
	assert.Equal(t, "❌ Incorrect", res.Player1AccusationStatus)
	assert.Equal(t, "Blue", res.Player2Accusation)
	assert.Equal(t, "✅ Correct", res.Player2AccusationStatus)
	assert.Equal(t, 8, res.BotScore)
	assert.Equal(t, "Blue", res.BotColor)

	empty := &internal.Room{Colors: room.Colors}
	empty.Accusations.Record("Orange", "", at(1))
	res, scores = buildResult(empty, "Orange has reported an issue.")
	assert.Equal(t, Scores{}, scores)
	assert.Equal(t, "no one", res.Player1Accusation)
	assert.Equal(t, "⭕ No", res.Player1AccusationStatus)
	assert.Equal(t, "Orange has reported an issue.", res.Reason)
}

func TestGameResultWireKeys(t *testing.T) {
	room := &internal.Room{
		Id:     "g1",
		Colors: internal.RoomColors{Player1: "Orange", Player2: "Purple", Bot: "Blue"},
	}
	room.Accusations.Record("Orange", "Blue", at(10))

	res, _ := buildResult(room, "")
	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var keys map[string]any
	require.NoError(t, json.Unmarshal(raw, &keys))
	for _, k := range []string{
		"game_id", "message",
		"player1_color", "player1_accusation", "player1_accusation_status", "player1_score",
		"player2_color", "player2_accusation", "player2_accusation_status", "player2_score",
		"bot_color", "bot_score",
	} {
		assert.Contains(t, keys, k)
	}
	assert.NotContains(t, keys, "reason")
	assert.Equal(t, "Blue", keys["bot_color"])
	assert.EqualValues(t, 10, keys["player1_score"])
}
