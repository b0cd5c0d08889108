package internal

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoom() *Room {
	return &Room{
		Id:      "g1",
		Player1: "alice",
		Player2: "bob",
		Colors:  RoomColors{Player1: "Orange", Player2: "Purple", Bot: "Blue"},
		Phase:   PhaseWaiting,
	}
}

func TestAccusationRecordFillsSlotsInOrder(t *testing.T) {
	var rec AccusationRecord
	at := time.Unix(1000, 0)

	first := rec.Record("Orange", "Blue", at)
	assert.True(t, first.IsFirst)
	assert.False(t, first.IsSecond)

	second := rec.Record("Purple", "Orange", at.Add(time.Second))
	assert.False(t, second.IsFirst)
	assert.True(t, second.IsSecond)

	third := rec.Record("Orange", "Purple", at.Add(2*time.Second))
	assert.Equal(t, RecordResult{}, third)

	require.NotNil(t, rec.First)
	require.NotNil(t, rec.Second)
	assert.Equal(t, "Blue", rec.First.Accused)
	assert.Equal(t, "Orange", rec.Second.Accused)
	assert.Equal(t, 2, rec.Count())
	assert.Equal(t, rec.Second, rec.By("Purple"))
	assert.False(t, rec.HasAccused("Blue"))
}

func TestAccusedCode(t *testing.T) {
	r := newTestRoom()
	cases := []struct {
		accuser, accused string
		want             Accused
	}{
		{"Orange", "Blue", AccusedBot},
		{"Orange", "Purple", AccusedHuman},
		{"Purple", "Orange", AccusedHuman},
		{"Orange", "", AccusedNone},
		{"Orange", "Orange", AccusedNone},
		{"Orange", "Green", AccusedNone},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, r.AccusedCode(tc.accuser, tc.accused), "%s -> %s", tc.accuser, tc.accused)
	}
}

func TestAdvanceOnlyMovesForward(t *testing.T) {
	r := newTestRoom()
	assert.True(t, r.Advance(PhaseActive))
	assert.True(t, r.Advance(PhaseAccusation))
	assert.False(t, r.Advance(PhaseActive))
	assert.False(t, r.Advance(PhaseAccusation))
	assert.True(t, r.Advance(PhaseEnded))
	assert.False(t, r.Advance(PhaseWaiting))
	assert.Equal(t, PhaseEnded, r.Phase)
}

func TestAddMemberIsIdempotentPerUsername(t *testing.T) {
	r := newTestRoom()
	now := time.Now()

	assert.True(t, r.AddMember("c1", "alice", "Orange", now))
	assert.False(t, r.AddMember("c2", "alice", "Orange", now))
	require.Len(t, r.Members, 1)
	assert.Equal(t, "c2", r.Members[0].ConnID)

	// the replaced connection no longer owns the member
	assert.Nil(t, r.RemoveConn("c1"))
	assert.True(t, r.AddMember("c3", "bob", "Purple", now))
	assert.Equal(t, "Purple", r.OpponentOf("Orange").Color)
	assert.Equal(t, []string{"Purple", "Blue"}, r.OthersOf("Orange"))

	removed := r.RemoveColor("Orange")
	require.NotNil(t, removed)
	assert.Equal(t, "alice", removed.Username)
	assert.Nil(t, r.OpponentOf("Purple"))
}

func TestColorAndSlotLookup(t *testing.T) {
	r := newTestRoom()

	c, ok := r.ColorOf("bob")
	assert.True(t, ok)
	assert.Equal(t, "Purple", c)

	_, ok = r.ColorOf("mallory")
	assert.False(t, ok)
	_, ok = r.ColorOf("")
	assert.False(t, ok)

	assert.Equal(t, 1, r.SlotOf("Orange"))
	assert.Equal(t, 2, r.SlotOf("Purple"))
	assert.Equal(t, 0, r.SlotOf("Blue"))
}

func TestReleaseStopsTimers(t *testing.T) {
	fc := clockwork.NewFakeClock()
	r := newTestRoom()
	r.Phase = PhaseAccusation
	r.History = []ChatEntry{{Role: RoleHuman, Content: "Orange: hi"}}
	r.Timer = &GameTimer{
		Ticker:   fc.NewTicker(time.Second),
		Grace:    []clockwork.Timer{fc.AfterFunc(AccusationGrace, func() {})},
		IsActive: true,
	}

	r.Release()

	assert.Equal(t, PhaseEnded, r.Phase)
	assert.Nil(t, r.History)
	assert.False(t, r.Timer.IsActive)
	assert.Empty(t, r.Timer.Grace)
}

func TestHoldsColorFollowsLiveConnection(t *testing.T) {
	r := newTestRoom()
	now := time.Now()
	r.AddMember("c1", "alice", "Orange", now)
	r.AddMember("c2", "bob", "Purple", now)

	assert.True(t, r.HoldsColor("c1", "Orange"))
	assert.False(t, r.HoldsColor("c2", "Orange"))
	assert.False(t, r.HoldsColor("c9", "Orange"))
	assert.False(t, r.HoldsColor("c1", "Blue"))

	r.AddMember("c3", "alice", "Orange", now)
	assert.False(t, r.HoldsColor("c1", "Orange"))
	assert.True(t, r.HoldsColor("c3", "Orange"))
}
