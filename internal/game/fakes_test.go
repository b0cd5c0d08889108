package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/scythe504/turing-game-backend/internal"
	"github.com/scythe504/turing-game-backend/internal/bot"
	"github.com/scythe504/turing-game-backend/internal/store"
)

// ===== Notifier =====

type sentMessage struct {
	scope  string // room, conn or all
	target string
	msg    internal.Message[any]
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	subs map[string]string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{subs: make(map[string]string)}
}

func (n *recordingNotifier) Subscribe(connID, gameID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.subs[connID] = gameID
}

func (n *recordingNotifier) ToRoom(gameID string, msg internal.Message[any]) {
	n.record(sentMessage{scope: "room", target: gameID, msg: msg})
}

func (n *recordingNotifier) ToConn(connID string, msg internal.Message[any]) {
	n.record(sentMessage{scope: "conn", target: connID, msg: msg})
}

func (n *recordingNotifier) ToAll(msg internal.Message[any]) {
	n.record(sentMessage{scope: "all", msg: msg})
}

func (n *recordingNotifier) record(m sentMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, m)
}

func (n *recordingNotifier) ofType(kind string) []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentMessage
	for _, m := range n.sent {
		if m.msg.Type == kind {
			out = append(out, m)
		}
	}
	return out
}

// chat returns chat messages, optionally filtered to one sender color.
func (n *recordingNotifier) chat(color string) []internal.ChatMessageData {
	var out []internal.ChatMessageData
	for _, m := range n.ofType(internal.EventMessage) {
		data := m.msg.Data.(internal.ChatMessageData)
		if color == "" || data.Color == color {
			out = append(out, data)
		}
	}
	return out
}

// notices returns the text of system notices sent to one connection.
func (n *recordingNotifier) notices(connID string) []string {
	var out []string
	for _, m := range n.ofType(internal.EventMessage) {
		data := m.msg.Data.(internal.ChatMessageData)
		if m.scope == "conn" && m.target == connID && data.Color == systemColor {
			out = append(out, data.Message)
		}
	}
	return out
}

func (n *recordingNotifier) waitFor(t *testing.T, kind string, count int) []sentMessage {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(n.ofType(kind)) >= count
	}, testWait, testPoll, "waiting for %d %q events", count, kind)
	return n.ofType(kind)
}

// ===== Store =====

type accusationCall struct {
	slot    int
	accused internal.Accused
	at      time.Time
}

type messageCall struct {
	seq   int
	color string
	text  string
}

type fakeStore struct {
	mu          sync.Mutex
	games       map[string]store.Game
	accusations []accusationCall
	messages    []messageCall
	scores      map[string]Scores
	userScores  map[string]int
	started     map[string]time.Time
	ended       map[string]time.Time
	completed   map[string]bool
	completeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		games:      make(map[string]store.Game),
		scores:     make(map[string]Scores),
		userScores: make(map[string]int),
		started:    make(map[string]time.Time),
		ended:      make(map[string]time.Time),
		completed:  make(map[string]bool),
	}
}

func (s *fakeStore) GetGame(ctx context.Context, gameID string) (store.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return store.Game{}, store.ErrGameNotFound
	}
	g.Completed = g.Completed || s.completed[gameID]
	return g, nil
}

func (s *fakeStore) RecordAccusation(ctx context.Context, gameID string, slot int, accused internal.Accused, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accusations = append(s.accusations, accusationCall{slot, accused, at})
	return nil
}

func (s *fakeStore) RecordScores(ctx context.Context, gameID string, p1, p2, bot int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[gameID] = Scores{p1, p2, bot}
	return nil
}

func (s *fakeStore) RecordMessage(ctx context.Context, gameID string, seq int, color, text string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, messageCall{seq, color, text})
	return nil
}

func (s *fakeStore) MarkStartTime(ctx context.Context, gameID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[gameID] = at
	return nil
}

func (s *fakeStore) MarkEndTime(ctx context.Context, gameID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended[gameID] = at
	return nil
}

func (s *fakeStore) MarkCompleted(ctx context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completeErr != nil {
		return s.completeErr
	}
	s.completed[gameID] = true
	return nil
}

func (s *fakeStore) PlayerUsernames(ctx context.Context, gameID string) ([2]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[gameID]
	if !ok {
		return [2]string{}, store.ErrGameNotFound
	}
	return [2]string{g.Player1Username, g.Player2Username}, nil
}

func (s *fakeStore) AddScore(ctx context.Context, username string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userScores[username] += delta
	return nil
}

func (s *fakeStore) userScore(username string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userScores[username]
}

func (s *fakeStore) accusationsSnapshot() []accusationCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]accusationCall(nil), s.accusations...)
}

func (s *fakeStore) messagesSnapshot() []messageCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]messageCall(nil), s.messages...)
}

func (s *fakeStore) scoresOf(gameID string) (Scores, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sc, ok := s.scores[gameID]
	return sc, ok
}

// ===== Bot =====

type fakeBot struct {
	mu          sync.Mutex
	reply       string
	err         error
	turns       int
	initialized chan bot.StartGameRequest
}

func newFakeBot() *fakeBot {
	return &fakeBot{initialized: make(chan bot.StartGameRequest, 4)}
}

func (b *fakeBot) Initialize(ctx context.Context, req bot.StartGameRequest) error {
	select {
	case b.initialized <- req:
	default:
	}
	return nil
}

func (b *fakeBot) RequestTurn(ctx context.Context, gameID string, history []internal.ChatEntry) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.turns++
	return b.reply, b.err
}

func (b *fakeBot) setReply(reply string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.reply, b.err = reply, err
}

// ===== Random =====

type fixedRandom struct {
	mu sync.Mutex
	f  float64
	n  int
}

func (r *fixedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.f
}

func (r *fixedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return min(r.n, n-1)
}

func (r *fixedRandom) set(f float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.f = f
}

// ===== Harness =====

const (
	testGameID = "g1"
	testWait   = 2 * time.Second
	testPoll   = 5 * time.Millisecond
)

var gameStart = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	c     *Controller
	clock *clockwork.FakeClock
	store *fakeStore
	n     *recordingNotifier
	bot   *fakeBot
	rng   *fixedRandom
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		clock: clockwork.NewFakeClockAt(gameStart),
		store: newFakeStore(),
		n:     newRecordingNotifier(),
		bot:   newFakeBot(),
		rng:   &fixedRandom{f: 0.99},
	}
	h.store.games[testGameID] = store.Game{
		ID:              testGameID,
		Player1Username: "alice",
		Player1Color:    "Orange",
		Player2Username: "bob",
		Player2Color:    "Purple",
		BotColor:        "Blue",
	}
	h.c = NewController(NewRegistry(), h.store, h.bot, h.n, Options{Clock: h.clock, Random: h.rng})
	t.Cleanup(h.c.Rooms().Shutdown)
	return h
}

// start joins both players and returns the live room.
func (h *harness) start(t *testing.T) *internal.Room {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.c.Join(ctx, "c1", "alice", testGameID))
	require.NoError(t, h.c.Join(ctx, "c2", "bob", testGameID))
	return h.room(t)
}

func (h *harness) room(t *testing.T) *internal.Room {
	t.Helper()
	room, err := h.c.Rooms().Get(testGameID)
	require.NoError(t, err)
	return room
}

func (h *harness) phase(room *internal.Room) internal.GamePhase {
	room.Mu.Lock()
	defer room.Mu.Unlock()
	return room.Phase
}

func (h *harness) result(t *testing.T) internal.GameResult {
	t.Helper()
	ended := h.n.waitFor(t, internal.EventGameEnded, 1)
	require.Len(t, ended, 1)
	return ended[0].msg.Data.(internal.GameResult)
}

func (h *harness) assertTimersStopped(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 0))
}
