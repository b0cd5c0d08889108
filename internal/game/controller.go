package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/scythe504/turing-game-backend/internal"
	"github.com/scythe504/turing-game-backend/internal/bot"
	"github.com/scythe504/turing-game-backend/internal/store"
)

const (
	noticeGameStarting  = "The Game is starting now. You have 5 minutes to chat with each other."
	noticeWaiting       = "Waiting for the other player to join..."
	noticeNotStarted    = "The game has not started yet. Please wait until all players are present."
	noticeGameEnding    = "The game is ending now. Please accuse someone."
	noticeTimeUp        = "Time is up! You have 15 seconds to accuse someone."
	noticeAccuserWait   = "Your opponent has 15 seconds to accuse someone. The game will end afterwards."
	noticeOpponentMoved = "Your opponent has made an accusation. You have 15 seconds to accuse someone."
	noticeOpponentLeft  = "Your opponent has left the game. Now, you have 15 seconds to accuse someone."
	noticeReported      = "Your opponent has made a report. The game will end now."

	systemColor    = "system"
	persistTimeout = 10 * time.Second
)

// Notifier delivers outbound events. Implementations must not call back into
// the Controller synchronously.
type Notifier interface {
	Subscribe(connID, gameID string)
	ToRoom(gameID string, msg internal.Message[any])
	ToConn(connID string, msg internal.Message[any])
	ToAll(msg internal.Message[any])
}

type BotClient interface {
	Initialize(ctx context.Context, req bot.StartGameRequest) error
	RequestTurn(ctx context.Context, gameID string, history []internal.ChatEntry) (string, error)
}

// Store is the part of store.Store the engine writes through.
type Store interface {
	GetGame(ctx context.Context, gameID string) (store.Game, error)
	RecordAccusation(ctx context.Context, gameID string, slot int, accused internal.Accused, at time.Time) error
	RecordScores(ctx context.Context, gameID string, p1, p2, bot int) error
	RecordMessage(ctx context.Context, gameID string, seq int, color, text string, at time.Time) error
	MarkStartTime(ctx context.Context, gameID string, at time.Time) error
	MarkEndTime(ctx context.Context, gameID string, at time.Time) error
	MarkCompleted(ctx context.Context, gameID string) error
	PlayerUsernames(ctx context.Context, gameID string) ([2]string, error)
	AddScore(ctx context.Context, username string, delta int) error
}

// Random is the source for bot pacing and message post-processing.
type Random interface {
	Float64() float64
	IntN(n int) int
}

type Options struct {
	GameDuration   time.Duration
	GracePeriod    time.Duration
	BotTurnTimeout time.Duration
	Clock          clockwork.Clock
	Random         Random
}

// Controller owns the lifecycle of every room.
type Controller struct {
	rooms  *Registry
	store  Store
	bot    BotClient
	notify Notifier

	clock       clockwork.Clock
	rng         Random
	duration    time.Duration
	grace       time.Duration
	turnTimeout time.Duration
}

func NewController(rooms *Registry, st Store, bc BotClient, n Notifier, opts Options) *Controller {
	c := &Controller{
		rooms:       rooms,
		store:       st,
		bot:         bc,
		notify:      n,
		clock:       opts.Clock,
		rng:         opts.Random,
		duration:    opts.GameDuration,
		grace:       opts.GracePeriod,
		turnTimeout: opts.BotTurnTimeout,
	}
	if c.clock == nil {
		c.clock = clockwork.NewRealClock()
	}
	if c.rng == nil {
		c.rng = newLockedRandom()
	}
	if c.duration <= 0 {
		c.duration = internal.GameDuration
	}
	if c.grace <= 0 {
		c.grace = internal.AccusationGrace
	}
	if c.turnTimeout <= 0 {
		c.turnTimeout = internal.BotTurnTimeout
	}
	return c
}

func (c *Controller) Rooms() *Registry { return c.rooms }

// =============================================================================
// EFFECT BATCH
// =============================================================================

// batch collects side effects while a room lock is held. flush runs them in
// order once the lock is released.
type batch struct {
	c      *Controller
	gameID string
	ops    []func()
}

func (c *Controller) newBatch(gameID string) *batch {
	return &batch{c: c, gameID: gameID}
}

func (b *batch) toRoom(kind string, data any) {
	msg := internal.Message[any]{Type: kind, Data: data}
	b.ops = append(b.ops, func() { b.c.notify.ToRoom(b.gameID, msg) })
}

func (b *batch) toConn(connID, kind string, data any) {
	msg := internal.Message[any]{Type: kind, Data: data}
	b.ops = append(b.ops, func() { b.c.notify.ToConn(connID, msg) })
}

func (b *batch) toAll(kind string, data any) {
	msg := internal.Message[any]{Type: kind, Data: data}
	b.ops = append(b.ops, func() { b.c.notify.ToAll(msg) })
}

func (b *batch) subscribe(connID string) {
	b.ops = append(b.ops, func() { b.c.notify.Subscribe(connID, b.gameID) })
}

func (b *batch) notice(connID, text string) {
	b.toConn(connID, internal.EventMessage, internal.ChatMessageData{Color: systemColor, Message: text, Bold: 1})
}

// persist queues a store write. Failures are logged and never roll back room
// state.
func (b *batch) persist(what string, fn func(ctx context.Context) error) {
	b.ops = append(b.ops, func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			log.Printf("[persist] Room %s: %s failed: %v", b.gameID, what, err)
		}
	})
}

func (b *batch) do(fn func()) {
	b.ops = append(b.ops, fn)
}

func (b *batch) flush() {
	for _, op := range b.ops {
		op()
	}
	b.ops = nil
}

// =============================================================================
// JOIN
// =============================================================================

// loadRoom returns the live room for the game, creating it from the store
// row on first contact.
func (c *Controller) loadRoom(ctx context.Context, gameID string) (*internal.Room, error) {
	if room, err := c.rooms.Get(gameID); err == nil {
		return room, nil
	}
	if c.rooms.HasEnded(gameID) {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrGameAlreadyOver)
	}

	g, err := c.store.GetGame(ctx, gameID)
	if errors.Is(err, store.ErrGameNotFound) {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrRoomNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load game %s: %w", gameID, err)
	}
	if g.Completed {
		return nil, fmt.Errorf("game %s: %w", gameID, ErrGameAlreadyOver)
	}

	room, err := c.rooms.Create(g.ID, g.Player1Username, g.Player2Username, g.Colors())
	if errors.Is(err, ErrRoomExists) {
		return c.rooms.Get(gameID)
	}
	return room, err
}

// Join attaches a human to their game. The second distinct human starts it.
func (c *Controller) Join(ctx context.Context, connID, username, gameID string) error {
	room, err := c.lockLiveRoom(ctx, gameID)
	if err != nil {
		log.Printf("[Join] Room %s: user %s rejected: %v", gameID, username, err)
		c.joinError(connID, err)
		return err
	}

	b := c.newBatch(gameID)

	color, ok := room.ColorOf(username)
	if !ok {
		room.Mu.Unlock()
		log.Printf("[Join] Room %s: %s is not a player of this game", gameID, username)
		c.joinError(connID, ErrNotParticipant)
		return ErrNotParticipant
	}

	b.subscribe(connID)
	b.toConn(connID, internal.EventColorAssigned, internal.ColorAssignedData{
		Color: color, Username: username, GameID: gameID,
	})

	added := room.AddMember(connID, username, color, c.clock.Now())
	log.Printf("[Join] Room %s: %s joined as %s (new=%v, members=%d, phase=%s)",
		gameID, username, color, added, len(room.Members), room.Phase)

	if room.Phase == internal.PhaseWaiting {
		if len(room.Members) == internal.MaxPlayersPerRoom {
			c.startGame(room, b)
		} else {
			b.notice(connID, noticeWaiting)
		}
	}

	for _, m := range room.Members {
		b.toConn(m.ConnID, internal.EventOtherPlayers, internal.OtherPlayersData{
			OtherPlayers: room.OthersOf(m.Color),
		})
	}
	room.Mu.Unlock()

	b.flush()
	return nil
}

// lockLiveRoom loads the room and returns it locked. A room torn down between
// lookup and lock is loaded again once.
func (c *Controller) lockLiveRoom(ctx context.Context, gameID string) (*internal.Room, error) {
	for attempt := 0; attempt < 2; attempt++ {
		room, err := c.loadRoom(ctx, gameID)
		if err != nil {
			return nil, err
		}
		room.Mu.Lock()
		if !room.IsEnded() {
			return room, nil
		}
		room.Mu.Unlock()
	}
	return nil, fmt.Errorf("game %s: %w", gameID, ErrGameAlreadyOver)
}

func (c *Controller) joinError(connID string, err error) {
	c.notify.ToConn(connID, internal.Message[any]{
		Type: internal.EventError,
		Data: internal.ErrorData{Type: internal.ErrorKindGame, Message: "Unable to join game", Details: err.Error()},
	})
}

// startGame moves a full room to ACTIVE. Callers hold room.Mu.
func (c *Controller) startGame(room *internal.Room, b *batch) {
	if !room.Advance(internal.PhaseActive) {
		return
	}
	room.BotColor = room.Colors.Bot
	startedAt := c.clock.Now()
	c.startCountdown(room, startedAt)

	log.Printf("[startGame] Room %s: game started, bot plays %s", room.Id, room.BotColor)

	req := bot.StartGameRequest{
		GameID:       room.Id,
		BotColor:     room.Colors.Bot,
		Player1Color: room.Colors.Player1,
		Player2Color: room.Colors.Player2,
	}
	roomCtx := room.Context
	b.do(func() { go c.initializeBot(roomCtx, req) })

	b.toRoom(internal.EventMessage, internal.ChatMessageData{Color: systemColor, Message: noticeGameStarting, Bold: 1})
	b.persist("mark start time", func(ctx context.Context) error {
		return c.store.MarkStartTime(ctx, room.Id, startedAt)
	})
}

func (c *Controller) initializeBot(ctx context.Context, req bot.StartGameRequest) {
	ctx, cancel := context.WithTimeout(ctx, c.turnTimeout)
	defer cancel()

	if err := c.bot.Initialize(ctx, req); err != nil {
		log.Printf("[initializeBot] Room %s: bot initialization failed, continuing without: %v", req.GameID, err)
	}
}

// =============================================================================
// CHAT
// =============================================================================

// SendMessage relays a human chat line to the room while the game is ACTIVE.
func (c *Controller) SendMessage(ctx context.Context, connID, gameID, color, text string) error {
	room, err := c.rooms.Get(gameID)
	if err != nil {
		log.Printf("[SendMessage] Room %s: %v", gameID, err)
		return err
	}

	b := c.newBatch(gameID)
	room.Mu.Lock()

	switch {
	case room.Phase == internal.PhaseWaiting:
		b.notice(connID, noticeNotStarted)
		err = ErrInvalidTransition
	case room.Phase != internal.PhaseActive || room.Accusations.First != nil:
		b.notice(connID, noticeGameEnding)
		err = ErrInvalidTransition
	case !room.IsHumanColor(color):
		err = ErrUnknownPlayerColor
	case !room.HoldsColor(connID, color):
		err = ErrNotParticipant
	}

	text = strings.TrimSpace(text)
	if err == nil && text != "" {
		room.History = append(room.History, internal.ChatEntry{
			Role:    internal.RoleHuman,
			Content: color + ": " + text,
		})
		room.LastSenderWasBot = false
		seq := room.MessageCount
		room.MessageCount++
		sentAt := c.clock.Now()

		b.toRoom(internal.EventMessage, internal.ChatMessageData{Color: color, Message: text})
		b.persist("record message", func(ctx context.Context) error {
			return c.store.RecordMessage(ctx, gameID, seq, color, text, sentAt)
		})
	}
	room.Mu.Unlock()

	b.flush()
	if err != nil {
		log.Printf("[SendMessage] Room %s: message from %s rejected: %v", gameID, color, err)
	}
	return err
}

// =============================================================================
// LEAVE / DISCONNECT / REPORT
// =============================================================================

// Leave handles an explicit leaveGame from a player.
func (c *Controller) Leave(ctx context.Context, connID, gameID, color string) error {
	room, err := c.rooms.Get(gameID)
	if err != nil {
		return err
	}

	b := c.newBatch(gameID)
	room.Mu.Lock()
	switch {
	case room.IsEnded():
		err = ErrInvalidTransition
	case !room.IsHumanColor(color):
		err = ErrUnknownPlayerColor
	case !room.HoldsColor(connID, color):
		err = ErrNotParticipant
	default:
		room.RemoveColor(color)
		c.handleDeparture(room, b, color)
	}
	room.Mu.Unlock()

	b.flush()
	if err != nil {
		log.Printf("[Leave] Room %s: leave as %s rejected: %v", gameID, color, err)
	}
	return err
}

// Disconnect handles a closed socket. A socket that was superseded by a
// rejoin is ignored.
func (c *Controller) Disconnect(ctx context.Context, connID, gameID string) error {
	room, err := c.rooms.Get(gameID)
	if err != nil {
		return err
	}

	b := c.newBatch(gameID)
	room.Mu.Lock()
	if m := room.RemoveConn(connID); m != nil {
		log.Printf("[Disconnect] Room %s: %s (%s) disconnected", gameID, m.Username, m.Color)
		c.handleDeparture(room, b, m.Color)
	}
	room.Mu.Unlock()

	b.flush()
	return nil
}

// handleDeparture treats a departing player as having accused no one.
// Callers hold room.Mu and have already removed the member.
func (c *Controller) handleDeparture(room *internal.Room, b *batch, color string) {
	switch {
	case room.IsEnded():
		return
	case room.Phase == internal.PhaseWaiting:
		if len(room.Members) == 0 {
			// nobody left to start the game; it is reloaded from the store on next join
			c.rooms.destroyLocked(room)
		}
		return
	}

	if room.Accusations.HasAccused(color) {
		if len(room.Members) == 0 {
			c.endGame(room, b, "")
		}
		return
	}
	c.handleAccusation(room, b, color, "", departureAccusation)
}

// Report ends the game at a player's request.
func (c *Controller) Report(ctx context.Context, connID, gameID, reporter string) error {
	room, err := c.rooms.Get(gameID)
	if err != nil {
		return err
	}

	b := c.newBatch(gameID)
	room.Mu.Lock()
	switch {
	case room.Phase == internal.PhaseWaiting, room.IsEnded():
		err = ErrInvalidTransition
	case !room.IsHumanColor(reporter):
		err = ErrUnknownPlayerColor
	case !room.HoldsColor(connID, reporter):
		err = ErrNotParticipant
	default:
		log.Printf("[Report] Room %s: %s reported the game", gameID, reporter)
		if !room.Accusations.HasAccused(reporter) {
			room.Accusations.Record(reporter, "", c.clock.Now())
		}
		if opp := room.OpponentOf(reporter); opp != nil {
			b.toConn(opp.ConnID, internal.EventGameReported, internal.NoticeData{Message: noticeReported})
		}
		c.endGame(room, b, fmt.Sprintf("%s has reported an issue.", reporter))
	}
	room.Mu.Unlock()

	b.flush()
	return err
}

// =============================================================================
// END OF GAME
// =============================================================================

// endGame scores and tears down the room. It runs at most once per room.
// Callers hold room.Mu.
func (c *Controller) endGame(room *internal.Room, b *batch, reason string) {
	if room.IsEnded() {
		return
	}

	result, scores := buildResult(room, reason)
	endedAt := c.clock.Now()
	gameID := room.Id

	c.rooms.finishLocked(room)
	log.Printf("[endGame] Room %s: ended (scores p1=%d p2=%d bot=%d, reason=%q)",
		gameID, scores.Player1, scores.Player2, scores.Bot, reason)

	b.persist("mark completed", func(ctx context.Context) error {
		return c.store.MarkCompleted(ctx, gameID)
	})
	b.persist("record scores", func(ctx context.Context) error {
		return c.store.RecordScores(ctx, gameID, scores.Player1, scores.Player2, scores.Bot)
	})
	b.persist("mark end time", func(ctx context.Context) error {
		return c.store.MarkEndTime(ctx, gameID, endedAt)
	})
	b.toRoom(internal.EventGameEnded, result)
	b.persist("add user scores", func(ctx context.Context) error {
		names, err := c.store.PlayerUsernames(ctx, gameID)
		if err != nil {
			return err
		}
		if err := c.store.AddScore(ctx, names[0], scores.Player1); err != nil {
			return err
		}
		return c.store.AddScore(ctx, names[1], scores.Player2)
	})
	b.toAll(internal.EventGameCompleted, internal.GameCompletedData{GameID: gameID})
}

// =============================================================================
// RANDOMNESS
// =============================================================================

type lockedRandom struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newLockedRandom() *lockedRandom {
	seed := uint64(time.Now().UnixNano())
	return &lockedRandom{r: rand.New(rand.NewPCG(seed, seed>>17|1))}
}

func (l *lockedRandom) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

func (l *lockedRandom) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// between returns a uniform integer in [lo, hi].
func (c *Controller) between(lo, hi int) int {
	return lo + c.rng.IntN(hi-lo+1)
}
