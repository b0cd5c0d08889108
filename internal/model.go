package internal

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	GameDuration        = 300 * time.Second
	AccusationGrace     = 15 * time.Second
	BotTurnTimeout      = 180 * time.Second
	MaxPlayersPerRoom   = 2
	MaxBotMessageLength = 120
)

// Palette is the set of colors a game can hand out. Each game uses three
// distinct entries: one per human and one for the bot.
var Palette = []string{"Orange", "Purple", "Blue", "Red", "Green", "Black"}

type GamePhase string

const (
	PhaseWaiting    GamePhase = "waiting"
	PhaseActive     GamePhase = "active"
	PhaseAccusation GamePhase = "accusation_window"
	PhaseEnded      GamePhase = "ended"
)

func (p GamePhase) rank() int {
	switch p {
	case PhaseActive:
		return 1
	case PhaseAccusation:
		return 2
	case PhaseEnded:
		return 3
	default:
		return 0
	}
}

// Before reports whether p comes strictly earlier than other in the room
// lifecycle.
func (p GamePhase) Before(other GamePhase) bool {
	return p.rank() < other.rank()
}

// Accused is the persisted code for who an accusation pointed at.
type Accused int

const (
	AccusedNone  Accused = 0
	AccusedBot   Accused = 1
	AccusedHuman Accused = 2
)

type ChatRole string

const (
	RoleHuman ChatRole = "user"
	RoleBot   ChatRole = "assistant"
)

type ChatEntry struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

type RoomColors struct {
	Player1 string `json:"player1_color"`
	Player2 string `json:"player2_color"`
	Bot     string `json:"bot_color"`
}

type Accusation struct {
	Accuser string    `json:"accuser"`
	Accused string    `json:"accused"`
	At      time.Time `json:"at"`
}

type AccusationRecord struct {
	First  *Accusation `json:"first,omitempty"`
	Second *Accusation `json:"second,omitempty"`
}

type RecordResult struct {
	IsFirst  bool
	IsSecond bool
}

type GameTimer struct {
	StartTime       time.Time     `json:"start_time"`
	Duration        time.Duration `json:"duration"`
	Remaining       int           `json:"remaining"`
	NextBotDeadline int           `json:"next_bot_deadline"`
	IsActive        bool          `json:"is_active"`

	Ticker clockwork.Ticker  `json:"-"`
	Grace  []clockwork.Timer `json:"-"`
}

type Response struct {
	StatusCode    int   `json:"status_code"`
	RespStartTime int64 `json:"resp_time_start_ms"`
	RespEndTime   int64 `json:"resp_time_end_ms"`
	NetRespTime   int64 `json:"net_resp_time_ms"`
	Data          any   `json:"data"`
}

type Room struct {
	Id      string
	Player1 string
	Player2 string
	Colors  RoomColors
	Members []*Member

	// Game State
	Phase            GamePhase `json:"phase"`
	BotColor         string    `json:"bot_color"`
	MessageCount     int       `json:"message_count"`
	LastSenderWasBot bool      `json:"last_sender_was_bot"`
	TimeIsUp         bool      `json:"time_is_up"`
	BotInFlight      bool      `json:"bot_in_flight"`

	History     []ChatEntry      `json:"history"`
	Accusations AccusationRecord `json:"accusations"`

	// Timer
	Timer *GameTimer `json:"timer"`

	// Concurrency control
	Mu sync.Mutex `json:"-"`

	// Context for cleanup
	Context context.Context    `json:"-"`
	Cancel  context.CancelFunc `json:"-"`
}

type Member struct {
	ConnID   string    `json:"conn_id"`
	Username string    `json:"username"`
	Color    string    `json:"color"`
	JoinedAt time.Time `json:"joined_at"`
}

type GameResult struct {
	GameID                  string `json:"game_id"`
	Message                 string `json:"message"`
	Player1Color            string `json:"player1_color"`
	Player1Accusation       string `json:"player1_accusation"`
	Player1AccusationStatus string `json:"player1_accusation_status"`
	Player1Score            int    `json:"player1_score"`
	Player2Color            string `json:"player2_color"`
	Player2Accusation       string `json:"player2_accusation"`
	Player2AccusationStatus string `json:"player2_accusation_status"`
	Player2Score            int    `json:"player2_score"`
	BotColor                string `json:"bot_color"`
	BotScore                int    `json:"bot_score"`
	Reason                  string `json:"reason,omitempty"`
}
