package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/scythe504/turing-game-backend/internal"
)

var ErrGameNotFound = errors.New("game not found")

// Game is one row of the games table.
type Game struct {
	ID              string `db:"game_id" bson:"_id" json:"game_id"`
	Player1Username string `db:"player1_username" bson:"player1_username" json:"player1_username"`
	Player1Color    string `db:"player1_color" bson:"player1_color" json:"player1_color"`
	Player2Username string `db:"player2_username" bson:"player2_username" json:"player2_username"`
	Player2Color    string `db:"player2_color" bson:"player2_color" json:"player2_color"`
	BotColor        string `db:"bot_color" bson:"bot_color" json:"bot_color"`

	Player1Accused        int        `db:"player1_accused" bson:"player1_accused" json:"player1_accused"`
	Player1AccusationTime *time.Time `db:"player1_accusation_time" bson:"player1_accusation_time,omitempty" json:"player1_accusation_time,omitempty"`
	Player2Accused        int        `db:"player2_accused" bson:"player2_accused" json:"player2_accused"`
	Player2AccusationTime *time.Time `db:"player2_accusation_time" bson:"player2_accusation_time,omitempty" json:"player2_accusation_time,omitempty"`

	Player1Score int `db:"player1_score" bson:"player1_score" json:"player1_score"`
	Player2Score int `db:"player2_score" bson:"player2_score" json:"player2_score"`
	BotScore     int `db:"bot_score" bson:"bot_score" json:"bot_score"`

	StartTime *time.Time `db:"start_time" bson:"start_time,omitempty" json:"start_time,omitempty"`
	EndTime   *time.Time `db:"end_time" bson:"end_time,omitempty" json:"end_time,omitempty"`
	Completed bool       `db:"is_completed" bson:"is_completed" json:"is_completed"`
}

func (g Game) Colors() internal.RoomColors {
	return internal.RoomColors{Player1: g.Player1Color, Player2: g.Player2Color, Bot: g.BotColor}
}

type ChatMessage struct {
	GameID   string    `db:"game_id" bson:"game_id" json:"game_id"`
	Seq      int       `db:"message_id" bson:"message_id" json:"message_id"`
	Color    string    `db:"sender_color" bson:"sender_color" json:"sender_color"`
	Content  string    `db:"content" bson:"content" json:"content"`
	SentTime time.Time `db:"sent_time" bson:"sent_time" json:"sent_time"`
}

// Store is the durable record of games, players and transcripts.
type Store interface {
	GetGame(ctx context.Context, gameID string) (Game, error)
	CreateGame(ctx context.Context, g Game) error
	RecordAccusation(ctx context.Context, gameID string, slot int, accused internal.Accused, at time.Time) error
	RecordScores(ctx context.Context, gameID string, p1, p2, bot int) error
	RecordMessage(ctx context.Context, gameID string, seq int, color, text string, at time.Time) error
	Messages(ctx context.Context, gameID string) ([]ChatMessage, error)
	MarkStartTime(ctx context.Context, gameID string, at time.Time) error
	MarkEndTime(ctx context.Context, gameID string, at time.Time) error
	MarkCompleted(ctx context.Context, gameID string) error
	PlayerUsernames(ctx context.Context, gameID string) ([2]string, error)
	AddScore(ctx context.Context, username string, delta int) error
	UserScore(ctx context.Context, username string) (int, error)
	Close() error
}

// Open returns the store for the given driver name.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite", "sqlite3":
		return NewSQLite(dsn)
	case "postgres", "pgx":
		return NewPostgres(ctx, dsn)
	case "mongo", "mongodb":
		return NewMongo(ctx, dsn)
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

func accusationColumns(slot int) (string, string, error) {
	switch slot {
	case 1:
		return "player1_accused", "player1_accusation_time", nil
	case 2:
		return "player2_accused", "player2_accusation_time", nil
	}
	return "", "", fmt.Errorf("invalid player slot %d", slot)
}
