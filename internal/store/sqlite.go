package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/scythe504/turing-game-backend/internal"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
	username   TEXT PRIMARY KEY,
	score      INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS games (
	game_id                 TEXT PRIMARY KEY,
	player1_username        TEXT NOT NULL,
	player1_color           TEXT NOT NULL,
	player2_username        TEXT NOT NULL,
	player2_color           TEXT NOT NULL,
	bot_color               TEXT NOT NULL,
	player1_accused         INTEGER NOT NULL DEFAULT 0,
	player1_accusation_time TIMESTAMP,
	player2_accused         INTEGER NOT NULL DEFAULT 0,
	player2_accusation_time TIMESTAMP,
	player1_score           INTEGER NOT NULL DEFAULT 0,
	player2_score           INTEGER NOT NULL DEFAULT 0,
	bot_score               INTEGER NOT NULL DEFAULT 0,
	start_time              TIMESTAMP,
	end_time                TIMESTAMP,
	is_completed            BOOLEAN NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS user_games (
	username     TEXT NOT NULL,
	game_id      TEXT NOT NULL,
	player_order INTEGER NOT NULL,
	PRIMARY KEY (game_id, player_order)
);

CREATE TABLE IF NOT EXISTS messages (
	game_id      TEXT NOT NULL,
	message_id   INTEGER NOT NULL,
	sender_color TEXT NOT NULL,
	content      TEXT NOT NULL,
	sent_time    TIMESTAMP NOT NULL,
	PRIMARY KEY (game_id, message_id)
);
`

const gameColumns = `game_id, player1_username, player1_color, player2_username, player2_color, bot_color,
	player1_accused, player1_accusation_time, player2_accused, player2_accusation_time,
	player1_score, player2_score, bot_score, start_time, end_time, is_completed`

type SQLite struct {
	db *sqlx.DB
}

func NewSQLite(dsn string) (*SQLite, error) {
	if dsn == "" {
		dsn = "turing.db"
	}
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	// sqlite serialises writers anyway; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	log.Printf("[NewSQLite] Opened %s", dsn)
	return &SQLite{db: db}, nil
}

func (s *SQLite) GetGame(ctx context.Context, gameID string) (Game, error) {
	var g Game
	err := s.db.GetContext(ctx, &g, `SELECT `+gameColumns+` FROM games WHERE game_id = ?`, gameID)
	if errors.Is(err, sql.ErrNoRows) {
		return Game{}, fmt.Errorf("game %s: %w", gameID, ErrGameNotFound)
	}
	if err != nil {
		return Game{}, fmt.Errorf("get game %s: %w", gameID, err)
	}
	return g, nil
}

func (s *SQLite) CreateGame(ctx context.Context, g Game) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, u := range []string{g.Player1Username, g.Player2Username} {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO users (username) VALUES (?)`, u); err != nil {
			return fmt.Errorf("insert user %s: %w", u, err)
		}
	}
	_, err = tx.NamedExecContext(ctx, `INSERT INTO games
		(game_id, player1_username, player1_color, player2_username, player2_color, bot_color)
		VALUES (:game_id, :player1_username, :player1_color, :player2_username, :player2_color, :bot_color)`, g)
	if err != nil {
		return fmt.Errorf("insert game %s: %w", g.ID, err)
	}
	for order, u := range []string{g.Player1Username, g.Player2Username} {
		_, err := tx.ExecContext(ctx, `INSERT INTO user_games (username, game_id, player_order) VALUES (?, ?, ?)`,
			u, g.ID, order+1)
		if err != nil {
			return fmt.Errorf("insert user_games %s: %w", g.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) RecordAccusation(ctx context.Context, gameID string, slot int, accused internal.Accused, at time.Time) error {
	accCol, timeCol, err := accusationColumns(slot)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE games SET %s = ?, %s = ? WHERE game_id = ?`, accCol, timeCol)
	return s.exec(ctx, q, int(accused), at.UTC(), gameID)
}

func (s *SQLite) RecordScores(ctx context.Context, gameID string, p1, p2, bot int) error {
	return s.exec(ctx, `UPDATE games SET player1_score = ?, player2_score = ?, bot_score = ? WHERE game_id = ?`,
		p1, p2, bot, gameID)
}

func (s *SQLite) RecordMessage(ctx context.Context, gameID string, seq int, color, text string, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO messages (game_id, message_id, sender_color, content, sent_time)
		VALUES (?, ?, ?, ?, ?)`, gameID, seq, color, text, at.UTC())
	if err != nil {
		return fmt.Errorf("insert message %s/%d: %w", gameID, seq, err)
	}
	return nil
}

func (s *SQLite) Messages(ctx context.Context, gameID string) ([]ChatMessage, error) {
	var msgs []ChatMessage
	err := s.db.SelectContext(ctx, &msgs, `SELECT game_id, message_id, sender_color, content, sent_time
		FROM messages WHERE game_id = ? ORDER BY message_id`, gameID)
	return msgs, err
}

func (s *SQLite) MarkStartTime(ctx context.Context, gameID string, at time.Time) error {
	return s.exec(ctx, `UPDATE games SET start_time = ? WHERE game_id = ?`, at.UTC(), gameID)
}

func (s *SQLite) MarkEndTime(ctx context.Context, gameID string, at time.Time) error {
	return s.exec(ctx, `UPDATE games SET end_time = ? WHERE game_id = ?`, at.UTC(), gameID)
}

func (s *SQLite) MarkCompleted(ctx context.Context, gameID string) error {
	return s.exec(ctx, `UPDATE games SET is_completed = 1 WHERE game_id = ?`, gameID)
}

func (s *SQLite) PlayerUsernames(ctx context.Context, gameID string) ([2]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names,
		`SELECT username FROM user_games WHERE game_id = ? ORDER BY player_order`, gameID)
	if err != nil {
		return [2]string{}, fmt.Errorf("usernames %s: %w", gameID, err)
	}
	if len(names) != 2 {
		return [2]string{}, fmt.Errorf("usernames %s: %w", gameID, ErrGameNotFound)
	}
	return [2]string{names[0], names[1]}, nil
}

func (s *SQLite) AddScore(ctx context.Context, username string, delta int) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (username, score) VALUES (?, ?)
		ON CONFLICT(username) DO UPDATE SET score = score + excluded.score`, username, delta)
	if err != nil {
		return fmt.Errorf("add score %s: %w", username, err)
	}
	return nil
}

func (s *SQLite) UserScore(ctx context.Context, username string) (int, error) {
	var score int
	err := s.db.GetContext(ctx, &score, `SELECT score FROM users WHERE username = ?`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return score, err
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// exec runs an UPDATE and maps "no row touched" to ErrGameNotFound.
func (s *SQLite) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrGameNotFound
	}
	return nil
}
