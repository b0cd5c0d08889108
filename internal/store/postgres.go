package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scythe504/turing-game-backend/internal"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	username   TEXT PRIMARY KEY,
	score      INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS games (
	game_id                 TEXT PRIMARY KEY,
	player1_username        TEXT NOT NULL,
	player1_color           TEXT NOT NULL,
	player2_username        TEXT NOT NULL,
	player2_color           TEXT NOT NULL,
	bot_color               TEXT NOT NULL,
	player1_accused         INTEGER NOT NULL DEFAULT 0,
	player1_accusation_time TIMESTAMPTZ,
	player2_accused         INTEGER NOT NULL DEFAULT 0,
	player2_accusation_time TIMESTAMPTZ,
	player1_score           INTEGER NOT NULL DEFAULT 0,
	player2_score           INTEGER NOT NULL DEFAULT 0,
	bot_score               INTEGER NOT NULL DEFAULT 0,
	start_time              TIMESTAMPTZ,
	end_time                TIMESTAMPTZ,
	is_completed            BOOLEAN NOT NULL DEFAULT FALSE
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
	sent_time    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (game_id, message_id)
);
`

type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	log.Printf("[NewPostgres] Connected to %s", pool.Config().ConnConfig.Host)
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) GetGame(ctx context.Context, gameID string) (Game, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+gameColumns+` FROM games WHERE game_id = $1`, gameID)
	if err != nil {
		return Game{}, fmt.Errorf("get game %s: %w", gameID, err)
	}
	g, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[Game])
	if errors.Is(err, pgx.ErrNoRows) {
		return Game{}, fmt.Errorf("game %s: %w", gameID, ErrGameNotFound)
	}
	if err != nil {
		return Game{}, fmt.Errorf("scan game %s: %w", gameID, err)
	}
	return g, nil
}

func (p *Postgres) CreateGame(ctx context.Context, g Game) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		for _, u := range []string{g.Player1Username, g.Player2Username} {
			if _, err := tx.Exec(ctx, `INSERT INTO users (username) VALUES ($1) ON CONFLICT DO NOTHING`, u); err != nil {
				return fmt.Errorf("insert user %s: %w", u, err)
			}
		}
		_, err := tx.Exec(ctx, `INSERT INTO games
			(game_id, player1_username, player1_color, player2_username, player2_color, bot_color)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			g.ID, g.Player1Username, g.Player1Color, g.Player2Username, g.Player2Color, g.BotColor)
		if err != nil {
			return fmt.Errorf("insert game %s: %w", g.ID, err)
		}

		batch := &pgx.Batch{}
		batch.Queue(`INSERT INTO user_games (username, game_id, player_order) VALUES ($1, $2, 1)`, g.Player1Username, g.ID)
		batch.Queue(`INSERT INTO user_games (username, game_id, player_order) VALUES ($1, $2, 2)`, g.Player2Username, g.ID)
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (p *Postgres) RecordAccusation(ctx context.Context, gameID string, slot int, accused internal.Accused, at time.Time) error {
	accCol, timeCol, err := accusationColumns(slot)
	if err != nil {
		return err
	}
	q := fmt.Sprintf(`UPDATE games SET %s = $1, %s = $2 WHERE game_id = $3`, accCol, timeCol)
	return p.exec(ctx, q, int(accused), at, gameID)
}

func (p *Postgres) RecordScores(ctx context.Context, gameID string, p1, p2, bot int) error {
	return p.exec(ctx, `UPDATE games SET player1_score = $1, player2_score = $2, bot_score = $3 WHERE game_id = $4`,
		p1, p2, bot, gameID)
}

func (p *Postgres) RecordMessage(ctx context.Context, gameID string, seq int, color, text string, at time.Time) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO messages (game_id, message_id, sender_color, content, sent_time)
		VALUES ($1, $2, $3, $4, $5)`, gameID, seq, color, text, at)
	if err != nil {
		return fmt.Errorf("insert message %s/%d: %w", gameID, seq, err)
	}
	return nil
}

func (p *Postgres) Messages(ctx context.Context, gameID string) ([]ChatMessage, error) {
	rows, err := p.pool.Query(ctx, `SELECT game_id, message_id, sender_color, content, sent_time
		FROM messages WHERE game_id = $1 ORDER BY message_id`, gameID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[ChatMessage])
}

func (p *Postgres) MarkStartTime(ctx context.Context, gameID string, at time.Time) error {
	return p.exec(ctx, `UPDATE games SET start_time = $1 WHERE game_id = $2`, at, gameID)
}

func (p *Postgres) MarkEndTime(ctx context.Context, gameID string, at time.Time) error {
	return p.exec(ctx, `UPDATE games SET end_time = $1 WHERE game_id = $2`, at, gameID)
}

func (p *Postgres) MarkCompleted(ctx context.Context, gameID string) error {
	return p.exec(ctx, `UPDATE games SET is_completed = TRUE WHERE game_id = $1`, gameID)
}

func (p *Postgres) PlayerUsernames(ctx context.Context, gameID string) ([2]string, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT username FROM user_games WHERE game_id = $1 ORDER BY player_order`, gameID)
	if err != nil {
		return [2]string{}, fmt.Errorf("usernames %s: %w", gameID, err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return [2]string{}, fmt.Errorf("usernames %s: %w", gameID, err)
	}
	if len(names) != 2 {
		return [2]string{}, fmt.Errorf("usernames %s: %w", gameID, ErrGameNotFound)
	}
	return [2]string{names[0], names[1]}, nil
}

func (p *Postgres) AddScore(ctx context.Context, username string, delta int) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO users (username, score) VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET score = users.score + EXCLUDED.score`, username, delta)
	if err != nil {
		return fmt.Errorf("add score %s: %w", username, err)
	}
	return nil
}

func (p *Postgres) UserScore(ctx context.Context, username string) (int, error) {
	var score int
	err := p.pool.QueryRow(ctx, `SELECT score FROM users WHERE username = $1`, username).Scan(&score)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return score, err
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) exec(ctx context.Context, query string, args ...any) error {
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGameNotFound
	}
	return nil
}
