package bot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/scythe504/turing-game-backend/internal"
)

// maxReplyBytes caps how much of a bot response is read.
const maxReplyBytes = 64 << 10

var (
	ErrTimeout     = errors.New("bot request timed out")
	ErrUnavailable = errors.New("bot service unavailable")
)

type StartGameRequest struct {
	GameID       string `json:"game_id"`
	BotColor     string `json:"botColor"`
	Player1Color string `json:"player1Color"`
	Player2Color string `json:"player2Color"`
}

type TurnRequest struct {
	GameID      string               `json:"game_id"`
	ChatHistory []internal.ChatEntry `json:"chat_history"`
}

// Client talks to the bot collaborator over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = internal.BotTurnTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Initialize tells the bot a game has started and which colors are in play.
func (c *Client) Initialize(ctx context.Context, req StartGameRequest) error {
	body, err := c.post(ctx, "/start-game", req)
	if err != nil {
		return err
	}
	log.Printf("[Initialize] Game %s: bot ready as %s (%d bytes)", req.GameID, req.BotColor, len(body))
	return nil
}

// RequestTurn asks the bot for its next utterance. An empty string means the
// bot chose to stay silent.
func (c *Client) RequestTurn(ctx context.Context, gameID string, history []internal.ChatEntry) (string, error) {
	if history == nil {
		history = []internal.ChatEntry{}
	}
	body, err := c.post(ctx, "/response", TurnRequest{GameID: gameID, ChatHistory: history})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (c *Client) post(ctx context.Context, path string, payload any) ([]byte, error) {
	buf, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrTimeout)
		}
		return nil, fmt.Errorf("%s: %w: %v", path, ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrTimeout)
		}
		return nil, fmt.Errorf("%s: read body: %w: %v", path, ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s: status %d: %w", path, resp.StatusCode, ErrUnavailable)
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
