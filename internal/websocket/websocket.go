package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/scythe504/turing-game-backend/internal"
)

const (
	writeWait      = 10 * time.Second
	handlerTimeout = 15 * time.Second
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler receives decoded client events.
type Handler interface {
	Join(ctx context.Context, connID, username, gameID string) error
	SendMessage(ctx context.Context, connID, gameID, color, text string) error
	Accuse(ctx context.Context, connID, gameID, accuser, accused string) error
	Leave(ctx context.Context, connID, gameID, color string) error
	Report(ctx context.Context, connID, gameID, reporter string) error
	Disconnect(ctx context.Context, connID, gameID string) error
}

type Client struct {
	ID      string
	conn    *websocket.Conn
	writeMu sync.Mutex
	gameID  string // guarded by Hub.mu
}

func (c *Client) SafeWriteJSON(v any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// Hub tracks live connections and which game each one follows.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
	}
}

// =============================================================================
// WEBSOCKET CONNECTION HANDLING
// =============================================================================

// ServeWS upgrades the request and feeds the connection's events to handler.
func (h *Hub) ServeWS(handler Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("[ServeWS] Upgrade failed: %v", err)
			return
		}

		client := &Client{ID: uuid.NewString(), conn: conn}
		h.register(client)
		log.Printf("[ServeWS] Client %s connected from %s", client.ID, r.RemoteAddr)

		go h.handleMessages(handler, client)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// unregister forgets the client and returns the game it was following.
func (h *Hub) unregister(c *Client) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.clients, c.ID)
	gameID := c.gameID
	if members, ok := h.rooms[gameID]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, gameID)
		}
	}
	return gameID
}

// handleMessages processes incoming WebSocket messages for a client
func (h *Hub) handleMessages(handler Handler, client *Client) {
	defer func() {
		client.conn.Close()
		gameID := h.unregister(client)
		log.Printf("[handleMessages] Client %s disconnected (game=%q)", client.ID, gameID)
		if gameID == "" {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		if err := handler.Disconnect(ctx, client.ID, gameID); err != nil {
			log.Printf("[handleMessages] Disconnect %s from %s: %v", client.ID, gameID, err)
		}
	}()

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[handleMessages] Read error for client %s: %v", client.ID, err)
			}
			return
		}
		h.dispatch(handler, client, raw)
	}
}

// dispatch decodes one envelope and routes it. Panics stay inside the message.
func (h *Hub) dispatch(handler Handler, client *Client, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[dispatch] Client %s: recovered from panic: %v", client.ID, r)
		}
	}()

	var baseMsg internal.Message[json.RawMessage]
	if err := json.Unmarshal(raw, &baseMsg); err != nil {
		h.badRequest(client, "malformed message", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	var err error
	switch baseMsg.Type {
	case internal.EventJoinGame:
		var data internal.JoinGameData
		if err = decode(baseMsg.Data, &data); err == nil {
			err = handler.Join(ctx, client.ID, data.Username, data.GameID)
		}
	case internal.EventSendMessage:
		var data internal.SendMessageData
		if err = decode(baseMsg.Data, &data); err == nil {
			err = handler.SendMessage(ctx, client.ID, data.GameID, data.Color, data.Message)
		}
	case internal.EventAccuse:
		var data internal.AccuseData
		if err = decode(baseMsg.Data, &data); err == nil {
			err = handler.Accuse(ctx, client.ID, data.GameID, data.Accuser, data.Accused)
		}
	case internal.EventLeaveGame:
		var data internal.LeaveGameData
		if err = decode(baseMsg.Data, &data); err == nil {
			err = handler.Leave(ctx, client.ID, data.GameID, data.Color)
		}
	case internal.EventReportGame:
		var data internal.ReportGameData
		if err = decode(baseMsg.Data, &data); err == nil {
			err = handler.Report(ctx, client.ID, data.GameID, data.Reporter)
		}
	default:
		h.badRequest(client, "unknown message type", fmt.Errorf("%q", baseMsg.Type))
		return
	}

	var de *decodeError
	switch {
	case err == nil:
	case asDecodeError(err, &de):
		h.badRequest(client, "invalid "+baseMsg.Type+" payload", de.err)
	default:
		log.Printf("[dispatch] Client %s: %s failed: %v", client.ID, baseMsg.Type, err)
	}
}

func (h *Hub) badRequest(client *Client, msg string, err error) {
	log.Printf("[dispatch] Client %s: %s: %v", client.ID, msg, err)
	h.ToConn(client.ID, internal.Message[any]{
		Type: internal.EventError,
		Data: internal.ErrorData{Type: internal.ErrorKindBadRequest, Message: msg, Details: err.Error()},
	})
}

// =============================================================================
// OUTBOUND
// =============================================================================

// Subscribe makes connID follow gameID's room broadcasts.
func (h *Hub) Subscribe(connID, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client, ok := h.clients[connID]
	if !ok {
		return
	}
	if prev, ok := h.rooms[client.gameID]; ok && client.gameID != gameID {
		delete(prev, connID)
		if len(prev) == 0 {
			delete(h.rooms, client.gameID)
		}
	}
	client.gameID = gameID
	if h.rooms[gameID] == nil {
		h.rooms[gameID] = make(map[string]*Client)
	}
	h.rooms[gameID][connID] = client
}

func (h *Hub) ToRoom(gameID string, msg internal.Message[any]) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[gameID]))
	for _, c := range h.rooms[gameID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.send(targets, msg)
}

func (h *Hub) ToConn(connID string, msg internal.Message[any]) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()

	if ok {
		h.send([]*Client{c}, msg)
	}
}

func (h *Hub) ToAll(msg internal.Message[any]) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	h.send(targets, msg)
}

func (h *Hub) send(targets []*Client, msg internal.Message[any]) {
	for _, c := range targets {
		if err := c.SafeWriteJSON(msg); err != nil {
			log.Printf("[send] %s to client %s failed: %v", msg.Type, c.ID, err)
		}
	}
}

// ConnCount reports the number of live connections.
func (h *Hub) ConnCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll drops every connection, used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.conn.Close()
	}
}

// =============================================================================
// DECODING
// =============================================================================

type decodeError struct{ err error }

func (e *decodeError) Error() string { return e.err.Error() }

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return &decodeError{err: fmt.Errorf("missing data")}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &decodeError{err: err}
	}
	return nil
}

func asDecodeError(err error, target **decodeError) bool {
	de, ok := err.(*decodeError)
	if ok {
		*target = de
	}
	return ok
}
