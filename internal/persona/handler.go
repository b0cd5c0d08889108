package persona

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/scythe504/turing-game-backend/internal/bot"
)

// Routes exposes the persona over the HTTP contract the game server's
// bot client speaks.
func (p *Persona) Routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/health", p.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/start-game", p.startGameHandler).Methods(http.MethodPost)
	r.HandleFunc("/response", p.responseHandler).Methods(http.MethodPost)
	return r
}

func (p *Persona) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "games": p.Games()})
}

func (p *Persona) startGameHandler(w http.ResponseWriter, r *http.Request) {
	var req bot.StartGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == "" || req.BotColor == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "game_id and botColor are required"})
		return
	}
	p.StartGame(req.GameID, req.BotColor, req.Player1Color, req.Player2Color)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Game initialized successfully"})
}

func (p *Persona) responseHandler(w http.ResponseWriter, r *http.Request) {
	var req bot.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == "" {
		http.Error(w, "game_id is required", http.StatusBadRequest)
		return
	}

	answer, err := p.Respond(r.Context(), req.GameID, req.ChatHistory)
	switch {
	case errors.Is(err, ErrUnknownGame):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		// the game server treats an empty reply as a skipped turn
		log.Printf("[responseHandler] Game %s: %v", req.GameID, err)
		answer = ""
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(answer))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}
