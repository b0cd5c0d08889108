package internal

type Message[T any] struct {
	Type string `json:"type"`
	Data T      `json:"data"`
}

// Inbound event types.
const (
	EventJoinGame    = "joinGame"
	EventSendMessage = "sendMessage"
	EventAccuse      = "accusePlayer"
	EventLeaveGame   = "leaveGame"
	EventReportGame  = "reportGame"
)

// Outbound event types.
const (
	EventColorAssigned   = "colorAssigned"
	EventOtherPlayers    = "otherPlayers"
	EventMessage         = "message"
	EventUpdateTimer     = "updateTimer"
	EventTimeUp          = "timeUpForAccusation"
	EventPromptAccuse    = "promptAccusation"
	EventGameReported    = "gameReported"
	EventGameEnded       = "gameEnded"
	EventGameCompleted   = "gameCompleted"
	EventError           = "error"
	ErrorKindGame        = "game_error"
	ErrorKindBadRequest  = "bad_request"
	ErrorKindUnavailable = "unavailable"
)

type JoinGameData struct {
	Username string `json:"username"`
	GameID   string `json:"game_id"`
}

type SendMessageData struct {
	GameID  string `json:"game_id"`
	Message string `json:"message"`
	Color   string `json:"color"`
}

type AccuseData struct {
	GameID  string `json:"game_id"`
	Accuser string `json:"accuser"`
	Accused string `json:"accused"`
}

type LeaveGameData struct {
	GameID string `json:"game_id"`
	Color  string `json:"color"`
}

type ReportGameData struct {
	GameID   string `json:"game_id"`
	Reporter string `json:"reporter"`
}

type ColorAssignedData struct {
	Color    string `json:"color"`
	Username string `json:"username"`
	GameID   string `json:"game_id"`
}

type OtherPlayersData struct {
	OtherPlayers []string `json:"otherPlayers"`
}

type ChatMessageData struct {
	Color   string `json:"color"`
	Message string `json:"message"`
	Bold    int    `json:"bold"`
}

type TimerUpdateData struct {
	RemainingTime int `json:"remainingTime"`
}

type NoticeData struct {
	Message string `json:"message"`
}

type GameCompletedData struct {
	GameID string `json:"gameId"`
}

type ErrorData struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
