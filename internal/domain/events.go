package domain

// Event types sent from the engine to clients.
const (
	EventPlayerJoined    = "playerJoined"
	EventPlayerReady     = "playerReady"
	EventGameModeUpdated = "gameModeUpdated"
	EventAnswerProcessed = "answerProcessed"
	EventNextQuestion    = "nextQuestion"
	EventPlayerCompleted = "playerCompleted"
	EventGameCompleted   = "gameCompleted"
	EventGameStartFailed = "gameStartFailed"
)

// Event is a state-change notification addressed to a session group or a single connection.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// PlayerReadyPayload identifies the player who signalled readiness.
type PlayerReadyPayload struct {
	PlayerID string `json:"playerId"`
}

// PlayerCompletedPayload identifies the player who answered every question.
type PlayerCompletedPayload struct {
	PlayerID string `json:"playerId"`
}

// GameModePayload announces a mode change to the session group.
type GameModePayload struct {
	Mode GameMode `json:"gameMode"`
}

// StartFailedPayload tells the host why the game could not start.
type StartFailedPayload struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}
