package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"quiz-duel-service/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	maxMessage = 64 << 10
)

// Game is the engine surface the websocket layer drives.
type Game interface {
	CreateSession(ctx context.Context, quizID int) string
	JoinSession(ctx context.Context, sessionID, connectionID, name string, asHost bool) (string, bool)
	SetReady(ctx context.Context, sessionID, connectionID string)
	SetTimeSettings(ctx context.Context, sessionID, connectionID string, enabled bool, seconds int)
	SetGameMode(ctx context.Context, sessionID, connectionID string, mode domain.GameMode)
	SetQuestionCount(ctx context.Context, sessionID, connectionID string, count int)
	SetAnswersPerQuestion(ctx context.Context, sessionID, connectionID string, count int)
	SetQuizID(ctx context.Context, sessionID, connectionID string, quizID int)
	SubmitAnswer(ctx context.Context, sessionID, connectionID string, questionID int, answerID *int) (domain.AnswerOutcome, bool)
	SubmitMultiAnswer(ctx context.Context, sessionID, connectionID string, questionID int, answerIDs []int) (domain.AnswerOutcome, bool)
}

type WSHandler struct {
	game     Game
	hub      *Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(game Game, hub *Hub, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		game:   game,
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Client → server messages.
const (
	msgCreateSession         = "createSession"
	msgJoinSession           = "joinSession"
	msgSetReady              = "setReady"
	msgSetTimeSettings       = "setTimeSettings"
	msgSetGameMode           = "setGameMode"
	msgSetQuestionCount      = "setQuestionCount"
	msgSetAnswersPerQuestion = "setAnswersPerQuestion"
	msgSetQuizID             = "setQuizId"
	msgSubmitAnswer          = "submitAnswer"
	msgSubmitMultiAnswer     = "submitMultiAnswer"
)

// Direct replies to the calling connection.
const (
	replySessionCreated = "sessionCreated"
	replyJoined         = "joined"
	replyJoinRejected   = "joinRejected"
	replyError          = "error"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type sessionRef struct {
	SessionID string `json:"sessionId"`
}

type createSessionPayload struct {
	QuizID int `json:"quizId"`
}

type joinSessionPayload struct {
	SessionID string `json:"sessionId"`
	Name      string `json:"name"`
	IsHost    bool   `json:"isHost"`
}

type timeSettingsPayload struct {
	SessionID string `json:"sessionId"`
	Enabled   bool   `json:"enabled"`
	Seconds   int    `json:"seconds"`
}

type gameModePayload struct {
	SessionID string          `json:"sessionId"`
	Mode      json.RawMessage `json:"mode"`
}

type countPayload struct {
	SessionID string `json:"sessionId"`
	Count     int    `json:"count"`
}

type quizIDPayload struct {
	SessionID string `json:"sessionId"`
	QuizID    int    `json:"quizId"`
}

type answerPayload struct {
	SessionID  string `json:"sessionId"`
	QuestionID int    `json:"questionId"`
	AnswerID   *int   `json:"answerId"`
}

type multiAnswerPayload struct {
	SessionID  string `json:"sessionId"`
	QuestionID int    `json:"questionId"`
	AnswerIDs  []int  `json:"answerIds"`
}

type sessionReply struct {
	SessionID string `json:"sessionId"`
}

type joinedReply struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the game engine.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}

	connID := uuid.NewString()
	logger := h.logger.With("conn", connID)
	c := h.hub.register(connID)
	logger.Debug("ws connected", "remote", r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(conn, c, logger)
	}()

	h.readLoop(r.Context(), conn, connID, logger)

	h.hub.unregister(connID)
	<-writerDone
	logger.Debug("ws disconnected")
}

// writeLoop is the only goroutine writing to conn. It ends when the hub closes the
// client's queue and then closes the connection, which also unblocks the reader.
func (h *WSHandler) writeLoop(conn *websocket.Conn, c *client, logger *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug("ws write error", "err", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, connID string, logger *slog.Logger) {
	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
				h.reply(connID, replyError, errorPayload{Message: "malformed message"})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("ws read error", "err", err)
			}
			return
		}
		if err := h.dispatch(ctx, connID, inbound); err != nil {
			h.reply(connID, replyError, errorPayload{Message: err.Error()})
		}
	}
}

type dispatchError string

func (e dispatchError) Error() string { return string(e) }

const (
	errInvalidPayload = dispatchError("invalid payload")
	errUnsupported    = dispatchError("unsupported message type")
	errInvalidMode    = dispatchError("invalid game mode")
)

func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errInvalidPayload
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errInvalidPayload
	}
	return nil
}

func (h *WSHandler) dispatch(ctx context.Context, connID string, msg inboundMessage) error {
	switch msg.Type {
	case msgCreateSession:
		var p createSessionPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		id := h.game.CreateSession(ctx, p.QuizID)
		h.reply(connID, replySessionCreated, sessionReply{SessionID: id})

	case msgJoinSession:
		var p joinSessionPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = "Player"
		}
		playerID, ok := h.game.JoinSession(ctx, p.SessionID, connID, name, p.IsHost)
		if !ok {
			h.reply(connID, replyJoinRejected, sessionReply{SessionID: p.SessionID})
			return nil
		}
		h.reply(connID, replyJoined, joinedReply{SessionID: p.SessionID, PlayerID: playerID})

	case msgSetReady:
		var p sessionRef
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		h.game.SetReady(ctx, p.SessionID, connID)

	case msgSetTimeSettings:
		var p timeSettingsPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		h.game.SetTimeSettings(ctx, p.SessionID, connID, p.Enabled, p.Seconds)

	case msgSetGameMode:
		var p gameModePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		mode, err := domain.ParseGameMode(strings.Trim(string(p.Mode), `"`))
		if err != nil {
			return errInvalidMode
		}
		h.game.SetGameMode(ctx, p.SessionID, connID, mode)

	case msgSetQuestionCount:
		var p countPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		h.game.SetQuestionCount(ctx, p.SessionID, connID, p.Count)

	case msgSetAnswersPerQuestion:
		var p countPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		h.game.SetAnswersPerQuestion(ctx, p.SessionID, connID, p.Count)

	case msgSetQuizID:
		var p quizIDPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		h.game.SetQuizID(ctx, p.SessionID, connID, p.QuizID)

	case msgSubmitAnswer:
		var p answerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		h.game.SubmitAnswer(ctx, p.SessionID, connID, p.QuestionID, p.AnswerID)

	case msgSubmitMultiAnswer:
		var p multiAnswerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		h.game.SubmitMultiAnswer(ctx, p.SessionID, connID, p.QuestionID, p.AnswerIDs)

	default:
		return errUnsupported
	}
	return nil
}

func (h *WSHandler) reply(connID, typ string, payload any) {
	h.hub.Send(connID, domain.Event{Type: typ, Payload: payload})
}
