package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"quiz-duel-service/internal/domain"
)

// QuestionProvider builds the ordered question set for a game.
//
//go:generate mockgen -package=mocks -destination=mocks/mock_question_provider.go quiz-duel-service/internal/app QuestionProvider
type QuestionProvider interface {
	FetchQuestions(ctx context.Context, quizID int, mode domain.GameMode, count, answersPerQuestion int) ([]domain.Question, error)
}

// StatsRecorder persists per-player results. Calls are best-effort.
//
//go:generate mockgen -package=mocks -destination=mocks/mock_stats_recorder.go quiz-duel-service/internal/app StatsRecorder
type StatsRecorder interface {
	RecordResult(ctx context.Context, record domain.ResultRecord) error
}

// Notifier delivers events to a session group or a single connection.
type Notifier interface {
	AddToGroup(sessionID, connectionID string)
	Broadcast(sessionID string, event domain.Event)
	Send(connectionID string, event domain.Event)
}

// GameConfig tunes the progression protocol.
type GameConfig struct {
	Limits       domain.Limits
	StatsTimeout time.Duration
	Clock        Clock
	Logger       *slog.Logger
}

// GameService drives the join/ready/start/answer/complete protocol over the registry.
// Every call referencing an unknown session or player, or arriving in the wrong state,
// is a silent no-op.
type GameService struct {
	registry     *Registry
	questions    QuestionProvider
	stats        StatsRecorder
	notifier     Notifier
	limits       domain.Limits
	statsTimeout time.Duration
	clock        Clock
	logger       *slog.Logger
	tracer       trace.Tracer
}

func NewGameService(registry *Registry, questions QuestionProvider, stats StatsRecorder, notifier Notifier, cfg GameConfig) *GameService {
	g := &GameService{
		registry:     registry,
		questions:    questions,
		stats:        stats,
		notifier:     notifier,
		limits:       cfg.Limits,
		statsTimeout: cfg.StatsTimeout,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		tracer:       otel.Tracer("quiz-duel-service/internal/app"),
	}
	if g.clock == nil {
		g.clock = SystemClock{}
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.statsTimeout <= 0 {
		g.statsTimeout = 5 * time.Second
	}
	return g
}

// CreateSession registers a new session for quizID.
func (g *GameService) CreateSession(_ context.Context, quizID int) string {
	return g.registry.CreateSession(quizID)
}

// JoinSession admits the connection as host or guest and announces the new roster.
func (g *GameService) JoinSession(_ context.Context, sessionID, connectionID, name string, asHost bool) (string, bool) {
	playerID, ok := g.registry.JoinSession(sessionID, connectionID, name, asHost)
	if !ok {
		return "", false
	}
	session, ok := g.registry.GetSession(sessionID)
	if !ok {
		return playerID, true
	}
	g.notifier.AddToGroup(sessionID, connectionID)
	g.notifier.Broadcast(sessionID, domain.Event{Type: domain.EventPlayerJoined, Payload: session.Roster()})
	g.logger.Info("player joined", "session", sessionID, "player", playerID, "host", asHost)
	return playerID, true
}

// SetReady marks the caller ready and starts the game once the quorum is met.
func (g *GameService) SetReady(ctx context.Context, sessionID, connectionID string) {
	session, ok := g.registry.GetSession(sessionID)
	if !ok {
		return
	}
	playerID, quorumMet, ok := session.markReady(connectionID)
	if !ok {
		return
	}
	g.notifier.Broadcast(sessionID, domain.Event{
		Type:    domain.EventPlayerReady,
		Payload: domain.PlayerReadyPayload{PlayerID: playerID},
	})
	if quorumMet {
		g.start(ctx, session)
	}
}

// start fetches the question set without holding the session lock, then applies it
// under the lock after re-validating state.
func (g *GameService) start(ctx context.Context, session *Session) {
	req, ok := session.beginStart()
	if !ok {
		return
	}

	ctx, span := g.tracer.Start(ctx, "game.start", trace.WithAttributes(
		attribute.String("session.id", session.id),
		attribute.Int("quiz.id", req.quizID),
	))
	defer span.End()

	questions, err := g.questions.FetchQuestions(ctx, req.quizID, req.settings.Mode, req.settings.QuestionCount, req.settings.AnswersPerQuestion)
	if err == nil && len(questions) == 0 {
		err = domain.ErrNotEnoughQuestions
	}
	if err != nil {
		session.abortStart()
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch questions")
		g.logger.Warn("game start failed", "session", session.id, "quiz", req.quizID, "err", err)
		failed := domain.Event{
			Type:    domain.EventGameStartFailed,
			Payload: domain.StartFailedPayload{SessionID: session.id, Reason: startFailureReason(err)},
		}
		if req.host != "" {
			g.notifier.Send(req.host, failed)
		} else {
			g.notifier.Broadcast(session.id, failed)
		}
		return
	}

	deliveries, ok := session.applyStart(questions)
	if !ok {
		return
	}
	g.logger.Info("game started", "session", session.id, "questions", len(questions), "mode", req.settings.Mode.String())
	for _, d := range deliveries {
		g.notifier.Send(d.connectionID, domain.Event{Type: domain.EventNextQuestion, Payload: d.question})
	}
}

func startFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		return "quiz not found"
	case errors.Is(err, domain.ErrNotEnoughQuestions):
		return "quiz does not have enough valid questions"
	default:
		return "questions unavailable"
	}
}

// SetTimeSettings updates the advisory per-question time limit. Host only, before start.
func (g *GameService) SetTimeSettings(_ context.Context, sessionID, connectionID string, enabled bool, seconds int) {
	session, ok := g.registry.GetSession(sessionID)
	if !ok {
		return
	}
	if seconds < 1 {
		seconds = 1
	}
	session.configure(connectionID, func(s *domain.Settings) {
		s.TimeLimitEnabled = enabled
		s.TimeLimitSeconds = seconds
	})
}

// SetGameMode switches between single and multi choice. Host only, before start.
func (g *GameService) SetGameMode(_ context.Context, sessionID, connectionID string, mode domain.GameMode) {
	session, ok := g.registry.GetSession(sessionID)
	if !ok {
		return
	}
	if mode != domain.ModeSingleChoice && mode != domain.ModeMultipleChoice {
		return
	}
	if _, ok := session.configure(connectionID, func(s *domain.Settings) { s.Mode = mode }); !ok {
		return
	}
	g.notifier.Broadcast(sessionID, domain.Event{
		Type:    domain.EventGameModeUpdated,
		Payload: domain.GameModePayload{Mode: mode},
	})
}

// SetQuestionCount sets how many questions the game uses, clamped to the configured range.
func (g *GameService) SetQuestionCount(_ context.Context, sessionID, connectionID string, count int) {
	session, ok := g.registry.GetSession(sessionID)
	if !ok {
		return
	}
	count = g.limits.ClampQuestions(count)
	session.configure(connectionID, func(s *domain.Settings) { s.QuestionCount = count })
}

// SetAnswersPerQuestion sets how many answers each question shows, clamped to the configured range.
func (g *GameService) SetAnswersPerQuestion(_ context.Context, sessionID, connectionID string, count int) {
	session, ok := g.registry.GetSession(sessionID)
	if !ok {
		return
	}
	count = g.limits.ClampAnswers(count)
	session.configure(connectionID, func(s *domain.Settings) { s.AnswersPerQuestion = count })
}

// SetQuizID points a waiting session at a different quiz. Host only.
func (g *GameService) SetQuizID(_ context.Context, sessionID, connectionID string, quizID int) {
	session, ok := g.registry.GetSession(sessionID)
	if !ok {
		return
	}
	session.setQuizID(connectionID, quizID)
}

// SubmitAnswer grades a single-choice answer. A nil answerID is a timeout and grades
// as incorrect.
func (g *GameService) SubmitAnswer(ctx context.Context, sessionID, connectionID string, questionID int, answerID *int) (domain.AnswerOutcome, bool) {
	return g.submit(ctx, sessionID, connectionID, questionID, func(q domain.Question) (domain.PlayerAnswer, bool) {
		return gradeSingle(q, answerID)
	})
}

// SubmitMultiAnswer grades a multi-choice answer by exact set equality with the correct ids.
func (g *GameService) SubmitMultiAnswer(ctx context.Context, sessionID, connectionID string, questionID int, answerIDs []int) (domain.AnswerOutcome, bool) {
	return g.submit(ctx, sessionID, connectionID, questionID, func(q domain.Question) (domain.PlayerAnswer, bool) {
		return gradeMulti(q, answerIDs), true
	})
}

func (g *GameService) submit(ctx context.Context, sessionID, connectionID string, questionID int, grade grader) (domain.AnswerOutcome, bool) {
	session, ok := g.registry.GetSession(sessionID)
	if !ok {
		return domain.AnswerOutcome{}, false
	}
	rnd, ok := session.currentRound(connectionID)
	if !ok {
		return domain.AnswerOutcome{}, false
	}
	result, ok := rnd.player.submit(rnd.questions, questionID, grade)
	if !ok {
		return domain.AnswerOutcome{}, false
	}

	outcome := domain.AnswerOutcome{
		PlayerID:   rnd.player.playerID,
		QuestionID: questionID,
		Correct:    result.record.Correct,
		Score:      result.score,
		Completed:  result.finished,
	}
	g.notifier.Send(connectionID, domain.Event{Type: domain.EventAnswerProcessed, Payload: outcome})

	if !result.finished {
		next := domain.NewQuestionView(rnd.questions[result.nextIndex], rnd.settings)
		g.notifier.Send(connectionID, domain.Event{Type: domain.EventNextQuestion, Payload: next})
		return outcome, true
	}

	g.notifier.Broadcast(sessionID, domain.Event{
		Type:    domain.EventPlayerCompleted,
		Payload: domain.PlayerCompletedPayload{PlayerID: rnd.player.playerID},
	})
	g.finish(ctx, session)
	return outcome, true
}

// finish completes the session when every player is done, publishes the aggregate and
// hands it to statistics. Persistence failures are logged and never undo completion.
func (g *GameService) finish(ctx context.Context, session *Session) {
	results, ok := session.complete(g.clock.Now())
	if !ok {
		return
	}

	_, span := g.tracer.Start(ctx, "game.complete", trace.WithAttributes(
		attribute.String("session.id", session.id),
		attribute.Int("players", len(results.Players)),
	))
	defer span.End()

	g.logger.Info("game completed", "session", session.id, "quiz", results.QuizID)
	g.notifier.Broadcast(session.id, domain.Event{Type: domain.EventGameCompleted, Payload: results})

	if g.stats == nil {
		return
	}
	statsCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.statsTimeout)
	defer cancel()
	for _, record := range session.records(results) {
		if err := g.stats.RecordResult(statsCtx, record); err != nil {
			span.RecordError(err)
			g.logger.Error("record result failed", "session", session.id, "user", record.Username, "err", err)
		}
	}
}
