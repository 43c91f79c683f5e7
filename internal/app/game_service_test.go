package app_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/app/mocks"
	"quiz-duel-service/internal/domain"
)

type GameServiceTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	provider *mocks.MockQuestionProvider
	stats    *mocks.MockStatsRecorder
	notifier *recordingNotifier
	clock    *fakeClock
	registry *app.Registry
	game     *app.GameService
	ctx      context.Context
}

func TestGameServiceTestSuite(t *testing.T) {
	suite.Run(t, new(GameServiceTestSuite))
}

func (s *GameServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.provider = mocks.NewMockQuestionProvider(s.ctrl)
	s.stats = mocks.NewMockStatsRecorder(s.ctrl)
	s.notifier = newRecordingNotifier()
	s.clock = newFakeClock()
	s.registry = newTestRegistry(s.clock)
	s.game = app.NewGameService(s.registry, s.provider, s.stats, s.notifier, app.GameConfig{
		Limits: testLimits,
		Clock:  s.clock,
	})
	s.ctx = context.Background()
}

// lobby creates a session with host "host" (Alice) and guest "guest" (Bob).
func (s *GameServiceTestSuite) lobby() string {
	id := s.game.CreateSession(s.ctx, 1)
	_, ok := s.game.JoinSession(s.ctx, id, "host", "Alice", true)
	s.Require().True(ok)
	_, ok = s.game.JoinSession(s.ctx, id, "guest", "Bob", false)
	s.Require().True(ok)
	return id
}

// started returns an in-progress session using the fixture questions.
func (s *GameServiceTestSuite) started() string {
	s.provider.EXPECT().
		FetchQuestions(gomock.Any(), 1, domain.ModeSingleChoice, 10, 4).
		Return(fixtureQuestions(), nil)
	id := s.lobby()
	s.game.SetReady(s.ctx, id, "host")
	s.game.SetReady(s.ctx, id, "guest")
	s.Require().Equal(domain.StatusInProgress, s.snapshot(id).Status)
	return id
}

func (s *GameServiceTestSuite) snapshot(id string) domain.SessionSnapshot {
	session, ok := s.registry.GetSession(id)
	s.Require().True(ok)
	return session.Snapshot()
}

func (s *GameServiceTestSuite) player(id, playerName string) domain.PlayerState {
	for _, p := range s.snapshot(id).Players {
		if p.Name == playerName {
			return p
		}
	}
	s.FailNow("player not found", playerName)
	return domain.PlayerState{}
}

func intPtr(v int) *int { return &v }

func (s *GameServiceTestSuite) TestJoinBroadcastsRoster() {
	id := s.lobby()

	joined := s.notifier.ofType(domain.EventPlayerJoined)
	s.Require().Len(joined, 2)
	roster, ok := joined[1].event.Payload.([]domain.PlayerState)
	s.Require().True(ok)
	s.Len(roster, 2)
	s.Equal(id, joined[1].target)
	s.True(joined[1].broadcast)
	s.ElementsMatch([]string{"host", "guest"}, s.notifier.groups[id])
}

func (s *GameServiceTestSuite) TestSingleReadyDoesNotStart() {
	id := s.lobby()

	s.game.SetReady(s.ctx, id, "host")

	s.Equal(domain.StatusWaitingForPlayers, s.snapshot(id).Status)
	s.Len(s.notifier.ofType(domain.EventPlayerReady), 1)
	s.True(s.player(id, "Alice").IsReady)
}

func (s *GameServiceTestSuite) TestReadyFromUnknownConnectionIsNoop() {
	id := s.lobby()

	s.game.SetReady(s.ctx, id, "stranger")
	s.game.SetReady(s.ctx, "missing", "host")

	s.Empty(s.notifier.ofType(domain.EventPlayerReady))
}

func (s *GameServiceTestSuite) TestQuorumStartsGameAndDeliversFirstQuestion() {
	id := s.started()

	snap := s.snapshot(id)
	s.Len(snap.Questions, 3)
	for _, p := range snap.Players {
		s.Zero(p.CurrentQuestionIndex)
		s.Zero(p.Score)
		s.False(p.HasCompleted)
		s.Empty(p.Answers)
	}

	next := s.notifier.ofType(domain.EventNextQuestion)
	s.Require().Len(next, 2)
	targets := []string{next[0].target, next[1].target}
	s.ElementsMatch([]string{"host", "guest"}, targets)
	view := next[0].event.Payload.(domain.QuestionView)
	s.Equal(1, view.QuestionID)
	s.Equal(30, view.TimeLimitSeconds)
	s.False(view.MultiChoice)
	for _, a := range view.Answers {
		s.NotZero(a.ID)
	}
}

func (s *GameServiceTestSuite) TestStartFailureKeepsSessionWaitingAndTellsHost() {
	s.provider.EXPECT().
		FetchQuestions(gomock.Any(), 1, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrNotEnoughQuestions)
	id := s.lobby()

	s.game.SetReady(s.ctx, id, "host")
	s.game.SetReady(s.ctx, id, "guest")

	s.Equal(domain.StatusWaitingForPlayers, s.snapshot(id).Status)
	failed := s.notifier.ofType(domain.EventGameStartFailed)
	s.Require().Len(failed, 1)
	s.Equal("host", failed[0].target)
	s.False(failed[0].broadcast)

	// a later ready signal retries the start
	s.provider.EXPECT().
		FetchQuestions(gomock.Any(), 1, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(fixtureQuestions(), nil)
	s.game.SetReady(s.ctx, id, "guest")
	s.Equal(domain.StatusInProgress, s.snapshot(id).Status)
}

func (s *GameServiceTestSuite) TestStartFailureWithoutHostTellsEveryone() {
	s.provider.EXPECT().
		FetchQuestions(gomock.Any(), 1, gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrQuizNotFound)
	id := s.game.CreateSession(s.ctx, 1)
	_, ok := s.game.JoinSession(s.ctx, id, "g1", "Alice", false)
	s.Require().True(ok)
	_, ok = s.game.JoinSession(s.ctx, id, "g2", "Bob", false)
	s.Require().True(ok)

	s.game.SetReady(s.ctx, id, "g1")
	s.game.SetReady(s.ctx, id, "g2")

	s.Equal(domain.StatusWaitingForPlayers, s.snapshot(id).Status)
	failed := s.notifier.ofType(domain.EventGameStartFailed)
	s.Require().Len(failed, 1)
	s.Equal(id, failed[0].target)
	s.True(failed[0].broadcast)
	payload, ok := failed[0].event.Payload.(domain.StartFailedPayload)
	s.Require().True(ok)
	s.Equal("quiz not found", payload.Reason)
}

func (s *GameServiceTestSuite) TestEmptyQuestionSetDoesNotStart() {
	s.provider.EXPECT().
		FetchQuestions(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]domain.Question{}, nil)
	id := s.lobby()

	s.game.SetReady(s.ctx, id, "host")
	s.game.SetReady(s.ctx, id, "guest")

	s.Equal(domain.StatusWaitingForPlayers, s.snapshot(id).Status)
}

func (s *GameServiceTestSuite) TestHostOnlySettings() {
	id := s.lobby()

	s.game.SetQuestionCount(s.ctx, id, "guest", 7)
	s.game.SetGameMode(s.ctx, id, "guest", domain.ModeMultipleChoice)
	s.Equal(testDefaults, s.snapshot(id).Settings)
	s.Empty(s.notifier.ofType(domain.EventGameModeUpdated))

	s.game.SetQuestionCount(s.ctx, id, "host", 100)
	s.game.SetAnswersPerQuestion(s.ctx, id, "host", 1)
	s.game.SetTimeSettings(s.ctx, id, "host", true, 15)
	s.game.SetGameMode(s.ctx, id, "host", domain.ModeMultipleChoice)
	s.game.SetQuizID(s.ctx, id, "host", 9)

	snap := s.snapshot(id)
	s.Equal(30, snap.Settings.QuestionCount)
	s.Equal(2, snap.Settings.AnswersPerQuestion)
	s.True(snap.Settings.TimeLimitEnabled)
	s.Equal(15, snap.Settings.TimeLimitSeconds)
	s.Equal(domain.ModeMultipleChoice, snap.Settings.Mode)
	s.Equal(9, snap.QuizID)
	s.Len(s.notifier.ofType(domain.EventGameModeUpdated), 1)

	s.game.SetQuestionCount(s.ctx, id, "host", 1)
	s.Equal(5, s.snapshot(id).Settings.QuestionCount)
}

func (s *GameServiceTestSuite) TestSettingsRequestedFromProvider() {
	id := s.lobby()
	s.game.SetGameMode(s.ctx, id, "host", domain.ModeMultipleChoice)
	s.game.SetQuestionCount(s.ctx, id, "host", 12)
	s.game.SetAnswersPerQuestion(s.ctx, id, "host", 5)

	s.provider.EXPECT().
		FetchQuestions(gomock.Any(), 1, domain.ModeMultipleChoice, 12, 5).
		Return(fixtureQuestions(), nil)
	s.game.SetReady(s.ctx, id, "host")
	s.game.SetReady(s.ctx, id, "guest")

	s.Equal(domain.StatusInProgress, s.snapshot(id).Status)
}

func (s *GameServiceTestSuite) TestSettingsIgnoredAfterStart() {
	id := s.started()

	s.game.SetQuestionCount(s.ctx, id, "host", 20)
	s.game.SetGameMode(s.ctx, id, "host", domain.ModeMultipleChoice)

	s.Equal(testDefaults, s.snapshot(id).Settings)
}

func (s *GameServiceTestSuite) TestSubmitBeforeStartIsNoop() {
	id := s.lobby()

	_, ok := s.game.SubmitAnswer(s.ctx, id, "host", 1, intPtr(11))
	s.False(ok)
	s.Zero(s.player(id, "Alice").CurrentQuestionIndex)
}

func (s *GameServiceTestSuite) TestSingleChoiceGrading() {
	id := s.started()

	outcome, ok := s.game.SubmitAnswer(s.ctx, id, "host", 1, intPtr(11))
	s.Require().True(ok)
	s.True(outcome.Correct)
	s.Equal(1, outcome.Score)

	outcome, ok = s.game.SubmitAnswer(s.ctx, id, "guest", 1, intPtr(10))
	s.Require().True(ok)
	s.False(outcome.Correct)
	s.Zero(outcome.Score)

	alice := s.player(id, "Alice")
	s.Equal(1, alice.CurrentQuestionIndex)
	s.Len(alice.Answers, alice.CurrentQuestionIndex)
	s.Equal([]string{"4"}, alice.Answers[0].AnswerTexts)

	processed := s.notifier.ofType(domain.EventAnswerProcessed)
	s.Require().Len(processed, 2)
	s.Equal("host", processed[0].target)
	s.False(processed[0].broadcast)
}

func (s *GameServiceTestSuite) TestTimeoutGradedIncorrect() {
	id := s.started()

	outcome, ok := s.game.SubmitAnswer(s.ctx, id, "host", 1, nil)
	s.Require().True(ok)
	s.False(outcome.Correct)

	alice := s.player(id, "Alice")
	s.Require().Len(alice.Answers, 1)
	s.Empty(alice.Answers[0].AnswerIDs)
	s.Empty(alice.Answers[0].AnswerTexts)
	s.Equal(1, alice.CurrentQuestionIndex)
}

func (s *GameServiceTestSuite) TestUnknownAnswerIDIsNoop() {
	id := s.started()

	_, ok := s.game.SubmitAnswer(s.ctx, id, "host", 1, intPtr(999))
	s.False(ok)
	s.Zero(s.player(id, "Alice").CurrentQuestionIndex)
}

func (s *GameServiceTestSuite) TestMismatchedQuestionIsNoop() {
	id := s.started()
	before := s.player(id, "Alice")

	_, ok := s.game.SubmitAnswer(s.ctx, id, "host", 2, intPtr(20))
	s.False(ok)

	_, ok = s.game.SubmitAnswer(s.ctx, id, "host", 1, intPtr(11))
	s.Require().True(ok)
	// stale resubmission of the question just answered
	_, ok = s.game.SubmitAnswer(s.ctx, id, "host", 1, intPtr(11))
	s.False(ok)

	after := s.player(id, "Alice")
	s.Equal(before.CurrentQuestionIndex+1, after.CurrentQuestionIndex)
	s.Equal(1, after.Score)
	s.Len(after.Answers, 1)
}

func (s *GameServiceTestSuite) TestNextQuestionUnicastToSubmitter() {
	id := s.started()
	initial := len(s.notifier.ofType(domain.EventNextQuestion))

	_, ok := s.game.SubmitAnswer(s.ctx, id, "host", 1, intPtr(11))
	s.Require().True(ok)

	next := s.notifier.ofType(domain.EventNextQuestion)
	s.Require().Len(next, initial+1)
	last := next[len(next)-1]
	s.Equal("host", last.target)
	s.Equal(2, last.event.Payload.(domain.QuestionView).QuestionID)
	// guest still sits on the first question
	s.Zero(s.player(id, "Bob").CurrentQuestionIndex)
}

func (s *GameServiceTestSuite) TestMultiChoiceGrading() {
	s.provider.EXPECT().
		FetchQuestions(gomock.Any(), 1, domain.ModeMultipleChoice, 10, 4).
		Return(fixtureQuestions(), nil)
	id := s.lobby()
	s.game.SetGameMode(s.ctx, id, "host", domain.ModeMultipleChoice)
	s.game.SetReady(s.ctx, id, "host")
	s.game.SetReady(s.ctx, id, "guest")

	outcome, _ := s.game.SubmitMultiAnswer(s.ctx, id, "host", 1, []int{11})
	s.True(outcome.Correct)
	outcome, _ = s.game.SubmitMultiAnswer(s.ctx, id, "host", 2, []int{20, 21})
	s.False(outcome.Correct, "superset")
	outcome, _ = s.game.SubmitMultiAnswer(s.ctx, id, "host", 3, []int{31, 30})
	s.True(outcome.Correct, "exact set in any order")

	outcome, _ = s.game.SubmitMultiAnswer(s.ctx, id, "guest", 1, []int{10})
	s.False(outcome.Correct, "disjoint")
	outcome, _ = s.game.SubmitMultiAnswer(s.ctx, id, "guest", 2, nil)
	s.False(outcome.Correct, "empty")

	s.stats.EXPECT().RecordResult(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	outcome, _ = s.game.SubmitMultiAnswer(s.ctx, id, "guest", 3, []int{30})
	s.False(outcome.Correct, "subset")

	s.Equal(2, s.player(id, "Alice").Score)
	s.Equal(0, s.player(id, "Bob").Score)
	s.Equal(domain.StatusCompleted, s.snapshot(id).Status)
}

func (s *GameServiceTestSuite) TestCompletionWaitsForEveryPlayer() {
	id := s.started()

	for _, q := range []struct{ question, answer int }{{1, 11}, {2, 20}, {3, 30}} {
		_, ok := s.game.SubmitAnswer(s.ctx, id, "host", q.question, intPtr(q.answer))
		s.Require().True(ok)
	}
	s.True(s.player(id, "Alice").HasCompleted)
	s.Equal(domain.StatusInProgress, s.snapshot(id).Status)
	s.Len(s.notifier.ofType(domain.EventPlayerCompleted), 1)
	s.Empty(s.notifier.ofType(domain.EventGameCompleted))

	// answering past the end is a no-op
	_, ok := s.game.SubmitAnswer(s.ctx, id, "host", 3, intPtr(30))
	s.False(ok)

	s.stats.EXPECT().RecordResult(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	for _, q := range []struct{ question, answer int }{{1, 10}, {2, 20}} {
		_, ok := s.game.SubmitAnswer(s.ctx, id, "guest", q.question, intPtr(q.answer))
		s.Require().True(ok)
	}
	s.Equal(domain.StatusInProgress, s.snapshot(id).Status)
	_, ok = s.game.SubmitAnswer(s.ctx, id, "guest", 3, nil)
	s.Require().True(ok)

	s.Equal(domain.StatusCompleted, s.snapshot(id).Status)
	s.Len(s.notifier.ofType(domain.EventGameCompleted), 1)
}

func (s *GameServiceTestSuite) TestStatsFailureDoesNotUndoCompletion() {
	id := s.started()
	s.stats.EXPECT().RecordResult(gomock.Any(), gomock.Any()).Return(errors.New("db down")).Times(2)

	for _, conn := range []string{"host", "guest"} {
		for _, q := range []int{1, 2, 3} {
			_, ok := s.game.SubmitAnswer(s.ctx, id, conn, q, nil)
			s.Require().True(ok)
		}
	}

	s.Equal(domain.StatusCompleted, s.snapshot(id).Status)
	s.Len(s.notifier.ofType(domain.EventGameCompleted), 1)
}

func (s *GameServiceTestSuite) TestEndToEnd() {
	id := s.started()

	var recorded []domain.ResultRecord
	s.stats.EXPECT().RecordResult(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r domain.ResultRecord) error {
			recorded = append(recorded, r)
			return nil
		}).Times(2)

	answers := map[string][]int{
		"host":  {11, 20, 30}, // 30 is one of two correct answers
		"guest": {10, 20, 32},
	}
	for i, q := range fixtureQuestions() {
		for _, conn := range []string{"host", "guest"} {
			_, ok := s.game.SubmitAnswer(s.ctx, id, conn, q.ID, intPtr(answers[conn][i]))
			s.Require().True(ok)
		}
	}

	snap := s.snapshot(id)
	s.Equal(domain.StatusCompleted, snap.Status)
	for _, p := range snap.Players {
		s.True(p.HasCompleted)
		s.Len(p.Answers, p.CurrentQuestionIndex)
	}

	session, _ := s.registry.GetSession(id)
	results, ok := session.Results()
	s.Require().True(ok)
	s.Equal(1, results.QuizID)
	s.Require().Len(results.Players, 2)
	scores := map[string]int{}
	for _, p := range results.Players {
		scores[p.Name] = p.Score
		s.Len(p.Answers, 3)
	}
	s.Equal(map[string]int{"Alice": 3, "Bob": 1}, scores)

	s.Require().Len(results.Questions, 3)
	s.Equal([]domain.AnswerView{{ID: 30, Text: "Jupiter"}, {ID: 31, Text: "Saturn"}}, results.Questions[2].CorrectAnswers)
	s.Equal([]int{30, 31}, results.Players[0].Answers[2].CorrectAnswerIDs)

	completed := s.notifier.ofType(domain.EventGameCompleted)
	s.Require().Len(completed, 1)
	s.True(completed[0].broadcast)

	s.Require().Len(recorded, 2)
	for _, r := range recorded {
		s.Equal(1, r.QuizID)
		s.Equal(3, r.TotalQuestions)
		s.Equal(scores[r.Username], r.CorrectAnswers)
	}
}

func TestConcurrentDuplicateSubmissionsScoreOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockQuestionProvider(ctrl)
	provider.EXPECT().FetchQuestions(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(fixtureQuestions(), nil)
	registry := newTestRegistry(newFakeClock())
	game := app.NewGameService(registry, provider, nil, newRecordingNotifier(), app.GameConfig{Limits: testLimits})
	ctx := context.Background()

	id := game.CreateSession(ctx, 1)
	_, _ = game.JoinSession(ctx, id, "host", "Alice", true)
	_, _ = game.JoinSession(ctx, id, "guest", "Bob", false)
	game.SetReady(ctx, id, "host")
	game.SetReady(ctx, id, "guest")

	var accepted atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, ok := game.SubmitAnswer(ctx, id, "host", 1, intPtr(11)); ok {
				accepted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	session, _ := registry.GetSession(id)
	var alice domain.PlayerState
	for _, p := range session.Snapshot().Players {
		if p.Name == "Alice" {
			alice = p
		}
	}
	assert.Equal(t, int32(1), accepted.Load())
	assert.Equal(t, 1, alice.Score)
	assert.Equal(t, 1, alice.CurrentQuestionIndex)
	require.Len(t, alice.Answers, 1)
}

func TestConcurrentReadyStartsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockQuestionProvider(ctrl)
	provider.EXPECT().FetchQuestions(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(fixtureQuestions(), nil).Times(1)
	registry := newTestRegistry(newFakeClock())
	notifier := newRecordingNotifier()
	game := app.NewGameService(registry, provider, nil, notifier, app.GameConfig{Limits: testLimits})
	ctx := context.Background()

	id := game.CreateSession(ctx, 1)
	_, _ = game.JoinSession(ctx, id, "host", "Alice", true)
	_, _ = game.JoinSession(ctx, id, "guest", "Bob", false)
	game.SetReady(ctx, id, "host")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			game.SetReady(ctx, id, "guest")
		}()
	}
	wg.Wait()

	session, _ := registry.GetSession(id)
	assert.Equal(t, domain.StatusInProgress, session.Status())
	assert.Len(t, notifier.ofType(domain.EventNextQuestion), 2)
}
