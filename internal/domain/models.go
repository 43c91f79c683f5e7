package domain

import (
	"fmt"
	"strings"
	"time"
)

// GameStatus is the lifecycle state of a session. It only moves forward.
type GameStatus int

const (
	StatusWaitingForPlayers GameStatus = iota
	StatusInProgress
	StatusCompleted
)

func (s GameStatus) String() string {
	switch s {
	case StatusWaitingForPlayers:
		return "waitingForPlayers"
	case StatusInProgress:
		return "inProgress"
	case StatusCompleted:
		return "completed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

func (s GameStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// GameMode selects how answers are submitted and graded.
type GameMode int

const (
	ModeSingleChoice GameMode = iota
	ModeMultipleChoice
)

func (m GameMode) String() string {
	if m == ModeMultipleChoice {
		return "multipleChoice"
	}
	return "singleChoice"
}

func (m GameMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *GameMode) UnmarshalText(text []byte) error {
	mode, err := ParseGameMode(string(text))
	if err != nil {
		return err
	}
	*m = mode
	return nil
}

// ParseGameMode accepts the wire names as well as the numeric form used by older clients.
func ParseGameMode(raw string) (GameMode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "singlechoice", "single", "0":
		return ModeSingleChoice, nil
	case "multiplechoice", "multi", "multiple", "1":
		return ModeMultipleChoice, nil
	}
	return ModeSingleChoice, fmt.Errorf("%w: %q", ErrUnknownGameMode, raw)
}

// Answer is one selectable option of a question.
type Answer struct {
	ID      int    `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question carries the answers shown to players together with their correctness.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Answers []Answer `json:"answers"`
}

// CorrectAnswers returns the answers flagged as correct, in question order.
func (q Question) CorrectAnswers() []Answer {
	correct := make([]Answer, 0, 1)
	for _, a := range q.Answers {
		if a.Correct {
			correct = append(correct, a)
		}
	}
	return correct
}

// Quiz is a question bank entry: every question with its full answer pool.
type Quiz struct {
	ID        int        `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Settings are the host-configurable options of a session.
type Settings struct {
	TimeLimitEnabled   bool     `json:"timeLimitEnabled"`
	TimeLimitSeconds   int      `json:"timeLimitSeconds"`
	Mode               GameMode `json:"gameMode"`
	QuestionCount      int      `json:"questionCount"`
	AnswersPerQuestion int      `json:"answersPerQuestion"`
}

// Limits bound the host-supplied question and answer counts.
type Limits struct {
	MinQuestions int
	MaxQuestions int
	MinAnswers   int
	MaxAnswers   int
}

// ClampQuestions keeps n inside [MinQuestions, MaxQuestions].
func (l Limits) ClampQuestions(n int) int {
	return clamp(n, l.MinQuestions, l.MaxQuestions)
}

// ClampAnswers keeps n inside [MinAnswers, MaxAnswers].
func (l Limits) ClampAnswers(n int) int {
	return clamp(n, l.MinAnswers, l.MaxAnswers)
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if hi >= lo && n > hi {
		return hi
	}
	return n
}

// PlayerAnswer is one entry of a player's answer log.
type PlayerAnswer struct {
	QuestionID   int      `json:"questionId"`
	QuestionText string   `json:"questionText"`
	AnswerIDs    []int    `json:"answerIds"`
	AnswerTexts  []string `json:"answerTexts"`
	Correct      bool     `json:"isCorrect"`
}

// PlayerState is a point-in-time copy of a player. Roster broadcasts leave Answers empty.
type PlayerState struct {
	PlayerID             string         `json:"playerId"`
	Name                 string         `json:"name"`
	IsHost               bool           `json:"isHost"`
	IsReady              bool           `json:"isReady"`
	HasCompleted         bool           `json:"hasCompleted"`
	Score                int            `json:"score"`
	CurrentQuestionIndex int            `json:"currentQuestionIndex"`
	Answers              []PlayerAnswer `json:"answers,omitempty"`
}

// SessionSnapshot is a point-in-time copy of a session.
type SessionSnapshot struct {
	ID        string        `json:"id"`
	QuizID    int           `json:"quizId"`
	Status    GameStatus    `json:"status"`
	Settings  Settings      `json:"settings"`
	Players   []PlayerState `json:"players"`
	Questions []Question    `json:"questions,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

// AnswerView is an answer as shown to a player, without its correctness.
type AnswerView struct {
	ID   int    `json:"answerId"`
	Text string `json:"answerText"`
}

// QuestionView is the payload of a nextQuestion event.
type QuestionView struct {
	QuestionID       int          `json:"questionId"`
	QuestionText     string       `json:"questionText"`
	Answers          []AnswerView `json:"answers"`
	TimeLimitEnabled bool         `json:"isTimeLimitEnabled"`
	TimeLimitSeconds int          `json:"timeLimitPerQuestion"`
	MultiChoice      bool         `json:"isMultiChoice"`
}

// NewQuestionView hides correctness flags and attaches the session timing settings.
func NewQuestionView(q Question, settings Settings) QuestionView {
	answers := make([]AnswerView, 0, len(q.Answers))
	for _, a := range q.Answers {
		answers = append(answers, AnswerView{ID: a.ID, Text: a.Text})
	}
	return QuestionView{
		QuestionID:       q.ID,
		QuestionText:     q.Text,
		Answers:          answers,
		TimeLimitEnabled: settings.TimeLimitEnabled,
		TimeLimitSeconds: settings.TimeLimitSeconds,
		MultiChoice:      settings.Mode == ModeMultipleChoice,
	}
}

// AnswerOutcome summarizes a graded submission for the submitting player.
type AnswerOutcome struct {
	PlayerID   string `json:"playerId"`
	QuestionID int    `json:"questionId"`
	Correct    bool   `json:"isCorrect"`
	Score      int    `json:"score"`
	Completed  bool   `json:"completed"`
}

// AnsweredQuestion is a log entry annotated with the canonical correct answers.
type AnsweredQuestion struct {
	PlayerAnswer
	CorrectAnswerIDs   []int    `json:"correctAnswerIds"`
	CorrectAnswerTexts []string `json:"correctAnswerTexts"`
}

// PlayerResult is one player's part of the final aggregate.
type PlayerResult struct {
	PlayerID string             `json:"playerId"`
	Name     string             `json:"playerName"`
	Score    int                `json:"score"`
	Answers  []AnsweredQuestion `json:"answers"`
}

// QuestionResult lists the correct answers of one question.
type QuestionResult struct {
	QuestionID     int          `json:"questionId"`
	QuestionText   string       `json:"questionText"`
	CorrectAnswers []AnswerView `json:"correctAnswers"`
}

// Results is the aggregate produced once when a session completes.
type Results struct {
	SessionID   string           `json:"sessionId"`
	QuizID      int              `json:"quizId"`
	Players     []PlayerResult   `json:"players"`
	Questions   []QuestionResult `json:"questions"`
	CompletedAt time.Time        `json:"completedAt"`
}

// ResultRecord is what the statistics collaborator persists per player.
type ResultRecord struct {
	Username       string    `json:"username"`
	QuizID         int       `json:"quizId"`
	TotalQuestions int       `json:"totalQuestions"`
	CorrectAnswers int       `json:"correctAnswers"`
	CompletedAt    time.Time `json:"completedAt"`
}
