package app_test

import (
	"sync"
	"time"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/domain"
	"quiz-duel-service/internal/infra/memory"
)

var testDefaults = domain.Settings{
	TimeLimitSeconds:   30,
	Mode:               domain.ModeSingleChoice,
	QuestionCount:      10,
	AnswersPerQuestion: 4,
}

var testLimits = domain.Limits{MinQuestions: 5, MaxQuestions: 30, MinAnswers: 2, MaxAnswers: 6}

// fixtureQuestions: q1 and q2 have one correct answer, q3 has two.
func fixtureQuestions() []domain.Question {
	return []domain.Question{
		{ID: 1, Text: "2 + 2?", Answers: []domain.Answer{
			{ID: 10, Text: "3"}, {ID: 11, Text: "4", Correct: true}, {ID: 12, Text: "5"},
		}},
		{ID: 2, Text: "Capital of France?", Answers: []domain.Answer{
			{ID: 20, Text: "Paris", Correct: true}, {ID: 21, Text: "Rome"}, {ID: 22, Text: "Oslo"},
		}},
		{ID: 3, Text: "Gas giants?", Answers: []domain.Answer{
			{ID: 30, Text: "Jupiter", Correct: true}, {ID: 31, Text: "Saturn", Correct: true}, {ID: 32, Text: "Mars"},
		}},
	}
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 4, 5, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type sentEvent struct {
	target    string
	broadcast bool
	event     domain.Event
}

// recordingNotifier captures every event the engine emits.
type recordingNotifier struct {
	mu     sync.Mutex
	groups map[string][]string
	events []sentEvent
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{groups: make(map[string][]string)}
}

func (n *recordingNotifier) AddToGroup(sessionID, connectionID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.groups[sessionID] = append(n.groups[sessionID], connectionID)
}

func (n *recordingNotifier) Broadcast(sessionID string, event domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{target: sessionID, broadcast: true, event: event})
}

func (n *recordingNotifier) Send(connectionID string, event domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, sentEvent{target: connectionID, event: event})
}

func (n *recordingNotifier) ofType(typ string) []sentEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentEvent
	for _, e := range n.events {
		if e.event.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func newTestRegistry(clock app.Clock) *app.Registry {
	return app.NewRegistry(memory.NewSessionStore(), app.RegistryConfig{
		TTL:      30 * time.Minute,
		Defaults: testDefaults,
		Clock:    clock,
	})
}
