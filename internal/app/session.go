package app

import (
	"slices"
	"sync"
	"time"

	"quiz-duel-service/internal/domain"
)

// maxPlayers is the match cap: one host and one guest, or two guests.
const maxPlayers = 2

// quorum is the number of ready players required to start a game.
const quorum = 2

// Player is one connected participant. Identity fields are immutable after join;
// progress fields are guarded by mu, readiness by the owning session's mu.
type Player struct {
	connectionID string
	playerID     string
	name         string
	isHost       bool

	// guarded by Session.mu
	ready bool

	mu        sync.Mutex
	index     int
	score     int
	completed bool
	answers   []domain.PlayerAnswer
}

// ConnectionID returns the transport identity the player joined with.
func (p *Player) ConnectionID() string { return p.connectionID }

// PlayerID returns the identity handed back to the client.
func (p *Player) PlayerID() string { return p.playerID }

func (p *Player) resetLocked() {
	p.index = 0
	p.score = 0
	p.completed = false
	p.answers = nil
}

func (p *Player) hasCompleted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

// stateLocked copies the player; the caller holds the session lock.
func (p *Player) stateLocked(withAnswers bool) domain.PlayerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	state := domain.PlayerState{
		PlayerID:             p.playerID,
		Name:                 p.name,
		IsHost:               p.isHost,
		IsReady:              p.ready,
		HasCompleted:         p.completed,
		Score:                p.score,
		CurrentQuestionIndex: p.index,
	}
	if withAnswers {
		state.Answers = slices.Clone(p.answers)
	}
	return state
}

// Session is one match. All mutable fields are guarded by mu; lock order is
// session before player and a player lock is never held while taking a session lock.
type Session struct {
	id        string
	createdAt time.Time

	mu        sync.Mutex
	quizID    int
	status    domain.GameStatus
	settings  domain.Settings
	players   []*Player
	questions []domain.Question
	starting  bool
	results   *domain.Results
}

func newSession(id string, quizID int, createdAt time.Time, settings domain.Settings) *Session {
	return &Session{
		id:        id,
		createdAt: createdAt,
		quizID:    quizID,
		status:    domain.StatusWaitingForPlayers,
		settings:  settings,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// CreatedAt returns the creation timestamp that drives eviction.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Status returns the current lifecycle state.
func (s *Session) Status() domain.GameStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot copies the full session state, including answer logs.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	players := make([]domain.PlayerState, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p.stateLocked(true))
	}
	return domain.SessionSnapshot{
		ID:        s.id,
		QuizID:    s.quizID,
		Status:    s.status,
		Settings:  s.settings,
		Players:   players,
		Questions: slices.Clone(s.questions),
		CreatedAt: s.createdAt,
	}
}

// Roster lists the players without their answer logs.
func (s *Session) Roster() []domain.PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rosterLocked()
}

func (s *Session) rosterLocked() []domain.PlayerState {
	roster := make([]domain.PlayerState, 0, len(s.players))
	for _, p := range s.players {
		roster = append(roster, p.stateLocked(false))
	}
	return roster
}

// Results returns the completion aggregate once the session is completed.
func (s *Session) Results() (domain.Results, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.results == nil {
		return domain.Results{}, false
	}
	return *s.results, true
}

func (s *Session) playerLocked(connectionID string) *Player {
	for _, p := range s.players {
		if p.connectionID == connectionID {
			return p
		}
	}
	return nil
}

func (s *Session) hostLocked() *Player {
	for _, p := range s.players {
		if p.isHost {
			return p
		}
	}
	return nil
}

// join admits a player. Every admission rule is evaluated under the lock so two
// concurrent joins cannot both observe a free slot.
func (s *Session) join(connectionID, playerID, name string, asHost bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusWaitingForPlayers {
		return false
	}
	if s.playerLocked(connectionID) != nil {
		return false
	}
	if asHost && s.hostLocked() != nil {
		return false
	}
	if len(s.players) >= maxPlayers {
		return false
	}
	s.players = append(s.players, &Player{
		connectionID: connectionID,
		playerID:     playerID,
		name:         name,
		isHost:       asHost,
	})
	return true
}

// markReady flags the caller ready and reports whether the start quorum is now met.
func (s *Session) markReady(connectionID string) (playerID string, quorumMet bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusWaitingForPlayers {
		return "", false, false
	}
	p := s.playerLocked(connectionID)
	if p == nil {
		return "", false, false
	}
	p.ready = true
	return p.playerID, s.quorumLocked(), true
}

func (s *Session) quorumLocked() bool {
	ready := 0
	for _, p := range s.players {
		if p.ready {
			ready++
		}
	}
	return len(s.players) >= quorum && ready >= quorum
}

// configure applies fn to the settings when the caller is the host and the game has not started.
func (s *Session) configure(connectionID string, fn func(*domain.Settings)) (domain.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusWaitingForPlayers || s.starting {
		return s.settings, false
	}
	p := s.playerLocked(connectionID)
	if p == nil || !p.isHost {
		return s.settings, false
	}
	fn(&s.settings)
	return s.settings, true
}

// setQuizID changes the quiz while the session is waiting; host only.
func (s *Session) setQuizID(connectionID string, quizID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusWaitingForPlayers || s.starting {
		return false
	}
	p := s.playerLocked(connectionID)
	if p == nil || !p.isHost {
		return false
	}
	s.quizID = quizID
	return true
}

// startRequest is what the provider needs to build a question set.
type startRequest struct {
	quizID   int
	settings domain.Settings
	host     string
}

// beginStart claims the right to start the game. Only one caller wins until
// applyStart or abortStart releases the claim.
func (s *Session) beginStart() (startRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusWaitingForPlayers || s.starting || !s.quorumLocked() {
		return startRequest{}, false
	}
	s.starting = true
	req := startRequest{quizID: s.quizID, settings: s.settings}
	if host := s.hostLocked(); host != nil {
		req.host = host.connectionID
	}
	return req, true
}

func (s *Session) abortStart() {
	s.mu.Lock()
	s.starting = false
	s.mu.Unlock()
}

// delivery pairs a connection with the question it should see next.
type delivery struct {
	connectionID string
	question     domain.QuestionView
}

// applyStart stores the fetched question set, resets every player and moves the
// session to InProgress. State is re-validated because it may have changed during the fetch.
func (s *Session) applyStart(questions []domain.Question) ([]delivery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.starting = false
	if s.status != domain.StatusWaitingForPlayers || len(questions) == 0 || !s.quorumLocked() {
		return nil, false
	}

	s.questions = slices.Clone(questions)
	s.status = domain.StatusInProgress

	first := domain.NewQuestionView(s.questions[0], s.settings)
	deliveries := make([]delivery, 0, len(s.players))
	for _, p := range s.players {
		p.mu.Lock()
		p.resetLocked()
		p.mu.Unlock()
		deliveries = append(deliveries, delivery{connectionID: p.connectionID, question: first})
	}
	return deliveries, true
}

// round is the read-only view of an in-progress session needed to grade one submission.
type round struct {
	player    *Player
	questions []domain.Question
	settings  domain.Settings
}

func (s *Session) currentRound(connectionID string) (round, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusInProgress {
		return round{}, false
	}
	p := s.playerLocked(connectionID)
	if p == nil {
		return round{}, false
	}
	return round{player: p, questions: s.questions, settings: s.settings}, true
}

// complete moves the session to Completed when every player has finished. Only the
// first caller to observe that condition gets the aggregate.
func (s *Session) complete(now time.Time) (domain.Results, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusInProgress {
		return domain.Results{}, false
	}
	for _, p := range s.players {
		if !p.hasCompleted() {
			return domain.Results{}, false
		}
	}
	s.status = domain.StatusCompleted
	results := buildResults(s.id, s.quizID, s.questions, s.players, now)
	s.results = &results
	return results, true
}

// records builds one statistics entry per player of the aggregate.
func (s *Session) records(results domain.Results) []domain.ResultRecord {
	s.mu.Lock()
	total := len(s.questions)
	s.mu.Unlock()

	records := make([]domain.ResultRecord, 0, len(results.Players))
	for _, pr := range results.Players {
		records = append(records, domain.ResultRecord{
			Username:       pr.Name,
			QuizID:         results.QuizID,
			TotalQuestions: total,
			CorrectAnswers: pr.Score,
			CompletedAt:    results.CompletedAt,
		})
	}
	return records
}
