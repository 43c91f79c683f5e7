package app

import (
	"context"
	"log/slog"
	"time"

	"quiz-duel-service/internal/domain"
)

// SessionRepository abstracts how live sessions are indexed (in-memory, Redis-marked, etc).
// Implementations must allow concurrent access without serializing unrelated sessions.
type SessionRepository interface {
	// Add inserts the session unless its id is already taken.
	Add(session *Session) bool
	Get(id string) (*Session, bool)
	// Remove deletes the entry only if it still maps to this exact session.
	Remove(session *Session) bool
	Range(fn func(session *Session) bool)
}

// RegistryConfig wires the registry; zero-valued dependencies fall back to defaults.
type RegistryConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Defaults      domain.Settings
	Clock         Clock
	IDs           IDGenerator
	Logger        *slog.Logger
}

// Registry is the process-wide store of live sessions. It is constructed once at
// startup and passed to whatever needs it.
type Registry struct {
	sessions      SessionRepository
	ttl           time.Duration
	sweepInterval time.Duration
	defaults      domain.Settings
	clock         Clock
	ids           IDGenerator
	logger        *slog.Logger
}

func NewRegistry(store SessionRepository, cfg RegistryConfig) *Registry {
	r := &Registry{
		sessions:      store,
		ttl:           cfg.TTL,
		sweepInterval: cfg.SweepInterval,
		defaults:      cfg.Defaults,
		clock:         cfg.Clock,
		ids:           cfg.IDs,
		logger:        cfg.Logger,
	}
	if r.clock == nil {
		r.clock = SystemClock{}
	}
	if r.ids == nil {
		r.ids = UUIDGenerator{}
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// CreateSession registers a new waiting session for quizID and returns its id.
func (r *Registry) CreateSession(quizID int) string {
	now := r.clock.Now()
	for {
		session := newSession(r.ids.NewID(), quizID, now, r.defaults)
		if r.sessions.Add(session) {
			r.logger.Debug("session created", "session", session.id, "quiz", quizID)
			return session.id
		}
		r.logger.Warn("session id collision, retrying", "session", session.id)
	}
}

// GetSession looks up a session without touching its lock.
func (r *Registry) GetSession(id string) (*Session, bool) {
	return r.sessions.Get(id)
}

// JoinSession admits a player into a waiting session and returns the new player id.
func (r *Registry) JoinSession(id, connectionID, name string, asHost bool) (string, bool) {
	session, ok := r.sessions.Get(id)
	if !ok {
		return "", false
	}
	playerID := r.ids.NewID()
	if !session.join(connectionID, playerID, name, asHost) {
		return "", false
	}
	return playerID, true
}

// EvictExpired removes every session created before now-ttl, whatever its status.
// Each removal happens under the session's lock so no in-flight mutation is cut short.
func (r *Registry) EvictExpired(now time.Time, ttl time.Duration) int {
	cutoff := now.Add(-ttl)
	var expired []*Session
	r.sessions.Range(func(session *Session) bool {
		if session.createdAt.Before(cutoff) {
			expired = append(expired, session)
		}
		return true
	})

	removed := 0
	for _, session := range expired {
		session.mu.Lock()
		if r.sessions.Remove(session) {
			removed++
		}
		session.mu.Unlock()
	}
	if removed > 0 {
		r.logger.Info("evicted expired sessions", "count", removed)
	}
	return removed
}

// Run sweeps expired sessions every SweepInterval until ctx is done. A non-positive
// interval disables the sweeper.
func (r *Registry) Run(ctx context.Context) error {
	if r.sweepInterval <= 0 || r.ttl <= 0 {
		r.logger.Info("session sweeper disabled")
		return nil
	}
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.EvictExpired(r.clock.Now(), r.ttl)
		}
	}
}
