package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-duel-service/internal/app"
	"quiz-duel-service/internal/infra/memory"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions stay in process memory; Redis only carries a liveness marker per session
// so operators and other instances can see which matches are live.
type SessionStore struct {
	*memory.SessionStore
	client  *redis.Client
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger
}

func NewSessionStore(client *redis.Client, ttl time.Duration, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		SessionStore: memory.NewSessionStore(),
		client:       client,
		ttl:          ttl,
		timeout:      time.Second,
		logger:       logger,
	}
}

func (s *SessionStore) Add(session *app.Session) bool {
	if !s.SessionStore.Add(session) {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	// best-effort liveness marker
	if err := s.client.Set(ctx, s.key(session.ID()), session.CreatedAt().Unix(), s.ttl).Err(); err != nil {
		s.logger.Warn("mark session live failed", "session", session.ID(), "err", err)
	}
	return true
}

func (s *SessionStore) Remove(session *app.Session) bool {
	if !s.SessionStore.Remove(session) {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.client.Del(ctx, s.key(session.ID())).Err(); err != nil {
		s.logger.Warn("clear session marker failed", "session", session.ID(), "err", err)
	}
	return true
}

// LiveCount reports how many session markers Redis currently holds.
func (s *SessionStore) LiveCount(ctx context.Context) (int, error) {
	var (
		cursor uint64
		count  int
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "quiz:session:*", 100).Result()
		if err != nil {
			return 0, err
		}
		count += len(keys)
		if next == 0 {
			return count, nil
		}
		cursor = next
	}
}

func (s *SessionStore) key(id string) string {
	return "quiz:session:" + id
}
