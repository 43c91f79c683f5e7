package memory

import (
	"sync"

	"quiz-duel-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository. sync.Map keeps
// lookups of unrelated sessions from contending on one lock.
type SessionStore struct {
	sessions sync.Map // id -> *app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

func (s *SessionStore) Add(session *app.Session) bool {
	_, loaded := s.sessions.LoadOrStore(session.ID(), session)
	return !loaded
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	v, ok := s.sessions.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*app.Session), true
}

func (s *SessionStore) Remove(session *app.Session) bool {
	return s.sessions.CompareAndDelete(session.ID(), session)
}

func (s *SessionStore) Range(fn func(session *app.Session) bool) {
	s.sessions.Range(func(_, v any) bool {
		return fn(v.(*app.Session))
	})
}
