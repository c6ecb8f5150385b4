package memory

import (
	"context"
	"sync"
	"time"

	"pathfinder-service/internal/cat"
	"pathfinder-service/internal/domain"
)

// SessionStore is an in-memory implementation of cat.SessionStore. Sessions
// older than ttl are dropped lazily on access.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.Mutex
	sessions map[string]cat.Session
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]cat.Session),
	}
}

func (s *SessionStore) Create(_ context.Context, session cat.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session.Clone()
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (cat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.live(id)
	if !ok {
		return cat.Session{}, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *SessionStore) Update(_ context.Context, id string, fn func(*cat.Session) error) (cat.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.live(id)
	if !ok {
		return cat.Session{}, domain.ErrSessionNotFound
	}
	next := session.Clone()
	if err := fn(&next); err != nil {
		return cat.Session{}, err
	}
	s.sessions[id] = next.Clone()
	return next, nil
}

// live must be called with the lock held.
func (s *SessionStore) live(id string) (cat.Session, bool) {
	session, ok := s.sessions[id]
	if !ok {
		return cat.Session{}, false
	}
	if s.ttl > 0 && s.clock().Sub(session.CreatedAt) > s.ttl {
		delete(s.sessions, id)
		return cat.Session{}, false
	}
	return session, true
}
