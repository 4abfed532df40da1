package redis

import (
	"context"
	"sync"
	"time"

	"fastquiz-service/internal/app"
	"github.com/redis/go-redis/v9"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Sessions themselves stay in process (the state machine is not shareable
// mid-run); Redis only marks which clients currently hold a session, so
// operators can see live clients and a future multi-instance setup can
// route reconnects.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) GetOrCreate(clientID string) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[clientID]; ok {
		return session
	}
	session := app.NewSession(clientID)
	s.sessions[clientID] = session
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(clientID), "1", s.ttl).Err()
	return session
}

func (s *SessionStore) Get(clientID string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[clientID]
	return session, ok
}

func (s *SessionStore) DeleteIfEmpty(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[clientID]
	if !ok {
		return
	}
	if session.Empty() {
		delete(s.sessions, clientID)
		_ = s.client.Del(context.Background(), s.key(clientID)).Err()
	}
}

func (s *SessionStore) key(clientID string) string {
	return "fastquiz:session:" + clientID
}
