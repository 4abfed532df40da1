package memory

import (
	"sync"

	"fastquiz-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository,
// keyed by client ID so a reconnecting client resumes its run.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
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
	}
}
