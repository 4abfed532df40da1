package app

import (
	"context"
	"fmt"

	"fastquiz-service/internal/domain"
)

// SessionRepository abstracts how client sessions are tracked (in-memory,
// Redis-marked, etc). One session exists per client ID.
type SessionRepository interface {
	GetOrCreate(clientID string) *Session
	Get(clientID string) (*Session, bool)
	DeleteIfEmpty(clientID string)
}

// QuizService contains the quiz-taking use cases that need the persistence
// collaborators. Pure state transitions (select, submit, advance, summary)
// are methods on Session itself.
type QuizService struct {
	sessions SessionRepository
	store    StateStore
	settings *SettingsModel
	theme    *ThemeService
	shuffler *Shuffler
}

func NewQuizService(sessions SessionRepository, store StateStore, settings *SettingsModel, theme *ThemeService) *QuizService {
	return &QuizService{
		sessions: sessions,
		store:    store,
		settings: settings,
		theme:    theme,
		shuffler: NewShuffler(),
	}
}

// Settings exposes the process-wide settings model.
func (s *QuizService) Settings() *SettingsModel { return s.settings }

// Theme exposes the process-wide theme service.
func (s *QuizService) Theme() *ThemeService { return s.theme }

// Attach returns the session for a client, creating it on first contact.
// Reconnecting clients get their previous session back, including any run
// that was in progress.
func (s *QuizService) Attach(clientID string) *Session {
	return s.sessions.GetOrCreate(clientID)
}

// Detach drops the client's session if it holds no document.
func (s *QuizService) Detach(clientID string) {
	s.sessions.DeleteIfEmpty(clientID)
}

// Session looks up an existing session.
func (s *QuizService) Session(clientID string) (*Session, error) {
	session, ok := s.sessions.Get(clientID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// LoadQuizText parses raw quiz JSON and starts a fresh run over it. The raw
// text is persisted under the last-quiz key so the next attach can restore
// it. A parse failure leaves both the persisted text and the session's prior
// state untouched.
func (s *QuizService) LoadQuizText(ctx context.Context, clientID, raw string) (domain.SessionSnapshot, error) {
	session, err := s.Session(clientID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	doc, err := domain.ParseDocument(raw)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	if err := s.store.Set(ctx, StateKeyLastQuiz, raw); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("persist quiz: %w", err)
	}
	return session.Load(doc, s.settings.Get(), s.shuffler), nil
}

// LoadQuizFrom runs an asynchronous read-then-load: read obtains the raw
// text (file pick, drag and drop, remote fetch) and the result is applied
// only if no newer load or reset superseded it in the meantime.
func (s *QuizService) LoadQuizFrom(ctx context.Context, clientID string, read func(context.Context) (string, error)) (domain.SessionSnapshot, error) {
	session, err := s.Session(clientID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	gen := session.Generation()

	raw, err := read(ctx)
	if err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("read quiz: %w", err)
	}
	doc, err := domain.ParseDocument(raw)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	snap, applied := session.LoadIfCurrent(gen, doc, s.settings.Get(), s.shuffler)
	if !applied {
		return domain.SessionSnapshot{}, domain.ErrLoadSuperseded
	}
	if err := s.store.Set(ctx, StateKeyLastQuiz, raw); err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("persist quiz: %w", err)
	}
	return snap, nil
}

// RestoreLastQuiz reloads the most recently persisted quiz text into the
// client's session. Returns ErrNoLastQuiz when nothing was ever loaded.
func (s *QuizService) RestoreLastQuiz(ctx context.Context, clientID string) (domain.SessionSnapshot, error) {
	session, err := s.Session(clientID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	raw, ok, err := s.store.Get(ctx, StateKeyLastQuiz)
	if err != nil {
		return domain.SessionSnapshot{}, fmt.Errorf("read last quiz: %w", err)
	}
	if !ok || raw == "" {
		return domain.SessionSnapshot{}, domain.ErrNoLastQuiz
	}
	doc, err := domain.ParseDocument(raw)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Load(doc, s.settings.Get(), s.shuffler), nil
}

// Reshuffle restarts the client's run over the same document with a fresh
// ordering derived from the current settings.
func (s *QuizService) Reshuffle(clientID string) (domain.SessionSnapshot, error) {
	session, err := s.Session(clientID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Reshuffle(s.settings.Get(), s.shuffler)
}

// Reset clears the client's session back to empty.
func (s *QuizService) Reset(clientID string) (domain.SessionSnapshot, error) {
	session, err := s.Session(clientID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	return session.Reset(), nil
}
