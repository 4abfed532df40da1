package app

import (
	"context"
	"encoding/json"
	"sync"

	"fastquiz-service/internal/domain"
)

// Well-known state store keys. They mirror the keys the web client used for
// its own persistence, so existing exports stay readable.
const (
	StateKeySettings = "quizSettings"
	StateKeyLastQuiz = "lastQuiz"
	StateKeyTheme    = "theme"
)

// StateStore is the persistence collaborator: named opaque values that
// survive restarts. Implementations live under internal/infra.
type StateStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Notification kinds.
const (
	NotifyInfo    = "info"
	NotifySuccess = "success"
	NotifyError   = "error"
)

// Notifier surfaces user-visible messages. The WebSocket transport implements
// it per connection; the CLI falls back to logging.
type Notifier interface {
	Notify(kind, title, message string)
}

// SettingsModel holds the process-wide preferences, loaded once at startup
// and written through on every change. Values are shared by all sessions.
type SettingsModel struct {
	store StateStore

	mu  sync.RWMutex
	cur domain.Settings
}

// NewSettingsModel reads persisted settings from the store. Missing or
// malformed persisted data falls back to defaults field by field; only a
// store-level read failure is surfaced.
func NewSettingsModel(ctx context.Context, store StateStore) (*SettingsModel, error) {
	m := &SettingsModel{store: store, cur: domain.DefaultSettings()}

	raw, ok, err := store.Get(ctx, StateKeySettings)
	if err != nil {
		return nil, err
	}
	if ok {
		m.cur = decodeSettings(raw)
	}
	return m, nil
}

// decodeSettings recovers what it can from persisted JSON. Each field falls
// back to its default independently; an out-of-range duration is treated the
// same as a missing one.
func decodeSettings(raw string) domain.Settings {
	cur := domain.DefaultSettings()
	var persisted struct {
		TimerEnabled     *bool `json:"timerEnabled"`
		TimerDuration    *int  `json:"timerDuration"`
		ShuffleQuestions *bool `json:"shuffleQuestions"`
		ShuffleOptions   *bool `json:"shuffleOptions"`
	}
	// The unmarshal error is deliberately ignored: a type mismatch on one
	// field still populates the others, and a syntax error populates none,
	// so applying the non-nil fields below gives field-by-field fallback.
	_ = json.Unmarshal([]byte(raw), &persisted)
	if persisted.TimerEnabled != nil {
		cur.TimerEnabled = *persisted.TimerEnabled
	}
	if persisted.TimerDuration != nil &&
		*persisted.TimerDuration >= domain.MinTimerDuration &&
		*persisted.TimerDuration <= domain.MaxTimerDuration {
		cur.TimerDuration = *persisted.TimerDuration
	}
	if persisted.ShuffleQuestions != nil {
		cur.ShuffleQuestions = *persisted.ShuffleQuestions
	}
	if persisted.ShuffleOptions != nil {
		cur.ShuffleOptions = *persisted.ShuffleOptions
	}
	return cur
}

// Get returns the current settings snapshot.
func (m *SettingsModel) Get() domain.Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cur
}

// SetTimerEnabled toggles the countdown and persists the snapshot.
func (m *SettingsModel) SetTimerEnabled(ctx context.Context, enabled bool) error {
	return m.update(ctx, func(s *domain.Settings) error {
		s.TimerEnabled = enabled
		return nil
	})
}

// SetTimerDuration sets the per-question seconds within [5, 120].
func (m *SettingsModel) SetTimerDuration(ctx context.Context, seconds int) error {
	return m.update(ctx, func(s *domain.Settings) error {
		if seconds < domain.MinTimerDuration || seconds > domain.MaxTimerDuration {
			return domain.ErrInvalidTimerDuration
		}
		s.TimerDuration = seconds
		return nil
	})
}

// SetShuffleQuestions toggles question-order randomization.
func (m *SettingsModel) SetShuffleQuestions(ctx context.Context, shuffle bool) error {
	return m.update(ctx, func(s *domain.Settings) error {
		s.ShuffleQuestions = shuffle
		return nil
	})
}

// SetShuffleOptions toggles option-order randomization.
func (m *SettingsModel) SetShuffleOptions(ctx context.Context, shuffle bool) error {
	return m.update(ctx, func(s *domain.Settings) error {
		s.ShuffleOptions = shuffle
		return nil
	})
}

// update applies the mutation and writes the full snapshot through the store
// while holding the lock, keeping persisted state in step with memory.
func (m *SettingsModel) update(ctx context.Context, mutate func(*domain.Settings) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.cur
	if err := mutate(&next); err != nil {
		return err
	}
	data, err := json.Marshal(next)
	if err != nil {
		return err
	}
	if err := m.store.Set(ctx, StateKeySettings, string(data)); err != nil {
		return err
	}
	m.cur = next
	return nil
}
