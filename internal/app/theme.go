package app

import (
	"context"
	"sync"

	"fastquiz-service/internal/domain"
)

// ThemeService keeps the persisted theme name and fans changes out to
// subscribers. System-theme detection and actual styling stay with the
// client; the service only round-trips the chosen name.
type ThemeService struct {
	store StateStore

	mu          sync.Mutex
	current     string
	subscribers map[chan string]struct{}
}

// NewThemeService restores the persisted theme, defaulting to system when
// nothing valid was stored.
func NewThemeService(ctx context.Context, store StateStore) (*ThemeService, error) {
	t := &ThemeService{
		store:       store,
		current:     domain.ThemeSystem,
		subscribers: make(map[chan string]struct{}),
	}
	raw, ok, err := store.Get(ctx, StateKeyTheme)
	if err != nil {
		return nil, err
	}
	if ok && domain.ValidTheme(raw) {
		t.current = raw
	}
	return t, nil
}

// Get returns the active theme name.
func (t *ThemeService) Get() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Set persists and broadcasts a new theme.
func (t *ThemeService) Set(ctx context.Context, name string) error {
	if !domain.ValidTheme(name) {
		return domain.ErrInvalidTheme
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.store.Set(ctx, StateKeyTheme, name); err != nil {
		return err
	}
	t.current = name
	for ch := range t.subscribers {
		select {
		case ch <- name:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- name
		}
	}
	return nil
}

// Subscribe returns a channel receiving theme changes, primed with the
// current value. The caller must invoke cancel to avoid leaks.
func (t *ThemeService) Subscribe() (<-chan string, func()) {
	ch := make(chan string, 4)

	t.mu.Lock()
	t.subscribers[ch] = struct{}{}
	// Primed under the lock so a concurrent Set cannot deliver ahead of the
	// initial value. The fresh buffered channel never blocks.
	ch <- t.current
	t.mu.Unlock()

	cancel := func() {
		t.mu.Lock()
		if _, ok := t.subscribers[ch]; ok {
			delete(t.subscribers, ch)
			close(ch)
		}
		t.mu.Unlock()
	}
	return ch, cancel
}
