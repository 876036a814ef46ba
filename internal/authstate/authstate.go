package authstate

import (
	"context"
	"log/slog"
	"sync"

	"koperasihub/internal/models"
)

const LoginPath = "/login"

// SessionEnder tears down the server-side session.
type SessionEnder interface {
	EndSession(ctx context.Context) error
}

type EndSessionFunc func(ctx context.Context) error

func (f EndSessionFunc) EndSession(ctx context.Context) error {
	return f(ctx)
}

// Navigator performs a full navigation, discarding any state held by the
// current view.
type Navigator interface {
	Navigate(path string)
}

type NavigateFunc func(path string)

func (f NavigateFunc) Navigate(path string) {
	f(path)
}

// Store holds the identity used for rendering decisions. It is not a trust
// boundary; the session cookies are.
type Store struct {
	mu     sync.RWMutex
	user   *models.User
	ender  SessionEnder
	nav    Navigator
	logger *slog.Logger
}

func New(ender SessionEnder, nav Navigator, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{ender: ender, nav: nav, logger: logger}
}

func (s *Store) SetUser(user models.User) {
	s.mu.Lock()
	s.user = &user
	s.mu.Unlock()
}

func (s *Store) User() (models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Logout asks the server to end the session, then clears the identity and
// navigates to the login page whatever the server said.
func (s *Store) Logout(ctx context.Context) {
	if s.ender != nil {
		if err := s.ender.EndSession(ctx); err != nil {
			s.logger.WarnContext(ctx, "session teardown failed", "error", err)
		}
	}
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	if s.nav != nil {
		s.nav.Navigate(LoginPath)
	}
}
