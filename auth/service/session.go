package service

import (
	"context"
	"sync"

	"github.com/goserg/arena/auth/users"
)

// Session is the identity of one browser. Listeners get the current identity
// as soon as they subscribe and again after every sign-in or sign-out.
type Session struct {
	svc *Service

	mu        sync.Mutex
	user      *users.User
	listeners []func(*users.User)
}

func (s *Service) NewSession() *Session {
	return &Session{svc: s}
}

func (s *Session) OnChange(cb func(*users.User)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, cb)
	current := s.user
	s.mu.Unlock()
	cb(current)
}

func (s *Session) User() (users.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return users.User{}, false
	}
	return *s.user, true
}

func (s *Session) SignIn(ctx context.Context, email, password string) error {
	user, err := s.svc.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	s.set(&user)
	return nil
}

func (s *Session) SignOut(_ context.Context) error {
	s.set(nil)
	return nil
}

func (s *Session) set(user *users.User) {
	s.mu.Lock()
	s.user = user
	listeners := append(([]func(*users.User))(nil), s.listeners...)
	s.mu.Unlock()
	for _, cb := range listeners {
		cb(user)
	}
}
