package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goserg/arena/internal/domain"
)

const minNameLength = 2

// Registered is the outcome of a successful registration.
type Registered struct {
	ID   string
	Name string
}

func (r Registered) Message() string {
	return fmt.Sprintf("✔ %s has joined the arena!", r.Name)
}

func (r Registered) Toast() string {
	return fmt.Sprintf("⚽ %s registered!", r.Name)
}

// Register adds a new player with zeroed stats. No privilege is required.
// The duplicate check runs against the mirror, so concurrent registrations
// from other clients can still produce duplicates.
func (s *PlayerService) Register(ctx context.Context, name string) (Registered, error) {
	name = strings.TrimSpace(name)
	if err := s.validateName(name); err != nil {
		s.logFailure("register", err)
		return Registered{}, err
	}
	id, err := s.store.Push(ctx, domain.PlayersCollection, domain.Player{
		Name:      name,
		CreatedAt: s.now(),
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", domain.ErrUpdateFailed, err)
		s.logFailure("register", err)
		return Registered{}, err
	}
	s.log.WithFields(map[string]interface{}{
		"id":   id,
		"name": name,
	}).Info("player registered")
	return Registered{ID: id, Name: name}, nil
}

func (s *PlayerService) validateName(name string) error {
	switch {
	case name == "":
		return domain.Detail(domain.ErrEmptyName, "⚠ Please enter your full name.")
	case utf8.RuneCountInString(name) < minNameLength:
		return domain.Detail(domain.ErrNameTooShort, "⚠ Name must be at least 2 characters.")
	case s.players.HasName(name):
		return domain.Detail(domain.ErrDuplicateName, "⚠ A player with this name already exists.")
	}
	return nil
}
