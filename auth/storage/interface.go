package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/goserg/arena/auth/users"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
)

type AuthStorage interface {
	CreateUser(ctx context.Context, user users.User, secret users.Secret) error
	GetUser(ctx context.Context, id uuid.UUID) (users.User, error)
	GetUserByEmail(ctx context.Context, email string) (users.User, error)
	GetUserSecret(ctx context.Context, user users.User) (users.Secret, error)
}
