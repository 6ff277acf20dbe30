package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/goserg/arena/bot/model"
)

func TestStorage(t *testing.T) {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	s, err := New(l, filepath.Join(t.TempDir(), "bot.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	_, err = s.GetUser(42)
	require.ErrorIs(t, err, ErrUserNotFound)

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	u, err := s.NewUser(model.User{ID: 42, FirstName: "Ann", Username: "ann", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)
	require.Equal(t, model.RoleUser, u.Role)
	require.Empty(t, u.Subscriptions)

	require.NoError(t, s.Subscribe(u, model.NewMatch))
	require.NoError(t, s.Subscribe(u, model.NewMatch), "subscribing twice is a no-op")
	u, err = s.GetUser(42)
	require.NoError(t, err)
	require.Equal(t, []model.EventType{model.NewMatch}, u.Subscriptions)

	require.NoError(t, s.Log(u, "/top"))

	list, err := s.ListUsers()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, []model.EventType{model.NewMatch}, list[0].Subscriptions)

	require.NoError(t, s.Unsubscribe(u, model.NewMatch))
	u, err = s.GetUser(42)
	require.NoError(t, err)
	require.Empty(t, u.Subscriptions)
}

func TestUpdateUserRole(t *testing.T) {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	s, err := New(l, filepath.Join(t.TempDir(), "bot.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	now := time.Now()
	u, err := s.NewUser(model.User{ID: 7, FirstName: "Mo", CreatedAt: now, UpdatedAt: now})
	require.NoError(t, err)

	u.Role = model.RoleModerator
	require.NoError(t, s.UpdateUserRole(u))
	u, err = s.GetUser(7)
	require.NoError(t, err)
	require.Equal(t, model.RoleModerator, u.Role)

	list, err := s.ListUsers()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, model.RoleModerator, list[0].Role)

	// a user row without a role row gets one
	_, err = s.db.Exec(`DELETE FROM user_roles WHERE user_id = 7`)
	require.NoError(t, err)
	u.Role = model.RoleAdmin
	require.NoError(t, s.UpdateUserRole(u))
	u, err = s.GetUser(7)
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, u.Role)
}
