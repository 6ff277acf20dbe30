package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context

	mu     sync.Mutex
	latest domain.Snapshot
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	storage, err := New(l, filepath.Join(s.T().TempDir(), "arena.sqlite"))
	s.Require().NoError(err)
	s.storage = storage
	s.ctx = context.Background()
	s.latest = nil
}

func (s *StorageSuite) TearDownTest() {
	s.Require().NoError(s.storage.Close())
}

func (s *StorageSuite) subscribe() store.Subscription {
	sub, err := s.storage.Subscribe(s.ctx, domain.PlayersCollection, func(snap domain.Snapshot) {
		s.mu.Lock()
		s.latest = snap
		s.mu.Unlock()
	}, nil)
	s.Require().NoError(err)
	return sub
}

func (s *StorageSuite) eventually(cond func(domain.Snapshot) bool) domain.Snapshot {
	var snap domain.Snapshot
	s.Require().Eventually(func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		snap = s.latest
		return snap != nil && cond(snap)
	}, 2*time.Second, 10*time.Millisecond)
	return snap
}

func (s *StorageSuite) TestPushAndSubscribe() {
	sub := s.subscribe()
	defer sub.Close()
	s.eventually(func(snap domain.Snapshot) bool { return len(snap) == 0 })

	created := time.UnixMilli(1700000000000)
	id, err := s.storage.Push(s.ctx, domain.PlayersCollection, domain.Player{Name: "Alice", CreatedAt: created})
	s.Require().NoError(err)

	snap := s.eventually(func(snap domain.Snapshot) bool { return len(snap) == 1 })
	s.Equal("Alice", snap[id].Name)
	s.True(created.Equal(snap[id].CreatedAt))
}

func (s *StorageSuite) TestUpdateRollsBackOnMissingRecord() {
	id, err := s.storage.Push(s.ctx, domain.PlayersCollection, domain.Player{Name: "Alice"})
	s.Require().NoError(err)

	err = s.storage.Update(s.ctx, map[string]any{
		store.Key(domain.PlayersCollection, id, domain.FieldGoals):      5,
		store.Key(domain.PlayersCollection, "gone", domain.FieldPoints): 3,
	})
	s.ErrorIs(err, store.ErrRecordNotFound)

	snap, err := s.storage.load(s.ctx, s.storage.db)
	s.Require().NoError(err)
	s.Equal(0, snap[id].Goals)
}

func (s *StorageSuite) TestUpdateWritesAllFields() {
	a, err := s.storage.Push(s.ctx, domain.PlayersCollection, domain.Player{Name: "Alice"})
	s.Require().NoError(err)
	b, err := s.storage.Push(s.ctx, domain.PlayersCollection, domain.Player{Name: "Bob"})
	s.Require().NoError(err)

	err = s.storage.Update(s.ctx, map[string]any{
		store.Key(domain.PlayersCollection, a, domain.FieldMatches):        1,
		store.Key(domain.PlayersCollection, a, domain.FieldGoals):          2,
		store.Key(domain.PlayersCollection, a, domain.FieldGoalDifference): 1,
		store.Key(domain.PlayersCollection, a, domain.FieldPoints):         3,
		store.Key(domain.PlayersCollection, b, domain.FieldMatches):        1,
		store.Key(domain.PlayersCollection, b, domain.FieldGoals):          1,
		store.Key(domain.PlayersCollection, b, domain.FieldGoalDifference): -1,
		store.Key(domain.PlayersCollection, b, domain.FieldPoints):         0,
	})
	s.Require().NoError(err)

	snap, err := s.storage.load(s.ctx, s.storage.db)
	s.Require().NoError(err)
	s.Equal(domain.Player{ID: a, Name: "Alice", Matches: 1, Goals: 2, GoalDifference: 1, Points: 3, CreatedAt: snap[a].CreatedAt}, snap[a])
	s.Equal(-1, snap[b].GoalDifference)
}

func (s *StorageSuite) TestRemove() {
	id, err := s.storage.Push(s.ctx, domain.PlayersCollection, domain.Player{Name: "Alice"})
	s.Require().NoError(err)

	s.Require().NoError(s.storage.Remove(s.ctx, "/"+store.Key(domain.PlayersCollection, id)))
	s.Require().NoError(s.storage.Remove(s.ctx, store.Key(domain.PlayersCollection, id)))

	snap, err := s.storage.load(s.ctx, s.storage.db)
	s.Require().NoError(err)
	s.Empty(snap)
}

func (s *StorageSuite) TestUnknownCollection() {
	_, err := s.storage.Push(s.ctx, "matches", domain.Player{Name: "x"})
	s.ErrorIs(err, store.ErrBadKey)
}
