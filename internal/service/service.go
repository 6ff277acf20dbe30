package service

import (
	"context"
	"time"

	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/store"
	"github.com/sirupsen/logrus"
)

// Capability is the caller's standing as seen by the access gate.
type Capability interface {
	Privileged() bool
	// Context attaches the caller's identity for the store's own checks.
	Context(ctx context.Context) context.Context
}

// Mirror is read access to the latest snapshot.
type Mirror interface {
	Get(id string) (domain.Player, bool)
	HasName(name string) bool
}

// PlayerService runs the registration, score update and removal protocols
// against the local mirror and the remote store.
type PlayerService struct {
	store   store.Writer
	players Mirror
	now     func() time.Time
	log     *logrus.Entry
}

func New(l *logrus.Logger, w store.Writer, players Mirror) *PlayerService {
	return &PlayerService{
		store:   w,
		players: players,
		now:     time.Now,
		log:     l.WithField("from", "player-service"),
	}
}

// WithClock replaces the clock used for createdAt.
func (s *PlayerService) WithClock(now func() time.Time) *PlayerService {
	s.now = now
	return s
}

func (s *PlayerService) logFailure(op string, err error) {
	entry := s.log.WithField("op", op).WithError(err)
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindPermission:
		entry.Warn("rejected")
	default:
		entry.Error("failed")
	}
}
