package store

import (
	"context"
	"fmt"

	"github.com/goserg/arena/auth/users"
	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/normalize"
	"github.com/sirupsen/logrus"
)

// Guard enforces the store's access rules: anyone may read and push players,
// only the operator identity carried in the context may update or remove.
type Guard struct {
	next     Store
	operator string
	log      *logrus.Entry
}

var _ Store = (*Guard)(nil)

func NewGuard(next Store, operatorEmail string, l *logrus.Logger) *Guard {
	return &Guard{
		next:     next,
		operator: normalize.Email(operatorEmail),
		log:      l.WithField("from", "store-guard"),
	}
}

func (g *Guard) allowWrite(ctx context.Context, op string) error {
	user, ok := users.FromContext(ctx)
	if !ok || g.operator == "" || normalize.Email(user.Email) != g.operator {
		g.log.WithField("op", op).Warn("write rejected")
		return fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}
	return nil
}

func (g *Guard) Subscribe(ctx context.Context, collection string, onSnapshot func(domain.Snapshot), onError func(error)) (Subscription, error) {
	return g.next.Subscribe(ctx, collection, onSnapshot, onError)
}

func (g *Guard) Push(ctx context.Context, collection string, player domain.Player) (string, error) {
	return g.next.Push(ctx, collection, player)
}

func (g *Guard) Update(ctx context.Context, values map[string]any) error {
	if err := g.allowWrite(ctx, "update"); err != nil {
		return err
	}
	return g.next.Update(ctx, values)
}

func (g *Guard) Remove(ctx context.Context, keyPath string) error {
	if err := g.allowWrite(ctx, "remove"); err != nil {
		return err
	}
	return g.next.Remove(ctx, keyPath)
}
