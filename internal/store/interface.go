package store

import (
	"context"
	"errors"

	"github.com/goserg/arena/internal/domain"
)

var (
	ErrPermissionDenied = errors.New("store: permission denied")
	ErrRecordNotFound   = errors.New("store: record not found")
	ErrBadKey           = errors.New("store: malformed key path")
	ErrBadValue         = errors.New("store: unsupported value")
	ErrClosed           = errors.New("store: subscription closed")
)

// Subscription is a live collection subscription.
type Subscription interface {
	Close()
}

// Subscriber delivers complete snapshots of a collection. onSnapshot is called from a
// single goroutine per subscription, in commit order. The snapshot must not be modified.
type Subscriber interface {
	Subscribe(ctx context.Context, collection string, onSnapshot func(domain.Snapshot), onError func(error)) (Subscription, error)
}

// Writer mutates records.
type Writer interface {
	// Push inserts a record and returns its generated id.
	Push(ctx context.Context, collection string, player domain.Player) (string, error)
	// Update writes every path or none of them.
	Update(ctx context.Context, values map[string]any) error
	// Remove deletes one record. Removing an absent record is not an error.
	Remove(ctx context.Context, keyPath string) error
}

// Store is the remote data store the arena is layered on.
type Store interface {
	Subscriber
	Writer
}
