package mem

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/store"
)

// Store is an in-memory implementation of the store contract.
type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]domain.Player
	feeds       map[string]*store.Feed
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		collections: make(map[string]map[string]domain.Player),
		feeds:       make(map[string]*store.Feed),
	}
}

func (s *Store) feed(collection string) *store.Feed {
	f, ok := s.feeds[collection]
	if !ok {
		f = store.NewFeed()
		s.feeds[collection] = f
	}
	return f
}

// snapshot copies a collection. Caller holds s.mu.
func (s *Store) snapshot(collection string) domain.Snapshot {
	records := s.collections[collection]
	snap := make(domain.Snapshot, len(records))
	for id, p := range records {
		snap[id] = p
	}
	return snap
}

func (s *Store) Subscribe(ctx context.Context, collection string, onSnapshot func(domain.Snapshot), _ func(error)) (store.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed(collection).Subscribe(ctx, s.snapshot(collection), onSnapshot), nil
}

func (s *Store) Push(ctx context.Context, collection string, player domain.Player) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	player.ID = id
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]domain.Player)
	}
	s.collections[collection][id] = player
	s.feed(collection).Publish(s.snapshot(collection))
	return id, nil
}

func (s *Store) Update(ctx context.Context, values map[string]any) error {
	changes, err := store.ParseUpdate(values)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[store.Path]domain.Player)
	touched := make(map[string]struct{})
	for _, c := range changes {
		key := store.Path{Collection: c.Path.Collection, ID: c.Path.ID}
		p, ok := staged[key]
		if !ok {
			p, ok = s.collections[key.Collection][key.ID]
			if !ok {
				return fmt.Errorf("%w: %s", store.ErrRecordNotFound, store.Key(key.Collection, key.ID))
			}
		}
		c.Apply(&p)
		staged[key] = p
		touched[key.Collection] = struct{}{}
	}
	for key, p := range staged {
		s.collections[key.Collection][key.ID] = p
	}
	for collection := range touched {
		s.feed(collection).Publish(s.snapshot(collection))
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, keyPath string) error {
	p, err := store.ParsePath(keyPath)
	if err != nil {
		return err
	}
	if p.Field != "" {
		return fmt.Errorf("%w: remove expects a record path, got %q", store.ErrBadKey, keyPath)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[p.Collection][p.ID]; !ok {
		return nil
	}
	delete(s.collections[p.Collection], p.ID)
	s.feed(p.Collection).Publish(s.snapshot(p.Collection))
	return nil
}
