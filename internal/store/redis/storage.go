package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/store"
)

const maxTxRetries = 5

// Storage keeps each record in a hash, the ids of a collection in a set, and
// announces every committed write on a pub/sub channel.
type Storage struct {
	client *redis.Client
	cfg    Config
	log    *logrus.Entry
}

var _ store.Store = (*Storage)(nil)

func New(l *logrus.Logger, cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	s := NewWithClient(l, client, cfg)
	s.log.Info("redis storage connected")
	return s, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(l *logrus.Logger, client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
		log:    l.WithField("from", "redis-storage"),
	}
}

func (s *Storage) Close() error {
	return s.client.Close()
}

// load reads a collection as one consistent cut: the id set is watched and all
// records are fetched in a single MULTI/EXEC, retried if the set changes meanwhile.
func (s *Storage) load(ctx context.Context, collection string) (domain.Snapshot, error) {
	var snap domain.Snapshot
	txf := func(tx *redis.Tx) error {
		ids, err := tx.SMembers(ctx, s.indexKey(collection)).Result()
		if err != nil {
			return err
		}
		cmds := make([]*redis.MapStringStringCmd, len(ids))
		if len(ids) > 0 {
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				for i, id := range ids {
					cmds[i] = pipe.HGetAll(ctx, s.recordKey(collection, id))
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		snap, err = decodeSnapshot(ids, cmds)
		return err
	}

	var err error
	for i := 0; i < maxTxRetries; i++ {
		err = s.client.Watch(ctx, txf, s.indexKey(collection))
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
		s.log.WithField("attempt", i+1).Debug("index changed during load, retrying")
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func decodeSnapshot(ids []string, cmds []*redis.MapStringStringCmd) (domain.Snapshot, error) {
	snap := make(domain.Snapshot, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		p, err := decodePlayer(id, fields)
		if err != nil {
			return nil, err
		}
		snap[id] = p
	}
	return snap, nil
}

func decodePlayer(id string, fields map[string]string) (domain.Player, error) {
	p := domain.Player{ID: id, Name: fields[hName]}
	ints := []struct {
		field string
		dst   *int
	}{
		{hMatches, &p.Matches},
		{hGoals, &p.Goals},
		{hGoalDifference, &p.GoalDifference},
		{hPoints, &p.Points},
	}
	for _, f := range ints {
		v, ok := fields[f.field]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return domain.Player{}, fmt.Errorf("player %s field %s: %w", id, f.field, err)
		}
		*f.dst = n
	}
	if v, ok := fields[hCreatedAt]; ok {
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return domain.Player{}, fmt.Errorf("player %s field %s: %w", id, hCreatedAt, err)
		}
		p.CreatedAt = time.UnixMilli(ms)
	}
	return p, nil
}

func encodePlayer(p domain.Player) map[string]any {
	return map[string]any{
		hName:           p.Name,
		hMatches:        p.Matches,
		hGoals:          p.Goals,
		hGoalDifference: p.GoalDifference,
		hPoints:         p.Points,
		hCreatedAt:      p.CreatedAt.UnixMilli(),
	}
}

type subscription struct {
	cancel context.CancelFunc
}

func (s *subscription) Close() {
	s.cancel()
}

func (s *Storage) Subscribe(ctx context.Context, collection string, onSnapshot func(domain.Snapshot), onError func(error)) (store.Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	ps := s.client.Subscribe(ctx, s.channel(collection))
	if _, err := ps.Receive(ctx); err != nil {
		cancel()
		_ = ps.Close()
		return nil, err
	}
	initial, err := s.load(ctx, collection)
	if err != nil {
		cancel()
		_ = ps.Close()
		return nil, err
	}

	go func() {
		defer ps.Close()
		onSnapshot(initial)
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					if ctx.Err() == nil && onError != nil {
						onError(store.ErrClosed)
					}
					return
				}
				snap, err := s.load(ctx, collection)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					if onError != nil {
						onError(err)
					}
					return
				}
				onSnapshot(snap)
			}
		}
	}()
	return &subscription{cancel: cancel}, nil
}

func (s *Storage) Push(ctx context.Context, collection string, player domain.Player) (string, error) {
	id := uuid.NewString()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.recordKey(collection, id), encodePlayer(player))
		pipe.SAdd(ctx, s.indexKey(collection), id)
		pipe.Publish(ctx, s.channel(collection), id)
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Storage) Update(ctx context.Context, values map[string]any) error {
	changes, err := store.ParseUpdate(values)
	if err != nil {
		return err
	}
	records := make(map[string]map[string]any)
	collections := make(map[string]struct{})
	keys := make([]string, 0, len(changes))
	for _, c := range changes {
		key := s.recordKey(c.Path.Collection, c.Path.ID)
		if _, ok := records[key]; !ok {
			records[key] = make(map[string]any)
			keys = append(keys, key)
		}
		if c.IsInt {
			records[key][hashFields[c.Path.Field]] = c.Int
		} else {
			records[key][hashFields[c.Path.Field]] = c.Text
		}
		collections[c.Path.Collection] = struct{}{}
	}

	txf := func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, keys...).Result()
		if err != nil {
			return err
		}
		if int(n) != len(keys) {
			return store.ErrRecordNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for key, fields := range records {
				pipe.HSet(ctx, key, fields)
			}
			for collection := range collections {
				pipe.Publish(ctx, s.channel(collection), "update")
			}
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err = s.client.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.log.WithField("attempt", i+1).Debug("update conflict, retrying")
	}
	return err
}

func (s *Storage) Remove(ctx context.Context, keyPath string) error {
	p, err := store.ParsePath(keyPath)
	if err != nil {
		return err
	}
	if p.Field != "" {
		return fmt.Errorf("%w: remove expects a record path, got %q", store.ErrBadKey, keyPath)
	}
	var removed *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.recordKey(p.Collection, p.ID))
		removed = pipe.SRem(ctx, s.indexKey(p.Collection), p.ID)
		return nil
	})
	if err != nil {
		return err
	}
	if removed.Val() > 0 {
		return s.client.Publish(ctx, s.channel(p.Collection), p.ID).Err()
	}
	return nil
}
