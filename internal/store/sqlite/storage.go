package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
	"github.com/google/uuid"
	"github.com/goserg/arena/gen/model"
	"github.com/goserg/arena/gen/table"
	"github.com/goserg/arena/internal/domain"
	sqlite3 "github.com/goserg/arena/internal/migrate"
	"github.com/goserg/arena/internal/store"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Storage keeps the players collection in a sqlite database. Writes are
// serialized so subscribers observe snapshots in commit order.
type Storage struct {
	db   *sql.DB
	log  *logrus.Entry
	feed *store.Feed

	writeMu sync.Mutex
}

var _ store.Store = (*Storage)(nil)

func New(l *logrus.Logger, fileName string) (*Storage, error) {
	log := l.WithFields(map[string]interface{}{
		"from": "player-storage",
	})
	db, err := sql.Open("sqlite3", buildSource(fileName))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	err = sqlite3.UpServerDB(db)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}
	log.Info("player storage connected")
	return &Storage{
		db:   db,
		log:  log,
		feed: store.NewFeed(),
	}, nil
}

func buildSource(fileName string) string {
	return "file:" + fileName + "?cache=shared"
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func checkCollection(collection string) error {
	if collection != domain.PlayersCollection {
		return fmt.Errorf("%w: unknown collection %q", store.ErrBadKey, collection)
	}
	return nil
}

func (s *Storage) load(ctx context.Context, db qrm.Queryable) (domain.Snapshot, error) {
	var players []model.Players
	err := table.Players.
		SELECT(table.Players.AllColumns).
		FROM(table.Players).
		QueryContext(ctx, db, &players)
	if err != nil && !errors.Is(err, qrm.ErrNoRows) {
		return nil, err
	}
	return convertPlayersToSnapshot(players), nil
}

// publish reloads the collection and hands it to subscribers. Caller holds writeMu.
func (s *Storage) publish(ctx context.Context) {
	snap, err := s.load(ctx, s.db)
	if err != nil {
		s.log.WithError(err).Error("reload after write")
		return
	}
	s.feed.Publish(snap)
}

func (s *Storage) Subscribe(ctx context.Context, collection string, onSnapshot func(domain.Snapshot), _ func(error)) (store.Subscription, error) {
	if err := checkCollection(collection); err != nil {
		return nil, err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	snap, err := s.load(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return s.feed.Subscribe(ctx, snap, onSnapshot), nil
}

func (s *Storage) Push(ctx context.Context, collection string, player domain.Player) (string, error) {
	if err := checkCollection(collection); err != nil {
		return "", err
	}
	player.ID = uuid.NewString()

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := table.Players.
		INSERT(table.Players.AllColumns).
		MODEL(convertPlayerFromDomain(player)).
		ExecContext(ctx, s.db)
	if err != nil {
		return "", err
	}
	s.publish(ctx)
	return player.ID, nil
}

func (s *Storage) Update(ctx context.Context, values map[string]any) error {
	changes, err := store.ParseUpdate(values)
	if err != nil {
		return err
	}
	byID := make(map[string][]store.Change)
	for _, c := range changes {
		if err := checkCollection(c.Path.Collection); err != nil {
			return err
		}
		byID[c.Path.ID] = append(byID[c.Path.ID], c)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	for id, recordChanges := range byID {
		var row model.Players
		err := table.Players.
			SELECT(table.Players.AllColumns).
			FROM(table.Players).
			WHERE(table.Players.ID.EQ(sqlite.String(id))).
			QueryContext(ctx, tx, &row)
		if err != nil {
			if errors.Is(err, qrm.ErrNoRows) {
				return fmt.Errorf("%w: %s", store.ErrRecordNotFound, store.Key(domain.PlayersCollection, id))
			}
			return err
		}
		player := convertPlayerToDomain(row)
		for _, c := range recordChanges {
			c.Apply(&player)
		}
		_, err = table.Players.
			UPDATE(table.Players.MutableColumns).
			MODEL(convertPlayerFromDomain(player)).
			WHERE(table.Players.ID.EQ(sqlite.String(id))).
			ExecContext(ctx, tx)
		if err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.publish(ctx)
	return nil
}

func (s *Storage) Remove(ctx context.Context, keyPath string) error {
	p, err := store.ParsePath(keyPath)
	if err != nil {
		return err
	}
	if err := checkCollection(p.Collection); err != nil {
		return err
	}
	if p.Field != "" {
		return fmt.Errorf("%w: remove expects a record path, got %q", store.ErrBadKey, keyPath)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	res, err := table.Players.
		DELETE().
		WHERE(table.Players.ID.EQ(sqlite.String(p.ID))).
		ExecContext(ctx, s.db)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}
	s.publish(ctx)
	return nil
}
