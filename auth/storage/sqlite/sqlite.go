package sqlite

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
	"github.com/google/uuid"
	sqlite3driver "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/goserg/arena/auth/gen/model"
	"github.com/goserg/arena/auth/gen/table"
	"github.com/goserg/arena/auth/storage"
	"github.com/goserg/arena/auth/users"
	sqlite3 "github.com/goserg/arena/internal/migrate"
	"github.com/goserg/arena/internal/normalize"
)

type Storage struct {
	db  *sql.DB
	log *logrus.Entry
}

var _ storage.AuthStorage = (*Storage)(nil)

func New(l *logrus.Logger, fileName string) (*Storage, error) {
	log := l.WithFields(map[string]interface{}{
		"from": "auth-storage",
	})
	db, err := sql.Open("sqlite3", buildSource(fileName))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	err = sqlite3.UpAuthDB(db)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}
	log.Info("auth storage connected")
	return &Storage{
		db:  db,
		log: log,
	}, nil
}

func buildSource(fileName string) string {
	return "file:" + fileName + "?cache=shared"
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) GetUser(ctx context.Context, id uuid.UUID) (users.User, error) {
	return s.getUser(ctx, table.Users.ID.EQ(sqlite.String(id.String())))
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	return s.getUser(ctx, table.Users.Email.EQ(sqlite.String(normalize.Email(email))))
}

func (s *Storage) getUser(ctx context.Context, where sqlite.BoolExpression) (users.User, error) {
	var dest model.Users
	err := table.Users.
		SELECT(
			table.Users.AllColumns.Except(
				table.Users.PasswordHash,
				table.Users.PasswordSalt,
			),
		).
		FROM(table.Users).
		WHERE(where.AND(table.Users.DeletedAt.IS_NULL())).
		QueryContext(ctx, s.db, &dest)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return users.User{}, storage.ErrUserNotFound
		}
		return users.User{}, err
	}
	return convertUserToDomain(dest)
}

func (s *Storage) GetUserSecret(ctx context.Context, user users.User) (users.Secret, error) {
	var where sqlite.BoolExpression
	switch {
	case user.ID != uuid.Nil:
		where = table.Users.ID.EQ(sqlite.String(user.ID.String()))
	case user.Email != "":
		where = table.Users.Email.EQ(sqlite.String(normalize.Email(user.Email)))
	default:
		return users.Secret{}, errors.New("empty user")
	}

	var dbUser model.Users
	err := table.Users.
		SELECT(
			table.Users.PasswordHash,
			table.Users.PasswordSalt,
		).
		FROM(table.Users).
		WHERE(where.AND(table.Users.DeletedAt.IS_NULL())).
		QueryContext(ctx, s.db, &dbUser)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return users.Secret{}, storage.ErrUserNotFound
		}
		return users.Secret{}, err
	}
	hash, err := hexToBytes(dbUser.PasswordHash)
	if err != nil {
		return users.Secret{}, err
	}
	salt, err := hexToBytes(dbUser.PasswordSalt)
	if err != nil {
		return users.Secret{}, err
	}
	return users.Secret{
		PasswordHash: hash,
		Salt:         salt,
	}, nil
}

func (s *Storage) CreateUser(ctx context.Context, user users.User, secret users.Secret) error {
	createdAt := user.RegisteredAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	dbUser := model.Users{
		ID:           user.ID.String(),
		Email:        normalize.Email(user.Email),
		PasswordHash: bytesToHex(secret.PasswordHash),
		PasswordSalt: bytesToHex(secret.Salt),
		CreatedAt:    createdAt,
	}
	_, err := table.Users.INSERT(table.Users.AllColumns).MODEL(dbUser).ExecContext(ctx, s.db)
	if err != nil {
		var sqliteErr sqlite3driver.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3driver.ErrConstraintUnique {
			return storage.ErrUserExists
		}
		return err
	}
	s.log.WithField("email", dbUser.Email).Info("user created")
	return nil
}

func convertUserToDomain(user model.Users) (users.User, error) {
	id, err := uuid.Parse(user.ID)
	if err != nil {
		return users.User{}, err
	}
	return users.User{
		ID:           id,
		Email:        user.Email,
		RegisteredAt: user.CreatedAt,
	}, nil
}

func bytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

func hexToBytes(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
