package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-jet/jet/v2/qrm"
	"github.com/go-jet/jet/v2/sqlite"
	sqlite3driver "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/goserg/arena/bot/botstorage"
	dbmodel "github.com/goserg/arena/bot/gen/model"
	"github.com/goserg/arena/bot/gen/table"
	"github.com/goserg/arena/bot/model"
	sqlite3 "github.com/goserg/arena/internal/migrate"
)

var ErrUserNotFound = errors.New("bot user not found")

type Storage struct {
	db  *sql.DB
	log *logrus.Entry
}

var _ botstorage.BotStorage = (*Storage)(nil)

func New(l *logrus.Logger, fileName string) (*Storage, error) {
	log := l.WithFields(map[string]interface{}{
		"from": "bot-storage",
	})
	db, err := sql.Open("sqlite3", buildSource(fileName))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	err = sqlite3.UpBotDB(db)
	if err != nil {
		return nil, err
	}

	err = db.Ping()
	if err != nil {
		return nil, err
	}
	log.Info("bot storage connected")
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

func (s *Storage) NewUser(user model.User) (model.User, error) {
	_, err := table.Users.
		INSERT(table.Users.AllColumns).
		MODEL(convertUserFromDomain(user)).
		Exec(s.db)
	if err != nil {
		return model.User{}, err
	}
	return s.GetUser(user.ID)
}

func convertUserFromDomain(user model.User) dbmodel.Users {
	return dbmodel.Users{
		ID:        int32(user.ID),
		FirstName: user.FirstName,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

type GetUserModel struct {
	dbmodel.Users
	UserEvents []dbmodel.UserEvents
	UserRole   *dbmodel.UserRoles
}

func (s *Storage) GetUser(id int) (model.User, error) {
	var dest GetUserModel
	err := table.Users.
		SELECT(table.Users.AllColumns, table.UserEvents.AllColumns, table.UserRoles.AllColumns).
		FROM(table.Users.
			LEFT_JOIN(table.UserEvents, table.UserEvents.UserID.EQ(table.Users.ID)).
			LEFT_JOIN(table.UserRoles, table.UserRoles.UserID.EQ(table.Users.ID)),
		).
		WHERE(table.Users.ID.EQ(sqlite.Int(int64(id)))).
		Query(s.db, &dest)
	if err != nil {
		if errors.Is(err, qrm.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	if dest.UserRole == nil {
		role := dbmodel.UserRoles{
			UserID: int32(id),
			RoleID: int32(model.RoleUser),
		}
		_, err = table.UserRoles.
			INSERT(table.UserRoles.AllColumns).
			MODEL(role).
			Exec(s.db)
		if err != nil {
			return model.User{}, err
		}
		dest.UserRole = &role
	}
	return convertGetUserModelToDomain(dest), nil
}

func convertGetUserModelToDomain(user GetUserModel) model.User {
	converted := convertUserToDomain(user.Users)
	for i := range user.UserEvents {
		converted.Subscriptions = append(converted.Subscriptions, model.EventType(user.UserEvents[i].Event))
	}
	converted.Role = model.RoleUser
	if user.UserRole != nil {
		converted.Role = model.UserRole(user.UserRole.RoleID)
	}
	return converted
}

func convertUserToDomain(user dbmodel.Users) model.User {
	return model.User{
		ID:        int(user.ID),
		FirstName: user.FirstName,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

func (s *Storage) ListUsers() ([]model.User, error) {
	var dest []GetUserModel
	err := table.Users.
		SELECT(table.Users.AllColumns, table.UserEvents.AllColumns, table.UserRoles.AllColumns).
		FROM(table.Users.
			LEFT_JOIN(table.UserEvents, table.UserEvents.UserID.EQ(table.Users.ID)).
			LEFT_JOIN(table.UserRoles, table.UserRoles.UserID.EQ(table.Users.ID)),
		).
		Query(s.db, &dest)
	if err != nil {
		return nil, err
	}
	converted := make([]model.User, 0, len(dest))
	for i := range dest {
		converted = append(converted, convertGetUserModelToDomain(dest[i]))
	}
	return converted, nil
}

func (s *Storage) UpdateUserRole(user model.User) error {
	res, err := table.UserRoles.
		UPDATE(table.UserRoles.RoleID).
		SET(sqlite.Int(int64(user.Role))).
		WHERE(table.UserRoles.UserID.EQ(sqlite.Int(int64(user.ID)))).
		Exec(s.db)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = table.UserRoles.
		INSERT(table.UserRoles.AllColumns).
		MODEL(dbmodel.UserRoles{UserID: int32(user.ID), RoleID: int32(user.Role)}).
		Exec(s.db)
	return err
}

func (s *Storage) Log(user model.User, msg string) error {
	message := dbmodel.Log{
		UserID:    int32(user.ID),
		Message:   msg,
		CreatedAt: time.Now(),
	}
	_, err := table.Log.
		INSERT(table.Log.UserID, table.Log.Message, table.Log.CreatedAt).
		MODEL(message).
		Exec(s.db)
	return err
}

func (s *Storage) Subscribe(user model.User, event model.EventType) error {
	userEvents := dbmodel.UserEvents{
		UserID: int32(user.ID),
		Event:  string(event),
	}
	_, err := table.UserEvents.
		INSERT(table.UserEvents.AllColumns).
		MODEL(userEvents).
		Exec(s.db)
	if err != nil {
		var sqliteErr sqlite3driver.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3driver.ErrConstraintUnique {
			return nil
		}
		return err
	}
	return nil
}

func (s *Storage) Unsubscribe(user model.User, event model.EventType) error {
	_, err := table.UserEvents.
		DELETE().
		WHERE(
			table.UserEvents.UserID.EQ(sqlite.Int(int64(user.ID))).
				AND(table.UserEvents.Event.EQ(sqlite.String(string(event)))),
		).Exec(s.db)
	return err
}
