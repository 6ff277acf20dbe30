package tgbot

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	botmodel "github.com/goserg/arena/bot/model"
	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/live"
	"github.com/goserg/arena/internal/service"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) last() tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeStorage struct {
	users map[int]botmodel.User
	logs  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{users: make(map[int]botmodel.User)}
}

func (s *fakeStorage) NewUser(user botmodel.User) (botmodel.User, error) {
	user.Role = botmodel.RoleUser
	s.users[user.ID] = user
	return user, nil
}

func (s *fakeStorage) GetUser(id int) (botmodel.User, error) {
	u, ok := s.users[id]
	if !ok {
		return botmodel.User{}, errors.New("not found")
	}
	return u, nil
}

func (s *fakeStorage) ListUsers() ([]botmodel.User, error) {
	list := make([]botmodel.User, 0, len(s.users))
	for _, u := range s.users {
		list = append(list, u)
	}
	return list, nil
}

func (s *fakeStorage) UpdateUserRole(user botmodel.User) error {
	u, ok := s.users[user.ID]
	if !ok {
		return errors.New("not found")
	}
	u.Role = user.Role
	s.users[user.ID] = u
	return nil
}

func (s *fakeStorage) Log(_ botmodel.User, msg string) error {
	s.logs = append(s.logs, msg)
	return nil
}

func (s *fakeStorage) Subscribe(user botmodel.User, event botmodel.EventType) error {
	u := s.users[user.ID]
	u.Subscriptions = append(u.Subscriptions, event)
	s.users[user.ID] = u
	return nil
}

func (s *fakeStorage) Unsubscribe(user botmodel.User, event botmodel.EventType) error {
	u := s.users[user.ID]
	kept := u.Subscriptions[:0]
	for _, e := range u.Subscriptions {
		if e != event {
			kept = append(kept, e)
		}
	}
	u.Subscriptions = kept
	s.users[user.ID] = u
	return nil
}

type fakeStandings struct {
	view live.View
	ok   bool
}

func (f fakeStandings) View() (live.View, bool) {
	return f.view, f.ok
}

type fakeRegistrar struct {
	names []string
}

func (f *fakeRegistrar) Register(_ context.Context, name string) (service.Registered, error) {
	if name == "" {
		return service.Registered{}, domain.Detail(domain.ErrEmptyName, "⚠ Please enter your full name.")
	}
	f.names = append(f.names, name)
	return service.Registered{ID: "new", Name: name}, nil
}

func commandUpdate(userID int64, text string) tgbotapi.Update {
	length := len(text)
	for i, r := range text {
		if r == ' ' {
			length = i
			break
		}
	}
	return tgbotapi.Update{
		Message: &tgbotapi.Message{
			From: &tgbotapi.User{ID: userID, FirstName: "Ann", UserName: "ann"},
			Chat: &tgbotapi.Chat{ID: userID},
			Text: text,
			Entities: []tgbotapi.MessageEntity{
				{Type: "bot_command", Offset: 0, Length: length},
			},
		},
	}
}

func testView() live.View {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return live.Build(domain.Snapshot{
		"a": {Name: "Alice Cooper", Goals: 7, GoalDifference: 3, Points: 4, Matches: 2, CreatedAt: created},
		"b": {Name: "Bob", Goals: 2, GoalDifference: -3, Points: 1, Matches: 2, CreatedAt: created},
	}, live.Ticker{}, "")
}

// adminChat is the telegram id the test bots are configured with as admin.
const adminChat = 99

func newTestBot(t *testing.T, standings Standings) (*Bot, *fakeAPI, *fakeStorage, *fakeRegistrar) {
	t.Helper()
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	api := &fakeAPI{}
	bs := newFakeStorage()
	reg := &fakeRegistrar{}
	b, err := NewWithAPI(l, api, []int{adminChat}, standings, reg, bs)
	require.NoError(t, err)
	return b, api, bs, reg
}

func TestBotCommands(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		contains []string
	}{
		{name: "top", text: "/top", contains: []string{"1. Alice Cooper (7 goals, GD +3, 4 pts)", "2. Bob (2 goals, GD -3, 1 pts)"}},
		{name: "info", text: "/info alice cooper", contains: []string{"Name: Alice Cooper", "Position: 👑 1", "Goal difference: +3"}},
		{name: "info unknown", text: "/info Zed", contains: []string{`player "Zed" not found`}},
		{name: "info without name", text: "/info", contains: []string{"/info John Smith"}},
		{name: "help", text: "/help", contains: []string{"/info\n", "/register\n", "/top\n"}},
		{name: "help for command", text: "/help top", contains: []string{"Top of the standings"}},
		{name: "unknown", text: "/game", contains: []string{ErrBadRequest.Error()}},
		{name: "register", text: "/register Carl Jones", contains: []string{"✔ Carl Jones has joined the arena!"}},
		{name: "register empty", text: "/register", contains: []string{"⚠ Please enter your full name."}},
		{name: "sub all", text: "/sub", contains: []string{"Subscribed to matches and players"}},
		{name: "sub players", text: "/sub players", contains: []string{"Subscribed to players."}},
		{name: "sub unknown topic", text: "/sub goals", contains: []string{`unknown topic "goals"`}},
		{name: "unsub matches", text: "/unsub matches", contains: []string{"Unsubscribed from matches."}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, api, _, _ := newTestBot(t, fakeStandings{view: testView(), ok: true})
			b.handleMessage(commandUpdate(1, tt.text))
			resp := api.last()
			assert.Equal(t, int64(1), resp.ChatID)
			for _, s := range tt.contains {
				assert.Contains(t, resp.Text, s)
			}
		})
	}
}

func TestBotTopBeforeSync(t *testing.T) {
	b, api, _, _ := newTestBot(t, fakeStandings{})
	b.handleMessage(commandUpdate(1, "/top"))
	assert.Equal(t, ErrNotSynced.Error(), api.last().Text)
}

func TestBotRegistersUserAndLogs(t *testing.T) {
	b, _, bs, reg := newTestBot(t, fakeStandings{view: testView(), ok: true})
	b.handleMessage(commandUpdate(5, "/register Dana"))
	require.Contains(t, bs.users, 5)
	assert.Equal(t, []string{"/register Dana"}, bs.logs)
	assert.Equal(t, []string{"Dana"}, reg.names)
}

func TestBotMatchNotifications(t *testing.T) {
	b, api, _, _ := newTestBot(t, fakeStandings{view: testView(), ok: true})
	b.handleMessage(commandUpdate(7, "/sub"))
	b.handleMessage(commandUpdate(8, "/top"))
	sentBefore := len(api.sent)

	out := service.MatchRecorded{
		PlayerA: domain.Player{Name: "Alice Cooper"},
		PlayerB: domain.Player{Name: "Bob"},
		GoalsA:  3,
		GoalsB:  1,
		PointsA: 3,
	}
	b.NotifyMatch(out)
	require.Len(t, api.sent, sentBefore+1)
	assert.Equal(t, int64(7), api.last().ChatID)
	assert.Equal(t, out.Summary(), api.last().Text)

	b.handleMessage(commandUpdate(7, "/unsub"))
	sentBefore = len(api.sent)
	b.NotifyMatch(out)
	assert.Len(t, api.sent, sentBefore)
}

func TestBotPlayerNotifications(t *testing.T) {
	b, api, bs, _ := newTestBot(t, fakeStandings{view: testView(), ok: true})
	b.handleMessage(commandUpdate(7, "/sub players"))
	b.handleMessage(commandUpdate(9, "/sub matches"))
	assert.True(t, bs.users[7].SubscribedTo(botmodel.NewPlayer))
	assert.False(t, bs.users[7].SubscribedTo(botmodel.NewMatch))

	sentBefore := len(api.sent)
	b.NotifyPlayer(service.Registered{ID: "x", Name: "Dani Sola"})
	require.Len(t, api.sent, sentBefore+1)
	assert.Equal(t, int64(7), api.last().ChatID)
	assert.Contains(t, api.last().Text, "Dani Sola has joined the arena")

	// a registration made through the bot is announced as well
	b.handleMessage(commandUpdate(9, "/register Carl Jones"))
	api.mu.Lock()
	sent := append([]tgbotapi.MessageConfig(nil), api.sent[sentBefore+1:]...)
	api.mu.Unlock()
	require.Len(t, sent, 2)
	assert.Equal(t, int64(7), sent[0].ChatID)
	assert.Contains(t, sent[0].Text, "Carl Jones")
	assert.Equal(t, int64(9), sent[1].ChatID)
}

func TestSubscriptionsOrder(t *testing.T) {
	subs := newSubs([]botmodel.User{
		{ID: 30, Subscriptions: []botmodel.EventType{botmodel.NewMatch}},
		{ID: 10, Subscriptions: botmodel.Events},
	})
	subs.Add(botmodel.NewMatch, 20)
	assert.Equal(t, []int{10, 20, 30}, subs.Chats(botmodel.NewMatch))
	subs.Remove(botmodel.NewMatch, 20)
	assert.Equal(t, []int{10, 30}, subs.Chats(botmodel.NewMatch))
	assert.Equal(t, []int{10}, subs.Chats(botmodel.NewPlayer))
	assert.Nil(t, newSubs(nil).Chats(botmodel.NewPlayer))
}

func TestBotRestoresSubscriptions(t *testing.T) {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	bs := newFakeStorage()
	bs.users[3] = botmodel.User{ID: 3, Role: botmodel.RoleUser, Subscriptions: []botmodel.EventType{botmodel.NewMatch}}
	api := &fakeAPI{}
	b, err := NewWithAPI(l, api, nil, fakeStandings{}, &fakeRegistrar{}, bs)
	require.NoError(t, err)
	b.NotifyMatch(service.MatchRecorded{PlayerA: domain.Player{Name: "A"}, PlayerB: domain.Player{Name: "B"}})
	require.Len(t, api.sent, 1)
	assert.Equal(t, int64(3), api.last().ChatID)
}

func TestBotRunStopsOnCancel(t *testing.T) {
	b, _, _, _ := newTestBot(t, fakeStandings{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("bot did not stop")
	}
}

func TestBotStaffCommands(t *testing.T) {
	b, api, bs, _ := newTestBot(t, fakeStandings{view: testView(), ok: true})

	b.handleMessage(commandUpdate(1, "/players"))
	assert.Equal(t, ErrBadRequest.Error(), api.last().Text)
	b.handleMessage(commandUpdate(1, "/help"))
	assert.NotContains(t, api.last().Text, "/players")
	assert.NotContains(t, api.last().Text, "/role")

	b.handleMessage(commandUpdate(adminChat, "/help"))
	assert.Equal(t, botmodel.RoleAdmin, bs.users[adminChat].Role)
	assert.Contains(t, api.last().Text, "/players\n")
	assert.Contains(t, api.last().Text, "/role\n")

	b.handleMessage(commandUpdate(adminChat, "/players"))
	assert.Contains(t, api.last().Text, "2 players:")
	assert.Contains(t, api.last().Text, "1. Alice Cooper · id a · joined 2024-01-01")
	assert.Contains(t, api.last().Text, "2. Bob · id b")

	b.handleMessage(commandUpdate(1, "/role"))
	assert.Equal(t, ErrBadRequest.Error(), api.last().Text, "only admins change roles")
}

func TestBotRoleChanges(t *testing.T) {
	b, api, bs, _ := newTestBot(t, fakeStandings{view: testView(), ok: true})
	b.handleMessage(commandUpdate(1, "/top"))

	tests := []struct {
		text string
		want string
	}{
		{text: "/role", want: "1 @ann: user"},
		{text: "/role 1", want: "usage: /role"},
		{text: "/role x moderator", want: `"x" is not a chat id`},
		{text: "/role 5 moderator", want: "chat 5 has not talked to the bot yet"},
		{text: "/role 1 admin", want: `unknown role "admin"`},
		{text: "/role 99 user", want: "admins are set in the bot config"},
		{text: "/role 1 user", want: "@ann is already user"},
		{text: "/role 1 moderator", want: "@ann is now moderator"},
	}
	for _, tt := range tests {
		b.handleMessage(commandUpdate(adminChat, tt.text))
		assert.Contains(t, api.last().Text, tt.want, tt.text)
	}
	require.Equal(t, botmodel.RoleModerator, bs.users[1].Role)

	// moderators see the roster but cannot hand out roles
	b.handleMessage(commandUpdate(1, "/players"))
	assert.Contains(t, api.last().Text, "Alice Cooper")
	b.handleMessage(commandUpdate(1, "/role 1 user"))
	assert.Equal(t, ErrBadRequest.Error(), api.last().Text)
}

func TestBotDemotesStaleAdmin(t *testing.T) {
	b, api, bs, _ := newTestBot(t, fakeStandings{view: testView(), ok: true})
	bs.users[4] = botmodel.User{ID: 4, Role: botmodel.RoleAdmin}

	b.handleMessage(commandUpdate(4, "/players"))
	assert.Equal(t, ErrBadRequest.Error(), api.last().Text)
	assert.Equal(t, botmodel.RoleUser, bs.users[4].Role)
}
