package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goserg/arena/auth/users"
	"github.com/goserg/arena/internal/access"
	"github.com/goserg/arena/internal/cache/mem"
	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/store"
	memstore "github.com/goserg/arena/internal/store/mem"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

const operatorEmail = "boss@example.com"

// recordingStore counts writes and can be told to fail.
type recordingStore struct {
	store.Store
	mu      sync.Mutex
	writes  int
	failErr error
}

func (r *recordingStore) Push(ctx context.Context, collection string, p domain.Player) (string, error) {
	r.mu.Lock()
	r.writes++
	fail := r.failErr
	r.mu.Unlock()
	if fail != nil {
		return "", fail
	}
	return r.Store.Push(ctx, collection, p)
}

func (r *recordingStore) Update(ctx context.Context, values map[string]any) error {
	r.mu.Lock()
	r.writes++
	fail := r.failErr
	r.mu.Unlock()
	if fail != nil {
		return fail
	}
	return r.Store.Update(ctx, values)
}

func (r *recordingStore) Remove(ctx context.Context, keyPath string) error {
	r.mu.Lock()
	r.writes++
	r.mu.Unlock()
	return r.Store.Remove(ctx, keyPath)
}

func (r *recordingStore) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

type fixture struct {
	svc    *PlayerService
	store  *recordingStore
	mirror *mem.Cache
	sub    store.Subscription
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	backend := &recordingStore{Store: store.NewGuard(memstore.New(), operatorEmail, l)}
	mirror := mem.New()
	sub, err := backend.Subscribe(context.Background(), domain.PlayersCollection, mirror.Update, nil)
	require.NoError(t, err)
	t.Cleanup(sub.Close)

	clock := time.UnixMilli(1700000000000)
	svc := New(l, backend, mirror).WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	return &fixture{svc: svc, store: backend, mirror: mirror, sub: sub}
}

// sync waits until the mirror holds n players.
func (f *fixture) sync(t *testing.T, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return f.mirror.Len() == n }, time.Second, 5*time.Millisecond)
}

func (f *fixture) register(t *testing.T, names ...string) []string {
	t.Helper()
	ids := make([]string, 0, len(names))
	for _, name := range names {
		out, err := f.svc.Register(context.Background(), name)
		require.NoError(t, err)
		ids = append(ids, out.ID)
		f.sync(t, len(ids))
	}
	return ids
}

func operator() *access.Gate {
	g := access.New(operatorEmail)
	g.OnSessionChange(&users.User{Email: operatorEmail})
	return g
}

func visitor() *access.Gate {
	g := access.New(operatorEmail)
	g.OnSessionChange(nil)
	return g
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	f.register(t, "Al")

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "empty", input: "   ", wantErr: domain.ErrEmptyName},
		{name: "one char", input: "A", wantErr: domain.ErrNameTooShort},
		{name: "duplicate ignoring case", input: "al", wantErr: domain.ErrDuplicateName},
		{name: "duplicate with spaces", input: "  AL ", wantErr: domain.ErrDuplicateName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.store.Writes()
			_, err := f.svc.Register(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, domain.KindValidation, domain.KindOf(err))
			require.Equal(t, before, f.store.Writes(), "validation failures never reach the store")
		})
	}

	out, err := f.svc.Register(context.Background(), "  Bea  ")
	require.NoError(t, err)
	require.Equal(t, "Bea", out.Name)
	f.sync(t, 2)
	p, ok := f.mirror.Get(out.ID)
	require.True(t, ok)
	require.Equal(t, domain.Player{ID: out.ID, Name: "Bea", CreatedAt: p.CreatedAt}, p)
	require.False(t, p.CreatedAt.IsZero())
}

func TestRegisterStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.store.failErr = errors.New("connection reset")
	_, err := f.svc.Register(context.Background(), "Carl")
	require.ErrorIs(t, err, domain.ErrUpdateFailed)
	require.Equal(t, domain.KindRemote, domain.KindOf(err))
}

func TestSubmitMatchDraw(t *testing.T) {
	f := newFixture(t)
	ids := f.register(t, "Ann", "Ben")

	out, err := f.svc.SubmitMatch(context.Background(), operator(), MatchInput{PlayerA: ids[0], PlayerB: ids[1], GoalsA: 4, GoalsB: 4})
	require.NoError(t, err)
	require.Equal(t, "DRAW", out.Label())
	require.Equal(t, "✔ Ann 4 : 4 Ben — DRAW", out.Summary())
	require.Equal(t, "⚽ Match saved: Ann 4–4 Ben", out.Toast())
	require.True(t, out.Scored())

	require.Eventually(t, func() bool {
		a, _ := f.mirror.Get(ids[0])
		return a.Matches == 1
	}, time.Second, 5*time.Millisecond)
	for _, id := range ids {
		p, _ := f.mirror.Get(id)
		require.Equal(t, 1, p.Matches)
		require.Equal(t, 1, p.Points)
		require.Equal(t, 0, p.GoalDifference)
		require.Equal(t, 4, p.Goals)
	}
}

func TestSubmitMatchSymmetry(t *testing.T) {
	f := newFixture(t)
	ids := f.register(t, "Ann", "Ben")

	out, err := f.svc.SubmitMatch(context.Background(), operator(), MatchInput{PlayerA: ids[0], PlayerB: ids[1], GoalsA: 3, GoalsB: 1})
	require.NoError(t, err)
	require.Equal(t, "Ann WON", out.Label())
	require.Zero(t, out.PlayerA.Matches, "outcome carries the pre-match record")

	require.Eventually(t, func() bool {
		a, _ := f.mirror.Get(ids[0])
		return a.Matches == 1
	}, time.Second, 5*time.Millisecond)
	forward := []domain.Player{mustGet(t, f, ids[0]), mustGet(t, f, ids[1])}

	g := newFixture(t)
	gids := g.register(t, "Ann", "Ben")
	out, err = g.svc.SubmitMatch(context.Background(), operator(), MatchInput{PlayerA: gids[1], PlayerB: gids[0], GoalsA: 1, GoalsB: 3})
	require.NoError(t, err)
	require.Equal(t, "Ann WON", out.Label())
	require.Eventually(t, func() bool {
		a, _ := g.mirror.Get(gids[0])
		return a.Matches == 1
	}, time.Second, 5*time.Millisecond)
	reversed := []domain.Player{mustGet(t, g, gids[0]), mustGet(t, g, gids[1])}

	for i := range forward {
		require.Equal(t, forward[i].Goals, reversed[i].Goals)
		require.Equal(t, forward[i].GoalDifference, reversed[i].GoalDifference)
		require.Equal(t, forward[i].Points, reversed[i].Points)
		require.Equal(t, forward[i].Matches, reversed[i].Matches)
	}
	require.Equal(t, 2, forward[0].GoalDifference)
	require.Equal(t, -2, forward[1].GoalDifference)
}

func mustGet(t *testing.T, f *fixture, id string) domain.Player {
	t.Helper()
	p, ok := f.mirror.Get(id)
	require.True(t, ok)
	return p
}

func TestSubmitMatchValidation(t *testing.T) {
	f := newFixture(t)
	ids := f.register(t, "Ann", "Ben")

	tests := []struct {
		name    string
		caller  Capability
		input   MatchInput
		wantErr error
		msg     string
	}{
		{
			name:    "visitor",
			caller:  visitor(),
			input:   MatchInput{PlayerA: ids[0], PlayerB: ids[1], GoalsA: 1},
			wantErr: domain.ErrPermissionDenied,
			msg:     "⚠ Admin access required.",
		},
		{
			name:    "permission is checked before selection",
			caller:  visitor(),
			input:   MatchInput{},
			wantErr: domain.ErrPermissionDenied,
		},
		{
			name:    "missing selection",
			caller:  operator(),
			input:   MatchInput{PlayerA: ids[0]},
			wantErr: domain.ErrInvalidSelection,
			msg:     "⚠ Please select both players.",
		},
		{
			name:    "identical players",
			caller:  operator(),
			input:   MatchInput{PlayerA: ids[0], PlayerB: ids[0]},
			wantErr: domain.ErrInvalidSelection,
			msg:     "⚠ Player A and Player B must be different.",
		},
		{
			name:    "negative",
			caller:  operator(),
			input:   MatchInput{PlayerA: ids[0], PlayerB: ids[1], GoalsB: -1},
			wantErr: domain.ErrInvalidScore,
			msg:     "⚠ Goals cannot be negative.",
		},
		{
			name:    "not a number",
			caller:  operator(),
			input:   MatchInput{PlayerA: ids[0], PlayerB: ids[1], MalformedGoals: true},
			wantErr: domain.ErrInvalidScore,
			msg:     "⚠ Goals must be a whole number.",
		},
		{
			name:    "hundred goals",
			caller:  operator(),
			input:   MatchInput{PlayerA: ids[0], PlayerB: ids[1], GoalsA: 100},
			wantErr: domain.ErrInvalidScore,
			msg:     "⚠ Maximum 99 goals per player per match.",
		},
		{
			name:    "stale selection",
			caller:  operator(),
			input:   MatchInput{PlayerA: ids[0], PlayerB: "deleted"},
			wantErr: domain.ErrInvalidSelection,
			msg:     "⚠ Invalid player selection.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := f.store.Writes()
			_, err := f.svc.SubmitMatch(context.Background(), tt.caller, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
			if tt.msg != "" {
				require.Equal(t, tt.msg, err.Error())
			}
			require.Equal(t, before, f.store.Writes(), "no store mutation issued")
		})
	}
}

// revoked claims privilege locally but carries an identity the store rejects.
type revoked struct{}

func (revoked) Privileged() bool { return true }

func (revoked) Context(ctx context.Context) context.Context { return ctx }

func TestSubmitMatchRejectedByStore(t *testing.T) {
	f := newFixture(t)
	ids := f.register(t, "Ann", "Ben")

	_, err := f.svc.SubmitMatch(context.Background(), revoked{}, MatchInput{PlayerA: ids[0], PlayerB: ids[1], GoalsA: 2})
	require.ErrorIs(t, err, domain.ErrUpdateFailed)
	require.ErrorIs(t, err, store.ErrPermissionDenied)
	require.Equal(t, domain.KindRemote, domain.KindOf(err))

	a := mustGet(t, f, ids[0])
	b := mustGet(t, f, ids[1])
	require.Equal(t, 0, a.Matches)
	require.Equal(t, 0, b.Matches, "neither side reflects the match")
}

func TestPoints(t *testing.T) {
	for ga := 0; ga <= MaxGoals; ga += 7 {
		for gb := 0; gb <= MaxGoals; gb += 5 {
			a, b := Points(ga, gb)
			if a+b != 3 && a+b != 2 {
				t.Fatalf("Points(%d, %d) = %d, %d", ga, gb, a, b)
			}
			if ga == gb && (a != 1 || b != 1) {
				t.Errorf("Points(%d, %d) = %d, %d, want 1, 1", ga, gb, a, b)
			}
			if ga != gb && a+b != 3 {
				t.Errorf("Points(%d, %d) = %d, %d, want sum 3", ga, gb, a, b)
			}
		}
	}
}

func TestParseGoals(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{in: "", want: 0, wantOK: true},
		{in: " 7 ", want: 7, wantOK: true},
		{in: "99", want: 99, wantOK: true},
		{in: "-3", want: -3, wantOK: true},
		{in: "2.5", wantOK: false},
		{in: "abc", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseGoals(tt.in)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ParseGoals(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRemoval(t *testing.T) {
	f := newFixture(t)
	ids := f.register(t, "Ann", "Ben")

	r := f.svc.NewRemoval(visitor())
	_, err := r.Initiate(ids[0], "Ann")
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
	_, ok := r.Pending()
	require.False(t, ok)

	r = f.svc.NewRemoval(operator())
	_, err = r.Confirm(context.Background())
	require.ErrorIs(t, err, domain.ErrNoPendingRemoval)

	p, err := r.Initiate(ids[0], "Ann")
	require.NoError(t, err)
	require.Equal(t, `Remove "Ann" from the arena? This cannot be undone.`, p.Prompt())
	require.True(t, r.Cancel())
	require.False(t, r.Cancel())
	before := f.store.Writes()
	_, err = r.Confirm(context.Background())
	require.ErrorIs(t, err, domain.ErrNoPendingRemoval)
	require.Equal(t, before, f.store.Writes())

	_, err = r.Initiate(ids[1], "Ben")
	require.NoError(t, err)
	out, err := r.Confirm(context.Background())
	require.NoError(t, err)
	require.Equal(t, Removed{ID: ids[1], Name: "Ben"}, out)
	require.Equal(t, "🗑️ Ben removed from the arena.", out.Toast())
	_, ok = r.Pending()
	require.False(t, ok)
	f.sync(t, 1)

	_, err = r.Initiate(ids[1], "Ben")
	require.NoError(t, err)
	_, err = r.Confirm(context.Background())
	require.NoError(t, err, "removing an absent player is not an error")
}

func TestRemovalKeepsMarkOnFailure(t *testing.T) {
	f := newFixture(t)
	ids := f.register(t, "Ann")

	r := f.svc.NewRemoval(revoked{})
	_, err := r.Initiate(ids[0], "Ann")
	require.NoError(t, err)
	_, err = r.Confirm(context.Background())
	require.ErrorIs(t, err, domain.ErrUpdateFailed)
	_, ok := r.Pending()
	require.True(t, ok)
}
