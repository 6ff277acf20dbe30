package access

import (
	"context"
	"sync"

	"github.com/goserg/arena/auth/users"
	"github.com/goserg/arena/internal/normalize"
)

// Transition describes what a session notification changed.
type Transition int

const (
	// Initial is the first notification of a session, delivered on subscribe.
	Initial Transition = iota
	SignedIn
	SignedOut
)

func (t Transition) String() string {
	switch t {
	case Initial:
		return "initial"
	case SignedIn:
		return "signed-in"
	case SignedOut:
		return "signed-out"
	}
	return "unknown"
}

// Gate holds the identity of one client and whether it is the privileged
// operator. Views use it to show operator controls and protocols consult it
// before mutating. The store guard remains the enforcing boundary.
type Gate struct {
	operator string

	mu         sync.RWMutex
	user       *users.User
	privileged bool
	delivered  bool
}

func New(operatorEmail string) *Gate {
	return &Gate{operator: normalize.Email(operatorEmail)}
}

// OnSessionChange applies a session notification. A nil user means signed out.
func (g *Gate) OnSessionChange(u *users.User) Transition {
	g.mu.Lock()
	defer g.mu.Unlock()

	if u == nil {
		g.user = nil
		g.privileged = false
	} else {
		cp := *u
		g.user = &cp
		g.privileged = g.operator != "" && normalize.Email(u.Email) == g.operator
	}
	if !g.delivered {
		g.delivered = true
		return Initial
	}
	if u == nil {
		return SignedOut
	}
	return SignedIn
}

func (g *Gate) Privileged() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.privileged
}

func (g *Gate) Identity() (users.User, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.user == nil {
		return users.User{}, false
	}
	return *g.user, true
}

// Context attaches the current identity to ctx so the store can check it.
func (g *Gate) Context(ctx context.Context) context.Context {
	u, ok := g.Identity()
	if !ok {
		return ctx
	}
	return users.WithUser(ctx, u)
}
