package web

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goserg/arena/auth/users"
	"github.com/goserg/arena/internal/access"
	"github.com/goserg/arena/internal/audio"
	"github.com/goserg/arena/internal/live"
	"github.com/goserg/arena/internal/service"
)

// HighlightFor is how long rows touched by a match stay highlighted.
const HighlightFor = 2 * time.Second

// flash is the outcome of the last form post of a browser without scripts,
// shown once by the next page render.
type flash struct {
	Form    string
	Message string
	OK      bool
	Toast   string
}

// flashFor returns the flash message of form, if f carries one.
func flashFor(f any, form string) *flash {
	fl, ok := f.(flash)
	if !ok || fl.Form != form || fl.Message == "" {
		return nil
	}
	return &fl
}

// identity is who a browser is signed in as.
type identity interface {
	User() (users.User, bool)
	OnChange(cb func(*users.User))
	SignIn(ctx context.Context, email, password string) error
	SignOut(ctx context.Context) error
}

// client is the server side of one browser session.
type client struct {
	id        uuid.UUID
	gate      *access.Gate
	session   identity
	removal   *service.Removal
	cues      *audio.Dispatcher
	selection live.Selection

	mu        sync.Mutex
	flash     *flash
	highlight map[string]time.Time
	lastSeen  time.Time
}

func (c *client) touch(now time.Time) {
	c.mu.Lock()
	c.lastSeen = now
	c.mu.Unlock()
}

func (c *client) idleSince(now time.Time) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return now.Sub(c.lastSeen)
}

func (c *client) setFlash(f flash) {
	c.mu.Lock()
	c.flash = &f
	c.mu.Unlock()
}

// takeFlash returns the pending flash and clears it.
func (c *client) takeFlash() (flash, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flash == nil {
		return flash{}, false
	}
	f := *c.flash
	c.flash = nil
	return f, true
}

func (c *client) setHighlight(until time.Time, ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.highlight[id] = until
	}
}

// highlighted returns the rows still highlighted at now.
func (c *client) highlighted(now time.Time) map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := make(map[string]bool, len(c.highlight))
	for id, until := range c.highlight {
		if now.Before(until) {
			rows[id] = true
			continue
		}
		delete(c.highlight, id)
	}
	return rows
}

type registry struct {
	mu        sync.Mutex
	clients   map[uuid.UUID]*client
	newClient func(id uuid.UUID) *client
}

func newRegistry(newClient func(id uuid.UUID) *client) *registry {
	return &registry{
		clients:   make(map[uuid.UUID]*client),
		newClient: newClient,
	}
}

// get returns the client of a session, creating it on first use.
func (r *registry) get(id uuid.UUID) *client {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		c = r.newClient(id)
		r.clients[id] = c
	}
	return c
}

func (r *registry) lookup(id uuid.UUID) (*client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	return c, ok
}

// sweep forgets sessions idle for longer than maxIdle, except those in keep.
func (r *registry) sweep(now time.Time, maxIdle time.Duration, keep []uuid.UUID) int {
	kept := make(map[uuid.UUID]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, c := range r.clients {
		if _, ok := kept[id]; ok {
			continue
		}
		if c.idleSince(now) > maxIdle {
			delete(r.clients, id)
			removed++
		}
	}
	return removed
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}
