package mem

import (
	"sync"

	"github.com/goserg/arena/internal/domain"
	"github.com/goserg/arena/internal/normalize"
)

// Cache is the local mirror of the players collection. It is replaced
// wholesale by every snapshot and never mutated in place.
type Cache struct {
	mu      sync.RWMutex
	valid   bool
	players domain.Snapshot
	names   map[string]string
}

func New() *Cache {
	return &Cache{
		players: make(domain.Snapshot),
		names:   make(map[string]string),
	}
}

func (c *Cache) Update(snapshot domain.Snapshot) {
	players := make(domain.Snapshot, len(snapshot))
	names := make(map[string]string, len(snapshot))
	for id, p := range snapshot {
		if p.ID == "" {
			p.ID = id
		}
		players[id] = p
		names[normalize.Name(p.Name)] = id
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.players = players
	c.names = names
	c.valid = true
}

// Valid reports whether at least one snapshot has been applied.
func (c *Cache) Valid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.valid
}

func (c *Cache) Get(id string) (domain.Player, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.players[id]
	return p, ok
}

func (c *Cache) GetPlayerByName(name string) (domain.Player, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.names[normalize.Name(name)]
	if !ok {
		return domain.Player{}, false
	}
	return c.players[id], true
}

func (c *Cache) HasName(name string) bool {
	_, ok := c.GetPlayerByName(name)
	return ok
}

// Players returns the current mirror. Callers must not modify it.
func (c *Cache) Players() domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.players
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.players)
}
