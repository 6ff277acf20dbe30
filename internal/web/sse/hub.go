package sse

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Buffer size for outgoing messages of one client.
const sendBufferSize = 256

// Client is one open event stream. A browser session may hold several.
type Client struct {
	session     uuid.UUID
	send        chan []byte
	connectedAt time.Time
}

func (c *Client) Session() uuid.UUID {
	return c.session
}

// Messages is closed when the client is unregistered or the hub stops.
func (c *Client) Messages() <-chan []byte {
	return c.send
}

// Hub fans server events out to connected browsers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
	log     *logrus.Entry
}

func NewHub(l *logrus.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		log: l.WithFields(map[string]interface{}{
			"from": "sse-hub",
		}),
	}
}

// Register adds a stream for a session. It returns nil after Close.
func (h *Hub) Register(session uuid.UUID) *Client {
	c := &Client{
		session:     session,
		send:        make(chan []byte, sendBufferSize),
		connectedAt: time.Now(),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.clients[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()
	h.log.WithFields(map[string]interface{}{
		"session":       session,
		"total_clients": total,
	}).Debug("sse client registered")
	return c
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	close(c.send)
	total := len(h.clients)
	h.mu.Unlock()
	h.log.WithFields(map[string]interface{}{
		"session":             c.session,
		"connection_duration": time.Since(c.connectedAt),
		"total_clients":       total,
	}).Debug("sse client unregistered")
}

// Broadcast sends an event to every client.
func (h *Hub) Broadcast(event, data string) {
	h.deliver(formatSSEMessage(event, data), func(*Client) bool { return true })
}

// Send sends an event to the clients of one session.
func (h *Hub) Send(session uuid.UUID, event, data string) {
	h.deliver(formatSSEMessage(event, data), func(c *Client) bool { return c.session == session })
}

func (h *Hub) deliver(msg []byte, match func(*Client) bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	dropped := 0
	for c := range h.clients {
		if !match(c) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.log.WithField("dropped", dropped).Warn("sse message dropped, client buffer full")
	}
}

// Sessions lists the sessions with at least one open stream.
func (h *Hub) Sessions() []uuid.UUID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[uuid.UUID]struct{}, len(h.clients))
	sessions := make([]uuid.UUID, 0, len(h.clients))
	for c := range h.clients {
		if _, ok := seen[c.session]; ok {
			continue
		}
		seen[c.session] = struct{}{}
		sessions = append(sessions, c.session)
	}
	return sessions
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
	h.log.Info("sse hub stopped")
}

// formatSSEMessage prefixes every data line with "data: ".
func formatSSEMessage(event, data string) []byte {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteString("\n")
	for _, line := range splitLines(data) {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
