package ws

import (
	"encoding/json"
	"sync"
	"time"

	"affiliate-service/internal/domain"
)

// Event is one ledger or payout lifecycle notification pushed over the feed.
// Admin consoles receive every event; an affiliate only receives events for
// their own records.
type Event struct {
	Type        string      `json:"type"` // e.g. commission.approved, payout.completed
	AffiliateID uint        `json:"affiliate_id"`
	UserID      uint        `json:"user_id"` // owning affiliate's user id
	At          time.Time   `json:"at"`
	Data        interface{} `json:"data,omitempty"`
}

// Client is one WebSocket subscriber with its auth context.
type Client struct {
	UserID uint
	Role   string
	Send   chan []byte
	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// trySend delivers without blocking. Holding the mutex orders the send
// against Close, so a concurrent Close cannot leave us writing to a closed
// channel.
func (c *Client) trySend(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- msg:
	default:
	}
}

// Hub maintains the set of connected feed subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
}

// Publish fans an event out to every admin subscriber plus the owning
// affiliate's own connections. Slow subscribers are skipped, never blocked on.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		if c.Role == domain.RoleAdmin || c.UserID == ev.UserID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()
	for _, c := range targets {
		c.trySend(data)
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
