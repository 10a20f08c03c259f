package gateway

import (
	"sync"

	"github.com/samber/lo"

	"github.com/slotflow/chat-server/models"
)

// Hub tracks the live connections of this process, keyed by connection id.
// It is the local half of presence: the shared registry answers "which
// connection id", the hub answers "which client object".
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

func (h *Hub) Unregister(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, connID)
}

func (h *Hub) Lookup(connID string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	return c, ok
}

// BroadcastAll delivers ev to every connection, anonymous ones included.
func (h *Hub) BroadcastAll(ev models.Event) {
	h.mu.RLock()
	clients := lo.Values(h.clients)
	h.mu.RUnlock()

	for _, c := range clients {
		c.deliver(ev)
	}
}
