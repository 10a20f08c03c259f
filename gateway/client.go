package gateway

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/slotflow/chat-server/models"
)

// Client is one live connection. UserID is empty for anonymous connections,
// which receive broadcasts but never register presence.
type Client struct {
	ID     string
	UserID string

	send      chan models.Event
	closeOnce sync.Once
	done      chan struct{}
}

// NewClient allocates a client with a fresh connection id and a buffered
// outbound queue drained by the connection's write pump.
func NewClient(userID string) *Client {
	return &Client{
		ID:     uuid.NewString(),
		UserID: userID,
		send:   make(chan models.Event, 64),
		done:   make(chan struct{}),
	}
}

// Send exposes the outbound queue to the write pump.
func (c *Client) Send() <-chan models.Event {
	return c.send
}

// Done is closed when the client is shut down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close stops delivery. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// deliver enqueues an event without blocking. A full queue means a slow
// consumer; the event is dropped, the same policy as the relay path.
func (c *Client) deliver(ev models.Event) {
	select {
	case <-c.done:
	case c.send <- ev:
	default:
		slog.Warn("dropping event for slow connection", "connId", c.ID, "event", ev.Event)
	}
}
