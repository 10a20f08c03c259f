// Package gateway multiplexes presence and typing events across live
// connections and pushes freshly created messages to online recipients.
package gateway

import (
	"context"
	"log/slog"

	"github.com/slotflow/chat-server/models"
	"github.com/slotflow/chat-server/presence"
)

// Gateway composes the local hub with the shared presence registry.
// Relay and push are best-effort: an offline recipient or a delivery failure
// is never surfaced to the sender.
type Gateway struct {
	hub      *Hub
	registry presence.Registry
	log      *slog.Logger
}

func New(registry presence.Registry, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{hub: NewHub(), registry: registry, log: log}
}

// Connect registers the client and, when it owns a user id, records presence
// and broadcasts the new online snapshot to every open connection.
func (g *Gateway) Connect(ctx context.Context, c *Client) error {
	g.hub.Register(c)

	if c.UserID == "" {
		g.log.Debug("anonymous connection opened", "connId", c.ID)
		return nil
	}
	if err := g.registry.SetOnline(ctx, c.UserID, c.ID); err != nil {
		// Never leave a half-connected client behind: it would soak up every
		// future broadcast.
		g.hub.Unregister(c.ID)
		c.Close()
		return err
	}
	g.broadcastOnlineUsers(ctx)
	return nil
}

// Disconnect removes presence (when owned) and rebroadcasts the snapshot to
// the remaining connections.
func (g *Gateway) Disconnect(ctx context.Context, c *Client) {
	g.hub.Unregister(c.ID)
	c.Close()

	if c.UserID == "" {
		return
	}
	if err := g.registry.SetOffline(ctx, c.UserID); err != nil {
		g.log.Error("failed to clear presence", "userId", c.UserID, "error", err)
	}
	g.broadcastOnlineUsers(ctx)
}

// Relay forwards a typing/stopTyping event verbatim to the recipient's
// connection, if the recipient is online on this instance. Offline recipients
// are dropped silently.
func (g *Gateway) Relay(ctx context.Context, event string, ev models.TypingEvent) {
	g.sendTo(ctx, ev.ToUserID, models.Event{Event: event, Data: ev})
}

// PushMessage delivers a newMessage event carrying the resolved message to the
// recipient's connection, if online. The message stays retrievable from the
// store either way.
func (g *Gateway) PushMessage(ctx context.Context, toUserID string, msg models.Message) {
	g.sendTo(ctx, toUserID, models.Event{Event: models.EventNewMessage, Data: msg})
}

func (g *Gateway) sendTo(ctx context.Context, toUserID string, ev models.Event) {
	connID, ok, err := g.registry.Connection(ctx, toUserID)
	if err != nil {
		g.log.Error("presence lookup failed", "userId", toUserID, "error", err)
		return
	}
	if !ok {
		return
	}
	client, ok := g.hub.Lookup(connID)
	if !ok {
		// Registered on another instance; this process has nothing to write to.
		return
	}
	client.deliver(ev)
}

func (g *Gateway) broadcastOnlineUsers(ctx context.Context) {
	users, err := g.registry.OnlineUserIDs(ctx)
	if err != nil {
		g.log.Error("failed to snapshot online users", "error", err)
		return
	}
	g.hub.BroadcastAll(models.Event{Event: models.EventOnlineUsers, Data: users})
}
