package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/contrib/websocket"

	"github.com/slotflow/chat-server/config"
	"github.com/slotflow/chat-server/gateway"
	"github.com/slotflow/chat-server/models"
)

// WebSocketHandler owns the lifecycle of one live connection: register with
// the gateway, pump events in both directions, deregister on close.
type WebSocketHandler struct {
	Gateway *gateway.Gateway
	Log     *slog.Logger
}

// Handle runs until the connection closes. The client identifies itself with
// a userId query parameter; without one the connection stays anonymous and
// only consumes broadcasts.
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	ctx := context.Background()

	userID := c.Query("userId")
	client := gateway.NewClient(userID)

	if err := h.Gateway.Connect(ctx, client); err != nil {
		h.Log.Error("failed to register connection", "userId", userID, "error", err)
		c.Close()
		return
	}
	h.Log.Info("connection opened", "connId", client.ID, "userId", userID)

	defer func() {
		h.Gateway.Disconnect(ctx, client)
		c.Close()
		h.Log.Info("connection closed", "connId", client.ID, "userId", userID)
	}()

	go h.writePump(c, client)

	// Events from a single connection are handled in receipt order.
	h.readPump(ctx, c, client)
}

func (h *WebSocketHandler) readPump(ctx context.Context, c *websocket.Conn, client *gateway.Client) {
	c.SetReadLimit(config.MaxMessageSize)
	c.SetReadDeadline(time.Now().Add(config.PongWait))
	c.SetPongHandler(func(string) error {
		c.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		var frame struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := c.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.Log.Warn("read error", "connId", client.ID, "error", err)
			}
			return
		}

		switch frame.Event {
		case models.EventTyping, models.EventStopTyping:
			var ev models.TypingEvent
			if err := json.Unmarshal(frame.Data, &ev); err != nil {
				h.Log.Warn("malformed typing event", "connId", client.ID, "error", err)
				continue
			}
			h.Gateway.Relay(ctx, frame.Event, ev)
		default:
			h.Log.Debug("ignoring unknown event", "connId", client.ID, "event", frame.Event)
		}
	}
}

func (h *WebSocketHandler) writePump(c *websocket.Conn, client *gateway.Client) {
	ticker := time.NewTicker(config.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case ev := <-client.Send():
			c.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.WriteJSON(ev); err != nil {
				h.Log.Warn("write error", "connId", client.ID, "error", err)
				return
			}
		case <-ticker.C:
			c.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-client.Done():
			c.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}
