package models

// Event names carried on the websocket channel.
const (
	EventOnlineUsers = "getOnlineUsers"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
	EventNewMessage  = "newMessage"
)

// Event is the envelope for every frame exchanged on a live connection.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// TypingEvent is the payload of typing/stopTyping, relayed verbatim to the
// recipient's connection.
type TypingEvent struct {
	FromUserID string `json:"fromUserId"`
	ToUserID   string `json:"toUserId"`
}
