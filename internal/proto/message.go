package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello   = "hello"
	InboundTypeJoin    = "join"
	InboundTypeLeave   = "leave"
	InboundTypeMessage = "message"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventReady = "ready"
)

// HelloData is sent by the client to introduce itself. Token is required
// when the server enforces JWT; otherwise User names the identity.
type HelloData struct {
	User     string `json:"user,omitempty" validate:"omitempty,min=1,max=32"`
	Token    string `json:"token,omitempty"`
	Protocol int    `json:"protocol,omitempty" validate:"omitempty,gte=1"`
}

// JoinData requests to join a specific room.
type JoinData struct {
	Room string `json:"room" validate:"required"`
}

// LeaveData requests to leave a specific room.
type LeaveData struct {
	Room string `json:"room" validate:"required"`
}

// MessageData is a chat message from the client. Type defaults to text;
// for images Msg holds the URL of an uploaded asset.
type MessageData struct {
	Room string `json:"room" validate:"required"`
	Type string `json:"type,omitempty" validate:"omitempty,oneof=text image"`
	Msg  string `json:"msg" validate:"required"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Room  string `json:"room,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ReadyData acknowledges a successful hello.
type ReadyData struct {
	User     string `json:"user"`
	Protocol int    `json:"protocol"`
}

// StatusData is a presence notification line.
type StatusData struct {
	Msg string `json:"msg"`
}

// NewMessageData is a relayed chat message.
type NewMessageData struct {
	User string `json:"user"`
	Type string `json:"type"`
	Msg  string `json:"msg,omitempty"`
	URL  string `json:"url,omitempty"`
	TS   int64  `json:"ts"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
