package core

import "time"

// EventKind is a notification the core emits to connections.
type EventKind int

const (
	// EventUserList carries the full roster of a room.
	EventUserList EventKind = iota
	// EventStatus is a human-readable presence notification.
	EventStatus
	// EventNewMessage carries a chat message (text or image).
	EventNewMessage
	// EventError reports a rejected operation to the offending connection only.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventUserList:
		return "update_user_list"
	case EventStatus:
		return "status"
	case EventNewMessage:
		return "new_message"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// MessageKind distinguishes chat payloads.
type MessageKind string

const (
	MessageText  MessageKind = "text"
	MessageImage MessageKind = "image"
)

// Valid reports whether k is a known message kind.
func (k MessageKind) Valid() bool {
	return k == MessageText || k == MessageImage
}

// ChatEvent is a transient chat payload. For images URL is set, otherwise Text.
type ChatEvent struct {
	Room   string
	User   string
	Kind   MessageKind
	Text   string
	URL    string
	SentAt time.Time
}

// Event is delivered to connections to describe what happened in a room.
type Event struct {
	Kind   EventKind
	Room   string
	Users  []string
	Status string
	Chat   ChatEvent
	Error  *Error
}

func rosterEvent(room string, users []string) *Event {
	return &Event{Kind: EventUserList, Room: room, Users: users}
}

func statusEvent(room, msg string) *Event {
	return &Event{Kind: EventStatus, Room: room, Status: msg}
}

// ErrorEvent builds an EventError for a single connection.
func ErrorEvent(err error) *Event {
	return &Event{Kind: EventError, Error: AsError(err)}
}
