package core

import "github.com/rs/zerolog"

// Options configures a Hub.
type Options struct {
	Rooms      []string
	OutboxSize int
	Overflow   OverflowPolicy
	Relay      RelayOptions
}

// Hub bundles the presence and broadcast core behind one handle for the transport.
type Hub struct {
	Rooms      *Registry
	Directory  *Directory
	Dispatcher *Dispatcher
	Presence   *Presence
	Relay      *Relay

	outboxSize int
	overflow   OverflowPolicy
}

// NewHub creates a hub whose registry is seeded with opts.Rooms.
func NewHub(opts Options, logger *zerolog.Logger) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	coreLog := logger.With().Str("component", "core").Logger()

	rooms := NewRegistry(opts.Rooms...)
	dir := NewDirectory()
	bus := NewDispatcher(&coreLog)

	return &Hub{
		Rooms:      rooms,
		Directory:  dir,
		Dispatcher: bus,
		Presence:   NewPresence(rooms, dir, bus, &coreLog),
		Relay:      NewRelay(rooms, dir, bus, opts.Relay, &coreLog),
		outboxSize: opts.OutboxSize,
		overflow:   opts.Overflow,
	}
}

// NewOutbox creates an outbox for a new connection using the hub's queue settings.
func (h *Hub) NewOutbox() *Outbox {
	return NewOutbox(NewConnID(), h.outboxSize, h.overflow)
}

// MemberCount returns the roster size of room, or zero for unknown rooms.
func (h *Hub) MemberCount(room string) int {
	users, err := h.Rooms.Members(room)
	if err != nil {
		return 0
	}
	return len(users)
}
