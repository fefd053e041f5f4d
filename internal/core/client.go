package core

import (
	"fmt"
	"sync"
)

// OverflowPolicy decides what an Outbox does when its queue is full.
type OverflowPolicy string

const (
	// OverflowDropOldest discards the oldest queued event to make room.
	OverflowDropOldest OverflowPolicy = "drop_oldest"
	// OverflowDisconnect flags the outbox so the transport closes the connection.
	OverflowDisconnect OverflowPolicy = "disconnect"
)

// ParseOverflowPolicy validates a configured policy name.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch p := OverflowPolicy(s); p {
	case OverflowDropOldest, OverflowDisconnect:
		return p, nil
	case "":
		return OverflowDropOldest, nil
	default:
		return "", fmt.Errorf("unknown overflow policy %q", s)
	}
}

// Subscriber receives room events. Deliver must not block.
type Subscriber interface {
	ID() ConnID
	Deliver(ev *Event) bool
}

// Outbox is a bounded per-connection event queue drained by the transport writer.
type Outbox struct {
	id     ConnID
	policy OverflowPolicy
	events chan *Event

	mu         sync.Mutex
	closed     bool
	overflowed chan struct{}
	dropped    int
}

// NewOutbox creates an outbox holding at most size events.
func NewOutbox(id ConnID, size int, policy OverflowPolicy) *Outbox {
	if size <= 0 {
		size = 64
	}
	if policy == "" {
		policy = OverflowDropOldest
	}
	return &Outbox{
		id:         id,
		policy:     policy,
		events:     make(chan *Event, size),
		overflowed: make(chan struct{}),
	}
}

// ID returns the connection the outbox belongs to.
func (o *Outbox) ID() ConnID {
	return o.id
}

// Events is drained by the transport writer.
func (o *Outbox) Events() <-chan *Event {
	return o.events
}

// Overflowed is closed once the disconnect policy trips.
func (o *Outbox) Overflowed() <-chan struct{} {
	return o.overflowed
}

// Dropped reports how many events were discarded so far.
func (o *Outbox) Dropped() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dropped
}

// Deliver enqueues ev without blocking. It returns false when ev was not queued.
func (o *Outbox) Deliver(ev *Event) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}

	select {
	case o.events <- ev:
		return true
	default:
	}

	if o.policy == OverflowDisconnect {
		o.dropped++
		o.closed = true
		close(o.overflowed)
		return false
	}

	// Drop oldest. The writer may drain concurrently, so both steps stay non-blocking.
	select {
	case <-o.events:
		o.dropped++
	default:
	}
	select {
	case o.events <- ev:
		return true
	default:
		o.dropped++
		return false
	}
}

// Close stops accepting events. Queued events remain readable.
func (o *Outbox) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
}
