package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// PublishResult reports fanout outcome of a single Publish call.
type PublishResult struct {
	Delivered int
	Dropped   []ConnID
}

// Dispatcher delivers room-scoped events to subscribed connections.
// Delivery is at-most-once and never blocks the publisher; events published
// to the same room reach each subscriber in publish order.
type Dispatcher struct {
	mu     sync.RWMutex
	topics map[string]*topic
	log    *zerolog.Logger
}

// NewDispatcher creates a dispatcher. logger may be nil.
func NewDispatcher(logger *zerolog.Logger) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Dispatcher{
		topics: make(map[string]*topic),
		log:    logger,
	}
}

// Subscribe adds s to the room's subscribers. Returns false if already subscribed.
func (d *Dispatcher) Subscribe(room string, s Subscriber) bool {
	d.mu.Lock()
	t, ok := d.topics[room]
	if !ok {
		t = newTopic(room)
		d.topics[room] = t
	}
	d.mu.Unlock()

	return t.add(s)
}

// Unsubscribe removes conn from the room's subscribers.
func (d *Dispatcher) Unsubscribe(room string, conn ConnID) bool {
	d.mu.RLock()
	t, ok := d.topics[room]
	d.mu.RUnlock()
	if !ok {
		return false
	}
	return t.remove(conn)
}

// UnsubscribeAll removes conn from every room.
func (d *Dispatcher) UnsubscribeAll(conn ConnID) {
	d.mu.RLock()
	topics := make([]*topic, 0, len(d.topics))
	for _, t := range d.topics {
		topics = append(topics, t)
	}
	d.mu.RUnlock()

	for _, t := range topics {
		t.remove(conn)
	}
}

// Subscribers returns the number of connections subscribed to room.
func (d *Dispatcher) Subscribers(room string) int {
	d.mu.RLock()
	t, ok := d.topics[room]
	d.mu.RUnlock()
	if !ok {
		return 0
	}
	return t.len()
}

// Publish fans ev out to the room's current subscribers.
func (d *Dispatcher) Publish(room string, ev *Event) PublishResult {
	d.mu.RLock()
	t, ok := d.topics[room]
	d.mu.RUnlock()
	if !ok {
		return PublishResult{}
	}

	res := t.broadcast(ev)
	if len(res.Dropped) > 0 {
		d.log.Debug().
			Str("room", room).
			Str("event", ev.Kind.String()).
			Int("dropped", len(res.Dropped)).
			Msg("slow subscribers skipped")
	}
	return res
}
