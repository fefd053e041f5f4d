package core

import "sync"

// topic groups the subscribers of one room on the dispatcher side.
type topic struct {
	name string

	// mu is held for the whole fanout so publishes to one room stay FIFO.
	mu   sync.Mutex
	subs map[ConnID]Subscriber
}

func newTopic(name string) *topic {
	return &topic{
		name: name,
		subs: make(map[ConnID]Subscriber),
	}
}

// add inserts a subscriber. Returns true if newly added.
func (t *topic) add(s Subscriber) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.subs[s.ID()]; exists {
		return false
	}
	t.subs[s.ID()] = s
	return true
}

// remove deletes a subscriber. Returns true if removed.
func (t *topic) remove(id ConnID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.subs[id]; !exists {
		return false
	}
	delete(t.subs, id)
	return true
}

// broadcast hands ev to every subscriber without blocking on any of them.
func (t *topic) broadcast(ev *Event) PublishResult {
	t.mu.Lock()
	defer t.mu.Unlock()

	var res PublishResult
	for id, s := range t.subs {
		if s.Deliver(ev) {
			res.Delivered++
		} else {
			res.Dropped = append(res.Dropped, id)
		}
	}
	return res
}

func (t *topic) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}
