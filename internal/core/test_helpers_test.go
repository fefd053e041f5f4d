package core

import (
	"testing"
	"time"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drain returns every event currently queued on ch.
func drain(ch <-chan *Event) []*Event {
	var out []*Event
	for {
		select {
		case ev := <-ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func newTestHub(rooms ...string) *Hub {
	return NewHub(Options{Rooms: rooms, OutboxSize: 64}, nil)
}

// connect creates an outbox bound to identity.
func connect(t *testing.T, hub *Hub, identity string) *Outbox {
	t.Helper()

	box := hub.NewOutbox()
	if err := hub.Presence.Connect(identity, box); err != nil {
		t.Fatalf("connect %s: %v", identity, err)
	}
	return box
}
