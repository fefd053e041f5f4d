package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestHubJoinMessageAndDisconnect(t *testing.T) {
	hub := newTestHub("general", "random")

	alice := connect(t, hub, "alice")
	bob := connect(t, hub, "bob")

	if err := hub.Presence.Join(alice.ID(), "general"); err != nil {
		t.Fatalf("alice join: %v", err)
	}
	roster := mustEvent(t, alice.Events(), EventUserList)
	if !reflect.DeepEqual(roster.Users, []string{"alice"}) {
		t.Fatalf("unexpected roster after alice joined: %v", roster.Users)
	}
	status := mustEvent(t, alice.Events(), EventStatus)
	if status.Status != "alice entered the room." {
		t.Fatalf("unexpected status: %q", status.Status)
	}

	if err := hub.Presence.Join(bob.ID(), "general"); err != nil {
		t.Fatalf("bob join: %v", err)
	}
	for _, box := range []*Outbox{alice, bob} {
		roster = mustEvent(t, box.Events(), EventUserList)
		if !reflect.DeepEqual(roster.Users, []string{"alice", "bob"}) {
			t.Fatalf("unexpected roster after bob joined: %v", roster.Users)
		}
		status = mustEvent(t, box.Events(), EventStatus)
		if status.Status != "bob entered the room." {
			t.Fatalf("unexpected status: %q", status.Status)
		}
	}

	if _, err := hub.Relay.Relay(alice.ID(), "general", MessageText, "hi"); err != nil {
		t.Fatalf("relay: %v", err)
	}
	for _, box := range []*Outbox{alice, bob} {
		msg := mustEvent(t, box.Events(), EventNewMessage)
		if msg.Chat.User != "alice" || msg.Chat.Kind != MessageText || msg.Chat.Text != "hi" {
			t.Fatalf("unexpected message event: %+v", msg.Chat)
		}
	}

	if err := hub.Presence.Disconnect(bob.ID()); err != nil {
		t.Fatalf("bob disconnect: %v", err)
	}
	roster = mustEvent(t, alice.Events(), EventUserList)
	if !reflect.DeepEqual(roster.Users, []string{"alice"}) {
		t.Fatalf("unexpected roster after bob left: %v", roster.Users)
	}
	status = mustEvent(t, alice.Events(), EventStatus)
	if status.Status != "bob disconnected." {
		t.Fatalf("unexpected status: %q", status.Status)
	}

	if got := drain(bob.Events()); len(got) != 0 {
		t.Fatalf("disconnected connection received %d events", len(got))
	}
}

func TestHubSecondDisconnectIsInvalidState(t *testing.T) {
	hub := newTestHub("general")
	alice := connect(t, hub, "alice")

	if err := hub.Presence.Join(alice.ID(), "general"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := hub.Presence.Disconnect(alice.ID()); err != nil {
		t.Fatalf("first disconnect: %v", err)
	}

	err := hub.Presence.Disconnect(alice.ID())
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if ce := AsError(err); ce.Code != ErrCodeInvalidState {
		t.Fatalf("expected invalid_state code, got %q", ce.Code)
	}

	members, _ := hub.Rooms.Members("general")
	if len(members) != 0 {
		t.Fatalf("expected empty roster, got %v", members)
	}
	if hub.Directory.Len() != 0 {
		t.Fatalf("expected directory to be empty")
	}
}

func TestHubJoinUnknownRoom(t *testing.T) {
	hub := newTestHub("general")
	alice := connect(t, hub, "alice")

	err := hub.Presence.Join(alice.ID(), "ghost")
	if !errors.Is(err, ErrUnknownRoom) {
		t.Fatalf("expected ErrUnknownRoom, got %v", err)
	}
	if hub.Rooms.Has("ghost") {
		t.Fatalf("unknown room must not be created")
	}
}

func TestHubMemberCount(t *testing.T) {
	hub := newTestHub("general")
	alice := connect(t, hub, "alice")

	if hub.MemberCount("general") != 0 {
		t.Fatalf("expected empty room")
	}
	if err := hub.Presence.Join(alice.ID(), "general"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if hub.MemberCount("general") != 1 {
		t.Fatalf("expected one member")
	}
	if hub.MemberCount("ghost") != 0 {
		t.Fatalf("unknown room should count zero")
	}
}
