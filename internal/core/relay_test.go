package core

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRelay_Text_And_Image(t *testing.T) {
	req := require.New(t)
	hub := newTestHub("general")
	fixed := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	hub.Relay.now = func() time.Time { return fixed }

	alice := connect(t, hub, "alice")
	req.NoError(hub.Presence.Join(alice.ID(), "general"))
	drain(alice.Events())

	_, err := hub.Relay.Relay(alice.ID(), "general", MessageText, "hi")
	req.NoError(err)
	_, err = hub.Relay.Relay(alice.ID(), "general", MessageImage, "/uploads/x_cat.png")
	req.NoError(err)

	got := drain(alice.Events())
	req.Len(got, 2)
	req.Equal(ChatEvent{Room: "general", User: "alice", Kind: MessageText, Text: "hi", SentAt: fixed}, got[0].Chat)
	req.Equal(ChatEvent{Room: "general", User: "alice", Kind: MessageImage, URL: "/uploads/x_cat.png", SentAt: fixed}, got[1].Chat)
}

func TestRelay_Allows_Unjoined_Room_By_Default(t *testing.T) {
	req := require.New(t)
	hub := newTestHub("general", "random")
	alice := connect(t, hub, "alice")
	bob := connect(t, hub, "bob")
	req.NoError(hub.Presence.Join(bob.ID(), "random"))
	drain(bob.Events())

	res, err := hub.Relay.Relay(alice.ID(), "random", MessageText, "drive-by")
	req.NoError(err)
	req.Equal(1, res.Delivered)
	msg := mustEvent(t, bob.Events(), EventNewMessage)
	req.Equal("alice", msg.Chat.User)
}

func TestRelay_Require_Membership(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Rooms: []string{"general", "random"}, Relay: RelayOptions{RequireMembership: true}}, nil)
	alice := connect(t, hub, "alice")
	req.NoError(hub.Presence.Join(alice.ID(), "general"))

	_, err := hub.Relay.Relay(alice.ID(), "random", MessageText, "nope")
	req.ErrorIs(err, ErrNotInRoom)

	_, err = hub.Relay.Relay(alice.ID(), "general", MessageText, "ok")
	req.NoError(err)

	_, err = hub.Relay.RelayAs("alice", "general", MessageImage, "/uploads/a.png")
	req.NoError(err)
	_, err = hub.Relay.RelayAs("bob", "general", MessageImage, "/uploads/b.png")
	req.ErrorIs(err, ErrNotInRoom)
}

func TestRelay_Rejections(t *testing.T) {
	hub := NewHub(Options{Rooms: []string{"general"}, Relay: RelayOptions{MaxTextLength: 10}}, nil)
	alice := connect(t, hub, "alice")

	tests := []struct {
		name    string
		conn    ConnID
		room    string
		kind    MessageKind
		payload string
		want    error
	}{
		{"unbound", NewConnID(), "general", MessageText, "hi", ErrUnboundConnection},
		{"unknown room", alice.ID(), "ghost", MessageText, "hi", ErrUnknownRoom},
		{"unknown kind", alice.ID(), "general", MessageKind("video"), "hi", ErrBadRequest},
		{"empty", alice.ID(), "general", MessageText, "   ", ErrBadRequest},
		{"too long", alice.ID(), "general", MessageText, strings.Repeat("x", 11), ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := hub.Relay.Relay(tt.conn, tt.room, tt.kind, tt.payload)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRelay_Messages_Arrive_In_Send_Order(t *testing.T) {
	req := require.New(t)
	hub := NewHub(Options{Rooms: []string{"general"}, OutboxSize: 256}, nil)
	alice := connect(t, hub, "alice")
	bob := connect(t, hub, "bob")
	req.NoError(hub.Presence.Join(alice.ID(), "general"))
	req.NoError(hub.Presence.Join(bob.ID(), "general"))
	drain(alice.Events())
	drain(bob.Events())

	for i := range 50 {
		_, err := hub.Relay.Relay(alice.ID(), "general", MessageText, fmt.Sprint(i))
		req.NoError(err)
	}

	for _, box := range []*Outbox{alice, bob} {
		got := drain(box.Events())
		req.Len(got, 50)
		for i, ev := range got {
			req.Equal(fmt.Sprint(i), ev.Chat.Text)
		}
	}
}
