package main

import (
	"encoding/json"
	"testing"

	"github.com/vovakirdan/roomchat-server/internal/proto"
)

func TestRender(t *testing.T) {
	cases := []struct {
		name string
		f    frame
		want string
	}{
		{
			name: "roster",
			f:    frame{Type: "event", Event: "update_user_list", Room: "Matrix", Data: json.RawMessage(`["alice","bob"]`)},
			want: "[Matrix] online: alice, bob",
		},
		{
			name: "status",
			f:    frame{Type: "event", Event: "status", Room: "Matrix", Data: json.RawMessage(`{"msg":"bob left the room."}`)},
			want: "[Matrix] * bob left the room.",
		},
		{
			name: "text",
			f:    frame{Type: "event", Event: "new_message", Room: "Matrix", Data: json.RawMessage(`{"user":"alice","type":"text","msg":"hi","ts":1}`)},
			want: "[Matrix] alice: hi",
		},
		{
			name: "image",
			f:    frame{Type: "event", Event: "new_message", Room: "Matrix", Data: json.RawMessage(`{"user":"alice","type":"image","url":"/uploads/x.png","ts":1}`)},
			want: "[Matrix] alice sent an image: /uploads/x.png",
		},
		{
			name: "error",
			f:    frame{Type: "error", Error: &proto.Error{Code: "unknown_room", Msg: "unknown room: nope"}},
			want: "! unknown_room: unknown room: nope",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := render(tc.f); got != tc.want {
				t.Fatalf("render() = %q, want %q", got, tc.want)
			}
		})
	}
}
