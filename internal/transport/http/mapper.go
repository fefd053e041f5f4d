package http

import (
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventUserList:
		users := event.Users
		if users == nil {
			users = []string{}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: event.Kind.String(),
			Room:  event.Room,
			Data:  users,
		}
	case core.EventStatus:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: event.Kind.String(),
			Room:  event.Room,
			Data:  proto.StatusData{Msg: event.Status},
		}
	case core.EventNewMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: event.Kind.String(),
			Room:  event.Room,
			Data: proto.NewMessageData{
				User: event.Chat.User,
				Type: string(event.Chat.Kind),
				Msg:  event.Chat.Text,
				URL:  event.Chat.URL,
				TS:   event.Chat.SentAt.Unix(),
			},
		}
	case core.EventError:
		if event.Error == nil {
			return errorOutbound("unknown", "unknown error")
		}
		return errorOutbound(event.Error.Code, event.Error.Message)
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func errorOutbound(code, msg string) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Error: &proto.Error{Code: code, Msg: msg},
	}
}

func readyOutbound(identity string) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: proto.EventReady,
		Data:  proto.ReadyData{User: identity, Protocol: proto.ProtocolVersion},
	}
}

func messageKind(t string) core.MessageKind {
	if t == "" {
		return core.MessageText
	}
	return core.MessageKind(t)
}
