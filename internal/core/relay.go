package core

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

// RelayOptions tunes message relay validation.
type RelayOptions struct {
	// RequireMembership rejects messages to a room the sender has not joined.
	RequireMembership bool
	// MaxTextLength bounds text payloads in runes. Zero disables the check.
	MaxTextLength int
}

// Relay republishes client-submitted chat messages into their target room.
// By default a connection may message any catalog room, joined or not.
type Relay struct {
	rooms *Registry
	dir   *Directory
	bus   *Dispatcher
	opts  RelayOptions
	log   *zerolog.Logger
	now   func() time.Time
}

// NewRelay creates a message relay. logger may be nil.
func NewRelay(rooms *Registry, dir *Directory, bus *Dispatcher, opts RelayOptions, logger *zerolog.Logger) *Relay {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Relay{
		rooms: rooms,
		dir:   dir,
		bus:   bus,
		opts:  opts,
		log:   logger,
		now:   time.Now,
	}
}

// Relay validates and publishes a text or image message from conn to room.
// For images payload is the URL of an already stored asset.
func (r *Relay) Relay(conn ConnID, room string, kind MessageKind, payload string) (PublishResult, error) {
	identity, err := r.dir.IdentityOf(conn)
	if err != nil {
		return PublishResult{}, err
	}
	return r.publish(conn, identity, room, kind, payload)
}

// RelayAs publishes on behalf of an identity that has no live connection,
// as the upload endpoint does for images posted over HTTP.
func (r *Relay) RelayAs(identity, room string, kind MessageKind, payload string) (PublishResult, error) {
	if identity == "" {
		return PublishResult{}, unbound("")
	}
	if r.opts.RequireMembership && r.dir.CountInRoom(identity, room, "") == 0 {
		return PublishResult{}, coreError(ErrCodeNotInRoom, identity+" is not in room "+room, ErrNotInRoom)
	}
	return r.publish("", identity, room, kind, payload)
}

func (r *Relay) publish(conn ConnID, identity, room string, kind MessageKind, payload string) (PublishResult, error) {
	if !kind.Valid() {
		return PublishResult{}, coreError(ErrCodeBadRequest, "unknown message type "+strconv.Quote(string(kind)), ErrBadRequest)
	}
	if strings.TrimSpace(payload) == "" {
		return PublishResult{}, coreError(ErrCodeBadRequest, "message is empty", ErrBadRequest)
	}
	if kind == MessageText && r.opts.MaxTextLength > 0 && utf8.RuneCountInString(payload) > r.opts.MaxTextLength {
		return PublishResult{}, coreError(ErrCodeBadRequest, "message is too long", ErrBadRequest)
	}
	if !r.rooms.Has(room) {
		return PublishResult{}, unknownRoom(room)
	}
	if conn != "" && r.opts.RequireMembership {
		cur, err := r.dir.CurrentRoom(conn)
		if err != nil {
			return PublishResult{}, err
		}
		if cur != room {
			return PublishResult{}, coreError(ErrCodeNotInRoom, "not in room "+room, ErrNotInRoom)
		}
	}

	chat := ChatEvent{
		Room:   room,
		User:   identity,
		Kind:   kind,
		SentAt: r.now(),
	}
	if kind == MessageImage {
		chat.URL = payload
	} else {
		chat.Text = payload
	}

	res := r.bus.Publish(room, &Event{Kind: EventNewMessage, Room: room, Chat: chat})
	r.log.Debug().
		Str("room", room).
		Str("identity", identity).
		Str("type", string(kind)).
		Int("delivered", res.Delivered).
		Msg("message relayed")
	return res, nil
}
