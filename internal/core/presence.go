package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// Presence moves connections between rooms and announces the changes.
//
// Every operation on a connection holds that connection's lock, and every
// membership change holds the room's lock across mutate, snapshot and publish,
// so two interleaved operations can never broadcast a stale roster. A
// disconnect marks the connection closed under its lock; a join that was
// waiting behind it fails instead of resurrecting the membership.
type Presence struct {
	rooms *Registry
	dir   *Directory
	bus   *Dispatcher
	log   *zerolog.Logger

	mu   sync.RWMutex
	subs map[ConnID]Subscriber
}

// NewPresence wires a presence manager. logger may be nil.
func NewPresence(rooms *Registry, dir *Directory, bus *Dispatcher, logger *zerolog.Logger) *Presence {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Presence{
		rooms: rooms,
		dir:   dir,
		bus:   bus,
		log:   logger,
		subs:  make(map[ConnID]Subscriber),
	}
}

// Connect authenticates a connection: it binds sub's connection to identity
// and remembers sub for later room subscriptions.
func (p *Presence) Connect(identity string, sub Subscriber) error {
	if err := p.dir.Bind(sub.ID(), identity); err != nil {
		return err
	}

	p.mu.Lock()
	p.subs[sub.ID()] = sub
	p.mu.Unlock()

	p.log.Debug().Str("conn_id", string(sub.ID())).Str("identity", identity).Msg("connection bound")
	return nil
}

// Join moves conn into room, leaving its previous room first.
func (p *Presence) Join(conn ConnID, room string) error {
	s, err := p.acquire(conn, "join")
	if err != nil {
		return err
	}
	defer s.op.Unlock()

	if !p.rooms.Has(room) {
		return unknownRoom(room)
	}

	prev, err := p.dir.CurrentRoom(conn)
	if err != nil {
		return invalidState("join on unbound connection", err)
	}
	if prev != "" && prev != room {
		if err := p.leaveLocked(conn, s.identity, prev, "left the room."); err != nil {
			return err
		}
	}

	release, err := p.rooms.Lock(room)
	if err != nil {
		return err
	}
	defer release()

	present := p.dir.CountInRoom(s.identity, room, conn) > 0
	users, err := p.rooms.AddMember(room, s.identity)
	if err != nil {
		return err
	}
	if err := p.dir.SetCurrentRoom(conn, room); err != nil {
		return err
	}
	if sub := p.subscriber(conn); sub != nil {
		p.bus.Subscribe(room, sub)
	}

	p.bus.Publish(room, rosterEvent(room, users))
	if prev != room && !present {
		p.bus.Publish(room, statusEvent(room, s.identity+" entered the room."))
	}

	p.log.Debug().Str("conn_id", string(conn)).Str("identity", s.identity).Str("room", room).Msg("joined room")
	return nil
}

// Leave removes conn from room. conn must currently be in room.
func (p *Presence) Leave(conn ConnID, room string) error {
	s, err := p.acquire(conn, "leave")
	if err != nil {
		return err
	}
	defer s.op.Unlock()

	if !p.rooms.Has(room) {
		return unknownRoom(room)
	}

	cur, err := p.dir.CurrentRoom(conn)
	if err != nil {
		return invalidState("leave on unbound connection", err)
	}
	if cur != room {
		return invalidState("connection is not in room "+room, ErrNotInRoom)
	}

	if err := p.leaveLocked(conn, s.identity, room, "left the room."); err != nil {
		return err
	}

	p.log.Debug().Str("conn_id", string(conn)).Str("identity", s.identity).Str("room", room).Msg("left room")
	return nil
}

// Disconnect is terminal: it cleans up the connection's current room and unbinds it.
func (p *Presence) Disconnect(conn ConnID) error {
	s, err := p.acquire(conn, "disconnect")
	if err != nil {
		return err
	}
	defer s.op.Unlock()

	s.closed = true

	cur, err := p.dir.CurrentRoom(conn)
	if err == nil && cur != "" {
		if leaveErr := p.leaveLocked(conn, s.identity, cur, "disconnected."); leaveErr != nil {
			p.log.Warn().Err(leaveErr).Str("conn_id", string(conn)).Str("room", cur).Msg("disconnect cleanup failed")
		}
	}

	p.bus.UnsubscribeAll(conn)
	p.dir.Unbind(conn)

	p.mu.Lock()
	delete(p.subs, conn)
	p.mu.Unlock()

	p.log.Debug().Str("conn_id", string(conn)).Str("identity", s.identity).Str("room", cur).Msg("connection disconnected")
	return nil
}

// leaveLocked removes conn from room and announces it. The caller holds the connection lock.
// The identity stays on the roster while another connection of the same identity is in the room.
func (p *Presence) leaveLocked(conn ConnID, identity, room, verb string) error {
	release, err := p.rooms.Lock(room)
	if err != nil {
		return err
	}
	defer release()

	if err := p.dir.ClearCurrentRoom(conn); err != nil {
		return err
	}
	p.bus.Unsubscribe(room, conn)

	var users []string
	gone := p.dir.CountInRoom(identity, room, conn) == 0
	if gone {
		users, err = p.rooms.RemoveMember(room, identity)
	} else {
		users, err = p.rooms.Members(room)
	}
	if err != nil {
		return err
	}

	p.bus.Publish(room, rosterEvent(room, users))
	if gone {
		p.bus.Publish(room, statusEvent(room, identity+" "+verb))
	}
	return nil
}

// acquire locks the connection's session and checks it is still live.
func (p *Presence) acquire(conn ConnID, op string) (*session, error) {
	s, err := p.dir.lookup(conn)
	if err != nil {
		return nil, invalidState(op+" on unbound connection", err)
	}

	s.op.Lock()
	if s.closed {
		s.op.Unlock()
		return nil, invalidState(op+" on disconnected connection", nil)
	}
	return s, nil
}

func (p *Presence) subscriber(conn ConnID) Subscriber {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.subs[conn]
}
