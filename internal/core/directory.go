package core

import (
	"sync"

	"github.com/google/uuid"
)

// ConnID is an opaque handle for one live transport session.
type ConnID string

// NewConnID returns a fresh connection handle.
func NewConnID() ConnID {
	return ConnID(uuid.NewString())
}

// session is the directory's view of a bound connection.
type session struct {
	// op serialises presence operations of this connection.
	op       sync.Mutex
	closed   bool
	identity string
	room     string
}

// Directory maps connections to the identity operating them and the room
// they last joined.
type Directory struct {
	mu       sync.RWMutex
	sessions map[ConnID]*session
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{sessions: make(map[ConnID]*session)}
}

// Bind associates conn with identity. Binding the same identity again is a no-op.
func (d *Directory) Bind(conn ConnID, identity string) error {
	if identity == "" {
		return coreError(ErrCodeBadRequest, "identity is required", ErrBadRequest)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if s, ok := d.sessions[conn]; ok {
		if s.identity != identity {
			return coreError(ErrCodeAlreadyBound, "connection already bound to "+s.identity, ErrAlreadyBound)
		}
		return nil
	}
	d.sessions[conn] = &session{identity: identity}
	return nil
}

// IdentityOf resolves the identity bound to conn.
func (d *Directory) IdentityOf(conn ConnID) (string, error) {
	s, err := d.lookup(conn)
	if err != nil {
		return "", err
	}
	return s.identity, nil
}

// CurrentRoom returns the room conn last joined, or "" when it is in none.
func (d *Directory) CurrentRoom(conn ConnID) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.sessions[conn]
	if !ok {
		return "", unbound(conn)
	}
	return s.room, nil
}

// SetCurrentRoom records room as the connection's current room.
func (d *Directory) SetCurrentRoom(conn ConnID, room string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.sessions[conn]
	if !ok {
		return unbound(conn)
	}
	s.room = room
	return nil
}

// ClearCurrentRoom forgets the connection's current room.
func (d *Directory) ClearCurrentRoom(conn ConnID) error {
	return d.SetCurrentRoom(conn, "")
}

// CountInRoom counts live connections other than except that are operated by
// identity and currently in room.
func (d *Directory) CountInRoom(identity, room string, except ConnID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := 0
	for id, s := range d.sessions {
		if id != except && s.identity == identity && s.room == room {
			n++
		}
	}
	return n
}

// Unbind removes all state for conn.
func (d *Directory) Unbind(conn ConnID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.sessions, conn)
}

// Len returns the number of bound connections.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

func (d *Directory) lookup(conn ConnID) (*session, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.sessions[conn]
	if !ok {
		return nil, unbound(conn)
	}
	return s, nil
}

func unbound(conn ConnID) *Error {
	return coreError(ErrCodeUnboundConnection, "connection "+string(conn)+" is not bound", ErrUnboundConnection)
}
