package core

import "errors"

// Error codes sent to clients.
const (
	ErrCodeUnknownRoom       = "unknown_room"
	ErrCodeUnboundConnection = "unbound_connection"
	ErrCodeAlreadyBound      = "already_bound"
	ErrCodeInvalidState      = "invalid_state"
	ErrCodeNotInRoom         = "not_in_room"
	ErrCodeBadRequest        = "bad_request"
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeRateLimited       = "rate_limited"
)

var (
	ErrUnknownRoom       = errors.New("unknown room")
	ErrUnboundConnection = errors.New("connection is not bound to an identity")
	ErrAlreadyBound      = errors.New("connection already bound to another identity")
	ErrInvalidState      = errors.New("invalid connection state")
	ErrNotInRoom         = errors.New("not in room")
	ErrBadRequest        = errors.New("bad request")
)

// Error wraps a sentinel with a wire code and human-readable message.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func coreError(code, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

func unknownRoom(room string) *Error {
	return coreError(ErrCodeUnknownRoom, "unknown room: "+room, ErrUnknownRoom)
}

// invalidState reports a presence op on a connection that cannot perform it.
// cause is kept so callers can still match ErrUnboundConnection.
func invalidState(msg string, cause error) *Error {
	return coreError(ErrCodeInvalidState, msg, errors.Join(ErrInvalidState, cause))
}

// AsError extracts a *Error from err, falling back to a bad_request wrapper.
func AsError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) {
		return ce
	}
	return coreError(ErrCodeBadRequest, err.Error(), err)
}
