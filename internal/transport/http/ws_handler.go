package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/roomchat-server/internal/auth"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
)

const errCodeUnsupportedVersion = "unsupported_version"

// closeError ends a connection with a specific websocket status.
type closeError struct {
	status websocket.StatusCode
	reason string
}

func (e *closeError) Error() string { return e.reason }

// WSHandler upgrades HTTP connections and bridges them to the chat core.
type WSHandler struct {
	hub  *core.Hub
	auth *auth.Service
	cfg  *config.Config
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub *core.Hub, authService *auth.Service, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, auth: authService, cfg: cfg, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, acceptOptions(h.cfg.AllowedOrigins))
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	if h.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxMessageBytes)
	}

	out := h.hub.NewOutbox()
	c := &wsConn{
		h:       h,
		conn:    conn,
		out:     out,
		limiter: newRateLimiter(h.cfg.RateLimitPerSecond, h.cfg.RateLimitBurst),
		log:     h.log.With().Str("conn_id", string(out.ID())).Logger(),
	}
	c.log.Debug().Str("remote", r.RemoteAddr).Msg("ws connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- c.readLoop(ctx)
	}()
	go func() {
		errCh <- c.writeLoop(ctx)
	}()

	// The first loop to stop decides the close status. Presence is released and
	// the close frame sent while the other loop still runs: cancelling a blocked
	// read tears the socket down without a close frame.
	err = <-errCh
	c.release()
	status, reason := c.closeStatus(err)
	_ = conn.Close(status, reason)
	cancel()
	<-errCh

	// A hello racing the shutdown may have bound the connection again.
	c.release()
	out.Close()
	c.log.Debug().Str("identity", c.identity).Int("status", int(status)).Msg("ws closed")
}

func acceptOptions(origins []string) *websocket.AcceptOptions {
	if len(origins) == 0 || lo.Contains(origins, "*") {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: origins}
}

// wsConn is the per-socket state. identity is only touched by the read loop
// until both loops have returned; the write loop logs by conn_id only.
type wsConn struct {
	h        *WSHandler
	conn     *websocket.Conn
	out      *core.Outbox
	limiter  *rateLimiter
	identity string
	log      zerolog.Logger
}

func (c *wsConn) readLoop(ctx context.Context) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, c.conn, &inbound); err != nil {
			return err
		}
		if err := c.handle(ctx, inbound); err != nil {
			return err
		}
	}
}

func (c *wsConn) writeLoop(ctx context.Context) error {
	for {
		select {
		case event := <-c.out.Events():
			if err := wsjson.Write(ctx, c.conn, outboundFromEvent(event)); err != nil {
				return err
			}
		case <-c.out.Overflowed():
			c.log.Warn().Int("dropped", c.out.Dropped()).Msg("outbound queue overflow")
			return &closeError{status: websocket.StatusTryAgainLater, reason: "outbound queue overflow"}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// handle maps one inbound envelope onto the core. A returned error ends the connection.
func (c *wsConn) handle(ctx context.Context, inbound proto.Inbound) error {
	switch inbound.Type {
	case proto.InboundTypeHello:
		return c.handleHello(ctx, inbound)
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := proto.Decode(inbound.Data, &join); err != nil {
			c.reject(badRequest(err.Error()), "")
			return nil
		}
		return c.presenceResult(c.h.hub.Presence.Join(c.out.ID(), join.Room), join.Room)
	case proto.InboundTypeLeave:
		var leave proto.LeaveData
		if err := proto.Decode(inbound.Data, &leave); err != nil {
			c.reject(badRequest(err.Error()), "")
			return nil
		}
		return c.presenceResult(c.h.hub.Presence.Leave(c.out.ID(), leave.Room), leave.Room)
	case proto.InboundTypeMessage:
		var msg proto.MessageData
		if err := proto.Decode(inbound.Data, &msg); err != nil {
			c.reject(badRequest(err.Error()), "")
			return nil
		}
		if !c.limiter.allow() {
			c.reject(&core.Error{Code: core.ErrCodeRateLimited, Message: "too many messages"}, msg.Room)
			return nil
		}
		if _, err := c.h.hub.Relay.Relay(c.out.ID(), msg.Room, messageKind(msg.Type), msg.Msg); err != nil {
			c.reject(err, msg.Room)
		}
		return nil
	default:
		c.reject(badRequest("unknown message type "+inbound.Type), "")
		return nil
	}
}

func (c *wsConn) handleHello(ctx context.Context, inbound proto.Inbound) error {
	var hello proto.HelloData
	if err := proto.Decode(inbound.Data, &hello); err != nil {
		c.reject(badRequest(err.Error()), "")
		return nil
	}
	if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
		c.reject(&core.Error{Code: errCodeUnsupportedVersion, Message: "unsupported protocol version"}, "")
		return nil
	}

	identity, err := c.authenticate(hello)
	if err != nil {
		c.reject(err, "")
		return nil
	}
	if err := c.h.hub.Presence.Connect(identity, c.out); err != nil {
		c.reject(err, "")
		return nil
	}
	c.identity = identity
	c.log.Info().Str("identity", identity).Msg("ws authenticated")

	return wsjson.Write(ctx, c.conn, readyOutbound(identity))
}

func (c *wsConn) authenticate(hello proto.HelloData) (string, error) {
	if hello.Token != "" {
		if c.h.auth == nil {
			return "", &core.Error{Code: core.ErrCodeUnauthorized, Message: "token authentication unavailable"}
		}
		claims, err := c.h.auth.ValidateToken(hello.Token)
		if err != nil {
			c.log.Debug().Err(err).Msg("invalid ws token")
			return "", &core.Error{Code: core.ErrCodeUnauthorized, Message: "invalid token", Err: err}
		}
		return claims.Username, nil
	}
	if c.h.cfg.JWTRequired {
		return "", &core.Error{Code: core.ErrCodeUnauthorized, Message: "token required"}
	}
	user := strings.TrimSpace(hello.User)
	if user == "" {
		return "", badRequest("user is required")
	}
	return user, nil
}

// release drops whatever presence the connection holds. Unbound connections
// have nothing to release.
func (c *wsConn) release() {
	if err := c.h.hub.Presence.Disconnect(c.out.ID()); err != nil && !errors.Is(err, core.ErrUnboundConnection) {
		c.log.Warn().Err(err).Msg("disconnect cleanup failed")
	}
}

// presenceResult reports a presence failure to the client. An operation on an
// unbound connection is a protocol violation and closes the socket.
func (c *wsConn) presenceResult(err error, room string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrUnboundConnection) {
		c.log.Warn().Str("room", room).Str("code", core.ErrCodeInvalidState).Msg("presence op before hello")
		return &closeError{status: websocket.StatusPolicyViolation, reason: "hello required"}
	}
	c.reject(err, room)
	return nil
}

// reject queues an error frame for this connection only.
func (c *wsConn) reject(err error, room string) {
	ce := core.AsError(err)
	c.log.Warn().
		Str("identity", c.identity).
		Str("room", room).
		Str("code", ce.Code).
		Msg(ce.Message)
	c.out.Deliver(core.ErrorEvent(ce))
}

func (c *wsConn) closeStatus(err error) (websocket.StatusCode, string) {
	var ce *closeError
	if errors.As(err, &ce) {
		return ce.status, ce.reason
	}
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return websocket.StatusNormalClosure, "closing"
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return websocket.StatusNormalClosure, "closing"
	}
	c.log.Warn().Err(err).Msg("ws connection closed with error")
	return websocket.StatusInternalError, "internal error"
}

func badRequest(msg string) *core.Error {
	return &core.Error{Code: core.ErrCodeBadRequest, Message: msg, Err: core.ErrBadRequest}
}
