package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/auth"
	"github.com/vovakirdan/roomchat-server/internal/catalog"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/proto"
	"github.com/vovakirdan/roomchat-server/internal/store"
	"github.com/vovakirdan/roomchat-server/internal/store/sqlite"
	"github.com/vovakirdan/roomchat-server/internal/upload"
)

const testSecret = "test-secret"

// createTestStore creates an in-memory SQLite store with schema applied.
func createTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewWithSetup(":memory:", sqlite.Migrate)
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// createTestAuthService creates an auth service for testing.
func createTestAuthService(t *testing.T, st store.Store, jwtSecret string) *auth.Service {
	t.Helper()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(jwtSecret),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}

	return auth.NewService(st, jwtConfig)
}

type testEnv struct {
	ts      *httptest.Server
	hub     *core.Hub
	auth    *auth.Service
	uploads *upload.Store
	cfg     config.Config
}

// startTestServer runs the full router against the two-room test catalog.
func startTestServer(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.JWTSecret = testSecret
	cfg.RateLimitPerSecond = 0
	cfg.Rooms = catalog.Catalog{{
		Title: "Test",
		Groups: []catalog.Group{{
			Title: "All",
			Rooms: []catalog.Room{{Name: "general", Image: "/img/general.png"}, {Name: "random"}},
		}},
	}}
	if mutate != nil {
		mutate(&cfg)
	}

	disabledLogger := zerolog.Nop()
	hub := core.NewHub(cfg.CoreOptions(), &disabledLogger)
	authService := createTestAuthService(t, createTestStore(t), testSecret)
	uploads, err := upload.New(t.TempDir(), cfg.MaxUploadBytes)
	if err != nil {
		t.Fatalf("upload store: %v", err)
	}

	server := NewServer(hub, authService, uploads, &cfg, &disabledLogger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, hub: hub, auth: authService, uploads: uploads, cfg: cfg}
}

func (e *testEnv) register(t *testing.T, username string) string {
	t.Helper()
	token, err := e.auth.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return token
}

func (e *testEnv) dial(t *testing.T, ctx context.Context) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(e.ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, typ string, data any) {
	t.Helper()

	payload, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s: %v", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

// wireFrame mirrors proto.Outbound with the payload left raw.
type wireFrame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Room  string          `json:"room"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func read(t *testing.T, ctx context.Context, conn *websocket.Conn) wireFrame {
	t.Helper()

	var f wireFrame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

// readEvent skips frames until one with the given event name arrives.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) wireFrame {
	t.Helper()

	for {
		f := read(t, ctx, conn)
		if f.Type == proto.OutboundTypeEvent && f.Event == event {
			return f
		}
	}
}

func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Error {
	t.Helper()

	for {
		f := read(t, ctx, conn)
		if f.Type == proto.OutboundTypeError {
			if f.Error == nil {
				t.Fatalf("error frame without error body")
			}
			return *f.Error
		}
	}
}

// hello authenticates conn with a registered user's token and waits for ready.
func (e *testEnv) hello(t *testing.T, ctx context.Context, conn *websocket.Conn, username string) {
	t.Helper()

	send(t, ctx, conn, proto.InboundTypeHello, proto.HelloData{Token: e.register(t, username)})
	readEvent(t, ctx, conn, proto.EventReady)
}

func decodeData[T any](t *testing.T, f wireFrame) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(f.Data, &v); err != nil {
		t.Fatalf("decode %s data %s: %v", f.Event, f.Data, err)
	}
	return v
}
