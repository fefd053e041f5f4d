// Command wschat is an interactive terminal client for manual testing.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/roomchat-server/internal/proto"
)

type options struct {
	server   string
	user     string
	password string
	guest    bool
	room     string
}

func main() {
	if err := newCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "wschat",
		Short:        "Join a room and chat from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.server, "server", "http://localhost:8080", "server base URL")
	flags.StringVar(&opts.user, "user", "cli-user", "username")
	flags.StringVar(&opts.password, "password", "", "password; when set the client logs in for a token")
	flags.BoolVar(&opts.guest, "guest", false, "log in as a guest")
	flags.StringVar(&opts.room, "room", "Matrix", "room to join")
	return cmd
}

func run(ctx context.Context, opts *options, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	hello := proto.HelloData{User: opts.user, Protocol: proto.ProtocolVersion}
	switch {
	case opts.guest:
		token, err := fetchToken(ctx, opts.server+"/api/guest", nil)
		if err != nil {
			return err
		}
		hello = proto.HelloData{Token: token, Protocol: proto.ProtocolVersion}
	case opts.password != "":
		token, err := fetchToken(ctx, opts.server+"/api/login", map[string]string{
			"username": opts.user,
			"password": opts.password,
		})
		if err != nil {
			return err
		}
		hello = proto.HelloData{Token: token, Protocol: proto.ProtocolVersion}
	}

	wsURL := strings.Replace(opts.server, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := sendInbound(ctx, conn, proto.InboundTypeHello, hello); err != nil {
		return err
	}
	if err := sendInbound(ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: opts.room}); err != nil {
		return err
	}

	fmt.Fprintf(out, "Connected to %s, joining %s\n", wsURL, opts.room)
	fmt.Fprintln(out, "Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn, out)
	}()

	writeLoop(ctx, conn, in, opts.room)
	return nil
}

func fetchToken(ctx context.Context, url string, body any) (string, error) {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("marshal credentials: %w", err)
		}
		payload = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.Token == "" {
		return "", fmt.Errorf("login failed (%d): %s", resp.StatusCode, out.Error)
	}
	return out.Token, nil
}

func sendInbound(ctx context.Context, conn *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", typ, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: payload}); err != nil {
		return fmt.Errorf("send %s: %w", typ, err)
	}
	return nil
}

type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Room  string          `json:"room"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func readLoop(ctx context.Context, conn *websocket.Conn, out io.Writer) {
	for {
		var f frame
		if err := wsjson.Read(ctx, conn, &f); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			fmt.Fprintf(out, "read error: %v\n", err)
			return
		}
		fmt.Fprintln(out, render(f))
	}
}

// render formats one server frame as a terminal line.
func render(f frame) string {
	if f.Type == proto.OutboundTypeError && f.Error != nil {
		return fmt.Sprintf("! %s: %s", f.Error.Code, f.Error.Msg)
	}

	switch f.Event {
	case "update_user_list":
		var users []string
		_ = json.Unmarshal(f.Data, &users)
		return fmt.Sprintf("[%s] online: %s", f.Room, strings.Join(users, ", "))
	case "status":
		var st proto.StatusData
		_ = json.Unmarshal(f.Data, &st)
		return fmt.Sprintf("[%s] * %s", f.Room, st.Msg)
	case "new_message":
		var msg proto.NewMessageData
		_ = json.Unmarshal(f.Data, &msg)
		if msg.Type == "image" {
			return fmt.Sprintf("[%s] %s sent an image: %s", f.Room, msg.User, msg.URL)
		}
		return fmt.Sprintf("[%s] %s: %s", f.Room, msg.User, msg.Msg)
	case proto.EventReady:
		var ready proto.ReadyData
		_ = json.Unmarshal(f.Data, &ready)
		return fmt.Sprintf("signed in as %s", ready.User)
	default:
		return fmt.Sprintf("event=%s data=%s", f.Event, f.Data)
	}
}

func writeLoop(ctx context.Context, conn *websocket.Conn, in io.Reader, room string) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				continue
			}
			if err := sendInbound(ctx, conn, proto.InboundTypeMessage, proto.MessageData{Room: room, Msg: text}); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return
			}
		}
	}
}
