package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/devaloi/namechat/internal/domain"
	"github.com/devaloi/namechat/internal/hub"
	"github.com/devaloi/namechat/internal/testutil"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func setupTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, _ := testutil.NewStore()
	h := hub.New(s, 50, zerolog.Nop())
	go h.Run()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		owner := r.URL.Query().Get("owner")
		if owner == "" {
			owner = "0xTEST"
		}
		c := New(h, conn, owner, zerolog.Nop())
		go c.ReadPump()
		go c.WritePump()
	}))
	t.Cleanup(func() {
		server.Close()
		h.Stop()
	})
	return server
}

func dialWS(t *testing.T, url, owner string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http") + "?owner=" + owner
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return msg
}

// readUntil reads frames until one of type typ arrives.
func readUntil(t *testing.T, conn *websocket.Conn, typ string) map[string]any {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readMessage(t, conn)
		if msg["type"] == typ {
			return msg
		}
	}
	t.Fatalf("no %q frame received", typ)
	return nil
}

func TestClientGreeting(t *testing.T) {
	t.Parallel()
	server := setupTestServer(t)
	conn := dialWS(t, server.URL, "0xABCDEF1234")

	welcome := readMessage(t, conn)
	if welcome["type"] != domain.FrameWelcome {
		t.Fatalf("expected welcome first, got %v", welcome)
	}
	if welcome["owner"] != "0xABCDEF1234" || welcome["display_name"] != "0xABCD...1234" {
		t.Errorf("unexpected welcome %v", welcome)
	}
	if msg := readMessage(t, conn); msg["type"] != domain.FrameHistory {
		t.Errorf("expected history second, got %v", msg)
	}
	if msg := readMessage(t, conn); msg["type"] != domain.FrameNames {
		t.Errorf("expected names third, got %v", msg)
	}
}

func TestClientRegisterAndChat(t *testing.T) {
	t.Parallel()
	server := setupTestServer(t)
	conn := dialWS(t, server.URL, "0xAAA")

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"register","name":"  Alice "}`))
	reg := readUntil(t, conn, domain.FrameRegistered)
	if reg["name"] != "alice" || reg["owner"] != "0xAAA" {
		t.Errorf("unexpected registered frame %v", reg)
	}

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat","text":" hello "}`))
	chat := readUntil(t, conn, domain.FrameChat)
	msg := chat["message"].(map[string]any)
	if msg["content"] != "hello" || msg["display_name"] != "alice" {
		t.Errorf("unexpected chat frame %v", chat)
	}
}

func TestClientBroadcast(t *testing.T) {
	t.Parallel()
	server := setupTestServer(t)

	alice := dialWS(t, server.URL, "0xAAA")
	readUntil(t, alice, domain.FrameNames)
	bob := dialWS(t, server.URL, "0xBBB")
	readUntil(t, bob, domain.FrameNames)

	alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat","text":"hi everyone"}`))

	chat := readUntil(t, bob, domain.FrameChat)
	msg := chat["message"].(map[string]any)
	if msg["content"] != "hi everyone" || msg["author"] != "0xAAA" {
		t.Errorf("bob got unexpected chat %v", chat)
	}
}

func TestClientWhois(t *testing.T) {
	t.Parallel()
	server := setupTestServer(t)
	conn := dialWS(t, server.URL, "0xAAA")

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"register","name":"alice"}`))
	readUntil(t, conn, domain.FrameRegistered)

	conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"whois"}`))
	who := readUntil(t, conn, domain.FrameWhois)
	if who["owner"] != "0xAAA" || who["display_name"] != "alice" {
		t.Errorf("unexpected whois %v", who)
	}
}

func TestClientErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		code    string
	}{
		{"invalid json", "not json", "invalid_json"},
		{"unknown type", `{"type":"dance"}`, "unknown_type"},
		{"empty name", `{"type":"register","name":"   "}`, "empty_name"},
		{"empty content", `{"type":"chat","text":"\t\n"}`, "empty_content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			server := setupTestServer(t)
			conn := dialWS(t, server.URL, "0xAAA")

			conn.WriteMessage(websocket.TextMessage, []byte(tt.payload))
			msg := readUntil(t, conn, domain.FrameError)
			if msg["code"] != tt.code {
				t.Errorf("expected code %s, got %v", tt.code, msg)
			}
		})
	}
}

func TestClientNameTaken(t *testing.T) {
	t.Parallel()
	server := setupTestServer(t)

	alice := dialWS(t, server.URL, "0xAAA")
	alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"register","name":"bob"}`))
	readUntil(t, alice, domain.FrameRegistered)

	bob := dialWS(t, server.URL, "0xBBB")
	bob.WriteMessage(websocket.TextMessage, []byte(`{"type":"register","name":"BOB"}`))
	msg := readUntil(t, bob, domain.FrameError)
	if msg["code"] != "name_taken" {
		t.Errorf("expected name_taken, got %v", msg)
	}
}
