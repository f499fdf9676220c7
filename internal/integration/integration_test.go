package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/devaloi/namechat/internal/domain"
	"github.com/devaloi/namechat/internal/hub"
	"github.com/devaloi/namechat/internal/kv"
	"github.com/devaloi/namechat/internal/registry"
	"github.com/devaloi/namechat/internal/server"
	"github.com/devaloi/namechat/internal/wallet"
)

// startServer runs the full HTTP stack over a SQLite database at path.
// The returned stop function shuts everything down and closes the database.
func startServer(t *testing.T, path string) (*httptest.Server, func()) {
	t.Helper()
	storage, err := kv.NewSQLite(path)
	if err != nil {
		t.Fatalf("storage: %v", err)
	}

	s := registry.Open(context.Background(), storage)
	h := hub.New(s, 50, zerolog.Nop())
	go h.Run()

	srv := httptest.NewServer(server.New(h, wallet.Mock{}, zerolog.Nop()).Handler())
	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		srv.Close()
		h.Stop()
		storage.Close()
	}
	t.Cleanup(stop)
	return srv, stop
}

func dialWS(t *testing.T, serverURL, owner string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws?owner=" + owner
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", owner, err)
	}
	return conn
}

func readUntilType(t *testing.T, conn *websocket.Conn, msgType string, maxReads int) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for i := 0; i < maxReads; i++ {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read while looking for %s: %v", msgType, err)
		}
		var msg map[string]any
		json.Unmarshal(data, &msg)
		if msg["type"] == msgType {
			return msg
		}
	}
	t.Fatalf("did not receive %s after %d reads", msgType, maxReads)
	return nil
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func getJSON(t *testing.T, url string, v any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
}

func TestEndToEndChat(t *testing.T) {
	t.Parallel()
	srv, _ := startServer(t, ":memory:")

	alice := dialWS(t, srv.URL, "0xAAA")
	defer alice.Close()
	readUntilType(t, alice, domain.FrameNames, 5)

	bob := dialWS(t, srv.URL, "0xBBBBBBBBBBBBBBBB")
	defer bob.Close()
	readUntilType(t, bob, domain.FrameNames, 5)

	// Alice registers over the socket, Bob over REST.
	alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"register","name":"Alice"}`))
	reg := readUntilType(t, bob, domain.FrameRegistered, 10)
	if reg["name"] != "alice" || reg["owner"] != "0xAAA" {
		t.Errorf("unexpected registered frame %v", reg)
	}

	resp := postJSON(t, srv.URL+"/api/names", `{"owner":"0xBBBBBBBBBBBBBBBB","name":"ALICE"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for taken name, got %d", resp.StatusCode)
	}

	// Bob is unregistered, so his messages show a shortened address.
	resp = postJSON(t, srv.URL+"/api/messages", `{"owner":"0xBBBBBBBBBBBBBBBB","content":" gm "}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	chat := readUntilType(t, alice, domain.FrameChat, 10)
	msg := chat["message"].(map[string]any)
	if msg["content"] != "gm" || msg["display_name"] != "0xBBBB...BBBB" {
		t.Errorf("unexpected chat %v", chat)
	}

	alice.WriteMessage(websocket.TextMessage, []byte(`{"type":"chat","text":"hello bob"}`))
	chat = readUntilType(t, bob, domain.FrameChat, 10)
	msg = chat["message"].(map[string]any)
	if msg["content"] != "hello bob" || msg["display_name"] != "alice" {
		t.Errorf("unexpected chat %v", chat)
	}

	var history []domain.MessageView
	getJSON(t, srv.URL+"/api/messages", &history)
	if len(history) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(history))
	}
	if history[0].ID >= history[1].ID {
		t.Errorf("ids not increasing: %d, %d", history[0].ID, history[1].ID)
	}

	var who domain.WhoisFrame
	getJSON(t, srv.URL+"/api/owners/0xAAA", &who)
	if who.DisplayName != "alice" {
		t.Errorf("expected alice, got %s", who.DisplayName)
	}
}

func TestStateSurvivesRestart(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "namechat.db")

	srv, stop := startServer(t, path)
	postJSON(t, srv.URL+"/api/names", `{"owner":"0xAAA","name":"alice"}`)
	postJSON(t, srv.URL+"/api/messages", `{"owner":"0xAAA","content":"before restart"}`)
	var before []domain.MessageView
	getJSON(t, srv.URL+"/api/messages", &before)
	stop()

	srv, _ = startServer(t, path)
	var names []domain.Registration
	getJSON(t, srv.URL+"/api/names", &names)
	if len(names) != 1 || names[0].Name != "alice" {
		t.Fatalf("names lost on restart: %+v", names)
	}

	conn := dialWS(t, srv.URL, "0xAAA")
	defer conn.Close()
	welcome := readUntilType(t, conn, domain.FrameWelcome, 1)
	if welcome["name"] != "alice" {
		t.Errorf("expected welcome for alice, got %v", welcome)
	}
	history := readUntilType(t, conn, domain.FrameHistory, 1)
	if msgs := history["messages"].([]any); len(msgs) != 1 {
		t.Errorf("expected 1 message in history, got %d", len(msgs))
	}

	postJSON(t, srv.URL+"/api/messages", `{"owner":"0xAAA","content":"after restart"}`)
	var after []domain.MessageView
	getJSON(t, srv.URL+"/api/messages", &after)
	if len(after) != 2 || after[1].ID <= before[0].ID {
		t.Errorf("expected id after %d, got %+v", before[0].ID, after)
	}
}

func TestPresenceOnDisconnect(t *testing.T) {
	t.Parallel()
	srv, _ := startServer(t, ":memory:")

	alice := dialWS(t, srv.URL, "0xAAA")
	defer alice.Close()
	readUntilType(t, alice, domain.FrameNames, 5)

	bob := dialWS(t, srv.URL, "0xBBB")
	presence := readUntilType(t, alice, domain.FramePresence, 10)
	for len(presence["owners"].([]any)) != 2 {
		presence = readUntilType(t, alice, domain.FramePresence, 10)
	}

	bob.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	bob.Close()

	for {
		presence = readUntilType(t, alice, domain.FramePresence, 10)
		owners := presence["owners"].([]any)
		if len(owners) == 1 {
			if owners[0] != "0xAAA" {
				t.Errorf("unexpected owners %v", owners)
			}
			return
		}
	}
}

func TestMockWalletConnection(t *testing.T) {
	t.Parallel()
	srv, _ := startServer(t, ":memory:")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	welcome := readUntilType(t, conn, domain.FrameWelcome, 1)
	owner, _ := welcome["owner"].(string)
	if !strings.HasPrefix(owner, "0x") || len(owner) != 42 {
		t.Errorf("expected generated address, got %q", owner)
	}
}
