package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// mockServer creates a test WebSocket server.
func mockServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer conn.Close()
		handler(conn)
	}))
}

func testConfig(url string) Config {
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.Path = "/ws/leaderboard"
	cfg.ReconnectionDelay = 10 * time.Millisecond
	cfg.ReconnectionDelayMax = 20 * time.Millisecond
	cfg.Timeout = 2 * time.Second
	return cfg
}

func waitEvent(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-ch:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", want)
		}
	}
}

func keepOpen(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func TestClient_ConnectAndClose(t *testing.T) {
	server := mockServer(t, keepOpen)
	defer server.Close()

	events := make(chan string, 16)
	client := NewClient(testConfig(server.URL), nil)
	client.On(EventConnect, func(json.RawMessage) { events <- EventConnect })

	client.Open()
	waitEvent(t, events, EventConnect)

	if !client.IsConnected() {
		t.Error("expected IsConnected to return true")
	}
	if client.State() != StateConnected {
		t.Errorf("State = %q, want %q", client.State(), StateConnected)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if client.IsConnected() {
		t.Error("expected IsConnected to return false after Close")
	}
	if err := client.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestClient_DataEvents(t *testing.T) {
	server := mockServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"new_solve","data":{"user":"alice"}}`))
		keepOpen(conn)
	})
	defer server.Close()

	got := make(chan json.RawMessage, 1)
	client := NewClient(testConfig(server.URL), nil)
	client.On("new_solve", func(data json.RawMessage) { got <- data })

	client.Open()
	defer client.Close()

	select {
	case data := <-got:
		var solve struct {
			User string `json:"user"`
		}
		if err := json.Unmarshal(data, &solve); err != nil {
			t.Fatalf("unmarshal event data: %v", err)
		}
		if solve.User != "alice" {
			t.Errorf("user = %q, want alice", solve.User)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for new_solve event")
	}
}

func TestClient_MalformedFramesDropped(t *testing.T) {
	server := mockServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"data":{"no":"event"}}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"new_solve","data":1}`))
		keepOpen(conn)
	})
	defer server.Close()

	got := make(chan json.RawMessage, 4)
	client := NewClient(testConfig(server.URL), nil)
	client.On("new_solve", func(data json.RawMessage) { got <- data })

	client.Open()
	defer client.Close()

	select {
	case data := <-got:
		if string(data) != "1" {
			t.Errorf("data = %s, want 1", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the well-formed frame")
	}
}

func TestClient_Reconnect(t *testing.T) {
	var dials atomic.Int32
	server := mockServer(t, func(conn *websocket.Conn) {
		if dials.Add(1) == 1 {
			return // drop the first session immediately
		}
		keepOpen(conn)
	})
	defer server.Close()

	events := make(chan string, 32)
	client := NewClient(testConfig(server.URL), nil)
	for _, ev := range []string{EventConnect, EventDisconnect, EventReconnectAttempt, EventReconnect} {
		ev := ev
		client.On(ev, func(json.RawMessage) { events <- ev })
	}

	client.Open()
	defer client.Close()

	waitEvent(t, events, EventConnect)
	waitEvent(t, events, EventDisconnect)
	waitEvent(t, events, EventReconnectAttempt)
	waitEvent(t, events, EventReconnect)
	waitEvent(t, events, EventConnect)

	if got := dials.Load(); got != 2 {
		t.Errorf("dial count = %d, want 2", got)
	}
}

func TestClient_ReconnectFailed(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1") // nothing listens here
	cfg.ReconnectionAttempts = 2
	cfg.Timeout = 200 * time.Millisecond

	events := make(chan string, 32)
	client := NewClient(cfg, nil)
	client.On(EventConnectError, func(json.RawMessage) { events <- EventConnectError })
	client.On(EventReconnectFailed, func(json.RawMessage) { events <- EventReconnectFailed })

	client.Open()
	defer client.Close()

	waitEvent(t, events, EventConnectError)
	waitEvent(t, events, EventReconnectFailed)

	if client.IsConnected() {
		t.Error("expected IsConnected to return false after exhaustion")
	}
}

func TestClient_NoWebSocketTransport(t *testing.T) {
	server := mockServer(t, keepOpen)
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Transports = []string{"polling"}

	errs := make(chan json.RawMessage, 1)
	client := NewClient(cfg, nil)
	client.On(EventConnectError, func(data json.RawMessage) { errs <- data })

	client.Open()
	defer client.Close()

	select {
	case data := <-errs:
		var msg string
		json.Unmarshal(data, &msg)
		if msg != ErrNoWebSocket.Error() {
			t.Errorf("connect_error = %q, want %q", msg, ErrNoWebSocket.Error())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connect_error")
	}

	if client.IsConnected() {
		t.Error("expected no connection without a usable transport")
	}
}

func TestClient_AuthHandshake(t *testing.T) {
	var gotAuth, gotQuery atomic.Value
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		gotQuery.Store(r.URL.Query().Get("token"))
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		keepOpen(conn)
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.Auth = map[string]string{"token": "tok-123"}

	events := make(chan string, 4)
	client := NewClient(cfg, nil)
	client.On(EventConnect, func(json.RawMessage) { events <- EventConnect })

	client.Open()
	defer client.Close()

	waitEvent(t, events, EventConnect)

	if got := gotAuth.Load(); got != "Bearer tok-123" {
		t.Errorf("Authorization = %v, want Bearer tok-123", got)
	}
	if got := gotQuery.Load(); got != "tok-123" {
		t.Errorf("token query = %v, want tok-123", got)
	}
}

func TestClient_Off(t *testing.T) {
	release := make(chan struct{})
	server := mockServer(t, func(conn *websocket.Conn) {
		<-release
		conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"user_rank_change","data":{}}`))
		keepOpen(conn)
	})
	defer server.Close()

	events := make(chan string, 4)
	got := make(chan struct{}, 1)
	client := NewClient(testConfig(server.URL), nil)
	client.On(EventConnect, func(json.RawMessage) { events <- EventConnect })
	client.On("user_rank_change", func(json.RawMessage) { got <- struct{}{} })

	client.Open()
	defer client.Close()

	waitEvent(t, events, EventConnect)
	client.Off("user_rank_change")
	close(release)

	select {
	case <-got:
		t.Error("handler invoked after Off")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestClient_Send(t *testing.T) {
	received := make(chan []byte, 1)
	server := mockServer(t, func(conn *websocket.Conn) {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- msg
		}
	})
	defer server.Close()

	events := make(chan string, 4)
	client := NewClient(testConfig(server.URL), nil)
	client.On(EventConnect, func(json.RawMessage) { events <- EventConnect })

	if err := client.Send("ping", nil); err != ErrNotConnected {
		t.Errorf("Send before connect = %v, want ErrNotConnected", err)
	}

	client.Open()
	defer client.Close()
	waitEvent(t, events, EventConnect)

	if err := client.Send("request_refresh", map[string]string{"difficulty": "beginner"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case msg := <-received:
		var f frame
		if err := json.Unmarshal(msg, &f); err != nil {
			t.Fatalf("unmarshal sent frame: %v", err)
		}
		if f.Event != "request_refresh" {
			t.Errorf("event = %q, want request_refresh", f.Event)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for sent frame")
	}
}
