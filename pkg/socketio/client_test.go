package socketio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// testServer speaks just enough Engine.IO v4 / Socket.IO v5 for the client.
type testServer struct {
	srv      *httptest.Server
	reject   string
	greeting string
	conns    chan *websocket.Conn
	received chan string
}

func newTestServer(t *testing.T, reject string) *testServer {
	t.Helper()
	return startTestServer(t, &testServer{reject: reject})
}

// startTestServer serves ts. A non-empty greeting is sent before the connect ack.
func startTestServer(t *testing.T, ts *testServer) *testServer {
	t.Helper()
	ts.conns = make(chan *websocket.Conn, 8)
	ts.received = make(chan string, 64)
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	ts.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/socket.io/" || r.URL.Query().Get("EIO") != "4" {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		open := `0{"sid":"engine-1","upgrades":[],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(open)); err != nil {
			return
		}
		_, msg, err := conn.ReadMessage()
		if err != nil || string(msg) != "40" {
			return
		}
		if ts.greeting != "" {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(ts.greeting)); err != nil {
				return
			}
		}
		if ts.reject != "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`44{"message":"`+ts.reject+`"}`))
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`40{"sid":"sock-1"}`)); err != nil {
			return
		}
		ts.conns <- conn
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ts.received <- string(msg)
		}
	}))
	t.Cleanup(ts.srv.Close)
	return ts
}

func (ts *testServer) nextConn(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case c := <-ts.conns:
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("no connection accepted")
		return nil
	}
}

func (ts *testServer) nextFrame(t *testing.T) string {
	t.Helper()
	select {
	case f := <-ts.received:
		return f
	case <-time.After(2 * time.Second):
		t.Fatalf("no frame received")
		return ""
	}
}

type recorder struct {
	connects    chan string
	errors      chan error
	disconnects chan string
	events      chan string
	failed      chan struct{}
}

func newRecorder() *recorder {
	return &recorder{
		connects:    make(chan string, 8),
		errors:      make(chan error, 8),
		disconnects: make(chan string, 8),
		events:      make(chan string, 8),
		failed:      make(chan struct{}, 1),
	}
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnConnect:      func(sid string) { r.connects <- sid },
		OnConnectError: func(err error) { r.errors <- err },
		OnDisconnect:   func(reason string) { r.disconnects <- reason },
		OnEvent: func(event string, data json.RawMessage) {
			r.events <- event + " " + string(data)
		},
		OnReconnectFailed: func() { r.failed <- struct{}{} },
	}
}

func receive[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func TestBuildEndpoint(t *testing.T) {
	tests := map[string]string{
		"http://localhost:5000":      "ws://localhost:5000/socket.io/?EIO=4&transport=websocket",
		"https://example.com/":       "wss://example.com/socket.io/?EIO=4&transport=websocket",
		"ws://10.0.0.1:5000/ignored": "ws://10.0.0.1:5000/socket.io/?EIO=4&transport=websocket",
	}
	for in, want := range tests {
		got, err := buildEndpoint(in, "/socket.io")
		if err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if got != want {
			t.Fatalf("%s: got %s, want %s", in, got, want)
		}
	}
	if _, err := buildEndpoint("ftp://host", "/socket.io/"); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestClientConnectEmitAndReceive(t *testing.T) {
	ts := newTestServer(t, "")
	c, err := NewClient(ts.srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close()

	rec := newRecorder()
	c.Connect(context.Background(), rec.handlers())

	if sid := receive(t, rec.connects, "connect"); sid != "sock-1" {
		t.Fatalf("sid = %q", sid)
	}
	if c.ID() != "sock-1" {
		t.Fatalf("ID() = %q", c.ID())
	}
	conn := ts.nextConn(t)

	if err := c.Emit("subscribe", map[string]any{"type": "risk_alerts", "params": map[string]any{}}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if f := ts.nextFrame(t); f != `42["subscribe",{"params":{},"type":"risk_alerts"}]` {
		t.Fatalf("frame = %s", f)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`2`)); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if f := ts.nextFrame(t); f != "3" {
		t.Fatalf("expected pong, got %s", f)
	}

	if err := conn.WriteMessage(websocket.TextMessage, []byte(`42["risk_alert",{"alert":{"id":7}}]`)); err != nil {
		t.Fatalf("write event: %v", err)
	}
	if ev := receive(t, rec.events, "event"); ev != `risk_alert {"alert":{"id":7}}` {
		t.Fatalf("event = %s", ev)
	}
}

func TestClientDeliversEventsSentBeforeConnectAck(t *testing.T) {
	ts := startTestServer(t, &testServer{greeting: `42["connected",{"client_id":"x"}]`})
	c, err := NewClient(ts.srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close()

	rec := newRecorder()
	c.Connect(context.Background(), rec.handlers())

	if sid := receive(t, rec.connects, "connect"); sid != "sock-1" {
		t.Fatalf("sid = %q", sid)
	}
	if ev := receive(t, rec.events, "greeting"); ev != `connected {"client_id":"x"}` {
		t.Fatalf("event = %s", ev)
	}
}

func TestClientConnectErrorGivesUp(t *testing.T) {
	ts := newTestServer(t, "unauthorized")
	c, err := NewClient(ts.srv.URL, WithReconnection(false, 0, 0, 0, 0))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close()

	rec := newRecorder()
	c.Connect(context.Background(), rec.handlers())

	err = receive(t, rec.errors, "connect error")
	if !strings.Contains(err.Error(), "unauthorized") {
		t.Fatalf("error = %v", err)
	}
	receive(t, rec.failed, "reconnect failed")
	if err := c.Emit("ping"); err != ErrNotConnected {
		t.Fatalf("emit error = %v", err)
	}
}

func TestClientRetriesUntilBudgetExhausted(t *testing.T) {
	ts := newTestServer(t, "denied")
	c, err := NewClient(ts.srv.URL, WithReconnection(true, 2, time.Millisecond, 2*time.Millisecond, 0))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close()

	rec := newRecorder()
	c.Connect(context.Background(), rec.handlers())

	for i := 0; i < 3; i++ {
		receive(t, rec.errors, "connect error")
	}
	receive(t, rec.failed, "reconnect failed")
}

func TestClientReconnectsAfterServerDisconnect(t *testing.T) {
	ts := newTestServer(t, "")
	c, err := NewClient(ts.srv.URL, WithReconnection(true, 3, time.Millisecond, 5*time.Millisecond, 0))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer c.Close()

	rec := newRecorder()
	c.Connect(context.Background(), rec.handlers())
	receive(t, rec.connects, "first connect")
	conn := ts.nextConn(t)

	if err := conn.WriteMessage(websocket.TextMessage, []byte("41")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if reason := receive(t, rec.disconnects, "disconnect"); reason != ReasonServerDisconnect {
		t.Fatalf("reason = %q", reason)
	}
	receive(t, rec.connects, "second connect")
}

func TestClientCloseSilencesSession(t *testing.T) {
	ts := newTestServer(t, "")
	c, err := NewClient(ts.srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	rec := newRecorder()
	c.Connect(context.Background(), rec.handlers())
	receive(t, rec.connects, "connect")
	ts.nextConn(t)

	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if f := ts.nextFrame(t); f != "41" {
		t.Fatalf("expected disconnect frame, got %s", f)
	}
	select {
	case reason := <-rec.disconnects:
		t.Fatalf("unexpected disconnect callback %q", reason)
	case <-time.After(100 * time.Millisecond):
	}
	if err := c.Emit("ping"); err != ErrNotConnected {
		t.Fatalf("emit after close = %v", err)
	}
	if c.ID() != "" {
		t.Fatalf("ID after close = %q", c.ID())
	}
}
