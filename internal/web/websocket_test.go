package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialWS(t *testing.T, h *harness) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(h.url, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, m *WSManager, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.ClientCount() == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d websocket clients, got %d", n, m.ClientCount())
}

func readFrame(t *testing.T, conn *websocket.Conn) WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read websocket frame: %v", err)
	}
	return msg
}

func TestWebSocketOverviewDeliveredToEveryone(t *testing.T) {
	h := newHarness(t, ModeDashboard, nil)

	conn := dialWS(t, h)
	waitForClients(t, h.srv.wsManager, 1)

	// No subscription needed for the overview topic.
	h.srv.wsManager.Publish("overview", map[string]float64{"clients": 42})

	msg := readFrame(t, conn)
	if msg.Topic != "overview" {
		t.Fatalf("expected overview topic, got %q", msg.Topic)
	}
	data, ok := msg.Data.(map[string]any)
	if !ok {
		t.Fatalf("unexpected data shape: %T", msg.Data)
	}
	if data["clients"] != float64(42) {
		t.Errorf("expected 42 clients, got %v", data["clients"])
	}
}

func TestWebSocketTopicSubscription(t *testing.T) {
	h := newHarness(t, ModeDashboard, nil)

	conn := dialWS(t, h)
	waitForClients(t, h.srv.wsManager, 1)

	sub := map[string]any{"action": "subscribe", "topics": []string{"series"}}
	if err := conn.WriteJSON(sub); err != nil {
		t.Fatalf("send subscribe: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !h.srv.wsManager.hasSubscribers("series") {
		if time.Now().After(deadline) {
			t.Fatal("subscribe envelope never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.srv.wsManager.Publish("series", map[string][]float64{"clients": {1, 2, 3}})

	msg := readFrame(t, conn)
	if msg.Topic != "series" {
		t.Fatalf("expected series topic, got %q", msg.Topic)
	}
}

func TestWebSocketUnsubscribedTopicFiltered(t *testing.T) {
	h := newHarness(t, ModeDashboard, nil)

	conn := dialWS(t, h)
	waitForClients(t, h.srv.wsManager, 1)

	// The series frame must be dropped for a client that never
	// subscribed; the next frame it sees is the overview.
	h.srv.wsManager.Publish("series", []float64{1, 2, 3})
	h.srv.wsManager.Publish("overview", map[string]float64{"clients": 7})

	msg := readFrame(t, conn)
	if msg.Topic != "overview" {
		t.Errorf("expected the series frame filtered out, got topic %q", msg.Topic)
	}
}

func TestWebSocketManagerClose(t *testing.T) {
	h := newHarness(t, ModeDashboard, nil)

	conn := dialWS(t, h)
	waitForClients(t, h.srv.wsManager, 1)

	h.srv.wsManager.Close()
	h.srv.wsManager.Close() // idempotent

	// The server closes the connection; the read unblocks with an error.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection closed after manager shutdown")
	}

	// Publishing into a closed manager must not panic.
	h.srv.wsManager.Publish("overview", map[string]float64{"clients": 1})
}

func TestWebSocketRequiresManager(t *testing.T) {
	s := &Server{}
	rec := httptest.NewRecorder()

	s.handleWS(rec, httptest.NewRequest(http.MethodGet, "/api/ws", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", rec.Code)
	}
}

func TestWebSocketCheckOrigin(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{name: "no origin", origin: "", host: "example.com", want: true},
		{name: "localhost", origin: "http://localhost:3000", host: "example.com", want: true},
		{name: "loopback", origin: "http://127.0.0.1:8080", host: "example.com", want: true},
		{name: "same origin http", origin: "http://example.com", host: "example.com", want: true},
		{name: "same origin https", origin: "https://example.com", host: "example.com", want: true},
		{name: "cross origin", origin: "https://evil.test", host: "example.com", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
			req.Host = tt.host
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if got := upgrader.CheckOrigin(req); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
