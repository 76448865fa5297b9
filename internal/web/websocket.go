package web

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/packetintransit/meraki/internal/metrics"
	"github.com/packetintransit/meraki/internal/stats"
)

// broadcastInterval paces the periodic topic pushes.
const broadcastInterval = 2 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same-origin policy for upgrades; localhost is allowed so a dev
	// frontend can proxy to the server.
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if strings.Contains(origin, "://localhost:") || strings.Contains(origin, "://127.0.0.1:") {
			return true
		}
		host := r.Host
		if strings.HasPrefix(origin, "http://") {
			return origin[len("http://"):] == host
		}
		if strings.HasPrefix(origin, "https://") {
			return origin[len("https://"):] == host
		}
		return false
	},
}

// WSMessage is one topic frame sent to clients.
type WSMessage struct {
	Topic string `json:"topic"`
	Data  any    `json:"data"`
}

// wsClient is one connected websocket with its subscriptions.
type wsClient struct {
	conn   *websocket.Conn
	topics map[string]bool
	send   chan []byte
}

// WSManager fans live samples out to websocket clients with
// topic-based pub/sub. The overview topic is delivered to everyone;
// the series topic needs an explicit subscribe.
type WSManager struct {
	clients    map[*wsClient]bool
	register   chan *wsClient
	unregister chan *wsClient
	mutex      sync.RWMutex

	collector *stats.Collector
	stop      chan struct{}
	closeOnce sync.Once
}

// NewWSManager starts the fan-out loops. collector may be nil, in
// which case only explicit Publish calls produce frames.
func NewWSManager(collector *stats.Collector) *WSManager {
	m := &WSManager{
		clients:    make(map[*wsClient]bool),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		collector:  collector,
		stop:       make(chan struct{}),
	}
	go m.run()
	go m.broadcastLoop()
	return m
}

func (m *WSManager) run() {
	for {
		select {
		case client := <-m.register:
			m.mutex.Lock()
			m.clients[client] = true
			metrics.Get().WSClients.Set(float64(len(m.clients)))
			m.mutex.Unlock()
		case client := <-m.unregister:
			m.mutex.Lock()
			if _, ok := m.clients[client]; ok {
				delete(m.clients, client)
				close(client.send)
				client.conn.Close()
			}
			metrics.Get().WSClients.Set(float64(len(m.clients)))
			m.mutex.Unlock()
		case <-m.stop:
			m.mutex.Lock()
			for client := range m.clients {
				delete(m.clients, client)
				close(client.send)
				client.conn.Close()
			}
			metrics.Get().WSClients.Set(0)
			m.mutex.Unlock()
			return
		}
	}
}

// Close tears down all connections and stops the loops.
func (m *WSManager) Close() {
	m.closeOnce.Do(func() { close(m.stop) })
}

// Publish sends a message to all clients subscribed to the topic. The
// overview topic goes to every client.
func (m *WSManager) Publish(topic string, data any) {
	msg := WSMessage{Topic: topic, Data: data}
	msgBytes, err := json.Marshal(msg)
	if err != nil {
		return
	}
	metrics.Get().WSMessages.WithLabelValues(topic).Inc()

	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for client := range m.clients {
		if topic == "overview" || client.topics[topic] {
			select {
			case client.send <- msgBytes:
			default:
				// Client buffer full, skip
			}
		}
	}
}

// ClientCount returns the number of connected clients.
func (m *WSManager) ClientCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.clients)
}

func (m *WSManager) hasSubscribers(topic string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for client := range m.clients {
		if client.topics[topic] {
			return true
		}
	}
	return false
}

// broadcastLoop pushes the latest gauges on an interval.
func (m *WSManager) broadcastLoop() {
	ticker := time.NewTicker(broadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.collector == nil {
				continue
			}
			m.mutex.RLock()
			empty := len(m.clients) == 0
			m.mutex.RUnlock()
			if empty {
				continue
			}

			m.Publish("overview", map[string]float64{
				"clients": m.collector.Last(stats.SeriesClients),
				"sent":    m.collector.Last(stats.SeriesSent),
				"recv":    m.collector.Last(stats.SeriesRecv),
			})

			// Full series are heavier; only on request.
			if m.hasSubscribers("series") {
				m.Publish("series", m.collector.All())
			}
		case <-m.stop:
			return
		}
	}
}

// readPump consumes subscribe/unsubscribe envelopes from a client.
func (c *wsClient) readPump(m *WSManager) {
	defer func() {
		select {
		case m.unregister <- c:
		case <-m.stop:
			c.conn.Close()
		}
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg struct {
			Action string   `json:"action"`
			Topics []string `json:"topics"`
		}
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		// Topic sets are read by Publish under the manager lock.
		switch msg.Action {
		case "subscribe":
			m.mutex.Lock()
			for _, topic := range msg.Topics {
				c.topics[topic] = true
			}
			m.mutex.Unlock()
		case "unsubscribe":
			m.mutex.Lock()
			for _, topic := range msg.Topics {
				delete(c.topics, topic)
			}
			m.mutex.Unlock()
		}
	}
}

// writePump drains the send channel to the connection.
func (c *wsClient) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			break
		}
	}
}

// handleWS upgrades the connection and registers the client.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if s.wsManager == nil {
		WriteError(w, http.StatusServiceUnavailable, "Websockets not enabled")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade", "error", err)
		return
	}

	client := &wsClient{
		conn:   conn,
		topics: make(map[string]bool),
		send:   make(chan []byte, 256),
	}

	select {
	case s.wsManager.register <- client:
	case <-s.wsManager.stop:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(s.wsManager)
}
