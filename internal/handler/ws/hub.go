package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"LunarPulse/internal/domain/models"
	applogger "LunarPulse/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Hub fans emitted signals out to connected WebSocket clients. It implements
// the signal sink so the pipeline can treat it like any other backend.
type Hub struct {
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	upgrader  websocket.Upgrader
	l         *applogger.Logger
}

func NewHub(l *applogger.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		l: l,
	}
}

// ServeWS upgrades the request and holds the connection until the client
// goes away. Incoming messages are discarded; the read loop only exists to
// detect disconnects and answer pings.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.l.Warn("websocket upgrade failed", applogger.Error(err))
		return
	}

	h.register(conn)
	defer func() {
		h.unregister(conn)
		_ = conn.Close()
	}()

	_ = conn.WriteJSON(map[string]interface{}{
		"type":      "connection_init",
		"status":    "connected",
		"timestamp": time.Now().UnixMilli(),
	})

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) register(conn *websocket.Conn) {
	h.clientsMu.Lock()
	h.clients[conn] = true
	n := len(h.clients)
	h.clientsMu.Unlock()
	h.l.Info("websocket client connected", applogger.Int("clients", n))
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.clientsMu.Lock()
	delete(h.clients, conn)
	n := len(h.clients)
	h.clientsMu.Unlock()
	h.l.Info("websocket client disconnected", applogger.Int("clients", n))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

// Publish broadcasts a signal record to every connected client. A client
// whose write fails is dropped; broadcast delivery is best effort.
func (h *Hub) Publish(_ context.Context, rec *models.SignalRecord) error {
	msg := map[string]interface{}{
		"type":      "signal",
		"symbol":    rec.Symbol,
		"strategy":  rec.Strategy,
		"side":      rec.Side,
		"signal":    rec.Signal,
		"payload":   rec.Payload,
		"timestamp": rec.ProducedAt.UnixMilli(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for client := range h.clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			h.l.Warn("websocket write failed", applogger.Error(err))
			_ = client.Close()
			delete(h.clients, client)
		}
	}
	return nil
}

// Close drops every client connection.
func (h *Hub) Close() error {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for client := range h.clients {
		_ = client.Close()
	}
	h.clients = make(map[*websocket.Conn]bool)
	return nil
}
