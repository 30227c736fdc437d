package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/MikeyVK/stencil/internal/manager"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHub manages WebSocket connections and broadcasts scaffold lifecycle
// events from the manager's event bus.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	events  chan manager.Event
	log     *zap.Logger
}

// NewWSHub creates a hub subscribed to the given event bus.
func NewWSHub(bus *manager.EventBus, log *zap.Logger) *WSHub {
	return &WSHub{
		clients: make(map[*websocket.Conn]bool),
		events:  bus.Subscribe(),
		log:     log,
	}
}

// Run starts the hub's broadcast loop. It returns when the event channel is
// closed.
func (h *WSHub) Run() {
	for evt := range h.events {
		data, err := json.Marshal(evt)
		if err != nil {
			continue
		}

		h.mu.Lock()
		for conn := range h.clients {
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}

// HandleWebSocket upgrades HTTP connections to WebSocket.
func (h *WSHub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Keep the connection open; clients only receive.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
