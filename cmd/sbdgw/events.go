package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// eventMessage is the JSON shape streamed to every connected WebSocket
// client, one line per driver event.
type eventMessage struct {
	Type     string `json:"type"`
	Message  string `json:"message,omitempty"`
	Payload  []byte `json:"payload,omitempty"`
	MTQueued int    `json:"mt_queued,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// This gateway is meant to sit behind a trusted reverse proxy that
	// handles origin checking; it accepts every upgrade request itself.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// eventHub fans driver events out to every currently connected WebSocket
// client. Slow or disconnected clients are dropped rather than allowed to
// back-pressure event delivery to the rest.
type eventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan eventMessage
}

func newEventHub() *eventHub {
	return &eventHub{clients: make(map[*websocket.Conn]chan eventMessage)}
}

func (h *eventHub) broadcast(msg eventMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- msg:
		default:
			delete(h.clients, conn)
			close(ch)
			conn.Close()
		}
	}
}

func (h *eventHub) serveWS(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("websocket upgrade failed", "error", err)
		return
	}

	ch := make(chan eventMessage, 32)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// Drain and discard inbound frames so the connection's read pump
	// notices client-initiated close and pongs promptly.
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				conn.Close()
				return
			}
		}
	}()

	for msg := range ch {
		data, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}
