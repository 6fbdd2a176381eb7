// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sink

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/relabs-tech/orientation_fusion/internal/gps"
	"github.com/relabs-tech/orientation_fusion/internal/orientation"
)

const (
	clientSendBuffer = 16
	writeWait        = 2 * time.Second
)

// Message is what browsers receive over the websocket.
type Message struct {
	Type    string            `json:"type"` // orientation, gps
	Pose    *orientation.Pose `json:"pose,omitempty"`
	Degrees *orientation.Pose `json:"degrees,omitempty"`
	Fix     *gps.Fix          `json:"fix,omitempty"`
}

// Hub broadcasts orientation updates and GPS fixes to websocket clients.
// Slow clients lose messages instead of slowing the broadcaster.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*hubClient]struct{}
	latest  map[string][]byte
	closed  bool
}

type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

var _ orientation.Sink = (*Hub)(nil)

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // local network UI
			},
		},
		clients: make(map[*hubClient]struct{}),
		latest:  make(map[string][]byte),
	}
}

// ServeHTTP upgrades the request and streams messages until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("hub: websocket upgrade error: %v", err)
		return
	}

	c := &hubClient{conn: conn, send: make(chan []byte, clientSendBuffer)}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	// New clients start with the most recent state.
	for _, msg := range h.latest {
		c.send <- msg
	}
	h.mu.Unlock()

	go c.writeLoop()

	// The browser never sends anything meaningful; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("hub: websocket error: %v", err)
			}
			break
		}
	}
	h.remove(c)
}

func (c *hubClient) writeLoop() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// PushOrientation broadcasts p.
func (h *Hub) PushOrientation(p orientation.Pose) {
	d := p.Degrees()
	h.Broadcast(Message{Type: "orientation", Pose: &p, Degrees: &d})
}

// PushFix broadcasts f.
func (h *Hub) PushFix(f gps.Fix) {
	h.Broadcast(Message{Type: "gps", Fix: &f})
}

// Broadcast encodes msg once and queues it for every client.
func (h *Hub) Broadcast(msg Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("hub: json marshal error: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.latest[msg.Type] = payload
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			// Client is behind; it will catch up with the next message.
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	return nil
}
