package server

import (
	"context"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Hub manages WebSocket clients. It is the notification peer of the web UI.
type Hub struct {
	clients    map[*websocket.Conn]bool
	mu         sync.Mutex
	broadcast  chan Message
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan Message, 16),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Println("[WS] Client connected.")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
				log.Println("[WS] Client disconnected.")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if err := client.WriteJSON(message); err != nil {
					log.Printf("[WS] Broadcast error: %v", err)
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// add registers a client. It returns false once the hub stopped.
func (h *Hub) add(conn *websocket.Conn) bool {
	select {
	case h.register <- conn:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(conn *websocket.Conn) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// writeTo sends msg to a single client without racing the broadcasts.
func (h *Hub) writeTo(conn *websocket.Conn, msg Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return conn.WriteJSON(msg)
}

// Broadcast sends a message to all connected clients. The message is dropped
// when the hub is backlogged.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("[WS] Broadcast backlog full, dropping %s message", msg.Type)
	}
}

// Name implements core.Peer.
func (h *Hub) Name() string {
	return "websocket"
}

// Connected implements core.Peer.
func (h *Hub) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

// Send implements core.Peer.
func (h *Hub) Send(text string) error {
	h.Broadcast(NewMessage(MsgNotify, strings.TrimSuffix(text, "\n")))
	return nil
}
