// Package websocket pushes progress events (import loop, batch corrections)
// to connected dashboard pages. Subscribers are anonymous listeners; nothing
// meaningful flows upstream.
package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Event is the envelope every progress message travels in.
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// Hub maintains the set of active subscribers and broadcasts events to them.
type Hub struct {
	// Registered subscribers map: subscriber ID -> Client
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			log.Printf("🔌 Progress subscriber connected: %s", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
				log.Printf("🔌 Progress subscriber disconnected: %s", client.id)
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends an event to every connected subscriber. A subscriber whose
// buffer is full is skipped, never blocked on.
func (h *Hub) Broadcast(event string, payload interface{}) {
	msg, err := json.Marshal(Event{Event: event, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling progress event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.send <- msg:
		default:
			// Buffer full or client dead
		}
	}
}

// SubscriberCount reports how many pages are listening.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
