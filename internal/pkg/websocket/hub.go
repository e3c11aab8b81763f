// Package websocket provides real-time delivery of group messages.
package websocket

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"
)

// Hub maintains the set of active clients and fans group payloads out to them
type Hub struct {
	// Registered clients organized by message group ID
	clients map[int64]map[*Client]bool

	// Outbound payloads to deliver to a group's clients
	broadcast chan *outbound

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Mutex for concurrent access to clients map
	mu sync.RWMutex

	// Logger for Hub operations
	logger zerolog.Logger
}

type outbound struct {
	groupID int64
	data    []byte
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan *outbound, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[int64]map[*Client]bool),
		logger:     logger,
	}
}

// Run starts the hub, handling client registrations and broadcasts
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

// BroadcastToGroup sends a payload to all connected clients in a message
// group. Marshalling happens here so callers can hand over any JSON value.
func (h *Hub) BroadcastToGroup(groupID int64, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error().
			Err(err).
			Int64("groupID", groupID).
			Msg("Failed to marshal payload for broadcast")
		return
	}

	select {
	case h.broadcast <- &outbound{groupID: groupID, data: data}:
	default:
		// Broadcast buffer full. Dropping is acceptable, clients re-sync
		// over the REST message list.
		h.logger.Warn().
			Int64("groupID", groupID).
			Msg("Broadcast buffer full, payload dropped")
	}
}

// registerClient registers a new client to the hub
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	groupID := client.groupID
	if _, ok := h.clients[groupID]; !ok {
		h.clients[groupID] = make(map[*Client]bool)
	}
	h.clients[groupID][client] = true

	h.logger.Info().
		Int64("groupID", groupID).
		Int64("userID", client.userID).
		Str("addr", client.conn.RemoteAddr().String()).
		Msg("Client registered")
}

// unregisterClient unregisters a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	groupID := client.groupID
	if _, ok := h.clients[groupID]; ok {
		if _, ok := h.clients[groupID][client]; ok {
			delete(h.clients[groupID], client)
			close(client.send)

			// If no more clients in this group, clean up
			if len(h.clients[groupID]) == 0 {
				delete(h.clients, groupID)
			}

			h.logger.Info().
				Int64("groupID", groupID).
				Int64("userID", client.userID).
				Msg("Client unregistered")
		}
	}
}

// deliver writes a payload to every client connected to the group
func (h *Hub) deliver(message *outbound) {
	h.mu.RLock()
	clients, ok := h.clients[message.groupID]
	if !ok {
		h.mu.RUnlock()
		h.logger.Debug().
			Int64("groupID", message.groupID).
			Msg("No clients in group for broadcast")
		return
	}

	var slow []*Client
	for client := range clients {
		select {
		case client.send <- message.data:
		default:
			// Client's send buffer is full, they might be slow or
			// disconnected. Drop them.
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.unregisterClient(client)
		client.conn.Close()
	}

	h.logger.Debug().
		Int64("groupID", message.groupID).
		Int("clientCount", len(clients)).
		Msg("Payload broadcast to group")
}

// GetClientsCount returns the number of connected clients for a group
func (h *Hub) GetClientsCount(groupID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if clients, ok := h.clients[groupID]; ok {
		return len(clients)
	}
	return 0
}
