// Package websocket provides the WebSocket gateway that pushes board
// changes to subscribed clients in real time.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/cardwall/cardwall/internal/common/logger"
	ws "github.com/cardwall/cardwall/pkg/ws"
)

// Hub manages all WebSocket client connections
type Hub struct {
	// All registered clients
	clients map[*Client]bool

	// Clients subscribed to specific boards
	boardSubscribers map[string]map[*Client]bool

	// Channels for client management
	register   chan *Client
	unregister chan *Client

	// Channel for broadcasting notifications to every client
	broadcast chan *ws.Message

	// Message dispatcher
	dispatcher *ws.Dispatcher

	mu     sync.RWMutex
	logger *logger.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(dispatcher *ws.Dispatcher, log *logger.Logger) *Hub {
	return &Hub{
		clients:          make(map[*Client]bool),
		boardSubscribers: make(map[string]map[*Client]bool),
		register:         make(chan *Client),
		unregister:       make(chan *Client),
		broadcast:        make(chan *ws.Message, 256),
		dispatcher:       dispatcher,
		logger:           log.WithFields(zap.String("component", "ws_hub")),
	}
}

// Run starts the hub's main processing loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	defer h.logger.Info("WebSocket hub stopped")

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("Client registered", zap.String("client_id", client.ID))

		case client := <-h.unregister:
			h.removeClient(client)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)
		}
	}
}

// closeAllClients closes all client connections
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.boardSubscribers = make(map[string]map[*Client]bool)
}

// removeClient removes a client from the hub and all its board subscriptions
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)

		for boardID := range client.subscriptions {
			if clients, ok := h.boardSubscribers[boardID]; ok {
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.boardSubscribers, boardID)
				}
			}
		}
	}
	h.logger.Debug("Client unregistered", zap.String("client_id", client.ID))
}

// broadcastMessage sends a message to every connected client
func (h *Hub) broadcastMessage(msg *ws.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			// Client buffer full, will be cleaned up by write pump
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends a notification to all connected clients
func (h *Hub) Broadcast(msg *ws.Message) {
	h.broadcast <- msg
}

// BroadcastToBoard sends a notification to clients subscribed to a board
func (h *Hub) BroadcastToBoard(boardID string, msg *ws.Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal message", zap.Error(err))
		return
	}

	// Copy the subscriber set under the lock; Subscribe/Unsubscribe mutate
	// the map concurrently.
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.boardSubscribers[boardID]))
	for client := range h.boardSubscribers[boardID] {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.send <- data:
		default:
			// Buffer full
		}
	}
}

// SubscribeToBoard subscribes a client to board notifications
func (h *Hub) SubscribeToBoard(client *Client, boardID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.boardSubscribers[boardID]; !ok {
		h.boardSubscribers[boardID] = make(map[*Client]bool)
	}
	h.boardSubscribers[boardID][client] = true
	client.subscriptions[boardID] = true

	h.logger.Debug("Client subscribed to board",
		zap.String("client_id", client.ID),
		zap.String("board_id", boardID))
}

// UnsubscribeFromBoard unsubscribes a client from board notifications
func (h *Hub) UnsubscribeFromBoard(client *Client, boardID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(client.subscriptions, boardID)
	if clients, ok := h.boardSubscribers[boardID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.boardSubscribers, boardID)
		}
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetDispatcher returns the message dispatcher
func (h *Hub) GetDispatcher() *ws.Dispatcher {
	return h.dispatcher
}
