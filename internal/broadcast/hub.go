package broadcast

import (
	"log/slog"
	"sync"

	"github.com/mcoot/friendlytable/internal/model"
)

// Message is an encoded frame plus its audience
type Message struct {
	Type     model.EventType
	Data     []byte
	Audience model.Audience
	Origin   model.PlayerID // excluded by AudienceOthers, sole target of AudienceSelf
}

func (m Message) deliversTo(client *Client) bool {
	switch m.Audience {
	case model.AudienceOthers:
		return client.connectionID != m.Origin
	case model.AudienceSelf:
		return client.connectionID == m.Origin
	default:
		return true
	}
}

// Hub manages subscribed clients for a single room
type Hub struct {
	roomID  model.RoomID
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	broadcast chan Message
	done      chan struct{}
	closeOnce sync.Once
}

// NewHub creates a new Hub for a room
func NewHub(roomID model.RoomID, logger *slog.Logger) *Hub {
	return &Hub{
		roomID:    roomID,
		clients:   make(map[*Client]bool),
		logger:    logger.With(slog.String("room", string(roomID))),
		broadcast: make(chan Message, 256),
		done:      make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Debug("hub started")
	for {
		select {
		case message := <-h.broadcast:
			h.deliver(message)

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Debug("hub stopped", slog.Int("detached_clients", clientCount))
			return
		}
	}
}

func (h *Hub) deliver(message Message) {
	h.mu.RLock()
	sentCount := 0
	var lagging []*Client
	for client := range h.clients {
		if !message.deliversTo(client) {
			continue
		}
		if client.Enqueue(message.Data) {
			sentCount++
		} else {
			lagging = append(lagging, client)
		}
	}
	h.mu.RUnlock()

	if len(lagging) == 0 {
		return
	}
	h.logger.Warn("broadcast partial failure",
		slog.String("event", string(message.Type)),
		slog.Int("sent", sentCount),
		slog.Int("dropped", len(lagging)))
	for _, client := range lagging {
		h.disconnectLagging(client, message.Type)
	}
}

// disconnectLagging drops a client that missed a message. Closing its queue
// ends the connection, and the player rejoins with a fresh snapshot.
func (h *Hub) disconnectLagging(client *Client, eventType model.EventType) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()
	client.Close()

	h.logger.Warn("client disconnected - buffer full",
		slog.String("connection_id", string(client.connectionID)),
		slog.String("event", string(eventType)))
}

// Register adds a client to the hub. Returns false once the hub is closed.
func (h *Hub) Register(client *Client) bool {
	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return false
	default:
	}
	h.clients[client] = true
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client subscribed",
		slog.String("connection_id", string(client.connectionID)),
		slog.Int("total_clients", clientCount))
	return true
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	clientCount := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client unsubscribed",
		slog.String("connection_id", string(client.connectionID)),
		slog.Int("total_clients", clientCount))
}

// Broadcast queues a message for every matching client. It waits while the
// hub's queue is full and gives up only once the hub is closed.
func (h *Hub) Broadcast(message Message) {
	select {
	case h.broadcast <- message:
	case <-h.done:
		h.logger.Debug("broadcast to closed hub", slog.String("event", string(message.Type)))
	}
}

// Close shuts down the hub
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.mu.Lock()
		close(h.done)
		h.mu.Unlock()
	})
}

// ClientCount returns the number of subscribed clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HubManager manages hubs for all rooms
type HubManager struct {
	hubs   map[model.RoomID]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[model.RoomID]*Hub),
		logger: logger.With(slog.String("component", "broadcast")),
	}
}

// GetOrCreateHub returns the hub for a room, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(roomID model.RoomID) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(roomID)
}

func (m *HubManager) getOrCreateLocked(roomID model.RoomID) *Hub {
	if hub, ok := m.hubs[roomID]; ok {
		return hub
	}

	hub := NewHub(roomID, m.logger)
	m.hubs[roomID] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a room, or nil if it doesn't exist
func (m *HubManager) GetHub(roomID model.RoomID) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[roomID]
}

// Subscribe registers client with the room's hub, creating the hub if needed
func (m *HubManager) Subscribe(roomID model.RoomID, client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getOrCreateLocked(roomID).Register(client)
}

// Unsubscribe removes client from the room's hub, if the hub still exists
func (m *HubManager) Unsubscribe(roomID model.RoomID, client *Client) {
	if hub := m.GetHub(roomID); hub != nil {
		hub.Unregister(client)
	}
}

// Deliver hands an encoded message to the room's local hub
func (m *HubManager) Deliver(roomID model.RoomID, message Message) {
	if hub := m.GetHub(roomID); hub != nil {
		hub.Broadcast(message)
	}
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(roomID model.RoomID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[roomID]; ok {
		hub.Close()
		delete(m.hubs, roomID)
		m.logger.Info("hub removed", slog.String("room", string(roomID)))
	}
}

// CleanupEmptyHubs removes hubs with no clients
func (m *HubManager) CleanupEmptyHubs() {
	m.mu.Lock()
	defer m.mu.Unlock()

	removedCount := 0
	for id, hub := range m.hubs {
		if hub.ClientCount() == 0 {
			hub.Close()
			delete(m.hubs, id)
			removedCount++
		}
	}
	if removedCount > 0 {
		m.logger.Info("empty hubs cleaned up", slog.Int("removed", removedCount))
	}
}

// HubCount returns the number of live hubs
func (m *HubManager) HubCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.hubs)
}

// Close shuts down every hub
func (m *HubManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, hub := range m.hubs {
		hub.Close()
		delete(m.hubs, id)
	}
}
