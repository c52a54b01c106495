package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub maintains the set of connected clients and delivers session events to
// one or all of them. It implements the coordinator's Broadcaster capability.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  *zap.Logger
	mirror  *EventMirror // optional; nil when Redis is not configured
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewHub creates a hub. mirror may be nil.
func NewHub(logger *zap.Logger, mirror *EventMirror) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger,
		mirror:  mirror,
	}
}

// Register adds a client to the session.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client connected", zap.String("client_id", c.ID), zap.Int("connected", count))
}

// Unregister removes a client; no-op if it already left.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	count := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", zap.String("client_id", c.ID), zap.Int("connected", count))
}

// BroadcastAll sends an event to every connected client and, when a mirror is
// configured, publishes it for external consumers.
func (h *Hub) BroadcastAll(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal broadcast payload", zap.String("event", event), zap.Error(err))
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	for _, c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
	h.mu.RUnlock()

	if h.mirror != nil {
		h.mirror.Publish(event, data)
	}
}

// Unicast sends an event to a single client; no-op if the connection is gone.
func (h *Hub) Unicast(connectionID, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal unicast payload", zap.String("event", event), zap.Error(err))
		return
	}
	h.mu.RLock()
	c, ok := h.clients[connectionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	select {
	case c.send <- WSMessage{Event: event, Data: data}:
	default:
	}
}

// CloseConnection force-disconnects a client. Messages already queued (such
// as a kick notice) are flushed before the socket closes.
func (h *Hub) CloseConnection(connectionID string) {
	h.mu.Lock()
	c, ok := h.clients[connectionID]
	delete(h.clients, connectionID)
	h.mu.Unlock()
	if !ok {
		return
	}
	c.shutdown()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
