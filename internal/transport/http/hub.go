package http

import (
	"encoding/json"
	"log/slog"
	"sync"

	"quiz-duel-service/internal/domain"
)

// sendBuffer bounds how far a client may fall behind before it is dropped.
const sendBuffer = 64

type client struct {
	id   string
	send chan []byte
}

// Hub fans engine events out to websocket connections. It implements app.Notifier.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	clients map[string]*client
	groups  map[string]map[string]struct{} // session id -> connection ids
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		logger:  logger,
		clients: make(map[string]*client),
		groups:  make(map[string]map[string]struct{}),
	}
}

func (h *Hub) register(id string) *client {
	c := &client{id: id, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()
	return c
}

// unregister drops the connection from the hub and every group, closing its send queue.
func (h *Hub) unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(id)
}

func (h *Hub) dropLocked(id string) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	close(c.send)
	for sessionID, members := range h.groups {
		delete(members, id)
		if len(members) == 0 {
			delete(h.groups, sessionID)
		}
	}
}

func (h *Hub) AddToGroup(sessionID, connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[connectionID]; !ok {
		return
	}
	members, ok := h.groups[sessionID]
	if !ok {
		members = make(map[string]struct{})
		h.groups[sessionID] = members
	}
	members[connectionID] = struct{}{}
}

func (h *Hub) Broadcast(sessionID string, event domain.Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.groups[sessionID] {
		h.deliverLocked(id, data)
	}
}

func (h *Hub) Send(connectionID string, event domain.Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliverLocked(connectionID, data)
}

// deliverLocked queues data without blocking; a client whose queue is full is dropped.
func (h *Hub) deliverLocked(id string, data []byte) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.Warn("ws client too slow, dropping", "conn", id)
		h.dropLocked(id)
	}
}

func (h *Hub) encode(event domain.Event) ([]byte, bool) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("encode event failed", "type", event.Type, "err", err)
		return nil, false
	}
	return data, true
}

// GroupSize reports how many live connections follow a session.
func (h *Hub) GroupSize(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.groups[sessionID])
}
