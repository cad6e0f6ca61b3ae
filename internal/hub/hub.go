package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"seadrift/internal/domain"
)

// AllIncidents subscribes a client to every tracked incident
const AllIncidents = "*"

// Client is one WebSocket connection. Send is closed when the hub drops the
// client; writers must go through TrySend.
type Client struct {
	ID        string
	Send      chan []byte
	incidents map[string]struct{}
	mu        sync.RWMutex

	sendMu sync.Mutex
	closed bool
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{
		ID:        id,
		Send:      make(chan []byte, bufferSize),
		incidents: make(map[string]struct{}),
	}
}

// TrySend queues data without blocking. It reports false when the buffer is
// full or the client has been closed.
func (c *Client) TrySend(data []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

func (c *Client) Follows(incidentID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.incidents[incidentID]
	if !ok {
		_, ok = c.incidents[AllIncidents]
	}
	return ok
}

func (c *Client) add(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		c.incidents[id] = struct{}{}
	}
}

func (c *Client) remove(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.incidents, id)
	}
}

func (c *Client) Subscriptions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.incidents))
	for id := range c.incidents {
		ids = append(ids, id)
	}
	return ids
}

// Hub fans incident deltas out to the WebSocket clients following them.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]struct{}
	subscribers map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []domain.IncidentDelta
	done       chan struct{}

	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:     make(map[*Client]struct{}),
		subscribers: make(map[string]map[*Client]struct{}),
		register:    make(chan *Client, 16),
		unregister:  make(chan *Client, 16),
		broadcast:   make(chan []domain.IncidentDelta, 256),
		done:        make(chan struct{}),
		logger:      logger.With("component", "hub"),
	}
}

// Run owns client registration until ctx is cancelled. Once it returns,
// Register closes the client immediately and Unregister is a no-op.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client registered", "client_id", client.ID, "total", total)

		case client := <-h.unregister:
			h.removeClient(client)

		case deltas := <-h.broadcast:
			h.fanout(deltas)
		}
	}
}

func (h *Hub) Subscribe(client *Client, incidentIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.add(incidentIDs)
	for _, id := range incidentIDs {
		if h.subscribers[id] == nil {
			h.subscribers[id] = make(map[*Client]struct{})
		}
		h.subscribers[id][client] = struct{}{}
	}
}

func (h *Hub) Unsubscribe(client *Client, incidentIDs []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	client.remove(incidentIDs)
	h.dropSubscriptions(client, incidentIDs)
}

// Broadcast queues deltas for delivery. It never blocks; when the queue is
// full the deltas are dropped and clients catch up on the next recompute.
func (h *Hub) Broadcast(deltas []domain.IncidentDelta) {
	if len(deltas) == 0 {
		return
	}
	select {
	case h.broadcast <- deltas:
	default:
		h.logger.Warn("broadcast channel full, dropping deltas", "count", len(deltas))
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case <-h.done:
		client.close()
		return
	default:
	}
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case <-h.done:
		return
	default:
	}
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type DeltaMessage struct {
	Type    string       `json:"type"`
	Payload DeltaPayload `json:"payload"`
}

type DeltaPayload struct {
	Updates []*domain.TrackedIncident `json:"updates,omitempty"`
	Removes []string                  `json:"removes,omitempty"`
}

func (h *Hub) fanout(deltas []domain.IncidentDelta) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	perClient := make(map[*Client][]domain.IncidentDelta)
	for _, d := range deltas {
		seen := make(map[*Client]struct{})
		for _, key := range []string{d.ID, AllIncidents} {
			for client := range h.subscribers[key] {
				if _, dup := seen[client]; dup {
					continue
				}
				seen[client] = struct{}{}
				perClient[client] = append(perClient[client], d)
			}
		}
	}

	for client, ds := range perClient {
		data, err := json.Marshal(BuildDeltaMessage(ds))
		if err != nil {
			h.logger.Error("marshal delta message", "error", err)
			continue
		}

		if !client.TrySend(data) {
			h.logger.Debug("client send buffer full or closed", "client_id", client.ID)
		}
	}
}

func BuildDeltaMessage(deltas []domain.IncidentDelta) DeltaMessage {
	var payload DeltaPayload
	for _, d := range deltas {
		switch d.Type {
		case domain.DeltaUpdate:
			payload.Updates = append(payload.Updates, d.Incident)
		case domain.DeltaRemove:
			payload.Removes = append(payload.Removes, d.ID)
		}
	}
	return DeltaMessage{Type: "delta", Payload: payload}
}

func (h *Hub) dropSubscriptions(client *Client, ids []string) {
	for _, id := range ids {
		subs := h.subscribers[id]
		if subs == nil {
			continue
		}
		delete(subs, client)
		if len(subs) == 0 {
			delete(h.subscribers, id)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	h.dropSubscriptions(client, client.Subscriptions())
	delete(h.clients, client)
	client.close()
	h.logger.Debug("client unregistered", "client_id", client.ID, "total", len(h.clients))
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.close()
	}
	h.clients = make(map[*Client]struct{})
	h.subscribers = make(map[string]map[*Client]struct{})
}
