package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"seadrift/internal/domain"
	"seadrift/internal/hub"
	"seadrift/internal/store"
)

const (
	clientBufferSize = 64
	pingInterval     = 30 * time.Second
	writeTimeout     = 5 * time.Second
)

type WSHandler struct {
	hub    *hub.Hub
	store  *store.Store
	logger *slog.Logger
}

func NewWSHandler(h *hub.Hub, s *store.Store, logger *slog.Logger) *WSHandler {
	return &WSHandler{hub: h, store: s, logger: logger.With("component", "websocket")}
}

type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SubscriptionPayload names the incidents to follow or drop. The id "*"
// follows every tracked incident.
type SubscriptionPayload struct {
	IncidentIDs []string `json:"incidentIds"`
}

type SnapshotMessage struct {
	Type    string          `json:"type"`
	Payload SnapshotPayload `json:"payload"`
}

type SnapshotPayload struct {
	Incidents []*domain.TrackedIncident `json:"incidents"`
}

type PongMessage struct {
	Type string `json:"type"`
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}

	client := hub.NewClient(uuid.New().String(), clientBufferSize)
	h.hub.Register(client)
	ServerStats.IncWSConnections()
	defer ServerStats.DecWSConnections()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go h.writeLoop(ctx, conn, client)

	h.readLoop(ctx, conn, client)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	defer func() {
		h.hub.Unregister(client)
		conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		msgType, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != websocket.StatusNormalClosure {
				h.logger.Debug("websocket read error", "client_id", client.ID, "error", err)
			}
			return
		}
		if msgType != websocket.MessageText {
			continue
		}
		ServerStats.IncWSMessagesIn()

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debug("invalid message format", "client_id", client.ID, "error", err)
			continue
		}

		switch msg.Type {
		case "subscribe":
			var payload SubscriptionPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil || len(payload.IncidentIDs) == 0 {
				continue
			}
			h.hub.Subscribe(client, payload.IncidentIDs)
			h.sendSnapshot(client, payload.IncidentIDs)

		case "unsubscribe":
			var payload SubscriptionPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil || len(payload.IncidentIDs) == 0 {
				continue
			}
			h.hub.Unsubscribe(client, payload.IncidentIDs)

		case "ping":
			h.send(client, PongMessage{Type: "pong"})
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, client *hub.Client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case msg, ok := <-client.Send:
			if !ok {
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Write(writeCtx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
			ServerStats.IncWSMessagesOut()

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) sendSnapshot(client *hub.Client, incidentIDs []string) {
	var incidents []*domain.TrackedIncident
	if slices.Contains(incidentIDs, hub.AllIncidents) {
		incidents = h.store.Snapshot()
	} else {
		incidents = h.store.SnapshotFor(incidentIDs)
	}
	h.send(client, SnapshotMessage{
		Type:    "snapshot",
		Payload: SnapshotPayload{Incidents: incidents},
	})
}

// send never blocks the read loop. A full buffer or a client the hub has
// already dropped loses the message.
func (h *WSHandler) send(client *hub.Client, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if !client.TrySend(data) {
		h.logger.Debug("client buffer full or closed, dropping message", "client_id", client.ID)
	}
}
