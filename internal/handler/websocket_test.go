package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"seadrift/internal/domain"
	"seadrift/internal/hub"
	"seadrift/internal/store"
)

func readMessage(t *testing.T, ctx context.Context, conn *websocket.Conn, dest any) {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
}

func TestWebSocket_SnapshotAndDelta(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := store.New(0)
	if _, err := s.Add(&domain.TrackedIncident{Incident: domain.Incident{ID: "mob-1"}, Mode: domain.ModeMarine}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	h := hub.NewHub(discardLogger())
	go h.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(NewWSHandler(h, s, discardLogger()).ServeWS))
	defer srv.Close()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	sub := `{"type":"subscribe","payload":{"incidentIds":["mob-1","missing"]}}`
	if err := conn.Write(ctx, websocket.MessageText, []byte(sub)); err != nil {
		t.Fatalf("write: %v", err)
	}

	var snap SnapshotMessage
	readMessage(t, ctx, conn, &snap)
	if snap.Type != "snapshot" || len(snap.Payload.Incidents) != 1 || snap.Payload.Incidents[0].Incident.ID != "mob-1" {
		t.Fatalf("snapshot=%+v", snap)
	}

	delta, err := s.Remove("mob-1")
	if err != nil {
		t.Fatalf("Remove: %v", err)
	}
	h.Broadcast([]domain.IncidentDelta{delta})

	var msg hub.DeltaMessage
	readMessage(t, ctx, conn, &msg)
	if msg.Type != "delta" || len(msg.Payload.Removes) != 1 || msg.Payload.Removes[0] != "mob-1" {
		t.Fatalf("delta=%+v", msg)
	}

	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"ping"}`)); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var pong PongMessage
	readMessage(t, ctx, conn, &pong)
	if pong.Type != "pong" {
		t.Fatalf("pong=%+v", pong)
	}
}

func TestWebSocket_SendAfterHubStops(t *testing.T) {
	h := hub.NewHub(discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := hub.NewClient("c", 1)
	h.Register(c)
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done

	ws := NewWSHandler(h, store.New(0), discardLogger())
	ws.send(c, PongMessage{Type: "pong"})
	ws.sendSnapshot(c, []string{hub.AllIncidents})

	if _, ok := <-c.Send; ok {
		t.Fatal("send channel still open after hub stopped")
	}
}
