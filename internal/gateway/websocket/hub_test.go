package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/cardwall/cardwall/internal/common/logger"
	ws "github.com/cardwall/cardwall/pkg/ws"
)

func newTestHub(t *testing.T) (*Hub, *logger.Logger) {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json", OutputPath: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewHub(ws.NewDispatcher(), log), log
}

func recvFrame(t *testing.T, c *Client) *ws.Message {
	t.Helper()
	select {
	case data := <-c.send:
		var msg ws.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return &msg
	default:
		t.Fatal("no frame queued")
		return nil
	}
}

func TestHub_BroadcastToBoard(t *testing.T) {
	hub, log := newTestHub(t)

	c1 := NewClient("c1", "u1", nil, hub, log)
	c2 := NewClient("c2", "u2", nil, hub, log)
	c3 := NewClient("c3", "u3", nil, hub, log)
	hub.SubscribeToBoard(c1, "board-1")
	hub.SubscribeToBoard(c2, "board-1")
	hub.SubscribeToBoard(c3, "board-2")

	msg, err := ws.NewNotification(ws.ActionTaskMoved, map[string]interface{}{"task_id": "t1"})
	if err != nil {
		t.Fatalf("notification: %v", err)
	}
	hub.BroadcastToBoard("board-1", msg)

	for _, c := range []*Client{c1, c2} {
		got := recvFrame(t, c)
		if got.Action != ws.ActionTaskMoved {
			t.Errorf("client %s: expected %s, got %s", c.ID, ws.ActionTaskMoved, got.Action)
		}
	}
	if len(c3.send) != 0 {
		t.Errorf("client on another board received %d frames", len(c3.send))
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub, log := newTestHub(t)

	c := NewClient("c1", "u1", nil, hub, log)
	hub.SubscribeToBoard(c, "board-1")
	hub.UnsubscribeFromBoard(c, "board-1")

	msg, err := ws.NewNotification(ws.ActionTaskMoved, nil)
	if err != nil {
		t.Fatalf("notification: %v", err)
	}
	hub.BroadcastToBoard("board-1", msg)

	if len(c.send) != 0 {
		t.Errorf("unsubscribed client received %d frames", len(c.send))
	}
}

func TestHub_BroadcastDuringSubscriptionChurn(t *testing.T) {
	hub, log := newTestHub(t)

	msg, err := ws.NewNotification(ws.ActionTaskMoved, nil)
	if err != nil {
		t.Fatalf("notification: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			c := NewClient(fmt.Sprintf("c%d", i), "u", nil, hub, log)
			hub.SubscribeToBoard(c, "board-1")
			hub.UnsubscribeFromBoard(c, "board-1")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			hub.BroadcastToBoard("board-1", msg)
		}
	}()
	wg.Wait()
}
