package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cardwall/cardwall/internal/common/logger"
)

func newTestBus(t *testing.T) *MemoryEventBus {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json", OutputPath: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewMemoryEventBus(log)
}

// collector gathers delivered events for assertions across goroutines.
type collector struct {
	mu     sync.Mutex
	events []*Event
}

func (c *collector) handler(ctx context.Context, event *Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return nil
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestMemoryBus_PublishSubscribe(t *testing.T) {
	b := newTestBus(t)
	defer b.Close()

	var c collector
	if _, err := b.Subscribe("task.moved", c.handler); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	event := NewEvent("task.moved", "test", map[string]interface{}{"task_id": "t1"})
	if err := b.Publish(context.Background(), "task.moved", event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitFor(t, func() bool { return c.count() == 1 })
}

func TestMemoryBus_ExactSubjectNoCrosstalk(t *testing.T) {
	b := newTestBus(t)
	defer b.Close()

	var c collector
	if _, err := b.Subscribe("task.moved", c.handler); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	event := NewEvent("task.created", "test", nil)
	if err := b.Publish(context.Background(), "task.created", event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if c.count() != 0 {
		t.Errorf("expected no delivery, got %d", c.count())
	}
}

func TestMemoryBus_SingleTokenWildcard(t *testing.T) {
	b := newTestBus(t)
	defer b.Close()

	var c collector
	if _, err := b.Subscribe("task.*", c.handler); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for _, subject := range []string{"task.moved", "task.created"} {
		if err := b.Publish(context.Background(), subject, NewEvent(subject, "test", nil)); err != nil {
			t.Fatalf("publish %s: %v", subject, err)
		}
	}
	// Should not match: wildcard covers a single token.
	if err := b.Publish(context.Background(), "task.moved.extra", NewEvent("x", "test", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}

	waitFor(t, func() bool { return c.count() == 2 })
	time.Sleep(50 * time.Millisecond)
	if c.count() != 2 {
		t.Errorf("expected 2 deliveries, got %d", c.count())
	}
}

func TestMemoryBus_MultiTokenWildcard(t *testing.T) {
	b := newTestBus(t)
	defer b.Close()

	var c collector
	if _, err := b.Subscribe("board.>", c.handler); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for _, subject := range []string{"board.created", "board.member.added"} {
		if err := b.Publish(context.Background(), subject, NewEvent(subject, "test", nil)); err != nil {
			t.Fatalf("publish %s: %v", subject, err)
		}
	}

	waitFor(t, func() bool { return c.count() == 2 })
}

func TestMemoryBus_QueueGroupDeliversOnce(t *testing.T) {
	b := newTestBus(t)
	defer b.Close()

	var c1, c2 collector
	if _, err := b.QueueSubscribe("task.moved", "workers", c1.handler); err != nil {
		t.Fatalf("queue subscribe: %v", err)
	}
	if _, err := b.QueueSubscribe("task.moved", "workers", c2.handler); err != nil {
		t.Fatalf("queue subscribe: %v", err)
	}

	for i := 0; i < 4; i++ {
		if err := b.Publish(context.Background(), "task.moved", NewEvent("task.moved", "test", nil)); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}

	waitFor(t, func() bool { return c1.count()+c2.count() == 4 })
	// Round-robin splits the load.
	if c1.count() != 2 || c2.count() != 2 {
		t.Errorf("expected 2/2 split, got %d/%d", c1.count(), c2.count())
	}
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	b := newTestBus(t)
	defer b.Close()

	var c collector
	sub, err := b.Subscribe("task.moved", c.handler)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !sub.IsValid() {
		t.Fatal("subscription should be valid")
	}
	if err := sub.Unsubscribe(); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if sub.IsValid() {
		t.Fatal("subscription should be invalid after unsubscribe")
	}

	if err := b.Publish(context.Background(), "task.moved", NewEvent("task.moved", "test", nil)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if c.count() != 0 {
		t.Errorf("expected no delivery after unsubscribe, got %d", c.count())
	}
}

func TestMemoryBus_ClosedBusRejectsPublish(t *testing.T) {
	b := newTestBus(t)
	b.Close()

	if b.IsConnected() {
		t.Error("closed bus should not report connected")
	}
	if err := b.Publish(context.Background(), "task.moved", NewEvent("task.moved", "test", nil)); err == nil {
		t.Error("expected error publishing to closed bus")
	}
}
