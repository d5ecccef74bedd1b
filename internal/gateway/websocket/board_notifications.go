package websocket

import (
	"context"

	"go.uber.org/zap"

	"github.com/cardwall/cardwall/internal/common/logger"
	"github.com/cardwall/cardwall/internal/events"
	"github.com/cardwall/cardwall/internal/events/bus"
	ws "github.com/cardwall/cardwall/pkg/ws"
)

// BoardEventBroadcaster forwards bus events to the WebSocket clients
// subscribed to the board each event concerns.
type BoardEventBroadcaster struct {
	hub           *Hub
	subscriptions []bus.Subscription
	logger        *logger.Logger
}

// RegisterBoardNotifications wires every board-scoped event type to the hub.
// Subscriptions are dropped when ctx is cancelled.
func RegisterBoardNotifications(ctx context.Context, eventBus bus.EventBus, hub *Hub, log *logger.Logger) *BoardEventBroadcaster {
	b := &BoardEventBroadcaster{
		hub:    hub,
		logger: log.WithFields(zap.String("component", "ws_board_broadcaster")),
	}
	if eventBus == nil {
		return b
	}

	b.subscribe(eventBus, events.BoardUpdated, ws.ActionBoardUpdated)
	b.subscribe(eventBus, events.BoardDeleted, ws.ActionBoardDeleted)
	b.subscribe(eventBus, events.ListCreated, ws.ActionListCreated)
	b.subscribe(eventBus, events.ListUpdated, ws.ActionListUpdated)
	b.subscribe(eventBus, events.ListDeleted, ws.ActionListDeleted)
	b.subscribe(eventBus, events.ListMoved, ws.ActionListMoved)
	b.subscribe(eventBus, events.TaskCreated, ws.ActionTaskCreated)
	b.subscribe(eventBus, events.TaskUpdated, ws.ActionTaskUpdated)
	b.subscribe(eventBus, events.TaskDeleted, ws.ActionTaskDeleted)
	b.subscribe(eventBus, events.TaskMoved, ws.ActionTaskMoved)
	b.subscribe(eventBus, events.MemberAdded, ws.ActionMemberAdded)
	b.subscribe(eventBus, events.MemberRemoved, ws.ActionMemberRemoved)
	b.subscribe(eventBus, events.ActivityRecorded, ws.ActionActivityRecorded)

	go func() {
		<-ctx.Done()
		b.Close()
	}()

	return b
}

// Close drops all bus subscriptions.
func (b *BoardEventBroadcaster) Close() {
	for _, sub := range b.subscriptions {
		if sub != nil && sub.IsValid() {
			_ = sub.Unsubscribe()
		}
	}
	b.subscriptions = nil
}

func (b *BoardEventBroadcaster) subscribe(eventBus bus.EventBus, subject, action string) {
	sub, err := eventBus.Subscribe(subject, func(ctx context.Context, event *bus.Event) error {
		msg, err := ws.NewNotification(action, event.Data)
		if err != nil {
			b.logger.Error("failed to build websocket notification",
				zap.String("action", action),
				zap.Error(err))
			return nil
		}

		boardID, _ := event.Data["board_id"].(string)
		if boardID == "" {
			b.logger.Warn("event without board_id dropped", zap.String("action", action))
			return nil
		}

		b.hub.BroadcastToBoard(boardID, msg)
		return nil
	})
	if err != nil {
		b.logger.Error("failed to subscribe to events",
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	b.subscriptions = append(b.subscriptions, sub)
}
